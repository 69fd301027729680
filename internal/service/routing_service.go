package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/observability"
)

// DepartmentRouter decides IT vs HR for an accepted ticket. Route is a
// pure function over its inputs: no side effects, safe to call again for
// an agent-triggered reassignment.
type DepartmentRouter struct {
	classifier ai.Classifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDepartmentRouter constructs the router.
func NewDepartmentRouter(classifier ai.Classifier, metrics *observability.Metrics, logger *zap.Logger) *DepartmentRouter {
	return &DepartmentRouter{
		classifier: classifier,
		metrics:    metrics,
		logger:     logger.Named("routing"),
	}
}

// Route always returns IT or HR; the fallback guarantee in the adapter
// means there is no error path. The full classification result is
// returned so callers can retain confidence and rationale for audit.
func (r *DepartmentRouter) Route(ctx context.Context, title, description string) (domain.Department, ai.Result) {
	result := r.classifier.Classify(ctx, ai.Request{
		Kind:    ai.KindRouting,
		Subject: title + "\n\n" + description,
	})
	if result.Degraded {
		r.metrics.RecordDegraded("routing")
	}

	dept := domain.DepartmentIT
	if result.Label == ai.LabelHR {
		dept = domain.DepartmentHR
	}

	r.logger.Info("ticket routed",
		zap.String("department", string(dept)),
		zap.Float64("confidence", result.Confidence),
		zap.String("rationale", result.Rationale),
		zap.Bool("degraded", result.Degraded))
	return dept, result
}

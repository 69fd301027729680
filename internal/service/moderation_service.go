package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/config"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/observability"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// ModerationGate screens ticket submissions before persistence. A
// rejection writes a Violation audit row and surfaces a structured
// CONTENT_REJECTED error; an acceptance passes control to the router.
// Each submission attempt gets its own independent decision and audit
// trail.
type ModerationGate struct {
	classifier ai.Classifier
	violations repository.ViolationRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.AIConfig
}

// NewModerationGate constructs the gate.
func NewModerationGate(classifier ai.Classifier, violations repository.ViolationRepository, metrics *observability.Metrics, logger *zap.Logger, cfg config.AIConfig) *ModerationGate {
	return &ModerationGate{
		classifier: classifier,
		violations: violations,
		metrics:    metrics,
		logger:     logger.Named("moderation"),
		cfg:        cfg,
	}
}

var userFacingRejection = map[domain.ViolationType]string{
	domain.ViolationProfanity:     "Your submission contains language that is not allowed. Please rephrase and try again.",
	domain.ViolationSpam:          "Your submission was flagged as spam. If this is a genuine request, please rephrase it.",
	domain.ViolationInappropriate: "Your submission contains inappropriate content and cannot be accepted.",
	domain.ViolationHarassment:    "Your submission was flagged as harassment and cannot be accepted.",
	domain.ViolationHateSpeech:    "Your submission was flagged as hate speech and cannot be accepted.",
}

// Screen classifies title+description and either accepts or rejects the
// submission. It never fails on classifier unavailability; the configured
// fail-open/fail-closed fallback decides instead.
func (g *ModerationGate) Screen(ctx context.Context, userID, title, description string) error {
	result := g.classifier.Classify(ctx, ai.Request{
		Kind:    ai.KindModeration,
		Subject: title + "\n\n" + description,
	})
	if result.Degraded {
		g.metrics.RecordDegraded("moderation")
		g.logger.Warn("moderation decision degraded",
			zap.String("user_id", userID),
			zap.String("label", result.Label),
			zap.String("rationale", result.Rationale))
	}

	if result.Label == ai.LabelSafe || result.Confidence < g.cfg.ModerationThreshold {
		return nil
	}

	violationType := domain.ViolationType(result.Label)
	severity := domain.ViolationSeverity(result.Severity)
	if severity == "" {
		severity = domain.SeverityMedium
	}

	violation := &domain.Violation{
		UserID:               userID,
		ViolationType:        violationType,
		Severity:             severity,
		AttemptedTitle:       title,
		AttemptedDescription: description,
		DetectionReason:      result.Rationale,
		Confidence:           result.Confidence,
	}
	if err := g.violations.Create(ctx, violation); err != nil {
		// The rejection still stands; losing the audit row is logged
		// loudly but must not let the content through.
		g.logger.Error("failed to persist violation",
			zap.String("user_id", userID), zap.Error(err))
	}

	g.logger.Info("submission rejected",
		zap.String("user_id", userID),
		zap.String("violation_type", string(violationType)),
		zap.String("severity", string(severity)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("degraded", result.Degraded))

	message, ok := userFacingRejection[violationType]
	if !ok {
		message = "Your submission cannot be accepted."
	}
	return apperrors.NewContentRejected(string(violationType), message)
}

// ViolationCount reports how many violations a user has accumulated. Used
// for misuse flagging of repeat offenders.
func (g *ModerationGate) ViolationCount(ctx context.Context, userID string) (int, error) {
	return g.violations.CountByUser(ctx, userID)
}

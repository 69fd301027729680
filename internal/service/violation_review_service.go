package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
)

// ViolationReviewService exposes the admin review surface over the
// append-only violation store.
type ViolationReviewService struct {
	violations repository.ViolationRepository
	logger     *zap.Logger
}

// NewViolationReviewService creates the service.
func NewViolationReviewService(violations repository.ViolationRepository, logger *zap.Logger) *ViolationReviewService {
	return &ViolationReviewService{
		violations: violations,
		logger:     logger.Named("violations"),
	}
}

// List returns violations matching the filter.
func (s *ViolationReviewService) List(ctx context.Context, filter repository.ViolationFilter) ([]domain.Violation, error) {
	return s.violations.List(ctx, filter)
}

// MarkReviewed records the admin review action on a violation. This is
// the only mutation a violation row ever sees.
func (s *ViolationReviewService) MarkReviewed(ctx context.Context, id, actionTaken string) error {
	if err := s.violations.MarkReviewed(ctx, id, actionTaken); err != nil {
		return err
	}
	s.logger.Info("violation reviewed",
		zap.String("violation_id", id),
		zap.String("action_taken", actionTaken))
	return nil
}

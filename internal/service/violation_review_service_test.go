package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
)

func TestMarkReviewed_SetsActionTaken(t *testing.T) {
	repo := &mockViolationRepo{}
	require.NoError(t, repo.Create(context.Background(), &domain.Violation{
		UserID:        "user-1",
		ViolationType: domain.ViolationSpam,
		Severity:      domain.SeverityMedium,
	}))
	svc := NewViolationReviewService(repo, zap.NewNop())

	require.NoError(t, svc.MarkReviewed(context.Background(), repo.violations[0].ID, "warned user"))

	reviewed := true
	listed, err := svc.List(context.Background(), repository.ViolationFilter{AdminReviewed: &reviewed})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].ActionTaken)
	assert.Equal(t, "warned user", *listed[0].ActionTaken)
}

func TestMarkReviewed_UnknownViolation(t *testing.T) {
	svc := NewViolationReviewService(&mockViolationRepo{}, zap.NewNop())
	require.Error(t, svc.MarkReviewed(context.Background(), "missing", "ignored"))
}

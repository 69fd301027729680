package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

// ViolationFilter captures listing parameters for admin review.
type ViolationFilter struct {
	UserID        *string
	AdminReviewed *bool
	Limit         int
	Offset        int
}

// ViolationRepository is the append-only store of moderation rejections.
// Rows are created only by the moderation gate and mutated only by the
// admin review action.
type ViolationRepository interface {
	Create(ctx context.Context, violation *domain.Violation) error
	List(ctx context.Context, filter ViolationFilter) ([]domain.Violation, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	MarkReviewed(ctx context.Context, id string, actionTaken string) error
}

type violationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository instantiates the repository.
func NewViolationRepository(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepository{pool: pool}
}

const violationColumns = `id, user_id, violation_type, severity, attempted_title,
               attempted_description, detection_reason, confidence, admin_reviewed, action_taken, created_at`

func (r *violationRepository) Create(ctx context.Context, violation *domain.Violation) error {
	const query = `
        INSERT INTO violations (user_id, violation_type, severity, attempted_title, attempted_description, detection_reason, confidence)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		violation.UserID,
		violation.ViolationType,
		violation.Severity,
		violation.AttemptedTitle,
		violation.AttemptedDescription,
		violation.DetectionReason,
		violation.Confidence,
	).Scan(&violation.ID, &violation.CreatedAt)
}

func (r *violationRepository) List(ctx context.Context, filter ViolationFilter) ([]domain.Violation, error) {
	base := `SELECT ` + violationColumns + ` FROM violations`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.AdminReviewed != nil {
		args = append(args, *filter.AdminReviewed)
		clauses = append(clauses, fmt.Sprintf("admin_reviewed=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Violation
	for rows.Next() {
		var v domain.Violation
		if err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.ViolationType,
			&v.Severity,
			&v.AttemptedTitle,
			&v.AttemptedDescription,
			&v.DetectionReason,
			&v.Confidence,
			&v.AdminReviewed,
			&v.ActionTaken,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *violationRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM violations WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *violationRepository) MarkReviewed(ctx context.Context, id string, actionTaken string) error {
	const query = `UPDATE violations SET admin_reviewed=TRUE, action_taken=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, actionTaken, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// AwardBadge records the (child, badge) pair at most once. The primary key
// on child_badges makes a repeated award a no-op reported as
// ErrBadgeAlreadyAwarded, so concurrent evaluations cannot double-award.
func (r *Repository) AwardBadge(ctx context.Context, childID uuid.UUID, badgeID string) error {
	query, args, err := squirrel.
		Insert("child_badges").
		Columns("child_id", "badge_id").
		Values(childID, badgeID).
		Suffix("ON CONFLICT (child_id, badge_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build badge insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBadgeAlreadyAwarded
	}

	return nil
}

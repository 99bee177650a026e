package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chorequest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type reward struct {
	ID         uuid.UUID      `db:"id"`
	ParentID   uuid.UUID      `db:"parent_id"`
	Title      string         `db:"title"`
	Cost       int            `db:"cost"`
	AssignedTo pq.StringArray `db:"assigned_to"`
	Active     bool           `db:"active"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (rw *reward) toModel() (*model.Reward, error) {
	assigned, err := parseUUIDs(rw.AssignedTo)
	if err != nil {
		return nil, err
	}

	return &model.Reward{
		ID:         rw.ID,
		ParentID:   rw.ParentID,
		Title:      rw.Title,
		Cost:       rw.Cost,
		AssignedTo: assigned,
		Active:     rw.Active,
		CreatedAt:  rw.CreatedAt,
	}, nil
}

type redemption struct {
	ID         uuid.UUID `db:"id"`
	RewardID   uuid.UUID `db:"reward_id"`
	ChildID    uuid.UUID `db:"child_id"`
	CostPaid   int       `db:"cost_paid"`
	RedeemedAt time.Time `db:"redeemed_at"`
}

func (r *Repository) CreateReward(ctx context.Context, rw *model.Reward) error {
	query, args, err := squirrel.
		Insert("rewards").
		SetMap(map[string]interface{}{
			"id":          rw.ID,
			"parent_id":   rw.ParentID,
			"title":       rw.Title,
			"cost":        rw.Cost,
			"assigned_to": uuidStrings(rw.AssignedTo),
			"active":      rw.Active,
			"created_at":  rw.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reward insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert reward: %w", err)
	}

	return nil
}

func (r *Repository) GetRewardByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "cost", "assigned_to", "active", "created_at").
		From("rewards").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rw reward
	err = r.db.GetContext(ctx, &rw, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	return rw.toModel()
}

func (r *Repository) UpdateReward(ctx context.Context, rw *model.Reward) error {
	query, args, err := squirrel.
		Update("rewards").
		SetMap(map[string]interface{}{
			"title":       rw.Title,
			"cost":        rw.Cost,
			"assigned_to": uuidStrings(rw.AssignedTo),
			"active":      rw.Active,
		}).
		Where(squirrel.Eq{"id": rw.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) SetRewardActive(ctx context.Context, id uuid.UUID, active bool) error {
	query, args, err := squirrel.
		Update("rewards").
		Set("active", active).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) ListRewardsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Reward, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "cost", "assigned_to", "active", "created_at").
		From("rewards").
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*reward
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}

	rewards := make([]*model.Reward, len(rows))
	for i, rw := range rows {
		rewards[i], err = rw.toModel()
		if err != nil {
			return nil, err
		}
	}

	return rewards, nil
}

func (r *Repository) ListRewardsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Reward, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "cost", "assigned_to", "active", "created_at").
		From("rewards").
		Where(squirrel.Expr("assigned_to @> ARRAY[?]::text[]", childID.String())).
		Where(squirrel.Eq{"active": true}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*reward
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards for child: %w", err)
	}

	rewards := make([]*model.Reward, len(rows))
	for i, rw := range rows {
		rewards[i], err = rw.toModel()
		if err != nil {
			return nil, err
		}
	}

	return rewards, nil
}

// RedeemReward deducts the balance and records the redemption in one
// transaction. spend re-checks the balance against the locked child row, so
// two racing redemptions cannot both pass the affordability check; either
// both writes land or neither does.
func (r *Repository) RedeemReward(ctx context.Context, red *model.Redemption, spend func(child *model.Child) error) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		child, err := r.getChildForUpdate(ctx, tx, red.ChildID)
		if err != nil {
			return err
		}

		if err := spend(child); err != nil {
			return err
		}

		if err := r.updateChildTx(ctx, tx, child); err != nil {
			return err
		}

		query, args, err := squirrel.
			Insert("redemptions").
			SetMap(map[string]interface{}{
				"id":          red.ID,
				"reward_id":   red.RewardID,
				"child_id":    red.ChildID,
				"cost_paid":   red.CostPaid,
				"redeemed_at": red.RedeemedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build redemption insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert redemption: %w", err)
		}

		return nil
	})
}

func (r *Repository) ListRedemptionsByChild(ctx context.Context, childID uuid.UUID) ([]*model.Redemption, error) {
	query, args, err := squirrel.
		Select("id", "reward_id", "child_id", "cost_paid", "redeemed_at").
		From("redemptions").
		Where(squirrel.Eq{"child_id": childID}).
		OrderBy("redeemed_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*redemption
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}

	redemptions := make([]*model.Redemption, len(rows))
	for i, red := range rows {
		redemptions[i] = &model.Redemption{
			ID:         red.ID,
			RewardID:   red.RewardID,
			ChildID:    red.ChildID,
			CostPaid:   red.CostPaid,
			RedeemedAt: red.RedeemedAt,
		}
	}

	return redemptions, nil
}

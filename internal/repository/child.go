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

type child struct {
	ID                 uuid.UUID  `db:"id"`
	ParentID           uuid.UUID  `db:"parent_id"`
	Name               string     `db:"name"`
	Avatar             string     `db:"avatar"`
	XP                 int        `db:"xp"`
	Level              int        `db:"level"`
	CurrentStreak      int        `db:"current_streak"`
	LongestStreak      int        `db:"longest_streak"`
	LastCompletionDate *time.Time `db:"last_completion_date"`
	CreatedAt          time.Time  `db:"created_at"`
}

type childWithBadges struct {
	child
	Badges pq.StringArray `db:"badges"`
}

func (c *child) toModel() *model.Child {
	return &model.Child{
		ID:                 c.ID,
		ParentID:           c.ParentID,
		Name:               c.Name,
		Avatar:             c.Avatar,
		XP:                 c.XP,
		Level:              c.Level,
		CurrentStreak:      c.CurrentStreak,
		LongestStreak:      c.LongestStreak,
		LastCompletionDate: c.LastCompletionDate,
		CreatedAt:          c.CreatedAt,
	}
}

func (r *Repository) CreateChild(ctx context.Context, c *model.Child) error {
	query, args, err := squirrel.
		Insert("children").
		SetMap(map[string]interface{}{
			"id":                   c.ID,
			"parent_id":            c.ParentID,
			"name":                 c.Name,
			"avatar":               c.Avatar,
			"xp":                   c.XP,
			"level":                c.Level,
			"current_streak":       c.CurrentStreak,
			"longest_streak":       c.LongestStreak,
			"last_completion_date": c.LastCompletionDate,
			"created_at":           c.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build child insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert child: %w", err)
	}

	return nil
}

func (r *Repository) GetChildByID(ctx context.Context, id uuid.UUID) (*model.Child, error) {
	query, args, err := squirrel.
		Select("c.id", "c.parent_id", "c.name", "c.avatar", "c.xp", "c.level",
			"c.current_streak", "c.longest_streak", "c.last_completion_date", "c.created_at",
			"COALESCE(array_agg(cb.badge_id) FILTER (WHERE cb.badge_id IS NOT NULL), '{}') as badges").
		From("children c").
		LeftJoin("child_badges cb ON cb.child_id = c.id").
		Where(squirrel.Eq{"c.id": id}).
		GroupBy("c.id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row childWithBadges
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get child: %w", err)
	}

	c := row.child.toModel()
	c.Badges = row.Badges
	return c, nil
}

func (r *Repository) ListChildrenByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Child, error) {
	query, args, err := squirrel.
		Select("c.id", "c.parent_id", "c.name", "c.avatar", "c.xp", "c.level",
			"c.current_streak", "c.longest_streak", "c.last_completion_date", "c.created_at",
			"COALESCE(array_agg(cb.badge_id) FILTER (WHERE cb.badge_id IS NOT NULL), '{}') as badges").
		From("children c").
		LeftJoin("child_badges cb ON cb.child_id = c.id").
		Where(squirrel.Eq{"c.parent_id": parentID}).
		GroupBy("c.id").
		OrderBy("c.created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*childWithBadges
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	children := make([]*model.Child, len(rows))
	for i, row := range rows {
		c := row.child.toModel()
		c.Badges = row.Badges
		children[i] = c
	}

	return children, nil
}

// UpdateChildLocked runs fn against the child row while it is locked, then
// writes the mutated progression fields back. This is the single
// read-modify-write primitive every XP/streak/balance change goes through.
func (r *Repository) UpdateChildLocked(ctx context.Context, childID uuid.UUID, fn func(child *model.Child) error) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		child, err := r.getChildForUpdate(ctx, tx, childID)
		if err != nil {
			return err
		}

		if err := fn(child); err != nil {
			return err
		}

		return r.updateChildTx(ctx, tx, child)
	})
}

func (r *Repository) getChildForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Child, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "name", "avatar", "xp", "level",
			"current_streak", "longest_streak", "last_completion_date", "created_at").
		From("children").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c child
	err = tx.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock child row: %w", err)
	}

	return c.toModel(), nil
}

func (r *Repository) updateChildTx(ctx context.Context, tx *sqlx.Tx, c *model.Child) error {
	query, args, err := squirrel.
		Update("children").
		SetMap(map[string]interface{}{
			"xp":                   c.XP,
			"level":                c.Level,
			"current_streak":       c.CurrentStreak,
			"longest_streak":       c.LongestStreak,
			"last_completion_date": c.LastCompletionDate,
		}).
		Where(squirrel.Eq{"id": c.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
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

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
	"github.com/lib/pq"
)

type quest struct {
	ID          uuid.UUID      `db:"id"`
	ParentID    uuid.UUID      `db:"parent_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	XPReward    int            `db:"xp_reward"`
	Type        string         `db:"quest_type"`
	Frequency   *string        `db:"frequency"`
	AssignedTo  pq.StringArray `db:"assigned_to"`
	Active      bool           `db:"active"`
	CreatedAt   time.Time      `db:"created_at"`
}

func uuidStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw pq.StringArray) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse uuid %q: %w", s, err)
		}
		out[i] = id
	}
	return out, nil
}

func (q *quest) toModel() (*model.Quest, error) {
	assigned, err := parseUUIDs(q.AssignedTo)
	if err != nil {
		return nil, err
	}

	var freq *model.Frequency
	if q.Frequency != nil {
		f := model.Frequency(*q.Frequency)
		freq = &f
	}

	return &model.Quest{
		ID:          q.ID,
		ParentID:    q.ParentID,
		Title:       q.Title,
		Description: q.Description,
		XPReward:    q.XPReward,
		Type:        model.QuestType(q.Type),
		Frequency:   freq,
		AssignedTo:  assigned,
		Active:      q.Active,
		CreatedAt:   q.CreatedAt,
	}, nil
}

func (r *Repository) CreateQuest(ctx context.Context, q *model.Quest) error {
	var freq *string
	if q.Frequency != nil {
		f := string(*q.Frequency)
		freq = &f
	}

	query, args, err := squirrel.
		Insert("quests").
		SetMap(map[string]interface{}{
			"id":          q.ID,
			"parent_id":   q.ParentID,
			"title":       q.Title,
			"description": q.Description,
			"xp_reward":   q.XPReward,
			"quest_type":  string(q.Type),
			"frequency":   freq,
			"assigned_to": uuidStrings(q.AssignedTo),
			"active":      q.Active,
			"created_at":  q.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}

	return nil
}

func (r *Repository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "description", "xp_reward",
			"quest_type", "frequency", "assigned_to", "active", "created_at").
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var q quest
	err = r.db.GetContext(ctx, &q, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	return q.toModel()
}

func (r *Repository) UpdateQuest(ctx context.Context, q *model.Quest) error {
	var freq *string
	if q.Frequency != nil {
		f := string(*q.Frequency)
		freq = &f
	}

	query, args, err := squirrel.
		Update("quests").
		SetMap(map[string]interface{}{
			"title":       q.Title,
			"description": q.Description,
			"xp_reward":   q.XPReward,
			"frequency":   freq,
			"assigned_to": uuidStrings(q.AssignedTo),
			"active":      q.Active,
		}).
		Where(squirrel.Eq{"id": q.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
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

func (r *Repository) SetQuestActive(ctx context.Context, id uuid.UUID, active bool) error {
	query, args, err := squirrel.
		Update("quests").
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

func (r *Repository) ListQuestsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "description", "xp_reward",
			"quest_type", "frequency", "assigned_to", "active", "created_at").
		From("quests").
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var dbQuests []*quest
	err = r.db.SelectContext(ctx, &dbQuests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]*model.Quest, len(dbQuests))
	for i, q := range dbQuests {
		quests[i], err = q.toModel()
		if err != nil {
			return nil, err
		}
	}

	return quests, nil
}

func (r *Repository) ListQuestsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select("id", "parent_id", "title", "description", "xp_reward",
			"quest_type", "frequency", "assigned_to", "active", "created_at").
		From("quests").
		Where(squirrel.Expr("assigned_to @> ARRAY[?]::text[]", childID.String())).
		Where(squirrel.Eq{"active": true}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var dbQuests []*quest
	err = r.db.SelectContext(ctx, &dbQuests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests for child: %w", err)
	}

	quests := make([]*model.Quest, len(dbQuests))
	for i, q := range dbQuests {
		quests[i], err = q.toModel()
		if err != nil {
			return nil, err
		}
	}

	return quests, nil
}

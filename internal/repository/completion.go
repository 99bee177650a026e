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
)

type completion struct {
	ID            uuid.UUID  `db:"id"`
	QuestID       uuid.UUID  `db:"quest_id"`
	ChildID       uuid.UUID  `db:"child_id"`
	OccurrenceKey *string    `db:"occurrence_key"`
	State         string     `db:"state"`
	ClaimedAt     time.Time  `db:"claimed_at"`
	VerifiedAt    *time.Time `db:"verified_at"`
	RejectedAt    *time.Time `db:"rejected_at"`
	RejectReason  *string    `db:"reject_reason"`
}

func (c *completion) toModel() *model.Completion {
	return &model.Completion{
		ID:            c.ID,
		QuestID:       c.QuestID,
		ChildID:       c.ChildID,
		OccurrenceKey: c.OccurrenceKey,
		State:         model.CompletionState(c.State),
		ClaimedAt:     c.ClaimedAt,
		VerifiedAt:    c.VerifiedAt,
		RejectedAt:    c.RejectedAt,
		RejectReason:  c.RejectReason,
	}
}

// ClaimCompletion inserts the pending record for one occurrence, or reopens
// a rejected one. The unique index on (quest_id, child_id, occurrence_key)
// makes a duplicate claim fail instead of creating a second record; the
// conflict row's id is written back into c.
func (r *Repository) ClaimCompletion(ctx context.Context, c *model.Completion) error {
	query, args, err := squirrel.
		Insert("completions").
		Columns("id", "quest_id", "child_id", "occurrence_key", "state", "claimed_at").
		Values(c.ID, c.QuestID, c.ChildID, c.OccurrenceKey, string(model.CompletionPendingVerification), c.ClaimedAt).
		Suffix(`ON CONFLICT (quest_id, child_id, COALESCE(occurrence_key, ''))
			DO UPDATE SET
				state = EXCLUDED.state,
				claimed_at = EXCLUDED.claimed_at,
				rejected_at = NULL,
				reject_reason = NULL
			WHERE completions.state = ?
			RETURNING id`, string(model.CompletionRejected)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build claim query: %w", err)
	}

	var id uuid.UUID
	err = r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Neither inserted nor reopened: the occurrence is already
			// pending or completed.
			return ErrAlreadyClaimed
		}
		return fmt.Errorf("failed to claim completion: %w", err)
	}

	c.ID = id
	c.State = model.CompletionPendingVerification
	return nil
}

func (r *Repository) GetCompletionByID(ctx context.Context, id uuid.UUID) (*model.Completion, error) {
	query, args, err := squirrel.
		Select("id", "quest_id", "child_id", "occurrence_key", "state",
			"claimed_at", "verified_at", "rejected_at", "reject_reason").
		From("completions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c completion
	err = r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	return c.toModel(), nil
}

// VerifyCompletion moves a pending completion to completed and applies the
// award to the child inside the same transaction. The child row is locked
// before award mutates it, so a concurrent verify or redeem cannot interleave.
// Only the first writer wins the state transition; the loser gets
// ErrStaleState.
func (r *Repository) VerifyCompletion(ctx context.Context, completionID uuid.UUID, verifiedAt time.Time, childID uuid.UUID, award func(child *model.Child) error) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("completions").
			Set("state", string(model.CompletionCompleted)).
			Set("verified_at", verifiedAt).
			Where(squirrel.Eq{
				"id":    completionID,
				"state": string(model.CompletionPendingVerification),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update completion state: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return r.diagnoseTransition(ctx, tx, completionID)
		}

		child, err := r.getChildForUpdate(ctx, tx, childID)
		if err != nil {
			return err
		}

		if err := award(child); err != nil {
			return err
		}

		return r.updateChildTx(ctx, tx, child)
	})
}

func (r *Repository) RejectCompletion(ctx context.Context, completionID uuid.UUID, rejectedAt time.Time, reason *string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("completions").
			Set("state", string(model.CompletionRejected)).
			Set("rejected_at", rejectedAt).
			Set("reject_reason", reason).
			Where(squirrel.Eq{
				"id":    completionID,
				"state": string(model.CompletionPendingVerification),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update completion state: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return r.diagnoseTransition(ctx, tx, completionID)
		}

		return nil
	})
}

// diagnoseTransition explains a conditional update that touched no rows:
// either the completion does not exist or another writer moved it out of
// pending first.
func (r *Repository) diagnoseTransition(ctx context.Context, tx *sqlx.Tx, completionID uuid.UUID) error {
	query, args, err := squirrel.
		Select("state").
		From("completions").
		Where(squirrel.Eq{"id": completionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var state string
	err = tx.GetContext(ctx, &state, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check completion state: %w", err)
	}

	return ErrStaleState
}

func (r *Repository) ListPendingByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Completion, error) {
	query, args, err := squirrel.
		Select("c.id", "c.quest_id", "c.child_id", "c.occurrence_key", "c.state",
			"c.claimed_at", "c.verified_at", "c.rejected_at", "c.reject_reason").
		From("completions c").
		Join("children ch ON ch.id = c.child_id").
		Where(squirrel.Eq{
			"ch.parent_id": parentID,
			"c.state":      string(model.CompletionPendingVerification),
		}).
		OrderBy("c.claimed_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var dbCompletions []*completion
	err = r.db.SelectContext(ctx, &dbCompletions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending completions: %w", err)
	}

	completions := make([]*model.Completion, len(dbCompletions))
	for i, c := range dbCompletions {
		completions[i] = c.toModel()
	}

	return completions, nil
}

func (r *Repository) CountCompletedQuests(ctx context.Context, childID uuid.UUID) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("completions").
		Where(squirrel.Eq{
			"child_id": childID,
			"state":    string(model.CompletionCompleted),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed quests: %w", err)
	}

	return count, nil
}

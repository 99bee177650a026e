package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chorequest/internal/model"
	"chorequest/internal/repository"

	"github.com/google/uuid"
)

type QuestService struct {
	repo     QuestRepository
	children ChildRepository
	ledger   *ProgressionLedger
	badges   *BadgeEvaluator
	notifier Notifier
}

func NewQuestService(repo QuestRepository, children ChildRepository, ledger *ProgressionLedger, badges *BadgeEvaluator, notifier Notifier) *QuestService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &QuestService{
		repo:     repo,
		children: children,
		ledger:   ledger,
		badges:   badges,
		notifier: notifier,
	}
}

// VerifyResult tells the caller what a verification changed, so the UI can
// surface celebrations.
type VerifyResult struct {
	CompletionID uuid.UUID
	ChildID      uuid.UUID
	XPAwarded    int
	LevelUp      bool
	NewLevel     int
	Badges       []string
}

func validateQuest(q *model.Quest) error {
	if q.Title == "" {
		return ErrTitleRequired
	}
	if q.XPReward < 0 {
		return ErrInvalidAmount
	}
	if !q.Type.Valid() {
		return fmt.Errorf("%w: unknown quest type %q", ErrInvalidFrequency, q.Type)
	}
	if q.Type == model.QuestTypeRecurring {
		if q.Frequency == nil || !q.Frequency.Valid() {
			return ErrInvalidFrequency
		}
	} else if q.Frequency != nil {
		return ErrInvalidFrequency
	}
	return nil
}

func (s *QuestService) CreateQuest(ctx context.Context, q *model.Quest) (uuid.UUID, error) {
	if err := validateQuest(q); err != nil {
		return uuid.Nil, err
	}

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.Active = true
	q.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateQuest(ctx, q); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create quest: %w", err)
	}

	return q.ID, nil
}

func (s *QuestService) UpdateQuest(ctx context.Context, parentID uuid.UUID, q *model.Quest) error {
	existing, err := s.repo.GetQuestByID(ctx, q.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestNotFound
		}
		return err
	}
	if existing.ParentID != parentID {
		return ErrNotOwner
	}

	// Quest type is fixed at creation; completions reference its occurrences.
	q.Type = existing.Type
	q.ParentID = existing.ParentID
	if err := validateQuest(q); err != nil {
		return err
	}

	if err := s.repo.UpdateQuest(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestNotFound
		}
		return fmt.Errorf("failed to update quest: %w", err)
	}

	return nil
}

// DeactivateQuest soft-deactivates; completed history keeps referencing the
// quest row.
func (s *QuestService) DeactivateQuest(ctx context.Context, parentID, questID uuid.UUID) error {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestNotFound
		}
		return err
	}
	if quest.ParentID != parentID {
		return ErrNotOwner
	}

	return s.repo.SetQuestActive(ctx, questID, false)
}

func (s *QuestService) ListQuests(ctx context.Context, parentID uuid.UUID) ([]*model.Quest, error) {
	return s.repo.ListQuestsByParent(ctx, parentID)
}

func (s *QuestService) ListQuestsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Quest, error) {
	return s.repo.ListQuestsForChild(ctx, childID)
}

// Claim opens a pending completion for the current occurrence. Recurring
// quests re-arm lazily: a claim in a new period simply creates a fresh
// record keyed by that period's occurrence key. Claiming an occurrence that
// is already pending or completed yields ErrAlreadyClaimed, never a second
// record.
func (s *QuestService) Claim(ctx context.Context, questID, childID uuid.UUID, now time.Time) (*model.Completion, error) {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	if !quest.Active {
		return nil, ErrQuestInactive
	}
	if !quest.IsAssignedTo(childID) {
		return nil, ErrNotAssigned
	}

	completion := &model.Completion{
		ID:            uuid.New(),
		QuestID:       questID,
		ChildID:       childID,
		OccurrenceKey: quest.OccurrenceKey(now),
		ClaimedAt:     now.UTC(),
	}

	err = s.repo.ClaimCompletion(ctx, completion)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim quest: %w", err)
	}

	return completion, nil
}

// Verify completes a pending claim: XP award, streak transition and level
// recomputation land in one store transaction with the state flip, then the
// badge catalog is evaluated. Losing a verify/reject race returns
// ErrStaleState and changes nothing.
func (s *QuestService) Verify(ctx context.Context, completionID, parentID uuid.UUID, now time.Time) (*VerifyResult, error) {
	completion, quest, child, err := s.loadForReview(ctx, completionID, parentID)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		CompletionID: completion.ID,
		ChildID:      completion.ChildID,
		XPAwarded:    quest.XPReward,
	}

	award := func(c *model.Child) error {
		c.XP += quest.XPReward
		newLevel := s.ledger.LevelFor(c.XP)
		result.LevelUp = newLevel > c.Level
		result.NewLevel = newLevel
		c.Level = newLevel
		ApplyStreak(c, model.FrequencyDaily, now)
		return nil
	}

	err = s.repo.VerifyCompletion(ctx, completionID, now.UTC(), completion.ChildID, award)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCompletionNotFound
		case errors.Is(err, repository.ErrStaleState):
			return nil, ErrStaleState
		default:
			return nil, fmt.Errorf("failed to verify completion: %w", err)
		}
	}

	badges, err := s.badges.Evaluate(ctx, completion.ChildID)
	if err != nil {
		return nil, err
	}
	result.Badges = badges

	if result.LevelUp {
		s.notifier.Notify(Event{
			Type:     EventLevelUp,
			ParentID: child.ParentID,
			ChildID:  completion.ChildID,
			Payload:  map[string]any{"level": result.NewLevel},
		})
	}
	for _, badgeID := range badges {
		s.notifier.Notify(Event{
			Type:     EventBadgeAwarded,
			ParentID: child.ParentID,
			ChildID:  completion.ChildID,
			Payload:  map[string]any{"badge_id": badgeID},
		})
	}

	return result, nil
}

// Reject returns the occurrence to the child: no XP or streak change, and
// the same occurrence can be claimed again.
func (s *QuestService) Reject(ctx context.Context, completionID, parentID uuid.UUID, reason string, now time.Time) error {
	completion, _, _, err := s.loadForReview(ctx, completionID, parentID)
	if err != nil {
		return err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	err = s.repo.RejectCompletion(ctx, completion.ID, now.UTC(), reasonPtr)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrCompletionNotFound
		case errors.Is(err, repository.ErrStaleState):
			return ErrStaleState
		default:
			return fmt.Errorf("failed to reject completion: %w", err)
		}
	}

	return nil
}

func (s *QuestService) ListPendingVerifications(ctx context.Context, parentID uuid.UUID) ([]*model.Completion, error) {
	return s.repo.ListPendingByParent(ctx, parentID)
}

func (s *QuestService) loadForReview(ctx context.Context, completionID, parentID uuid.UUID) (*model.Completion, *model.Quest, *model.Child, error) {
	completion, err := s.repo.GetCompletionByID(ctx, completionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrCompletionNotFound
		}
		return nil, nil, nil, err
	}

	quest, err := s.repo.GetQuestByID(ctx, completion.QuestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrQuestNotFound
		}
		return nil, nil, nil, err
	}

	child, err := s.children.GetChildByID(ctx, completion.ChildID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrChildNotFound
		}
		return nil, nil, nil, err
	}
	if child.ParentID != parentID {
		return nil, nil, nil, ErrNotOwner
	}

	return completion, quest, child, nil
}

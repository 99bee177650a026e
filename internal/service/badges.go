package service

import (
	"context"
	"errors"
	"fmt"

	"chorequest/internal/model"
	"chorequest/internal/repository"

	"github.com/google/uuid"
)

// DefaultBadgeCatalog is the static badge set. Criteria read the ledger
// snapshot only; they never touch the store.
func DefaultBadgeCatalog() []model.Badge {
	return []model.Badge{
		{
			ID:       "first_quest",
			Name:     "First Quest",
			Category: model.BadgeAchievement,
			XPBonus:  10,
			Criteria: func(p *model.Progress) bool { return p.TotalCompletions >= 1 },
		},
		{
			ID:       "ten_quests",
			Name:     "Ten Quests Done",
			Category: model.BadgeMilestone,
			XPBonus:  25,
			Criteria: func(p *model.Progress) bool { return p.TotalCompletions >= 10 },
		},
		{
			ID:       "fifty_quests",
			Name:     "Quest Master",
			Category: model.BadgeMilestone,
			XPBonus:  100,
			Criteria: func(p *model.Progress) bool { return p.TotalCompletions >= 50 },
		},
		{
			ID:       "week_streak",
			Name:     "Seven Day Streak",
			Category: model.BadgeStreak,
			XPBonus:  50,
			Criteria: func(p *model.Progress) bool { return p.CurrentStreak >= 7 },
		},
		{
			ID:       "month_streak",
			Name:     "Thirty Day Streak",
			Category: model.BadgeStreak,
			XPBonus:  200,
			Criteria: func(p *model.Progress) bool { return p.CurrentStreak >= 30 },
		},
		{
			ID:       "level_five",
			Name:     "Level Five",
			Category: model.BadgeMilestone,
			Criteria: func(p *model.Progress) bool { return p.Level >= 5 },
		},
		{
			ID:       "level_ten",
			Name:     "Level Ten",
			Category: model.BadgeMilestone,
			Criteria: func(p *model.Progress) bool { return p.Level >= 10 },
		},
	}
}

type BadgeEvaluator struct {
	badges   BadgeRepository
	children ChildRepository
	ledger   *ProgressionLedger
	catalog  []model.Badge
}

func NewBadgeEvaluator(badges BadgeRepository, children ChildRepository, ledger *ProgressionLedger, catalog []model.Badge) *BadgeEvaluator {
	if catalog == nil {
		catalog = DefaultBadgeCatalog()
	}
	return &BadgeEvaluator{
		badges:   badges,
		children: children,
		ledger:   ledger,
		catalog:  catalog,
	}
}

// Evaluate awards every catalog badge whose criteria the child now meets.
// The conditional insert keeps each (child, badge) pair at-most-once even
// under concurrent evaluations. XP bonuses go through the ledger and may
// level the child up, but badges unlocked by a bonus are only picked up on
// the next natural trigger; the snapshot is taken once per call.
func (e *BadgeEvaluator) Evaluate(ctx context.Context, childID uuid.UUID) ([]string, error) {
	progress, err := e.snapshot(ctx, childID)
	if err != nil {
		return nil, err
	}

	var awarded []string
	for _, badge := range e.catalog {
		if progress.HasBadge(badge.ID) || !badge.Criteria(progress) {
			continue
		}

		err := e.badges.AwardBadge(ctx, childID, badge.ID)
		if err != nil {
			if errors.Is(err, repository.ErrBadgeAlreadyAwarded) {
				continue
			}
			return awarded, fmt.Errorf("failed to award badge %s: %w", badge.ID, err)
		}

		if badge.XPBonus > 0 {
			if _, _, err := e.ledger.AwardXP(ctx, childID, badge.XPBonus); err != nil {
				return awarded, fmt.Errorf("failed to apply badge bonus: %w", err)
			}
		}

		awarded = append(awarded, badge.ID)
	}

	return awarded, nil
}

func (e *BadgeEvaluator) snapshot(ctx context.Context, childID uuid.UUID) (*model.Progress, error) {
	child, err := e.children.GetChildByID(ctx, childID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}

	total, err := e.children.CountCompletedQuests(ctx, childID)
	if err != nil {
		return nil, err
	}

	return &model.Progress{
		ChildID:          child.ID,
		XP:               child.XP,
		Level:            child.Level,
		CurrentStreak:    child.CurrentStreak,
		LongestStreak:    child.LongestStreak,
		Badges:           child.Badges,
		TotalCompletions: total,
	}, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"chorequest/internal/model"
	"chorequest/internal/repository"

	"github.com/google/uuid"
)

// DefaultLevelThresholds is the XP floor per level: level n requires
// thresholds[n-1] XP. Overridable through configuration.
var DefaultLevelThresholds = []int{0, 100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200, 4000}

type ProgressionLedger struct {
	repo       ChildRepository
	thresholds []int
}

func NewProgressionLedger(repo ChildRepository, thresholds []int) *ProgressionLedger {
	if len(thresholds) == 0 {
		thresholds = DefaultLevelThresholds
	}
	return &ProgressionLedger{
		repo:       repo,
		thresholds: thresholds,
	}
}

func (l *ProgressionLedger) LevelFor(xp int) int {
	level := 1
	for i, floor := range l.thresholds {
		if xp >= floor {
			level = i + 1
		}
	}
	return level
}

// AwardXP atomically adds amount to the child's XP and recomputes the level.
// Reports whether the award crossed a level threshold.
func (l *ProgressionLedger) AwardXP(ctx context.Context, childID uuid.UUID, amount int) (bool, int, error) {
	if amount < 0 {
		return false, 0, ErrInvalidAmount
	}

	var levelUp bool
	var newLevel int
	err := l.repo.UpdateChildLocked(ctx, childID, func(child *model.Child) error {
		child.XP += amount
		newLevel = l.LevelFor(child.XP)
		levelUp = newLevel > child.Level
		child.Level = newLevel
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, 0, ErrChildNotFound
		}
		return false, 0, err
	}

	return levelUp, newLevel, nil
}

// RecordCompletion applies the streak transition for a verified completion
// on date. Child streaks count consecutive days.
func (l *ProgressionLedger) RecordCompletion(ctx context.Context, childID uuid.UUID, date time.Time) error {
	err := l.repo.UpdateChildLocked(ctx, childID, func(child *model.Child) error {
		ApplyStreak(child, model.FrequencyDaily, date)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChildNotFound
		}
		return err
	}

	return nil
}

// ApplyStreak mutates the child's streak counters for a completion on date.
func ApplyStreak(child *model.Child, f model.Frequency, date time.Time) {
	current, longest := NextStreak(f, child.LastCompletionDate, child.CurrentStreak, child.LongestStreak, date)
	child.CurrentStreak = current
	child.LongestStreak = longest
	d := date.UTC().Truncate(24 * time.Hour)
	child.LastCompletionDate = &d
}

// NextStreak is the pure streak transition: a completion in the period right
// after the last one extends the streak, a repeat within the same period
// leaves it unchanged, and any gap resets it to 1. The longest streak never
// decreases.
func NextStreak(f model.Frequency, last *time.Time, current, longest int, date time.Time) (int, int) {
	if last == nil {
		current = 1
	} else {
		switch periodIndex(f, date) - periodIndex(f, *last) {
		case 0:
			// same period, no change
		case 1:
			current++
		default:
			current = 1
		}
	}

	if current > longest {
		longest = current
	}
	return current, longest
}

// StreakActive reports whether the streak is still alive at now, i.e. the
// last completion happened within one period.
func StreakActive(f model.Frequency, last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	diff := periodIndex(f, now) - periodIndex(f, *last)
	return diff >= 0 && diff <= 1
}

// periodIndex numbers periods since the Unix epoch: calendar days (UTC) for
// daily, Monday-aligned ISO weeks for weekly.
func periodIndex(f model.Frequency, t time.Time) int {
	days := int(t.UTC().Unix() / 86400)
	if f == model.FrequencyWeekly {
		// Unix epoch was a Thursday; +3 aligns week boundaries to Monday.
		return (days + 3) / 7
	}
	return days
}

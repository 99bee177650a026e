package model

import (
	"time"

	"github.com/google/uuid"
)

type Child struct {
	ID                 uuid.UUID
	ParentID           uuid.UUID
	Name               string
	Avatar             string
	XP                 int
	Level              int
	CurrentStreak      int
	LongestStreak      int
	LastCompletionDate *time.Time
	Badges             []string
	CreatedAt          time.Time
}

// Progress is the ledger snapshot surfaced to callers and fed to badge
// criteria.
type Progress struct {
	ChildID          uuid.UUID
	XP               int
	Level            int
	CurrentStreak    int
	LongestStreak    int
	StreakActive     bool
	Badges           []string
	TotalCompletions int
}

func (p *Progress) HasBadge(badgeID string) bool {
	for _, id := range p.Badges {
		if id == badgeID {
			return true
		}
	}
	return false
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type Reward struct {
	ID         uuid.UUID
	ParentID   uuid.UUID
	Title      string
	Cost       int
	AssignedTo []uuid.UUID
	Active     bool
	CreatedAt  time.Time
}

func (r *Reward) IsAssignedTo(childID uuid.UUID) bool {
	for _, id := range r.AssignedTo {
		if id == childID {
			return true
		}
	}
	return false
}

// Redemption is immutable once written.
type Redemption struct {
	ID         uuid.UUID
	RewardID   uuid.UUID
	ChildID    uuid.UUID
	CostPaid   int
	RedeemedAt time.Time
}

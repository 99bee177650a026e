package model

import (
	"time"

	"github.com/google/uuid"
)

type CompletionState string

const (
	CompletionAvailable           CompletionState = "available"
	CompletionPendingVerification CompletionState = "pending_verification"
	CompletionCompleted           CompletionState = "completed"
	CompletionRejected            CompletionState = "rejected"
)

func (s CompletionState) Valid() bool {
	switch s {
	case CompletionAvailable, CompletionPendingVerification, CompletionCompleted, CompletionRejected:
		return true
	}
	return false
}

// Terminal reports whether the state ends the occurrence. Rejected is not
// terminal: the child may claim the same occurrence again.
func (s CompletionState) Terminal() bool {
	return s == CompletionCompleted
}

// Completion is one child's attempt at one occurrence of a quest.
// OccurrenceKey is nil for one-time quests.
type Completion struct {
	ID            uuid.UUID
	QuestID       uuid.UUID
	ChildID       uuid.UUID
	OccurrenceKey *string
	State         CompletionState
	ClaimedAt     time.Time
	VerifiedAt    *time.Time
	RejectedAt    *time.Time
	RejectReason  *string
}

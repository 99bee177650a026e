package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type QuestType string

const (
	QuestTypeOneTime   QuestType = "one_time"
	QuestTypeRecurring QuestType = "recurring"
)

func (t QuestType) Valid() bool {
	return t == QuestTypeOneTime || t == QuestTypeRecurring
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

type Quest struct {
	ID          uuid.UUID
	ParentID    uuid.UUID
	Title       string
	Description string
	XPReward    int
	Type        QuestType
	Frequency   *Frequency
	AssignedTo  []uuid.UUID
	Active      bool
	CreatedAt   time.Time
}

func (q *Quest) IsAssignedTo(childID uuid.UUID) bool {
	for _, id := range q.AssignedTo {
		if id == childID {
			return true
		}
	}
	return false
}

// OccurrenceKey buckets a point in time into the quest's recurrence period.
// One-time quests have a single occurrence and return nil.
func (q *Quest) OccurrenceKey(t time.Time) *string {
	if q.Type != QuestTypeRecurring || q.Frequency == nil {
		return nil
	}
	key := OccurrenceKeyFor(*q.Frequency, t)
	return &key
}

func OccurrenceKeyFor(f Frequency, t time.Time) string {
	t = t.UTC()
	switch f {
	case FrequencyWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}

package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOccurrenceKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		time     time.Time
		expected string
	}{
		{
			name:     "daily key is the utc date",
			freq:     FrequencyDaily,
			time:     time.Date(2024, 1, 21, 15, 30, 0, 0, time.UTC),
			expected: "2024-01-21",
		},
		{
			name:     "daily key normalizes the zone to utc",
			freq:     FrequencyDaily,
			time:     time.Date(2024, 1, 21, 22, 0, 0, 0, time.FixedZone("", -5*3600)),
			expected: "2024-01-22",
		},
		{
			name:     "weekly key is the iso week",
			freq:     FrequencyWeekly,
			time:     time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), // Sunday
			expected: "2024-W03",
		},
		{
			name:     "monday starts a new iso week",
			freq:     FrequencyWeekly,
			time:     time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
			expected: "2024-W04",
		},
		{
			name:     "iso week year can differ from calendar year",
			freq:     FrequencyWeekly,
			time:     time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), // Monday of 2025-W01
			expected: "2025-W01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OccurrenceKeyFor(tt.freq, tt.time))
		})
	}
}

func TestQuest_OccurrenceKey(t *testing.T) {
	at := time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC)

	oneTime := &Quest{Type: QuestTypeOneTime}
	assert.Nil(t, oneTime.OccurrenceKey(at))

	daily := FrequencyDaily
	recurring := &Quest{Type: QuestTypeRecurring, Frequency: &daily}
	key := recurring.OccurrenceKey(at)
	if assert.NotNil(t, key) {
		assert.Equal(t, "2024-01-21", *key)
	}
}

func TestQuest_IsAssignedTo(t *testing.T) {
	assigned := uuid.New()
	other := uuid.New()

	quest := &Quest{AssignedTo: []uuid.UUID{assigned}}
	assert.True(t, quest.IsAssignedTo(assigned))
	assert.False(t, quest.IsAssignedTo(other))

	empty := &Quest{}
	assert.False(t, empty.IsAssignedTo(assigned))
}

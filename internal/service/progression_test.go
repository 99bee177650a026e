package service

import (
	"context"
	"testing"
	"time"

	"chorequest/internal/model"
	"chorequest/internal/repository"
	"chorequest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name            string
		freq            model.Frequency
		last            *time.Time
		current         int
		longest         int
		date            time.Time
		expectedCurrent int
		expectedLongest int
	}{
		{
			name:            "first completion starts streak at 1",
			freq:            model.FrequencyDaily,
			last:            nil,
			date:            day("2024-01-20"),
			expectedCurrent: 1,
			expectedLongest: 1,
		},
		{
			name:            "consecutive day extends streak",
			freq:            model.FrequencyDaily,
			last:            dayPtr("2024-01-20"),
			current:         1,
			longest:         1,
			date:            day("2024-01-21"),
			expectedCurrent: 2,
			expectedLongest: 2,
		},
		{
			name:            "same day completion leaves streak unchanged",
			freq:            model.FrequencyDaily,
			last:            dayPtr("2024-01-21"),
			current:         2,
			longest:         2,
			date:            day("2024-01-21"),
			expectedCurrent: 2,
			expectedLongest: 2,
		},
		{
			name:            "one day gap resets current but not longest",
			freq:            model.FrequencyDaily,
			last:            dayPtr("2024-01-21"),
			current:         2,
			longest:         2,
			date:            day("2024-01-23"),
			expectedCurrent: 1,
			expectedLongest: 2,
		},
		{
			name:            "longest keeps growing with current",
			freq:            model.FrequencyDaily,
			last:            dayPtr("2024-01-21"),
			current:         4,
			longest:         4,
			date:            day("2024-01-22"),
			expectedCurrent: 5,
			expectedLongest: 5,
		},
		{
			name:            "consecutive iso week extends weekly streak",
			freq:            model.FrequencyWeekly,
			last:            dayPtr("2024-01-17"), // Wednesday
			current:         1,
			longest:         3,
			date:            day("2024-01-22"), // Monday of next week
			expectedCurrent: 2,
			expectedLongest: 3,
		},
		{
			name:            "same iso week leaves weekly streak unchanged",
			freq:            model.FrequencyWeekly,
			last:            dayPtr("2024-01-15"), // Monday
			current:         2,
			longest:         2,
			date:            day("2024-01-21"), // Sunday, same iso week
			expectedCurrent: 2,
			expectedLongest: 2,
		},
		{
			name:            "skipped week resets weekly streak",
			freq:            model.FrequencyWeekly,
			last:            dayPtr("2024-01-15"),
			current:         5,
			longest:         5,
			date:            day("2024-01-29"),
			expectedCurrent: 1,
			expectedLongest: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := NextStreak(tt.freq, tt.last, tt.current, tt.longest, tt.date)
			assert.Equal(t, tt.expectedCurrent, current)
			assert.Equal(t, tt.expectedLongest, longest)
		})
	}
}

func TestStreakActive(t *testing.T) {
	assert.False(t, StreakActive(model.FrequencyDaily, nil, day("2024-01-21")))
	assert.True(t, StreakActive(model.FrequencyDaily, dayPtr("2024-01-21"), day("2024-01-21")))
	assert.True(t, StreakActive(model.FrequencyDaily, dayPtr("2024-01-20"), day("2024-01-21")))
	assert.False(t, StreakActive(model.FrequencyDaily, dayPtr("2024-01-19"), day("2024-01-21")))
	assert.True(t, StreakActive(model.FrequencyWeekly, dayPtr("2024-01-15"), day("2024-01-26")))
	assert.False(t, StreakActive(model.FrequencyWeekly, dayPtr("2024-01-08"), day("2024-01-26")))
}

func TestLevelFor(t *testing.T) {
	ledger := NewProgressionLedger(nil, nil)

	assert.Equal(t, 1, ledger.LevelFor(0))
	assert.Equal(t, 1, ledger.LevelFor(99))
	assert.Equal(t, 2, ledger.LevelFor(100))
	assert.Equal(t, 3, ledger.LevelFor(250))
	assert.Equal(t, len(DefaultLevelThresholds), ledger.LevelFor(1_000_000))
}

func TestProgressionLedger_AwardXP(t *testing.T) {
	childID := uuid.New()

	tests := []struct {
		name            string
		amount          int
		child           *model.Child
		setupMocks      func(mockRepo *mocks.MockChildRepository, child *model.Child)
		expectedError   error
		expectedLevelUp bool
		expectedLevel   int
		expectedXP      int
	}{
		{
			name:          "negative amount rejected before any write",
			amount:        -5,
			expectedError: ErrInvalidAmount,
		},
		{
			name:   "award without level up",
			amount: 10,
			child:  &model.Child{ID: childID, XP: 20, Level: 1},
			setupMocks: func(mockRepo *mocks.MockChildRepository, child *model.Child) {
				mockRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
					Return(nil, child)
			},
			expectedLevelUp: false,
			expectedLevel:   1,
			expectedXP:      30,
		},
		{
			name:   "award crossing a threshold levels up",
			amount: 90,
			child:  &model.Child{ID: childID, XP: 20, Level: 1},
			setupMocks: func(mockRepo *mocks.MockChildRepository, child *model.Child) {
				mockRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
					Return(nil, child)
			},
			expectedLevelUp: true,
			expectedLevel:   2,
			expectedXP:      110,
		},
		{
			name:   "unknown child",
			amount: 10,
			setupMocks: func(mockRepo *mocks.MockChildRepository, child *model.Child) {
				mockRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
					Return(repository.ErrNotFound)
			},
			expectedError: ErrChildNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockChildRepository{}
			if tt.setupMocks != nil {
				tt.setupMocks(mockRepo, tt.child)
			}
			ledger := NewProgressionLedger(mockRepo, nil)

			levelUp, newLevel, err := ledger.AwardXP(context.Background(), childID, tt.amount)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedLevelUp, levelUp)
			assert.Equal(t, tt.expectedLevel, newLevel)
			assert.Equal(t, tt.expectedXP, tt.child.XP)
			assert.Equal(t, tt.expectedLevel, tt.child.Level)

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProgressionLedger_RecordCompletion(t *testing.T) {
	childID := uuid.New()
	child := &model.Child{
		ID:                 childID,
		CurrentStreak:      1,
		LongestStreak:      3,
		LastCompletionDate: dayPtr("2024-01-20"),
	}

	mockRepo := &mocks.MockChildRepository{}
	mockRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
		Return(nil, child)

	ledger := NewProgressionLedger(mockRepo, nil)
	err := ledger.RecordCompletion(context.Background(), childID, day("2024-01-21"))

	assert.NoError(t, err)
	assert.Equal(t, 2, child.CurrentStreak)
	assert.Equal(t, 3, child.LongestStreak)
	assert.Equal(t, day("2024-01-21"), *child.LastCompletionDate)

	mockRepo.AssertExpectations(t)
}

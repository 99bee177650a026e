package service

import (
	"context"
	"testing"

	"chorequest/internal/model"
	"chorequest/internal/repository"
	"chorequest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBadgeEvaluator_Evaluate(t *testing.T) {
	childID := uuid.New()

	tests := []struct {
		name            string
		child           *model.Child
		completed       int
		mockSetup       func(badgeRepo *mocks.MockBadgeRepository, childRepo *mocks.MockChildRepository, child *model.Child)
		expectedAwarded []string
	}{
		{
			name:      "first completion awards first_quest with its bonus",
			child:     &model.Child{ID: childID, XP: 20, Level: 1},
			completed: 1,
			mockSetup: func(badgeRepo *mocks.MockBadgeRepository, childRepo *mocks.MockChildRepository, child *model.Child) {
				badgeRepo.On("AwardBadge", mock.Anything, childID, "first_quest").Return(nil)
				childRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
					Return(nil, child)
			},
			expectedAwarded: []string{"first_quest"},
		},
		{
			name:      "held badges are skipped",
			child:     &model.Child{ID: childID, XP: 50, Level: 1, Badges: []string{"first_quest"}},
			completed: 3,
			mockSetup: func(badgeRepo *mocks.MockBadgeRepository, childRepo *mocks.MockChildRepository, child *model.Child) {
			},
			expectedAwarded: nil,
		},
		{
			name:      "concurrent award loses quietly",
			child:     &model.Child{ID: childID, XP: 20, Level: 1},
			completed: 1,
			mockSetup: func(badgeRepo *mocks.MockBadgeRepository, childRepo *mocks.MockChildRepository, child *model.Child) {
				badgeRepo.On("AwardBadge", mock.Anything, childID, "first_quest").
					Return(repository.ErrBadgeAlreadyAwarded)
			},
			expectedAwarded: nil,
		},
		{
			name:      "several badges unlock in one pass",
			child:     &model.Child{ID: childID, XP: 800, Level: 5, CurrentStreak: 7, Badges: []string{"first_quest"}},
			completed: 10,
			mockSetup: func(badgeRepo *mocks.MockBadgeRepository, childRepo *mocks.MockChildRepository, child *model.Child) {
				badgeRepo.On("AwardBadge", mock.Anything, childID, "ten_quests").Return(nil)
				badgeRepo.On("AwardBadge", mock.Anything, childID, "week_streak").Return(nil)
				badgeRepo.On("AwardBadge", mock.Anything, childID, "level_five").Return(nil)
				childRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
					Return(nil, child)
			},
			expectedAwarded: []string{"ten_quests", "week_streak", "level_five"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badgeRepo := &mocks.MockBadgeRepository{}
			childRepo := &mocks.MockChildRepository{}
			childRepo.On("GetChildByID", mock.Anything, childID).Return(tt.child, nil)
			childRepo.On("CountCompletedQuests", mock.Anything, childID).Return(tt.completed, nil)
			tt.mockSetup(badgeRepo, childRepo, tt.child)

			ledger := NewProgressionLedger(childRepo, nil)
			evaluator := NewBadgeEvaluator(badgeRepo, childRepo, ledger, nil)

			awarded, err := evaluator.Evaluate(context.Background(), childID)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAwarded, awarded)
			badgeRepo.AssertExpectations(t)
		})
	}
}

func TestBadgeEvaluator_BonusDoesNotReevaluate(t *testing.T) {
	// The first_quest bonus lifts the child to level five, but level_five is
	// only picked up on the next evaluation: the snapshot is taken once.
	childID := uuid.New()
	child := &model.Child{ID: childID, XP: 695, Level: 4}

	badgeRepo := &mocks.MockBadgeRepository{}
	childRepo := &mocks.MockChildRepository{}
	childRepo.On("GetChildByID", mock.Anything, childID).Return(child, nil)
	childRepo.On("CountCompletedQuests", mock.Anything, childID).Return(1, nil)
	badgeRepo.On("AwardBadge", mock.Anything, childID, "first_quest").Return(nil)
	childRepo.On("UpdateChildLocked", mock.Anything, childID, mock.Anything).
		Return(nil, child)

	ledger := NewProgressionLedger(childRepo, nil)
	evaluator := NewBadgeEvaluator(badgeRepo, childRepo, ledger, nil)

	awarded, err := evaluator.Evaluate(context.Background(), childID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"first_quest"}, awarded)
	assert.Equal(t, 705, child.XP)
	assert.Equal(t, 5, child.Level)
	badgeRepo.AssertNotCalled(t, "AwardBadge", mock.Anything, childID, "level_five")
}

func TestBadgeEvaluator_UnknownChild(t *testing.T) {
	childID := uuid.New()

	childRepo := &mocks.MockChildRepository{}
	childRepo.On("GetChildByID", mock.Anything, childID).Return(nil, repository.ErrNotFound)

	evaluator := NewBadgeEvaluator(&mocks.MockBadgeRepository{}, childRepo, nil, nil)
	_, err := evaluator.Evaluate(context.Background(), childID)

	assert.ErrorIs(t, err, ErrChildNotFound)
}

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

func TestRewardService_CreateReward(t *testing.T) {
	parentID := uuid.New()

	tests := []struct {
		name          string
		reward        *model.Reward
		mockSetup     func(mockRepo *mocks.MockRewardRepository)
		expectedError error
	}{
		{
			name:   "valid reward",
			reward: &model.Reward{ParentID: parentID, Title: "Ice Cream", Cost: 30},
			mockSetup: func(mockRepo *mocks.MockRewardRepository) {
				mockRepo.On("CreateReward", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:          "missing title",
			reward:        &model.Reward{ParentID: parentID, Cost: 30},
			expectedError: ErrTitleRequired,
		},
		{
			name:          "zero cost",
			reward:        &model.Reward{ParentID: parentID, Title: "Ice Cream"},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "negative cost",
			reward:        &model.Reward{ParentID: parentID, Title: "Ice Cream", Cost: -10},
			expectedError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRewardRepository{}
			if tt.mockSetup != nil {
				tt.mockSetup(mockRepo)
			}
			svc := NewRewardService(mockRepo, nil)

			id, err := svc.CreateReward(context.Background(), tt.reward)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, uuid.Nil, id)
				return
			}

			assert.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, id)
			assert.True(t, tt.reward.Active)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestRewardService_Redeem(t *testing.T) {
	rewardID := uuid.New()
	childID := uuid.New()
	otherChildID := uuid.New()
	now := time.Date(2024, 1, 21, 19, 0, 0, 0, time.UTC)

	iceCream := func(active bool) *model.Reward {
		return &model.Reward{
			ID:         rewardID,
			Title:      "Ice Cream",
			Cost:       30,
			AssignedTo: []uuid.UUID{childID},
			Active:     active,
		}
	}

	tests := []struct {
		name          string
		childID       uuid.UUID
		child         *model.Child
		mockSetup     func(mockRepo *mocks.MockRewardRepository, child *model.Child)
		expectedError error
		expectedXP    int
		expectedLevel int
	}{
		{
			name:    "balance below cost fails and writes nothing",
			childID: childID,
			child:   &model.Child{ID: childID, XP: 20, Level: 1},
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(iceCream(true), nil)
				mockRepo.On("RedeemReward", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, child)
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name:    "exact balance redeems down to zero",
			childID: childID,
			child:   &model.Child{ID: childID, XP: 30, Level: 1},
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(iceCream(true), nil)
				mockRepo.On("RedeemReward", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, child)
			},
			expectedXP:    0,
			expectedLevel: 1,
		},
		{
			name:    "redeeming can drop the level",
			childID: childID,
			child:   &model.Child{ID: childID, XP: 110, Level: 2},
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(iceCream(true), nil)
				mockRepo.On("RedeemReward", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, child)
			},
			expectedXP:    80,
			expectedLevel: 1,
		},
		{
			name:    "reward not found",
			childID: childID,
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrRewardNotFound,
		},
		{
			name:    "inactive reward",
			childID: childID,
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(iceCream(false), nil)
			},
			expectedError: ErrRewardInactive,
		},
		{
			name:    "child not assigned",
			childID: otherChildID,
			mockSetup: func(mockRepo *mocks.MockRewardRepository, child *model.Child) {
				mockRepo.On("GetRewardByID", mock.Anything, rewardID).Return(iceCream(true), nil)
			},
			expectedError: ErrNotAssigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRewardRepository{}
			tt.mockSetup(mockRepo, tt.child)
			svc := NewRewardService(mockRepo, NewProgressionLedger(nil, nil))

			redemption, err := svc.Redeem(context.Background(), rewardID, tt.childID, now)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, redemption)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, rewardID, redemption.RewardID)
			assert.Equal(t, tt.childID, redemption.ChildID)
			assert.Equal(t, 30, redemption.CostPaid)
			assert.Equal(t, now, redemption.RedeemedAt)
			assert.Equal(t, tt.expectedXP, tt.child.XP)
			assert.Equal(t, tt.expectedLevel, tt.child.Level)
			mockRepo.AssertExpectations(t)
		})
	}
}

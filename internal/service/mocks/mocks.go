// Package mocks holds hand-rolled testify doubles for the repository
// interfaces. Callback-taking methods accept an optional *model.Child as the
// second Return value; when present the callback runs against it and its
// error wins, mirroring how the real repository propagates callback failures
// out of the transaction.
package mocks

import (
	"context"
	"time"

	"chorequest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) CreateQuest(ctx context.Context, q *model.Quest) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, id)
	if q, ok := args.Get(0).(*model.Quest); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) UpdateQuest(ctx context.Context, q *model.Quest) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestRepository) SetQuestActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockQuestRepository) ListQuestsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Quest, error) {
	args := m.Called(ctx, parentID)
	if q, ok := args.Get(0).([]*model.Quest); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) ListQuestsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Quest, error) {
	args := m.Called(ctx, childID)
	if q, ok := args.Get(0).([]*model.Quest); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) ClaimCompletion(ctx context.Context, c *model.Completion) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockQuestRepository) GetCompletionByID(ctx context.Context, id uuid.UUID) (*model.Completion, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*model.Completion); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) VerifyCompletion(ctx context.Context, completionID uuid.UUID, verifiedAt time.Time, childID uuid.UUID, award func(child *model.Child) error) error {
	args := m.Called(ctx, completionID, verifiedAt, childID, award)
	if child, ok := childArg(args); ok {
		if err := award(child); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockQuestRepository) RejectCompletion(ctx context.Context, completionID uuid.UUID, rejectedAt time.Time, reason *string) error {
	args := m.Called(ctx, completionID, rejectedAt, reason)
	return args.Error(0)
}

func (m *MockQuestRepository) ListPendingByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Completion, error) {
	args := m.Called(ctx, parentID)
	if c, ok := args.Get(0).([]*model.Completion); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockChildRepository struct {
	mock.Mock
}

func (m *MockChildRepository) CreateChild(ctx context.Context, c *model.Child) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChildRepository) GetChildByID(ctx context.Context, id uuid.UUID) (*model.Child, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*model.Child); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChildRepository) ListChildrenByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Child, error) {
	args := m.Called(ctx, parentID)
	if c, ok := args.Get(0).([]*model.Child); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChildRepository) UpdateChildLocked(ctx context.Context, childID uuid.UUID, fn func(child *model.Child) error) error {
	args := m.Called(ctx, childID, fn)
	if child, ok := childArg(args); ok {
		if err := fn(child); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockChildRepository) CountCompletedQuests(ctx context.Context, childID uuid.UUID) (int, error) {
	args := m.Called(ctx, childID)
	return args.Int(0), args.Error(1)
}

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) AwardBadge(ctx context.Context, childID uuid.UUID, badgeID string) error {
	args := m.Called(ctx, childID, badgeID)
	return args.Error(0)
}

type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) CreateReward(ctx context.Context, rw *model.Reward) error {
	args := m.Called(ctx, rw)
	return args.Error(0)
}

func (m *MockRewardRepository) GetRewardByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	args := m.Called(ctx, id)
	if rw, ok := args.Get(0).(*model.Reward); ok {
		return rw, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRewardRepository) UpdateReward(ctx context.Context, rw *model.Reward) error {
	args := m.Called(ctx, rw)
	return args.Error(0)
}

func (m *MockRewardRepository) SetRewardActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockRewardRepository) ListRewardsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Reward, error) {
	args := m.Called(ctx, parentID)
	if rw, ok := args.Get(0).([]*model.Reward); ok {
		return rw, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRewardRepository) ListRewardsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Reward, error) {
	args := m.Called(ctx, childID)
	if rw, ok := args.Get(0).([]*model.Reward); ok {
		return rw, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRewardRepository) RedeemReward(ctx context.Context, red *model.Redemption, spend func(child *model.Child) error) error {
	args := m.Called(ctx, red, spend)
	if child, ok := childArg(args); ok {
		if err := spend(child); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockRewardRepository) ListRedemptionsByChild(ctx context.Context, childID uuid.UUID) ([]*model.Redemption, error) {
	args := m.Called(ctx, childID)
	if red, ok := args.Get(0).([]*model.Redemption); ok {
		return red, args.Error(1)
	}
	return nil, args.Error(1)
}

func childArg(args mock.Arguments) (*model.Child, bool) {
	if len(args) < 2 {
		return nil, false
	}
	child, ok := args.Get(1).(*model.Child)
	return child, ok && child != nil
}

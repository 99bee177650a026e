package service

import (
	"context"
	"errors"
	"time"

	"chorequest/internal/model"

	"github.com/google/uuid"
)

var (
	ErrQuestNotFound      = errors.New("quest not found")
	ErrChildNotFound      = errors.New("child not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrCompletionNotFound = errors.New("completion not found")

	ErrQuestInactive  = errors.New("quest is not active")
	ErrRewardInactive = errors.New("reward is not active")
	ErrNotAssigned    = errors.New("not assigned to this child")
	ErrNotOwner       = errors.New("caller does not own this child's account")

	ErrAlreadyClaimed = errors.New("occurrence already claimed")
	// ErrStaleState means another writer moved the completion out of pending
	// first. Callers should refresh and retry.
	ErrStaleState = errors.New("completion is not pending verification")

	ErrInvalidAmount       = errors.New("amount must be non-negative")
	ErrInvalidFrequency    = errors.New("recurring quests require a daily or weekly frequency")
	ErrTitleRequired       = errors.New("title is required")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Service struct {
	*QuestService
	*ChildService
	*RewardService
}

func NewService(questService *QuestService, childService *ChildService, rewardService *RewardService) *Service {
	return &Service{
		QuestService:  questService,
		ChildService:  childService,
		RewardService: rewardService,
	}
}

type QuestServiceI interface {
	CreateQuest(ctx context.Context, q *model.Quest) (uuid.UUID, error)
	UpdateQuest(ctx context.Context, parentID uuid.UUID, q *model.Quest) error
	DeactivateQuest(ctx context.Context, parentID, questID uuid.UUID) error
	ListQuests(ctx context.Context, parentID uuid.UUID) ([]*model.Quest, error)
	ListQuestsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Quest, error)
	Claim(ctx context.Context, questID, childID uuid.UUID, now time.Time) (*model.Completion, error)
	Verify(ctx context.Context, completionID, parentID uuid.UUID, now time.Time) (*VerifyResult, error)
	Reject(ctx context.Context, completionID, parentID uuid.UUID, reason string, now time.Time) error
	ListPendingVerifications(ctx context.Context, parentID uuid.UUID) ([]*model.Completion, error)
}

type ChildServiceI interface {
	CreateChild(ctx context.Context, parentID uuid.UUID, name, avatar string) (*model.Child, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*model.Child, error)
	GetProgress(ctx context.Context, childID uuid.UUID, now time.Time) (*model.Progress, error)
	GetChild(ctx context.Context, childID uuid.UUID) (*model.Child, error)
}

type RewardServiceI interface {
	CreateReward(ctx context.Context, rw *model.Reward) (uuid.UUID, error)
	UpdateReward(ctx context.Context, parentID uuid.UUID, rw *model.Reward) error
	DeactivateReward(ctx context.Context, parentID, rewardID uuid.UUID) error
	ListRewards(ctx context.Context, parentID uuid.UUID) ([]*model.Reward, error)
	ListRewardsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Reward, error)
	Redeem(ctx context.Context, rewardID, childID uuid.UUID, now time.Time) (*model.Redemption, error)
	ListRedemptions(ctx context.Context, childID uuid.UUID) ([]*model.Redemption, error)
}

type QuestRepository interface {
	CreateQuest(ctx context.Context, q *model.Quest) error
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error)
	UpdateQuest(ctx context.Context, q *model.Quest) error
	SetQuestActive(ctx context.Context, id uuid.UUID, active bool) error
	ListQuestsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Quest, error)
	ListQuestsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Quest, error)
	ClaimCompletion(ctx context.Context, c *model.Completion) error
	GetCompletionByID(ctx context.Context, id uuid.UUID) (*model.Completion, error)
	VerifyCompletion(ctx context.Context, completionID uuid.UUID, verifiedAt time.Time, childID uuid.UUID, award func(child *model.Child) error) error
	RejectCompletion(ctx context.Context, completionID uuid.UUID, rejectedAt time.Time, reason *string) error
	ListPendingByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Completion, error)
}

type ChildRepository interface {
	CreateChild(ctx context.Context, c *model.Child) error
	GetChildByID(ctx context.Context, id uuid.UUID) (*model.Child, error)
	ListChildrenByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Child, error)
	UpdateChildLocked(ctx context.Context, childID uuid.UUID, fn func(child *model.Child) error) error
	CountCompletedQuests(ctx context.Context, childID uuid.UUID) (int, error)
}

type BadgeRepository interface {
	AwardBadge(ctx context.Context, childID uuid.UUID, badgeID string) error
}

type RewardRepository interface {
	CreateReward(ctx context.Context, rw *model.Reward) error
	GetRewardByID(ctx context.Context, id uuid.UUID) (*model.Reward, error)
	UpdateReward(ctx context.Context, rw *model.Reward) error
	SetRewardActive(ctx context.Context, id uuid.UUID, active bool) error
	ListRewardsByParent(ctx context.Context, parentID uuid.UUID) ([]*model.Reward, error)
	ListRewardsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Reward, error)
	RedeemReward(ctx context.Context, red *model.Redemption, spend func(child *model.Child) error) error
	ListRedemptionsByChild(ctx context.Context, childID uuid.UUID) ([]*model.Redemption, error)
}

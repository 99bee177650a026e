package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chorequest/internal/model"
	"chorequest/internal/repository"

	"github.com/google/uuid"
)

type RewardService struct {
	repo   RewardRepository
	ledger *ProgressionLedger
}

func NewRewardService(repo RewardRepository, ledger *ProgressionLedger) *RewardService {
	return &RewardService{
		repo:   repo,
		ledger: ledger,
	}
}

func validateReward(rw *model.Reward) error {
	if rw.Title == "" {
		return ErrTitleRequired
	}
	if rw.Cost <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s *RewardService) CreateReward(ctx context.Context, rw *model.Reward) (uuid.UUID, error) {
	if err := validateReward(rw); err != nil {
		return uuid.Nil, err
	}

	if rw.ID == uuid.Nil {
		rw.ID = uuid.New()
	}
	rw.Active = true
	rw.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateReward(ctx, rw); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create reward: %w", err)
	}

	return rw.ID, nil
}

func (s *RewardService) UpdateReward(ctx context.Context, parentID uuid.UUID, rw *model.Reward) error {
	existing, err := s.repo.GetRewardByID(ctx, rw.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRewardNotFound
		}
		return err
	}
	if existing.ParentID != parentID {
		return ErrNotOwner
	}

	if err := validateReward(rw); err != nil {
		return err
	}

	if err := s.repo.UpdateReward(ctx, rw); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRewardNotFound
		}
		return fmt.Errorf("failed to update reward: %w", err)
	}

	return nil
}

func (s *RewardService) DeactivateReward(ctx context.Context, parentID, rewardID uuid.UUID) error {
	reward, err := s.repo.GetRewardByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRewardNotFound
		}
		return err
	}
	if reward.ParentID != parentID {
		return ErrNotOwner
	}

	return s.repo.SetRewardActive(ctx, rewardID, false)
}

func (s *RewardService) ListRewards(ctx context.Context, parentID uuid.UUID) ([]*model.Reward, error) {
	return s.repo.ListRewardsByParent(ctx, parentID)
}

func (s *RewardService) ListRewardsForChild(ctx context.Context, childID uuid.UUID) ([]*model.Reward, error) {
	return s.repo.ListRewardsForChild(ctx, childID)
}

// Redeem spends the child's XP on a reward. The balance re-check runs inside
// the same transaction as the deduction and the redemption insert, so racing
// redemptions can never overdraw: the loser fails with
// ErrInsufficientBalance and nothing is written. Levels are recomputed from
// the reduced balance and may regress.
func (s *RewardService) Redeem(ctx context.Context, rewardID, childID uuid.UUID, now time.Time) (*model.Redemption, error) {
	reward, err := s.repo.GetRewardByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}

	if !reward.Active {
		return nil, ErrRewardInactive
	}
	if !reward.IsAssignedTo(childID) {
		return nil, ErrNotAssigned
	}

	redemption := &model.Redemption{
		ID:         uuid.New(),
		RewardID:   rewardID,
		ChildID:    childID,
		CostPaid:   reward.Cost,
		RedeemedAt: now.UTC(),
	}

	spend := func(child *model.Child) error {
		if child.XP < reward.Cost {
			return ErrInsufficientBalance
		}
		child.XP -= reward.Cost
		child.Level = s.ledger.LevelFor(child.XP)
		return nil
	}

	err = s.repo.RedeemReward(ctx, redemption, spend)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			return nil, ErrInsufficientBalance
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrChildNotFound
		default:
			return nil, fmt.Errorf("failed to redeem reward: %w", err)
		}
	}

	return redemption, nil
}

func (s *RewardService) ListRedemptions(ctx context.Context, childID uuid.UUID) ([]*model.Redemption, error) {
	return s.repo.ListRedemptionsByChild(ctx, childID)
}

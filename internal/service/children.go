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

type ChildService struct {
	repo ChildRepository
}

func NewChildService(repo ChildRepository) *ChildService {
	return &ChildService{repo: repo}
}

func (s *ChildService) CreateChild(ctx context.Context, parentID uuid.UUID, name, avatar string) (*model.Child, error) {
	if name == "" {
		return nil, ErrTitleRequired
	}

	child := &model.Child{
		ID:        uuid.New(),
		ParentID:  parentID,
		Name:      name,
		Avatar:    avatar,
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateChild(ctx, child); err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return child, nil
}

func (s *ChildService) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*model.Child, error) {
	return s.repo.ListChildrenByParent(ctx, parentID)
}

func (s *ChildService) GetChild(ctx context.Context, childID uuid.UUID) (*model.Child, error) {
	child, err := s.repo.GetChildByID(ctx, childID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	return child, nil
}

// GetProgress reports the ledger snapshot. now is injected so streak
// liveness stays clock-free and testable.
func (s *ChildService) GetProgress(ctx context.Context, childID uuid.UUID, now time.Time) (*model.Progress, error) {
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountCompletedQuests(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}

	return &model.Progress{
		ChildID:          child.ID,
		XP:               child.XP,
		Level:            child.Level,
		CurrentStreak:    child.CurrentStreak,
		LongestStreak:    child.LongestStreak,
		StreakActive:     StreakActive(model.FrequencyDaily, child.LastCompletionDate, now),
		Badges:           child.Badges,
		TotalCompletions: total,
	}, nil
}

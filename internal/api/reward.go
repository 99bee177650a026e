package api

import (
	"errors"
	"net/http"
	"time"

	"chorequest/internal/middleware"
	"chorequest/internal/model"
	"chorequest/internal/service"
	"chorequest/pkg/auth"
	"chorequest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type rewardRoutes struct {
	rs service.RewardServiceI
	a  *auth.Auth
}

func NewRewardRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, a *auth.Auth) {
	r := &rewardRoutes{rs: rs, a: a}
	h := handler.Group("/rewards")
	h.Use(a.AuthMiddleware())
	{
		h.GET("", r.ListRewards)
		h.POST("", middleware.ParentOnly(), r.CreateReward)
		h.PATCH("/:reward_id", middleware.ParentOnly(), r.UpdateReward)
		h.DELETE("/:reward_id", middleware.ParentOnly(), r.DeactivateReward)
		h.POST("/:reward_id/redeem", r.RedeemReward)
		h.GET("/redemptions", r.ListRedemptions)
	}
}

type RewardRequest struct {
	Title      string   `json:"title"`
	Cost       int      `json:"cost"`
	AssignedTo []string `json:"assigned_to"`
}

type RewardResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Cost       int       `json:"cost"`
	AssignedTo []string  `json:"assigned_to"`
	Active     bool      `json:"active"`
}

type RedemptionResponse struct {
	ID         uuid.UUID `json:"id"`
	RewardID   uuid.UUID `json:"reward_id"`
	ChildID    uuid.UUID `json:"child_id"`
	CostPaid   int       `json:"cost_paid"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

func rewardToResponse(rw *model.Reward) RewardResponse {
	assigned := make([]string, len(rw.AssignedTo))
	for i, id := range rw.AssignedTo {
		assigned[i] = id.String()
	}
	return RewardResponse{
		ID:         rw.ID,
		Title:      rw.Title,
		Cost:       rw.Cost,
		AssignedTo: assigned,
		Active:     rw.Active,
	}
}

func (r *rewardRoutes) rewardFromRequest(req *RewardRequest, parentID uuid.UUID) (*model.Reward, error) {
	assigned := make([]uuid.UUID, len(req.AssignedTo))
	for i, s := range req.AssignedTo {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		assigned[i] = id
	}

	return &model.Reward{
		ParentID:   parentID,
		Title:      req.Title,
		Cost:       req.Cost,
		AssignedTo: assigned,
	}, nil
}

func (r *rewardRoutes) CreateReward(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reward, err := r.rewardFromRequest(&req, user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid child id in assigned_to"})
		return
	}

	id, err := r.rs.CreateReward(c.Request.Context(), reward)
	if err != nil {
		log.Error("failed to create reward", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrTitleRequired), errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reward"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (r *rewardRoutes) UpdateReward(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	rewardID, err := uuid.Parse(c.Param("reward_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward_id"})
		return
	}

	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reward, err := r.rewardFromRequest(&req, user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid child id in assigned_to"})
		return
	}
	reward.ID = rewardID
	reward.Active = true

	err = r.rs.UpdateReward(c.Request.Context(), user.ID, reward)
	if err != nil {
		log.Error("failed to update reward", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your reward"})
		case errors.Is(err, service.ErrTitleRequired), errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update reward"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *rewardRoutes) DeactivateReward(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	rewardID, err := uuid.Parse(c.Param("reward_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward_id"})
		return
	}

	err = r.rs.DeactivateReward(c.Request.Context(), user.ID, rewardID)
	if err != nil {
		log.Error("failed to deactivate reward", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your reward"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate reward"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *rewardRoutes) ListRewards(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	var rewards []*model.Reward
	var err error
	if user.Role == auth.RoleParent {
		rewards, err = r.rs.ListRewards(c.Request.Context(), user.ID)
	} else {
		rewards, err = r.rs.ListRewardsForChild(c.Request.Context(), user.ID)
	}
	if err != nil {
		log.Error("failed to list rewards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rewards"})
		return
	}

	out := make([]RewardResponse, len(rewards))
	for i, rw := range rewards {
		out[i] = rewardToResponse(rw)
	}

	c.JSON(http.StatusOK, out)
}

func (r *rewardRoutes) RedeemReward(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)
	if user.Role != auth.RoleChild {
		c.JSON(http.StatusForbidden, gin.H{"error": "only children redeem rewards"})
		return
	}

	rewardID, err := uuid.Parse(c.Param("reward_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward_id"})
		return
	}

	redemption, err := r.rs.Redeem(c.Request.Context(), rewardID, user.ID, time.Now().UTC())
	if err != nil {
		log.Error("failed to redeem reward", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		case errors.Is(err, service.ErrRewardInactive):
			c.JSON(http.StatusConflict, gin.H{"error": "reward is not active"})
		case errors.Is(err, service.ErrNotAssigned):
			c.JSON(http.StatusForbidden, gin.H{"error": "reward is not assigned to you"})
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem reward"})
		}
		return
	}

	c.JSON(http.StatusCreated, RedemptionResponse{
		ID:         redemption.ID,
		RewardID:   redemption.RewardID,
		ChildID:    redemption.ChildID,
		CostPaid:   redemption.CostPaid,
		RedeemedAt: redemption.RedeemedAt,
	})
}

func (r *rewardRoutes) ListRedemptions(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)
	if user.Role != auth.RoleChild {
		c.JSON(http.StatusForbidden, gin.H{"error": "redemption history is per child"})
		return
	}

	redemptions, err := r.rs.ListRedemptions(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list redemptions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list redemptions"})
		return
	}

	out := make([]RedemptionResponse, len(redemptions))
	for i, red := range redemptions {
		out[i] = RedemptionResponse{
			ID:         red.ID,
			RewardID:   red.RewardID,
			ChildID:    red.ChildID,
			CostPaid:   red.CostPaid,
			RedeemedAt: red.RedeemedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

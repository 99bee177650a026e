package api

import (
	"errors"
	"net/http"
	"time"

	"chorequest/internal/middleware"
	"chorequest/internal/service"
	"chorequest/pkg/auth"
	"chorequest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type childRoutes struct {
	cs service.ChildServiceI
	a  *auth.Auth
}

func NewChildRoutes(handler *gin.RouterGroup, cs service.ChildServiceI, a *auth.Auth) {
	r := &childRoutes{cs: cs, a: a}
	h := handler.Group("/children")
	h.Use(a.AuthMiddleware())
	{
		h.POST("", middleware.ParentOnly(), r.CreateChild)
		h.GET("", middleware.ParentOnly(), r.ListChildren)
		h.GET("/:child_id/progress", r.GetProgress)
	}
}

type CreateChildRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type ChildResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	XP     int       `json:"xp"`
	Level  int       `json:"level"`
}

type ProgressResponse struct {
	ChildID          uuid.UUID `json:"child_id"`
	XP               int       `json:"xp"`
	Level            int       `json:"level"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	StreakActive     bool      `json:"streak_active"`
	Badges           []string  `json:"badges"`
	TotalCompletions int       `json:"total_completions"`
}

func (r *childRoutes) CreateChild(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	var req CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	child, err := r.cs.CreateChild(c.Request.Context(), user.ID, req.Name, req.Avatar)
	if err != nil {
		log.Error("failed to create child", zap.Error(err))
		if errors.Is(err, service.ErrTitleRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create child"})
		return
	}

	c.JSON(http.StatusCreated, ChildResponse{
		ID:     child.ID,
		Name:   child.Name,
		Avatar: child.Avatar,
		XP:     child.XP,
		Level:  child.Level,
	})
}

func (r *childRoutes) ListChildren(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	children, err := r.cs.ListChildren(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list children", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list children"})
		return
	}

	out := make([]ChildResponse, len(children))
	for i, child := range children {
		out[i] = ChildResponse{
			ID:     child.ID,
			Name:   child.Name,
			Avatar: child.Avatar,
			XP:     child.XP,
			Level:  child.Level,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *childRoutes) GetProgress(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	childID, err := uuid.Parse(c.Param("child_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid child_id"})
		return
	}

	// Children see their own progress, parents their own children's.
	if user.Role == auth.RoleChild && user.ID != childID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your progress"})
		return
	}
	if user.Role == auth.RoleParent {
		child, err := r.cs.GetChild(c.Request.Context(), childID)
		if err != nil {
			if errors.Is(err, service.ErrChildNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "child not found"})
				return
			}
			log.Error("failed to get child", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get progress"})
			return
		}
		if child.ParentID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your child"})
			return
		}
	}

	progress, err := r.cs.GetProgress(c.Request.Context(), childID, time.Now().UTC())
	if err != nil {
		log.Error("failed to get progress", zap.Error(err))
		if errors.Is(err, service.ErrChildNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "child not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get progress"})
		return
	}

	badges := progress.Badges
	if badges == nil {
		badges = []string{}
	}

	c.JSON(http.StatusOK, ProgressResponse{
		ChildID:          progress.ChildID,
		XP:               progress.XP,
		Level:            progress.Level,
		CurrentStreak:    progress.CurrentStreak,
		LongestStreak:    progress.LongestStreak,
		StreakActive:     progress.StreakActive,
		Badges:           badges,
		TotalCompletions: progress.TotalCompletions,
	})
}

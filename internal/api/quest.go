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

type questRoutes struct {
	qs service.QuestServiceI
	a  *auth.Auth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, a *auth.Auth) {
	r := &questRoutes{qs: qs, a: a}

	h := handler.Group("/quests")
	h.Use(a.AuthMiddleware())
	{
		h.GET("", r.ListQuests)
		h.POST("", middleware.ParentOnly(), r.CreateQuest)
		h.PATCH("/:quest_id", middleware.ParentOnly(), r.UpdateQuest)
		h.DELETE("/:quest_id", middleware.ParentOnly(), r.DeactivateQuest)
		h.POST("/:quest_id/claim", r.ClaimQuest)
	}

	hc := handler.Group("/completions")
	hc.Use(a.AuthMiddleware(), middleware.ParentOnly())
	{
		hc.GET("/pending", r.ListPending)
		hc.POST("/:completion_id/verify", r.VerifyCompletion)
		hc.POST("/:completion_id/reject", r.RejectCompletion)
	}
}

type QuestRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	XPReward    int      `json:"xp_reward"`
	Type        string   `json:"type"`
	Frequency   *string  `json:"frequency,omitempty"`
	AssignedTo  []string `json:"assigned_to"`
}

type QuestResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPReward    int       `json:"xp_reward"`
	Type        string    `json:"type"`
	Frequency   *string   `json:"frequency,omitempty"`
	AssignedTo  []string  `json:"assigned_to"`
	Active      bool      `json:"active"`
}

type CompletionResponse struct {
	ID            uuid.UUID  `json:"id"`
	QuestID       uuid.UUID  `json:"quest_id"`
	ChildID       uuid.UUID  `json:"child_id"`
	OccurrenceKey *string    `json:"occurrence_key,omitempty"`
	State         string     `json:"state"`
	ClaimedAt     time.Time  `json:"claimed_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
	RejectReason  *string    `json:"reject_reason,omitempty"`
}

func questToResponse(q *model.Quest) QuestResponse {
	assigned := make([]string, len(q.AssignedTo))
	for i, id := range q.AssignedTo {
		assigned[i] = id.String()
	}

	var freq *string
	if q.Frequency != nil {
		f := string(*q.Frequency)
		freq = &f
	}

	return QuestResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		XPReward:    q.XPReward,
		Type:        string(q.Type),
		Frequency:   freq,
		AssignedTo:  assigned,
		Active:      q.Active,
	}
}

func completionToResponse(c *model.Completion) CompletionResponse {
	return CompletionResponse{
		ID:            c.ID,
		QuestID:       c.QuestID,
		ChildID:       c.ChildID,
		OccurrenceKey: c.OccurrenceKey,
		State:         string(c.State),
		ClaimedAt:     c.ClaimedAt,
		VerifiedAt:    c.VerifiedAt,
		RejectedAt:    c.RejectedAt,
		RejectReason:  c.RejectReason,
	}
}

func (r *questRoutes) questFromRequest(req *QuestRequest, parentID uuid.UUID) (*model.Quest, error) {
	assigned := make([]uuid.UUID, len(req.AssignedTo))
	for i, s := range req.AssignedTo {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		assigned[i] = id
	}

	var freq *model.Frequency
	if req.Frequency != nil {
		f := model.Frequency(*req.Frequency)
		freq = &f
	}

	return &model.Quest{
		ParentID:    parentID,
		Title:       req.Title,
		Description: req.Description,
		XPReward:    req.XPReward,
		Type:        model.QuestType(req.Type),
		Frequency:   freq,
		AssignedTo:  assigned,
	}, nil
}

func (r *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quest, err := r.questFromRequest(&req, user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid child id in assigned_to"})
		return
	}

	id, err := r.qs.CreateQuest(c.Request.Context(), quest)
	if err != nil {
		log.Error("failed to create quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInvalidFrequency):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quest"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (r *questRoutes) UpdateQuest(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quest, err := r.questFromRequest(&req, user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid child id in assigned_to"})
		return
	}
	quest.ID = questID
	quest.Active = true

	err = r.qs.UpdateQuest(c.Request.Context(), user.ID, quest)
	if err != nil {
		log.Error("failed to update quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your quest"})
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInvalidFrequency):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update quest"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) DeactivateQuest(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	err = r.qs.DeactivateQuest(c.Request.Context(), user.ID, questID)
	if err != nil {
		log.Error("failed to deactivate quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your quest"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate quest"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	var quests []*model.Quest
	var err error
	if user.Role == auth.RoleParent {
		quests, err = r.qs.ListQuests(c.Request.Context(), user.ID)
	} else {
		quests, err = r.qs.ListQuestsForChild(c.Request.Context(), user.ID)
	}
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	out := make([]QuestResponse, len(quests))
	for i, q := range quests {
		out[i] = questToResponse(q)
	}

	c.JSON(http.StatusOK, out)
}

func (r *questRoutes) ClaimQuest(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)
	if user.Role != auth.RoleChild {
		c.JSON(http.StatusForbidden, gin.H{"error": "only children claim quests"})
		return
	}

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	completion, err := r.qs.Claim(c.Request.Context(), questID, user.ID, time.Now().UTC())
	if err != nil {
		log.Error("failed to claim quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrQuestInactive):
			c.JSON(http.StatusConflict, gin.H{"error": "quest is not active"})
		case errors.Is(err, service.ErrNotAssigned):
			c.JSON(http.StatusForbidden, gin.H{"error": "quest is not assigned to you"})
		case errors.Is(err, service.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "already claimed for this occurrence"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim quest"})
		}
		return
	}

	c.JSON(http.StatusCreated, completionToResponse(completion))
}

type VerifyResponse struct {
	CompletionID uuid.UUID `json:"completion_id"`
	ChildID      uuid.UUID `json:"child_id"`
	XPAwarded    int       `json:"xp_awarded"`
	LevelUp      bool      `json:"level_up"`
	NewLevel     int       `json:"new_level"`
	Badges       []string  `json:"badges,omitempty"`
}

func (r *questRoutes) VerifyCompletion(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	completionID, err := uuid.Parse(c.Param("completion_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completion_id"})
		return
	}

	result, err := r.qs.Verify(c.Request.Context(), completionID, user.ID, time.Now().UTC())
	if err != nil {
		log.Error("failed to verify completion", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrCompletionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "completion not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your child"})
		case errors.Is(err, service.ErrStaleState):
			c.JSON(http.StatusConflict, gin.H{"error": "completion is no longer pending, refresh and retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify completion"})
		}
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		CompletionID: result.CompletionID,
		ChildID:      result.ChildID,
		XPAwarded:    result.XPAwarded,
		LevelUp:      result.LevelUp,
		NewLevel:     result.NewLevel,
		Badges:       result.Badges,
	})
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *questRoutes) RejectCompletion(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	completionID, err := uuid.Parse(c.Param("completion_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completion_id"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err = r.qs.Reject(c.Request.Context(), completionID, user.ID, req.Reason, time.Now().UTC())
	if err != nil {
		log.Error("failed to reject completion", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrCompletionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "completion not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your child"})
		case errors.Is(err, service.ErrStaleState):
			c.JSON(http.StatusConflict, gin.H{"error": "completion is no longer pending, refresh and retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject completion"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) ListPending(c *gin.Context) {
	log := logger.Logger()

	user, _ := auth.UserFromContext(c)

	completions, err := r.qs.ListPendingVerifications(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list pending completions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending completions"})
		return
	}

	out := make([]CompletionResponse, len(completions))
	for i, comp := range completions {
		out[i] = completionToResponse(comp)
	}

	c.JSON(http.StatusOK, out)
}

package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/activity"
	"github.com/Domenick1991/roombooking/internal/service/session"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service session.SessionUseCase
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewSessionHandler(service session.SessionUseCase) *SessionHandler {
	return &SessionHandler{service: service}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *SessionHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.GET("/me", h.me)
	router.POST("/logout", h.logout)
}

func (h *SessionHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.BadRequest("username and password are required", nil))
		return
	}
	s, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) me(c *gin.Context) {
	actor, _ := actorFrom(c)
	user, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *SessionHandler) logout(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := h.service.Logout(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ActivityHandler struct {
	service activity.ActivityUseCase
}

type activityQuery struct {
	UserID string `form:"userId"`
	Action string `form:"action"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

func NewActivityHandler(service activity.ActivityUseCase) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) Register(router *gin.RouterGroup) {
	router.GET("", RequireRoles(domain.RoleAdmin, domain.RoleEditor), h.list)
}

func (h *ActivityHandler) list(c *gin.Context) {
	var q activityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, domain.BadRequest("invalid query", map[string]any{"reason": err.Error()}))
		return
	}
	entries, err := h.service.ListActivity(c.Request.Context(), domain.ActivityFilter{
		UserID: q.UserID,
		Action: q.Action,
		Limit:  q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

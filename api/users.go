package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/account"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service account.AccountUseCase
}

type listUsersQuery struct {
	Page    int `form:"page"`
	PerPage int `form:"perPage"`
}

type changeRoleRequest struct {
	Role domain.Role `json:"role"`
}

func NewUserHandler(service account.AccountUseCase) *UserHandler {
	return &UserHandler{service: service}
}

// Register mounts the account administration routes. Every route is admin only.
func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireRoles(domain.RoleAdmin))
	router.GET("", h.list)
	router.POST("", h.create)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.PATCH("/:id/role", h.changeRole)
	router.POST("/:id/approve", h.approve)
	router.POST("/:id/reject", h.reject)
	router.POST("/:id/suspend", h.suspend)
	router.POST("/:id/reactivate", h.reactivate)
}

func (h *UserHandler) list(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, domain.BadRequest("invalid query", map[string]any{"reason": err.Error()}))
		return
	}
	actor, _ := actorFrom(c)
	page, err := h.service.ListUsers(c.Request.Context(), q.Page, q.PerPage, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) create(c *gin.Context) {
	var in account.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)
	user, err := h.service.CreateUser(c.Request.Context(), in, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) update(c *gin.Context) {
	var in account.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)
	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), in, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) delete(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) changeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)
	user, err := h.service.ChangeRole(c.Request.Context(), c.Param("id"), req.Role, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) approve(c *gin.Context) {
	actor, _ := actorFrom(c)
	h.respondUser(c)(h.service.ApproveUser(c.Request.Context(), c.Param("id"), actor))
}

func (h *UserHandler) reject(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := h.service.RejectUser(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) suspend(c *gin.Context) {
	actor, _ := actorFrom(c)
	h.respondUser(c)(h.service.SuspendUser(c.Request.Context(), c.Param("id"), actor))
}

func (h *UserHandler) reactivate(c *gin.Context) {
	actor, _ := actorFrom(c)
	h.respondUser(c)(h.service.ReactivateUser(c.Request.Context(), c.Param("id"), actor))
}

func (h *UserHandler) respondUser(c *gin.Context) func(*domain.User, error) {
	return func(user *domain.User, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/revision"
	"github.com/gin-gonic/gin"
)

type RevisionHandler struct {
	service revision.RevisionUseCase
}

type revisionRequest struct {
	RoomID        string   `json:"roomId"`
	RoomNumber    int      `json:"roomNumber"`
	RoomName      string   `json:"roomName"`
	Date          string   `json:"date"`
	TimeSlots     []string `json:"timeSlots"`
	Responsible   string   `json:"responsible"`
	ServiceType   string   `json:"serviceType"`
	Justification string   `json:"justification"`
}

type listRevisionsQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=open approved rejected"`
	RequestedBy string `form:"requestedBy"`
}

func NewRevisionHandler(service revision.RevisionUseCase) *RevisionHandler {
	return &RevisionHandler{service: service}
}

func (h *RevisionHandler) Register(router *gin.RouterGroup) {
	router.GET("", RequireRoles(domain.RoleAdmin, domain.RoleEditor), h.list)
	router.POST("", RequireRoles(domain.RoleAdmin, domain.RoleEditor, domain.RoleUser), h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/approve", RequireRoles(domain.RoleAdmin), h.approve)
	router.POST("/:id/reject", RequireRoles(domain.RoleAdmin), h.reject)
}

func (h *RevisionHandler) create(c *gin.Context) {
	var req revisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)

	created, err := h.service.CreateRevision(c.Request.Context(), domain.RevisionInput{
		RoomID:        req.RoomID,
		RoomNumber:    req.RoomNumber,
		RoomName:      req.RoomName,
		Date:          req.Date,
		TimeSlots:     req.TimeSlots,
		Responsible:   req.Responsible,
		ServiceType:   req.ServiceType,
		Justification: req.Justification,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *RevisionHandler) list(c *gin.Context) {
	var q listRevisionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, domain.BadRequest("invalid query", map[string]any{"reason": err.Error()}))
		return
	}
	list, err := h.service.ListRevisions(c.Request.Context(), domain.RevisionFilter{
		Status:      domain.RevisionStatus(q.Status),
		RequestedBy: q.RequestedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RevisionHandler) get(c *gin.Context) {
	req, err := h.service.GetRevision(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RevisionHandler) approve(c *gin.Context) {
	actor, _ := actorFrom(c)
	result, err := h.service.ApproveRevision(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RevisionHandler) reject(c *gin.Context) {
	actor, _ := actorFrom(c)
	req, err := h.service.RejectRevision(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

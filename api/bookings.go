package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingRequest struct {
	RoomID      string   `json:"roomId"`
	Date        string   `json:"date"`
	TimeSlots   []string `json:"timeSlots"`
	Responsible string   `json:"responsible"`
	ServiceType string   `json:"serviceType"`
	Notes       string   `json:"notes"`
	Status      string   `json:"status"`
}

func (r bookingRequest) toDomain() domain.BookingRequest {
	return domain.BookingRequest{
		RoomID:      r.RoomID,
		Date:        r.Date,
		TimeSlots:   r.TimeSlots,
		Responsible: r.Responsible,
		ServiceType: r.ServiceType,
		Notes:       r.Notes,
		Status:      domain.BookingStatus(r.Status),
	}
}

type listBookingsQuery struct {
	RoomID           string `form:"roomId"`
	From             string `form:"from"`
	To               string `form:"to"`
	Status           string `form:"status" binding:"omitempty,oneof=confirmed pending cancelled"`
	IncludeCancelled bool   `form:"includeCancelled"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)

	writers := []domain.Role{domain.RoleAdmin, domain.RoleEditor}
	router.POST("", RequireRoles(append(writers, domain.RoleUser)...), h.create)
	router.PUT("/:id", RequireRoles(writers...), h.update)
	router.DELETE("/:id", RequireRoles(writers...), h.cancel)
	router.DELETE("/:id/purge", RequireRoles(domain.RoleAdmin), h.delete)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)

	created, err := h.service.CreateBooking(c.Request.Context(), req.toDomain(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) update(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	actor, _ := actorFrom(c)

	updated, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), req.toDomain(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, _ := actorFrom(c)
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

func (h *BookingHandler) delete(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := h.service.DeleteBooking(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	var q listBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, domain.BadRequest("invalid query", map[string]any{"reason": err.Error()}))
		return
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), domain.BookingFilter{
		RoomID:           q.RoomID,
		From:             q.From,
		To:               q.To,
		Status:           domain.BookingStatus(q.Status),
		IncludeCancelled: q.IncludeCancelled,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

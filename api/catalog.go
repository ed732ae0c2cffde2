package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/Domenick1991/roombooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read-only catalog and per-room booking views.
type CatalogHandler struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
}

func NewCatalogHandler(catalog catalog.CatalogUseCase, bookings booking.BookingUseCase) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, bookings: bookings}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup) {
	router.GET("/time-slots", h.timeSlots)
	router.GET("/monitorings", h.monitorings)
	router.GET("/rooms", h.rooms)
	router.GET("/rooms/:id", h.room)
	router.GET("/rooms/:id/bookings", h.roomBookings)
	router.GET("/rooms/:id/availability", h.availability)
}

func (h *CatalogHandler) timeSlots(c *gin.Context) {
	slots, err := h.catalog.ListTimeSlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *CatalogHandler) monitorings(c *gin.Context) {
	monitorings, err := h.catalog.ListMonitorings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, monitorings)
}

func (h *CatalogHandler) rooms(c *gin.Context) {
	rooms, err := h.catalog.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *CatalogHandler) room(c *gin.Context) {
	room, err := h.catalog.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *CatalogHandler) roomBookings(c *gin.Context) {
	bookings, err := h.bookings.ListRoomBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *CatalogHandler) availability(c *gin.Context) {
	availability, err := h.bookings.Availability(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

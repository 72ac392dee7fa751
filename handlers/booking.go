package handlers

import (
	"net/http"

	"github.com/vridhi-nahata/ServeGo-Backend/middleware"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
	booking "github.com/vridhi-nahata/ServeGo-Backend/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.CreateBooking(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created successfully", "booking": b})
}

// BookedSlots handles GET /api/bookings/booked-slots?providerId=...&date=....
func (h *BookingHandler) BookedSlots(c *gin.Context) {
	providerID := c.Query("providerId")
	date := c.Query("date")
	slots, err := h.Service.BookedSlots(c.Request.Context(), providerID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookedSlots": slots})
}

// ListProviderRequests handles GET /api/bookings/provider.
func (h *BookingHandler) ListProviderRequests(c *gin.Context) {
	bookings, err := h.Service.ListProviderBookings(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ListCustomerBookings handles GET /api/bookings/customer.
func (h *BookingHandler) ListCustomerBookings(c *gin.Context) {
	bookings, err := h.Service.ListCustomerBookings(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// UpdateStatus handles PATCH /api/bookings/:id/status (provider action).
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status      string           `json:"status"`
		UpdatedSlot *models.TimeSlot `json:"updatedSlot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Status, req.UpdatedSlot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// CustomerRespond handles PATCH /api/bookings/:id/respond (customer action).
func (h *BookingHandler) CustomerRespond(c *gin.Context) {
	var req struct {
		Response string `json:"response"` // "accepted" or "cancelled"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.CustomerRespond(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Response)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GenerateCode handles POST /api/bookings/:id/otp.
func (h *BookingHandler) GenerateCode(c *gin.Context) {
	code, err := h.Service.GenerateCode(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp": code})
}

// VerifyCode handles POST /api/bookings/:id/otp/verify (provider action).
func (h *BookingHandler) VerifyCode(c *gin.Context) {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.VerifyCode(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service started", "booking": b})
}

// MarkComplete handles POST /api/bookings/:id/complete (either party).
func (h *BookingHandler) MarkComplete(c *gin.Context) {
	b, err := h.Service.MarkComplete(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// SubmitFeedback handles POST /api/bookings/:id/feedback (customer action).
func (h *BookingHandler) SubmitFeedback(c *gin.Context) {
	var req struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Service.SubmitFeedback(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Rating, req.Review); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback recorded"})
}

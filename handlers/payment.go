package handlers

import (
	"io"
	"net/http"

	"github.com/vridhi-nahata/ServeGo-Backend/middleware"
	payment "github.com/vridhi-nahata/ServeGo-Backend/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes the payment reconciliation flows over HTTP.
type PaymentHandler struct {
	Service payment.PaymentService
	Logger  *zap.Logger
}

func NewPaymentHandler(svc payment.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Service: svc, Logger: logger}
}

// CreateOrder handles POST /api/payments/create-order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req struct {
		BookingID string  `json:"bookingId"`
		Amount    float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	order, err := h.Service.CreateOrder(c.Request.Context(), req.BookingID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// VerifyPayment handles POST /api/payments/verify.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req payment.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.ActorID(c)
	}
	b, err := h.Service.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentStatus": b.PaymentStatus, "booking": b})
}

// SplitLink handles POST /api/payments/split-link.
func (h *PaymentHandler) SplitLink(c *gin.Context) {
	var req struct {
		BookingID string   `json:"bookingId"`
		Emails    []string `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	links, err := h.Service.SendSplitLinks(c.Request.Context(), req.BookingID, middleware.ActorID(c), req.Emails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": links})
}

// InitiateCash handles POST /api/payments/cash/initiate.
func (h *PaymentHandler) InitiateCash(c *gin.Context) {
	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.InitiateCash(c.Request.Context(), req.BookingID, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentStatus": b.PaymentStatus})
}

// ConfirmCash handles POST /api/payments/cash/confirm (provider action).
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := h.Service.ConfirmCash(c.Request.Context(), req.BookingID, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentStatus": b.PaymentStatus})
}

// Webhook handles POST /api/payments/webhook. The body must be read raw:
// the signature covers the exact bytes the gateway sent.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")
	eventID := c.GetHeader("X-Razorpay-Event-Id")

	if err := h.Service.HandleWebhook(c.Request.Context(), body, signature, eventID); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook rejected", zap.Error(err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

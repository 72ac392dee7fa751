package payment

import (
	"context"
	"time"

	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
	"github.com/vridhi-nahata/ServeGo-Backend/services/notification"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventCache is the slice of the redis client the webhook handler uses to
// remember processed event ids. *redis.Client satisfies it.
type EventCache interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// OrderDescriptor describes a gateway order created for a booking.
type OrderDescriptor struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// VerifyPaymentRequest carries a client-submitted payment completion.
type VerifyPaymentRequest struct {
	BookingID string  `json:"bookingId"`
	UserID    string  `json:"userId"`
	Amount    float64 `json:"amount"`
	OrderID   string  `json:"razorpay_order_id"`
	PaymentID string  `json:"razorpay_payment_id"`
	Signature string  `json:"razorpay_signature"`
}

// PaymentService reconciles booking payments across the cash, online and
// split flows. Every successful mutation leaves paymentStatus equal to
// DerivePaymentStatus over the stored ledger.
type PaymentService interface {
	CreateOrder(ctx context.Context, bookingID string, amount float64) (*OrderDescriptor, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*models.Booking, error)
	SendSplitLinks(ctx context.Context, bookingID, customerID string, emails []string) ([]models.SplitLink, error)
	InitiateCash(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	ConfirmCash(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	HandleWebhook(ctx context.Context, body []byte, signature, eventID string) error
}

// DefaultPaymentService implements PaymentService over the booking
// repository and the payment gateway.
type DefaultPaymentService struct {
	Repo         bookingRepo.BookingRepository
	Gateway      Gateway
	Cache        EventCache // webhook event dedup fast path; nil disables it
	Notification notification.NotificationService
	Logger       *zap.Logger

	KeySecret     string // signs orderID|paymentID completions
	WebhookSecret string // signs webhook payloads
}

func (svc *DefaultPaymentService) logger() *zap.Logger {
	if svc.Logger != nil {
		return svc.Logger
	}
	return zap.NewNop()
}

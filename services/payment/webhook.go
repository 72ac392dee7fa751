package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
	booking "github.com/vridhi-nahata/ServeGo-Backend/services/booking"

	"go.uber.org/zap"
)

// webhookEvent is the subset of the gateway webhook payload this core reads.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ShortURL string `json:"short_url"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// HandleWebhook processes a gateway webhook delivery. The raw body is
// authenticated against the signature header before parsing; a mismatch is
// a security event. Deliveries are at-least-once: the paid flags make
// redelivery a no-op, with a redis event-id set as a fast path when
// available.
func (svc *DefaultPaymentService) HandleWebhook(ctx context.Context, body []byte, signature, eventID string) error {
	if !VerifyWebhookSignature(svc.WebhookSecret, body, signature) {
		svc.logger().Warn("webhook signature mismatch", zap.String("eventID", eventID))
		return &SignatureError{Message: "invalid webhook signature"}
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return booking.NewValidationError("malformed webhook payload")
	}
	if event.Event != "payment_link.paid" {
		return nil // not ours; acknowledge and move on
	}
	link := event.Payload.PaymentLink.Entity.ShortURL
	if link == "" {
		return booking.NewValidationError("webhook payload missing payment link reference")
	}

	var dedupKey string
	if eventID != "" && svc.Cache != nil {
		dedupKey = "webhook:processed:" + eventID
		n, err := svc.Cache.Exists(ctx, dedupKey).Result()
		if err == nil && n > 0 {
			return nil // this delivery already settled the ledger
		}
		// On cache errors fall through; the paid flag below stays idempotent.
	}

	b, err := svc.Repo.FindBySplitLink(ctx, link)
	if err != nil {
		return &booking.ExternalServiceError{Service: "booking store", Err: err}
	}
	if b == nil {
		svc.logger().Warn("webhook for unknown payment link", zap.String("link", link))
		return nil
	}

	updated, err := svc.mutateLedger(ctx, b.ID, func(b *models.Booking) (bool, error) {
		for i := range b.SplitLinksSent {
			if b.SplitLinksSent[i].Link == link {
				if b.SplitLinksSent[i].Paid {
					return false, nil // redelivery of an already-processed event
				}
				b.SplitLinksSent[i].Paid = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	// The event id is recorded only once the ledger write committed, so a
	// failed attempt stays retryable by the gateway.
	if dedupKey != "" {
		if err := svc.Cache.Set(ctx, dedupKey, 1, 24*time.Hour).Err(); err != nil {
			svc.logger().Warn("webhook dedup marker not stored", zap.String("eventID", eventID), zap.Error(err))
		}
	}

	svc.logger().Info("split payment link settled",
		zap.String("bookingID", updated.ID),
		zap.String("paymentStatus", updated.PaymentStatus))
	if updated.PaymentStatus == models.PaymentPaid && svc.Notification != nil {
		svc.Notification.NotifyPaymentReceived(ctx, updated)
	}
	return nil
}

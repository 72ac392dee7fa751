package booking

import (
	"context"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"go.uber.org/zap"
)

// MarkComplete records the acting party's completion acknowledgement. Once
// both parties have acknowledged, the completed entry is appended by a
// single conditional update, so racing customer and provider calls yield
// exactly one completed entry.
func (svc *DefaultBookingService) MarkComplete(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var byProvider bool
	switch actorID {
	case b.Provider:
		byProvider = true
	case b.Customer:
		byProvider = false
	default:
		return nil, NewAuthorizationError("only the booking parties can mark completion")
	}
	if !b.OTPVerified {
		return nil, NewPreconditionError("completion requires the verification code to be validated first")
	}

	flagged, err := svc.Repo.SetCompletionFlag(ctx, bookingID, byProvider)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !flagged {
		return nil, NewPreconditionError("completion requires the verification code to be validated first")
	}

	entry := models.StatusEntry{Status: models.StatusCompleted, ChangedAt: time.Now().UTC()}
	completed, err := svc.Repo.CompleteOnce(ctx, bookingID, entry)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if completed {
		svc.logger().Info("booking completed", zap.String("bookingID", bookingID))
	}

	updated, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if completed && svc.Notification != nil {
		svc.Notification.NotifyStatusChanged(ctx, updated, models.StatusCompleted)
	}
	return updated, nil
}

// SubmitFeedback records the customer's rating and review on a completed booking.
func (svc *DefaultBookingService) SubmitFeedback(ctx context.Context, bookingID, customerID string, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating must be between 1 and 5")
	}

	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Customer != customerID {
		return NewAuthorizationError("only the booking customer can submit feedback")
	}
	if cur := b.CurrentStatus(); cur != models.StatusCompleted {
		return NewPreconditionError("feedback requires a completed booking, current status is %s", cur)
	}

	applied, err := svc.Repo.SetFeedback(ctx, bookingID, customerID, rating, review)
	if err != nil {
		return &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !applied {
		return NewPreconditionError("booking changed concurrently, please retry")
	}
	svc.logger().Info("feedback recorded",
		zap.String("bookingID", bookingID),
		zap.Int("rating", rating))
	return nil
}

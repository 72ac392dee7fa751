package booking

import (
	"context"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"go.uber.org/zap"
)

// UpdateStatus applies a provider-side transition: accept or reject a pending
// request, or propose an alternate slot on a confirmed booking. Authorization
// is checked before state legality; the transition itself is a conditional
// update guarded on the current status, so no history entry is written when a
// concurrent transition got there first.
func (svc *DefaultBookingService) UpdateStatus(ctx context.Context, bookingID, providerID, status string, newSlot *models.TimeSlot) (*models.Booking, error) {
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Provider != providerID {
		return nil, NewAuthorizationError("only the booked provider can update this booking")
	}

	entry := models.StatusEntry{Status: status, ChangedAt: time.Now().UTC()}
	var applied bool

	switch status {
	case models.StatusConfirmed, models.StatusRejected:
		if cur := b.CurrentStatus(); cur != models.StatusPending {
			return nil, NewValidationError("cannot move a %s booking to %s", cur, status)
		}
		applied, err = svc.Repo.AppendStatus(ctx, bookingID, []string{models.StatusPending}, entry)

	case models.StatusUpdateTime:
		if cur := b.CurrentStatus(); cur != models.StatusConfirmed {
			return nil, NewValidationError("a new time can only be proposed on a confirmed booking")
		}
		if newSlot == nil {
			return nil, NewValidationError("updated time slot is required")
		}
		if err := validateSlot(*newSlot); err != nil {
			return nil, err
		}
		applied, err = svc.Repo.ProposeSlot(ctx, bookingID, *newSlot, entry)

	default:
		return nil, NewValidationError("invalid status %q", status)
	}

	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !applied {
		return nil, NewPreconditionError("booking changed concurrently, please retry")
	}

	svc.logger().Info("booking status updated",
		zap.String("bookingID", bookingID),
		zap.String("status", status))
	updated, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if svc.Notification != nil {
		svc.Notification.NotifyStatusChanged(ctx, updated, status)
	}
	if status == models.StatusConfirmed {
		svc.scheduleReminder(ctx, updated)
	}
	return updated, nil
}

// scheduleReminder queues a pre-start reminder; scheduling failures are
// logged but never fail the transition that triggered them.
func (svc *DefaultBookingService) scheduleReminder(ctx context.Context, b *models.Booking) {
	if svc.Reminders == nil {
		return
	}
	if err := svc.Reminders.ScheduleReminder(ctx, b); err != nil {
		svc.logger().Warn("failed to schedule booking reminder",
			zap.String("bookingID", b.ID),
			zap.Error(err))
	}
}

// CustomerRespond applies a customer-side transition. While a time proposal
// is pending, "accepted" adopts the proposed slot and "cancelled" declines
// it. Otherwise "cancelled" cancels an active booking, guarded by the
// cancellation cutoff window before the scheduled start.
func (svc *DefaultBookingService) CustomerRespond(ctx context.Context, bookingID, customerID, response string) (*models.Booking, error) {
	if response != "accepted" && response != models.StatusCancelled {
		return nil, NewValidationError("response must be accepted or cancelled")
	}

	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Customer != customerID {
		return nil, NewAuthorizationError("only the booking customer can respond")
	}

	now := time.Now().UTC()
	var applied bool

	switch cur := b.CurrentStatus(); {
	case cur == models.StatusUpdateTime:
		if b.UpdatedSlot == nil {
			return nil, NewPreconditionError("no pending time proposal on this booking")
		}
		if response == "accepted" {
			entry := models.StatusEntry{Status: models.StatusConfirmed, ChangedAt: now}
			applied, err = svc.Repo.ResolveProposedSlot(ctx, bookingID, true, entry)
		} else {
			entry := models.StatusEntry{Status: models.StatusCancelled, ChangedAt: now}
			applied, err = svc.Repo.ResolveProposedSlot(ctx, bookingID, false, entry)
		}

	case cur == models.StatusPending || cur == models.StatusConfirmed:
		if response != models.StatusCancelled {
			return nil, NewValidationError("no pending time proposal to accept")
		}
		start := b.StartTime(svc.location())
		if time.Until(start) < svc.cutoff() {
			return nil, NewPreconditionError(
				"bookings cannot be cancelled within %d minutes of the start time",
				int(svc.cutoff().Minutes()))
		}
		entry := models.StatusEntry{Status: models.StatusCancelled, ChangedAt: now}
		applied, err = svc.Repo.AppendStatus(ctx, bookingID,
			[]string{models.StatusPending, models.StatusConfirmed}, entry)

	default:
		return nil, NewValidationError("cannot respond to a %s booking", b.CurrentStatus())
	}

	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !applied {
		return nil, NewPreconditionError("booking changed concurrently, please retry")
	}

	svc.logger().Info("customer responded",
		zap.String("bookingID", bookingID),
		zap.String("response", response))
	updated, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if svc.Notification != nil {
		svc.Notification.NotifyStatusChanged(ctx, updated, updated.CurrentStatus())
	}
	if updated.CurrentStatus() == models.StatusConfirmed {
		// The adopted slot moved the start time; queue a fresh reminder.
		svc.scheduleReminder(ctx, updated)
	}
	return updated, nil
}

package booking

import (
	"context"
	"strings"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBooking validates the request, resolves slot conflicts and inserts
// the booking seeded with a pending history entry. The conflict check and
// the insert run under a per-provider lock, so of two concurrent requests
// for overlapping slots at most one wins.
func (svc *DefaultBookingService) CreateBooking(ctx context.Context, customerID string, req CreateBookingRequest) (*models.Booking, error) {
	req.Provider = strings.TrimSpace(req.Provider)
	req.ServiceName = strings.TrimSpace(req.ServiceName)
	if customerID == "" {
		return nil, NewValidationError("missing customer")
	}
	if req.Provider == "" || req.ServiceName == "" || req.Date == "" {
		return nil, NewValidationError("provider, serviceName, date and timeSlot are required")
	}
	if err := validateSlot(req.TimeSlot); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if customerID == req.Provider {
		return nil, NewValidationError("you can't book yourself")
	}
	if req.TotalAmount < 0 || req.ServiceAmount < 0 || req.PlatformFee < 0 {
		return nil, NewValidationError("amounts must not be negative")
	}
	if req.TotalAmount < req.ServiceAmount {
		return nil, NewValidationError("totalAmount must cover the service amount")
	}
	units := req.Units
	if units <= 0 {
		units = 1
	}

	mu := svc.lockProvider(req.Provider)
	mu.Lock()
	defer mu.Unlock()

	blocking, err := svc.Repo.FindOverlapping(ctx, req.Provider, date, req.TimeSlot)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if blocking != nil {
		return nil, &SlotConflictError{Blocking: blocking.TimeSlot}
	}

	now := time.Now().UTC()
	b := &models.Booking{
		ID:            uuid.New().String(),
		Customer:      customerID,
		Provider:      req.Provider,
		ServiceName:   req.ServiceName,
		UnitType:      req.UnitType,
		Units:         units,
		Notes:         req.Notes,
		Address:       req.Address,
		Date:          date,
		TimeSlot:      req.TimeSlot,
		ServiceAmount: req.ServiceAmount,
		PlatformFee:   req.PlatformFee,
		TotalAmount:   req.TotalAmount,
		PaymentStatus: models.PaymentPending,
		PaidBy:        []models.PaymentRecord{},
		StatusHistory: []models.StatusEntry{
			{Status: models.StatusPending, ChangedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.Repo.Insert(ctx, b); err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}

	svc.logger().Info("booking created",
		zap.String("bookingID", b.ID),
		zap.String("provider", b.Provider),
		zap.String("customer", b.Customer))
	if svc.Notification != nil {
		svc.Notification.NotifyBookingRequested(ctx, b)
	}
	return b, nil
}

// BookedSlots returns the occupied intervals for a provider on a calendar
// day. Rejected and cancelled bookings are excluded.
func (svc *DefaultBookingService) BookedSlots(ctx context.Context, providerID, date string) ([]models.TimeSlot, error) {
	if providerID == "" || date == "" {
		return nil, NewValidationError("missing providerId or date")
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	bookings, err := svc.Repo.ListByProviderAndDate(ctx, providerID, day)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	slots := make([]models.TimeSlot, 0, len(bookings))
	for i := range bookings {
		if bookings[i].IsActive() {
			slots = append(slots, bookings[i].TimeSlot)
		}
	}
	return slots, nil
}

// ListProviderBookings returns the provider's incoming requests, newest first.
func (svc *DefaultBookingService) ListProviderBookings(ctx context.Context, providerID string) ([]models.Booking, error) {
	if providerID == "" {
		return nil, NewValidationError("missing provider")
	}
	bookings, err := svc.Repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	return bookings, nil
}

// ListCustomerBookings returns the customer's bookings, newest first.
func (svc *DefaultBookingService) ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	if customerID == "" {
		return nil, NewValidationError("missing customer")
	}
	bookings, err := svc.Repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	return bookings, nil
}

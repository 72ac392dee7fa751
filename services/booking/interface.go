package booking

import (
	"context"
	"sync"
	"time"

	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
	"github.com/vridhi-nahata/ServeGo-Backend/services/notification"

	"go.uber.org/zap"
)

// CreateBookingRequest carries the customer's booking request.
type CreateBookingRequest struct {
	Provider      string          `json:"provider"`
	ServiceName   string          `json:"serviceName"`
	UnitType      string          `json:"unitType"`
	Units         int             `json:"units"`
	Notes         string          `json:"notes"`
	Address       string          `json:"address"`
	Date          string          `json:"date"` // "YYYY-MM-DD"
	TimeSlot      models.TimeSlot `json:"timeSlot"`
	ServiceAmount float64         `json:"serviceAmount"`
	PlatformFee   float64         `json:"platformFee"`
	TotalAmount   float64         `json:"totalAmount"`
}

// BookingService drives the booking lifecycle: request, slot-conflict
// resolution, provider/customer transitions, verification-code handshake,
// dual completion and feedback.
type BookingService interface {
	CreateBooking(ctx context.Context, customerID string, req CreateBookingRequest) (*models.Booking, error)
	BookedSlots(ctx context.Context, providerID, date string) ([]models.TimeSlot, error)
	ListProviderBookings(ctx context.Context, providerID string) ([]models.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error)

	UpdateStatus(ctx context.Context, bookingID, providerID, status string, newSlot *models.TimeSlot) (*models.Booking, error)
	CustomerRespond(ctx context.Context, bookingID, customerID, response string) (*models.Booking, error)

	GenerateCode(ctx context.Context, bookingID, actorID string) (string, error)
	VerifyCode(ctx context.Context, bookingID, providerID, code string) (*models.Booking, error)

	MarkComplete(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	SubmitFeedback(ctx context.Context, bookingID, customerID string, rating int, review string) error
}

// ReminderScheduler queues a pre-start reminder for a booking.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, b *models.Booking) error
}

// DefaultBookingService implements BookingService over the booking repository.
type DefaultBookingService struct {
	Repo         bookingRepo.BookingRepository
	Notification notification.NotificationService
	Reminders    ReminderScheduler
	Logger       *zap.Logger

	// CancelCutoff is how close to the scheduled start a customer may still
	// cancel; Location is the timezone the start instant is computed in.
	CancelCutoff time.Duration
	Location     *time.Location

	// providerLocks serializes the slot-conflict check-then-insert per
	// provider; the document store is the single logical authority, so an
	// in-process lock closes the race.
	providerLocks sync.Map // providerID -> *sync.Mutex
}

func (svc *DefaultBookingService) lockProvider(providerID string) *sync.Mutex {
	mu, _ := svc.providerLocks.LoadOrStore(providerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (svc *DefaultBookingService) location() *time.Location {
	if svc.Location != nil {
		return svc.Location
	}
	return time.UTC
}

func (svc *DefaultBookingService) cutoff() time.Duration {
	if svc.CancelCutoff > 0 {
		return svc.CancelCutoff
	}
	return 120 * time.Minute
}

func (svc *DefaultBookingService) logger() *zap.Logger {
	if svc.Logger != nil {
		return svc.Logger
	}
	return zap.NewNop()
}

// getBooking fetches a booking and maps a missing document to NotFoundError.
func (svc *DefaultBookingService) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := svc.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if b == nil {
		return nil, &NotFoundError{ID: id}
	}
	return b, nil
}

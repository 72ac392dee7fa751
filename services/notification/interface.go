package notification

import (
	"context"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"go.uber.org/zap"
)

// NotificationService publishes fire-and-forget booking lifecycle notices.
// Delivery (email, push) is handled by an external collaborator; failures
// here never affect the booking operation that triggered them.
type NotificationService interface {
	NotifyBookingRequested(ctx context.Context, booking *models.Booking)
	NotifyStatusChanged(ctx context.Context, booking *models.Booking, status string)
	NotifyPaymentReceived(ctx context.Context, booking *models.Booking)
	NotifyUpcomingBooking(ctx context.Context, booking *models.Booking)
}

// DefaultNotificationService logs each notice for the delivery collaborator
// to pick up.
type DefaultNotificationService struct {
	Logger *zap.Logger
}

func (s *DefaultNotificationService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *DefaultNotificationService) NotifyBookingRequested(ctx context.Context, booking *models.Booking) {
	s.logger().Info("notify: booking requested",
		zap.String("bookingID", booking.ID),
		zap.String("provider", booking.Provider),
		zap.String("service", booking.ServiceName))
}

func (s *DefaultNotificationService) NotifyStatusChanged(ctx context.Context, booking *models.Booking, status string) {
	s.logger().Info("notify: booking status changed",
		zap.String("bookingID", booking.ID),
		zap.String("status", status))
}

func (s *DefaultNotificationService) NotifyPaymentReceived(ctx context.Context, booking *models.Booking) {
	s.logger().Info("notify: payment received",
		zap.String("bookingID", booking.ID),
		zap.String("paymentStatus", booking.PaymentStatus))
}

func (s *DefaultNotificationService) NotifyUpcomingBooking(ctx context.Context, booking *models.Booking) {
	s.logger().Info("notify: upcoming booking reminder",
		zap.String("bookingID", booking.ID),
		zap.String("date", booking.Date.Format("2006-01-02")),
		zap.String("from", booking.TimeSlot.From))
}

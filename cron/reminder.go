package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/config"
	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
	"github.com/vridhi-nahata/ServeGo-Backend/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeBookingReminder = "booking:reminder"

type reminderPayload struct {
	BookingID string `json:"bookingId"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// Scheduler enqueues a reminder task ahead of each confirmed booking's
// scheduled start.
type Scheduler struct {
	client *asynq.Client
	lead   time.Duration
	loc    *time.Location
	logger *zap.Logger
}

func NewScheduler(lead time.Duration, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		client: asynq.NewClient(redisOpts()),
		lead:   lead,
		loc:    loc,
		logger: logger,
	}
}

// ScheduleReminder queues a reminder to fire lead time before the booking
// starts. Bookings already inside the lead window get no reminder; the
// worker re-checks booking state at fire time, so a booking cancelled in
// the meantime stays quiet.
func (s *Scheduler) ScheduleReminder(ctx context.Context, b *models.Booking) error {
	fireAt := b.StartTime(s.loc).Add(-s.lead)
	if !fireAt.After(time.Now()) {
		return nil
	}
	payload, err := json.Marshal(reminderPayload{BookingID: b.ID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeBookingReminder, payload)
	if _, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return err
	}
	s.logger.Info("booking reminder scheduled",
		zap.String("bookingID", b.ID),
		zap.Time("fireAt", fireAt))
	return nil
}

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker(repo bookingRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingReminder, handleReminderTask(repo, notifSvc, logger))

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Error("reminder worker stopped", zap.Error(err))
		}
	}()
}

func handleReminderTask(repo bookingRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p reminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Warn("reminder task with invalid payload", zap.Error(err))
			return err
		}

		b, err := repo.GetByID(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if b == nil || !b.IsActive() {
			// Cancelled or rejected since the reminder was queued.
			return nil
		}
		if cur := b.CurrentStatus(); cur != models.StatusConfirmed {
			logger.Debug("skipping reminder, booking no longer confirmed",
				zap.String("bookingID", b.ID),
				zap.String("status", cur))
			return nil
		}

		notifSvc.NotifyUpcomingBooking(ctx, b)
		return nil
	}
}

package bookingRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
)

// MemoryBookingRepo is an in-memory BookingRepository with the same
// conditional-update semantics as the Mongo implementation. It backs the
// service tests and local development without a database.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

var _ BookingRepository = (*MemoryBookingRepo)(nil)

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]*models.Booking)}
}

func cloneBooking(b *models.Booking) *models.Booking {
	cp := *b
	cp.StatusHistory = append([]models.StatusEntry(nil), b.StatusHistory...)
	cp.PaidBy = append([]models.PaymentRecord(nil), b.PaidBy...)
	cp.SplitLinksSent = append([]models.SplitLink(nil), b.SplitLinksSent...)
	if b.UpdatedSlot != nil {
		slot := *b.UpdatedSlot
		cp.UpdatedSlot = &slot
	}
	return &cp
}

func statusIn(b *models.Booking, statuses ...string) bool {
	cur := b.CurrentStatus()
	for _, s := range statuses {
		if cur == s {
			return true
		}
	}
	return false
}

func (repo *MemoryBookingRepo) Insert(ctx context.Context, booking *models.Booking) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, exists := repo.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	repo.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (repo *MemoryBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	b, ok := repo.bookings[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(b), nil
}

func (repo *MemoryBookingRepo) FindOverlapping(ctx context.Context, providerID string, date time.Time, slot models.TimeSlot) (*models.Booking, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, b := range repo.bookings {
		if b.Provider != providerID || !b.Date.Equal(date) || !b.IsActive() {
			continue
		}
		if b.TimeSlot.From < slot.To && slot.From < b.TimeSlot.To {
			return cloneBooking(b), nil
		}
	}
	return nil, nil
}

func (repo *MemoryBookingRepo) list(match func(b *models.Booking) bool) []models.Booking {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var out []models.Booking
	for _, b := range repo.bookings {
		if match(b) {
			out = append(out, *cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (repo *MemoryBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return repo.list(func(b *models.Booking) bool { return b.Provider == providerID }), nil
}

func (repo *MemoryBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return repo.list(func(b *models.Booking) bool { return b.Customer == customerID }), nil
}

func (repo *MemoryBookingRepo) ListByProviderAndDate(ctx context.Context, providerID string, date time.Time) ([]models.Booking, error) {
	return repo.list(func(b *models.Booking) bool {
		return b.Provider == providerID && b.Date.Equal(date)
	}), nil
}

// update applies fn to the stored booking under the lock; fn returns whether
// its guard matched, mirroring a conditional document update.
func (repo *MemoryBookingRepo) update(id string, fn func(b *models.Booking) bool) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	b, ok := repo.bookings[id]
	if !ok {
		return false, nil
	}
	if !fn(b) {
		return false, nil
	}
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (repo *MemoryBookingRepo) AppendStatus(ctx context.Context, id string, expectCurrent []string, entry models.StatusEntry) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if !statusIn(b, expectCurrent...) {
			return false
		}
		b.StatusHistory = append(b.StatusHistory, entry)
		return true
	})
}

func (repo *MemoryBookingRepo) ProposeSlot(ctx context.Context, id string, slot models.TimeSlot, entry models.StatusEntry) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if !statusIn(b, models.StatusConfirmed) {
			return false
		}
		s := slot
		b.UpdatedSlot = &s
		b.StatusHistory = append(b.StatusHistory, entry)
		return true
	})
}

func (repo *MemoryBookingRepo) ResolveProposedSlot(ctx context.Context, id string, accept bool, entry models.StatusEntry) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if b.UpdatedSlot == nil || !statusIn(b, models.StatusUpdateTime) {
			return false
		}
		if accept {
			b.TimeSlot = *b.UpdatedSlot
		}
		b.UpdatedSlot = nil
		b.StatusHistory = append(b.StatusHistory, entry)
		return true
	})
}

func (repo *MemoryBookingRepo) ClaimOTP(ctx context.Context, id string, code string) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if b.OTP != "" {
			return false
		}
		b.OTP = code
		return true
	})
}

func (repo *MemoryBookingRepo) MarkOTPVerified(ctx context.Context, id string, code string, entry models.StatusEntry) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if b.OTP != code || b.OTPVerified || !statusIn(b, models.StatusConfirmed) {
			return false
		}
		b.OTPVerified = true
		b.StatusHistory = append(b.StatusHistory, entry)
		return true
	})
}

func (repo *MemoryBookingRepo) SetCompletionFlag(ctx context.Context, id string, byProvider bool) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if !b.OTPVerified {
			return false
		}
		if byProvider {
			b.CompletedByProvider = true
		} else {
			b.CompletedByCustomer = true
		}
		return true
	})
}

func (repo *MemoryBookingRepo) CompleteOnce(ctx context.Context, id string, entry models.StatusEntry) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if !b.CompletedByCustomer || !b.CompletedByProvider || statusIn(b, models.StatusCompleted) {
			return false
		}
		b.StatusHistory = append(b.StatusHistory, entry)
		return true
	})
}

func (repo *MemoryBookingRepo) ReplacePayment(ctx context.Context, id string, expectedVersion int64, booking *models.Booking) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if b.Version != expectedVersion {
			return false
		}
		b.PaymentMethod = booking.PaymentMethod
		b.PaymentStatus = booking.PaymentStatus
		b.PaidBy = append([]models.PaymentRecord(nil), booking.PaidBy...)
		b.SplitLinksSent = append([]models.SplitLink(nil), booking.SplitLinksSent...)
		b.Version++
		return true
	})
}

func (repo *MemoryBookingRepo) FindBySplitLink(ctx context.Context, link string) (*models.Booking, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, b := range repo.bookings {
		for _, l := range b.SplitLinksSent {
			if l.Link == link {
				return cloneBooking(b), nil
			}
		}
	}
	return nil, nil
}

func (repo *MemoryBookingRepo) SetFeedback(ctx context.Context, id string, customerID string, rating int, review string) (bool, error) {
	return repo.update(id, func(b *models.Booking) bool {
		if b.Customer != customerID || !statusIn(b, models.StatusCompleted) {
			return false
		}
		b.Rating = rating
		b.Review = review
		return true
	})
}

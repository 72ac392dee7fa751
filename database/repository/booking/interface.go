package bookingRepo

import (
	"context"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
)

// BookingRepository abstracts storage for the booking aggregate. Every
// mutating method is a single conditional document update: the boolean
// result reports whether the guard matched, allowing the service layer to
// distinguish a lost race from success without partial writes.
type BookingRepository interface {
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)

	// FindOverlapping returns an active booking for the provider on the given
	// calendar day whose slot overlaps the candidate, or nil when the slot is free.
	FindOverlapping(ctx context.Context, providerID string, date time.Time, slot models.TimeSlot) (*models.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListByProviderAndDate(ctx context.Context, providerID string, date time.Time) ([]models.Booking, error)

	// AppendStatus appends a history entry when the current status is one of
	// expectCurrent.
	AppendStatus(ctx context.Context, id string, expectCurrent []string, entry models.StatusEntry) (bool, error)
	// ProposeSlot records a provider-proposed alternate slot on a confirmed booking.
	ProposeSlot(ctx context.Context, id string, slot models.TimeSlot, entry models.StatusEntry) (bool, error)
	// ResolveProposedSlot accepts (copying the proposal into timeSlot) or
	// declines a pending time proposal, clearing it either way.
	ResolveProposedSlot(ctx context.Context, id string, accept bool, entry models.StatusEntry) (bool, error)

	// ClaimOTP stores the code if no code exists yet; false means another
	// issuance already claimed it.
	ClaimOTP(ctx context.Context, id string, code string) (bool, error)
	// MarkOTPVerified flips otpVerified and appends the in-progress entry in
	// one update, guarded on an exact code match and confirmed status.
	MarkOTPVerified(ctx context.Context, id string, code string, entry models.StatusEntry) (bool, error)

	// SetCompletionFlag sets the actor's completion flag; guarded on otpVerified.
	SetCompletionFlag(ctx context.Context, id string, byProvider bool) (bool, error)
	// CompleteOnce appends the completed entry when both completion flags are
	// set and the booking is not already completed. At most one concurrent
	// caller observes true.
	CompleteOnce(ctx context.Context, id string, entry models.StatusEntry) (bool, error)

	// ReplacePayment overwrites the payment sub-ledger if the stored version
	// matches; false signals a concurrent ledger mutation.
	ReplacePayment(ctx context.Context, id string, expectedVersion int64, booking *models.Booking) (bool, error)
	FindBySplitLink(ctx context.Context, link string) (*models.Booking, error)

	SetFeedback(ctx context.Context, id string, customerID string, rating int, review string) (bool, error)
}

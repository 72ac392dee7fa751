package models

import "time"

// Booking statuses. The current status of a booking is the status of the
// last entry in its StatusHistory.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusRejected   = "rejected"
	StatusUpdateTime = "update-time"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment methods.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCash   = "cash"
	PaymentMethodSplit  = "split"
)

// Payment statuses.
const (
	PaymentPending       = "pending"
	PaymentPartial       = "partial"
	PaymentPaid          = "paid"
	PaymentCashInitiated = "cash_initiated"
)

// TimeSlot is a [From,To) time-of-day interval in "HH:MM" format.
type TimeSlot struct {
	From string `bson:"from" json:"from"`
	To   string `bson:"to" json:"to"`
}

// StatusEntry is one element of a booking's append-only status history.
type StatusEntry struct {
	Status    string    `bson:"status" json:"status"`
	ChangedAt time.Time `bson:"changedAt" json:"changedAt"`
}

// PaymentRecord is one payer's contribution towards the booking total.
type PaymentRecord struct {
	UserID    string  `bson:"userId" json:"userId"`
	Amount    float64 `bson:"amount" json:"amount"`
	PaymentID string  `bson:"paymentId" json:"paymentId"`
}

// SplitLink tracks a payment link sent to one payee of a split payment.
type SplitLink struct {
	Email string `bson:"email" json:"email"`
	Link  string `bson:"link" json:"link"`
	Paid  bool   `bson:"paid" json:"paid"`
}

// Booking is the aggregate root for a requested appointment between a
// customer and a service provider. One document per booking; never deleted,
// terminal states are completed, rejected and cancelled.
type Booking struct {
	ID       string `bson:"id" json:"id"`
	Customer string `bson:"customer" json:"customer"`
	Provider string `bson:"provider" json:"provider"`

	ServiceName string `bson:"serviceName" json:"serviceName"`
	UnitType    string `bson:"unitType" json:"unitType"` // e.g. "fixed", "hour", "kg"
	Units       int    `bson:"units" json:"units"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
	Address     string `bson:"address" json:"address"`

	Date        time.Time `bson:"date" json:"date"` // normalized to UTC midnight
	TimeSlot    TimeSlot  `bson:"timeSlot" json:"timeSlot"`
	UpdatedSlot *TimeSlot `bson:"updatedSlot,omitempty" json:"updatedSlot,omitempty"`

	ServiceAmount float64 `bson:"serviceAmount" json:"serviceAmount"`
	PlatformFee   float64 `bson:"platformFee" json:"platformFee"`
	TotalAmount   float64 `bson:"totalAmount" json:"totalAmount"`

	PaymentMethod  string          `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentStatus  string          `bson:"paymentStatus" json:"paymentStatus"`
	PaidBy         []PaymentRecord `bson:"paidBy" json:"paidBy"`
	SplitLinksSent []SplitLink     `bson:"splitLinksSent" json:"splitLinksSent"`

	OTP         string `bson:"otp,omitempty" json:"-"`
	OTPVerified bool   `bson:"otpVerified" json:"otpVerified"`

	CompletedByCustomer bool `bson:"completedByCustomer" json:"completedByCustomer"`
	CompletedByProvider bool `bson:"completedByProvider" json:"completedByProvider"`

	Rating int    `bson:"rating,omitempty" json:"rating,omitempty"`
	Review string `bson:"review,omitempty" json:"review,omitempty"`

	StatusHistory []StatusEntry `bson:"statusHistory" json:"statusHistory"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Version   int64     `bson:"version" json:"-"` // optimistic concurrency token
}

// CurrentStatus returns the status of the last history entry, or the empty
// string for a malformed booking with no history.
func (b *Booking) CurrentStatus() string {
	if len(b.StatusHistory) == 0 {
		return ""
	}
	return b.StatusHistory[len(b.StatusHistory)-1].Status
}

// IsActive reports whether the booking still occupies its slot. Rejected and
// cancelled bookings release the slot for other customers.
func (b *Booking) IsActive() bool {
	switch b.CurrentStatus() {
	case StatusRejected, StatusCancelled:
		return false
	default:
		return true
	}
}

// StartTime returns the booking's scheduled start instant: its calendar
// date combined with the slot's from time, in the given timezone.
func (b *Booking) StartTime(loc *time.Location) time.Time {
	from, err := time.Parse("15:04", b.TimeSlot.From)
	if err != nil {
		return time.Time{}
	}
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), from.Hour(), from.Minute(), 0, 0, loc)
}

// TotalPaid sums the amounts recorded in the PaidBy ledger.
func (b *Booking) TotalPaid() float64 {
	var sum float64
	for _, p := range b.PaidBy {
		sum += p.Amount
	}
	return sum
}

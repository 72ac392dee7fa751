package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
	booking "github.com/vridhi-nahata/ServeGo-Backend/services/booking"

	"go.uber.org/zap"
)

// casRetries bounds the optimistic-concurrency retry loop for payment
// ledger mutations.
const casRetries = 3

// toPaise converts a rupee amount to the smallest currency subunit.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// DerivePaymentStatus recomputes the payment status as a pure function of
// the booking's ledger. It is the only way paymentStatus is ever produced,
// so the persisted field can never drift from the ledger it summarizes.
func DerivePaymentStatus(b *models.Booking) string {
	switch b.PaymentMethod {
	case models.PaymentMethodCash:
		if b.TotalAmount > 0 && b.TotalPaid() >= b.TotalAmount {
			return models.PaymentPaid
		}
		return models.PaymentCashInitiated
	case models.PaymentMethodSplit:
		total := len(b.SplitLinksSent)
		if total == 0 {
			return models.PaymentPending
		}
		paid := 0
		for _, l := range b.SplitLinksSent {
			if l.Paid {
				paid++
			}
		}
		switch {
		case paid == total:
			return models.PaymentPaid
		case paid > 0:
			return models.PaymentPartial
		default:
			return models.PaymentPending
		}
	case models.PaymentMethodOnline:
		switch {
		case b.TotalPaid() >= b.TotalAmount:
			return models.PaymentPaid
		case b.TotalPaid() > 0:
			return models.PaymentPartial
		default:
			return models.PaymentPending
		}
	default:
		return models.PaymentPending
	}
}

// getBooking fetches a booking and maps a missing document to NotFoundError.
func (svc *DefaultPaymentService) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := svc.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, &booking.ExternalServiceError{Service: "booking store", Err: err}
	}
	if b == nil {
		return nil, &booking.NotFoundError{ID: id}
	}
	return b, nil
}

// mutateLedger applies fn to a fresh copy of the booking's payment state and
// persists it with a compare-and-swap on the version token, retrying a
// bounded number of times under contention. fn returns false to signal that
// no write is needed (the mutation is already reflected).
func (svc *DefaultPaymentService) mutateLedger(ctx context.Context, bookingID string, fn func(b *models.Booking) (bool, error)) (*models.Booking, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		b, err := svc.getBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		dirty, err := fn(b)
		if err != nil {
			return nil, err
		}
		if !dirty {
			return b, nil
		}
		b.PaymentStatus = DerivePaymentStatus(b)
		applied, err := svc.Repo.ReplacePayment(ctx, bookingID, b.Version, b)
		if err != nil {
			return nil, &booking.ExternalServiceError{Service: "booking store", Err: err}
		}
		if applied {
			b.Version++
			return b, nil
		}
	}
	return nil, booking.NewPreconditionError("payment ledger changed concurrently, please retry")
}

// CreateOrder creates a gateway order for an online payment towards a booking.
func (svc *DefaultPaymentService) CreateOrder(ctx context.Context, bookingID string, amount float64) (*OrderDescriptor, error) {
	if amount <= 0 {
		return nil, booking.NewValidationError("amount must be positive")
	}
	if _, err := svc.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	orderID, err := svc.Gateway.CreateOrder(ctx, toPaise(amount), bookingID)
	if err != nil {
		return nil, &booking.ExternalServiceError{Service: "payment gateway", Err: err}
	}
	return &OrderDescriptor{OrderID: orderID, Amount: amount, Currency: "INR"}, nil
}

// VerifyPayment authenticates a client-submitted payment completion and
// appends it to the paidBy ledger. The signature is recomputed over
// orderID|paymentID with the shared secret; a mismatch is rejected as a
// security event and writes nothing.
func (svc *DefaultPaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*models.Booking, error) {
	if req.BookingID == "" || req.OrderID == "" || req.PaymentID == "" {
		return nil, booking.NewValidationError("bookingId, order id and payment id are required")
	}
	if req.Amount <= 0 {
		return nil, booking.NewValidationError("amount must be positive")
	}
	if !VerifyPaymentSignature(svc.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		svc.logger().Warn("payment signature mismatch",
			zap.String("bookingID", req.BookingID),
			zap.String("orderID", req.OrderID))
		return nil, &SignatureError{Message: "invalid signature"}
	}

	updated, err := svc.mutateLedger(ctx, req.BookingID, func(b *models.Booking) (bool, error) {
		for _, p := range b.PaidBy {
			if p.PaymentID == req.PaymentID {
				return false, nil // duplicate submission of the same payment
			}
		}
		b.PaidBy = append(b.PaidBy, models.PaymentRecord{
			UserID:    req.UserID,
			Amount:    req.Amount,
			PaymentID: req.PaymentID,
		})
		b.PaymentMethod = models.PaymentMethodOnline
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	svc.logger().Info("online payment recorded",
		zap.String("bookingID", updated.ID),
		zap.String("paymentStatus", updated.PaymentStatus))
	if svc.Notification != nil {
		svc.Notification.NotifyPaymentReceived(ctx, updated)
	}
	return updated, nil
}

// SendSplitLinks divides the booking total evenly across the payee emails,
// creates a payment link per payee and records the links unpaid on the
// booking. Webhook deliveries later mark individual links paid.
func (svc *DefaultPaymentService) SendSplitLinks(ctx context.Context, bookingID, customerID string, emails []string) ([]models.SplitLink, error) {
	if len(emails) == 0 {
		return nil, booking.NewValidationError("at least one payee email is required")
	}
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Customer != customerID {
		return nil, booking.NewAuthorizationError("only the booking customer can split the payment")
	}
	if b.TotalAmount <= 0 {
		return nil, booking.NewPreconditionError("booking has no payable amount")
	}

	// Even division in the smallest currency subunit.
	sharePaise := int64(math.Round(b.TotalAmount / float64(len(emails)) * 100))
	description := fmt.Sprintf("Split payment for %s", b.ServiceName)

	links := make([]models.SplitLink, 0, len(emails))
	for _, email := range emails {
		url, err := svc.Gateway.CreatePaymentLink(ctx, sharePaise, email, description)
		if err != nil {
			return nil, &booking.ExternalServiceError{Service: "payment gateway", Err: err}
		}
		links = append(links, models.SplitLink{Email: email, Link: url, Paid: false})
	}

	if _, err := svc.mutateLedger(ctx, bookingID, func(b *models.Booking) (bool, error) {
		b.SplitLinksSent = links
		b.PaymentMethod = models.PaymentMethodSplit
		return true, nil
	}); err != nil {
		return nil, err
	}

	svc.logger().Info("split payment links sent",
		zap.String("bookingID", bookingID),
		zap.Int("payees", len(links)))
	return links, nil
}

// InitiateCash marks the booking for settlement in cash at service time.
func (svc *DefaultPaymentService) InitiateCash(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != b.Customer && actorID != b.Provider {
		return nil, booking.NewAuthorizationError("only the booking parties can initiate cash payment")
	}
	return svc.mutateLedger(ctx, bookingID, func(b *models.Booking) (bool, error) {
		if b.PaymentStatus == models.PaymentPaid {
			return false, booking.NewPreconditionError("booking is already paid")
		}
		b.PaymentMethod = models.PaymentMethodCash
		return true, nil
	})
}

// ConfirmCash records the provider's acknowledgement that the full amount
// was received in cash, settling the ledger.
func (svc *DefaultPaymentService) ConfirmCash(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Provider != providerID {
		return nil, booking.NewAuthorizationError("only the booked provider can confirm cash payment")
	}

	updated, err := svc.mutateLedger(ctx, bookingID, func(b *models.Booking) (bool, error) {
		if b.PaymentStatus == models.PaymentPaid {
			return false, nil
		}
		b.PaymentMethod = models.PaymentMethodCash
		b.PaidBy = append(b.PaidBy, models.PaymentRecord{
			UserID:    b.Customer,
			Amount:    b.TotalAmount,
			PaymentID: "cash",
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if svc.Notification != nil {
		svc.Notification.NotifyPaymentReceived(ctx, updated)
	}
	return updated, nil
}

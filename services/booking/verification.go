package booking

import (
	"context"
	"strings"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
	"github.com/vridhi-nahata/ServeGo-Backend/utils"

	"go.uber.org/zap"
)

// GenerateCode issues the verification code that gates the in-progress
// transition. Issuance is only permitted once the booking is confirmed and
// its scheduled start has been reached, and is idempotent: repeated calls
// return the code already stored on the booking.
func (svc *DefaultBookingService) GenerateCode(ctx context.Context, bookingID, actorID string) (string, error) {
	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if actorID != b.Customer && actorID != b.Provider {
		return "", NewAuthorizationError("only the booking parties can request a verification code")
	}
	if cur := b.CurrentStatus(); cur != models.StatusConfirmed {
		return "", NewPreconditionError("verification code requires a confirmed booking, current status is %s", cur)
	}
	start := b.StartTime(svc.location())
	if time.Now().Before(start) {
		return "", NewPreconditionError("verification code is available from the scheduled start time")
	}
	if b.OTP != "" {
		return b.OTP, nil
	}

	code, err := utils.GenerateNumericOTP()
	if err != nil {
		return "", &ExternalServiceError{Service: "code generator", Err: err}
	}
	claimed, err := svc.Repo.ClaimOTP(ctx, bookingID, code)
	if err != nil {
		return "", &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !claimed {
		// A concurrent issuance won the claim; return its code.
		b, err = svc.getBooking(ctx, bookingID)
		if err != nil {
			return "", err
		}
		return b.OTP, nil
	}

	svc.logger().Info("verification code issued", zap.String("bookingID", bookingID))
	return code, nil
}

// VerifyCode validates the code presented to the provider at service start.
// A match sets otpVerified and appends the in-progress entry in one update;
// a mismatch reveals nothing about the stored code and writes nothing.
func (svc *DefaultBookingService) VerifyCode(ctx context.Context, bookingID, providerID, code string) (*models.Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewValidationError("verification code is required")
	}

	b, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Provider != providerID {
		return nil, NewAuthorizationError("only the booked provider can verify the code")
	}
	if b.OTP == "" {
		return nil, NewPreconditionError("no verification code has been issued for this booking")
	}
	if cur := b.CurrentStatus(); cur != models.StatusConfirmed {
		return nil, NewPreconditionError("verification requires a confirmed booking, current status is %s", cur)
	}

	entry := models.StatusEntry{Status: models.StatusInProgress, ChangedAt: time.Now().UTC()}
	matched, err := svc.Repo.MarkOTPVerified(ctx, bookingID, code, entry)
	if err != nil {
		return nil, &ExternalServiceError{Service: "booking store", Err: err}
	}
	if !matched {
		return nil, NewValidationError("incorrect verification code")
	}

	svc.logger().Info("verification code accepted", zap.String("bookingID", bookingID))
	updated, err := svc.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if svc.Notification != nil {
		svc.Notification.NotifyStatusChanged(ctx, updated, models.StatusInProgress)
	}
	return updated, nil
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
	booking "github.com/vridhi-nahata/ServeGo-Backend/services/booking"
)

// fakeGateway records the orders and payment links it was asked to create.
type fakeGateway struct {
	orders      []int64
	linkAmounts []int64
	linkEmails  []string
	fail        bool
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (string, error) {
	if g.fail {
		return "", errors.New("gateway down")
	}
	g.orders = append(g.orders, amountPaise)
	return fmt.Sprintf("order_%d", len(g.orders)), nil
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, amountPaise int64, email, description string) (string, error) {
	if g.fail {
		return "", errors.New("gateway down")
	}
	g.linkAmounts = append(g.linkAmounts, amountPaise)
	g.linkEmails = append(g.linkEmails, email)
	return fmt.Sprintf("https://rzp.io/l/%d", len(g.linkAmounts)), nil
}

const testKeySecret = "key-secret"
const testWebhookSecret = "webhook-secret"

func newTestService() (*DefaultPaymentService, *bookingRepo.MemoryBookingRepo, *fakeGateway) {
	repo := bookingRepo.NewMemoryBookingRepo()
	gw := &fakeGateway{}
	svc := &DefaultPaymentService{
		Repo:          repo,
		Gateway:       gw,
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	}
	return svc, repo, gw
}

func seedBooking(t *testing.T, repo *bookingRepo.MemoryBookingRepo, total float64) *models.Booking {
	t.Helper()
	now := time.Now().UTC()
	b := &models.Booking{
		ID:            "bk-1",
		Customer:      "cust-1",
		Provider:      "prov-1",
		ServiceName:   "Deep Cleaning",
		Date:          time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		TimeSlot:      models.TimeSlot{From: "09:00", To: "10:00"},
		TotalAmount:   total,
		PaymentStatus: models.PaymentPending,
		StatusHistory: []models.StatusEntry{
			{Status: models.StatusPending, ChangedAt: now},
		},
		CreatedAt: now,
	}
	if err := repo.Insert(context.Background(), b); err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	return b
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name string
		b    models.Booking
		want string
	}{
		{"no method no payments", models.Booking{TotalAmount: 100}, models.PaymentPending},
		{"online unpaid", models.Booking{PaymentMethod: models.PaymentMethodOnline, TotalAmount: 100}, models.PaymentPending},
		{"online partial", models.Booking{
			PaymentMethod: models.PaymentMethodOnline, TotalAmount: 100,
			PaidBy: []models.PaymentRecord{{Amount: 40}},
		}, models.PaymentPartial},
		{"online paid", models.Booking{
			PaymentMethod: models.PaymentMethodOnline, TotalAmount: 100,
			PaidBy: []models.PaymentRecord{{Amount: 60}, {Amount: 40}},
		}, models.PaymentPaid},
		{"online overpaid", models.Booking{
			PaymentMethod: models.PaymentMethodOnline, TotalAmount: 100,
			PaidBy: []models.PaymentRecord{{Amount: 150}},
		}, models.PaymentPaid},
		{"cash unconfirmed", models.Booking{PaymentMethod: models.PaymentMethodCash, TotalAmount: 100}, models.PaymentCashInitiated},
		{"cash settled", models.Booking{
			PaymentMethod: models.PaymentMethodCash, TotalAmount: 100,
			PaidBy: []models.PaymentRecord{{Amount: 100, PaymentID: "cash"}},
		}, models.PaymentPaid},
		{"split none paid", models.Booking{
			PaymentMethod: models.PaymentMethodSplit, TotalAmount: 300,
			SplitLinksSent: []models.SplitLink{{Link: "a"}, {Link: "b"}, {Link: "c"}},
		}, models.PaymentPending},
		{"split some paid", models.Booking{
			PaymentMethod: models.PaymentMethodSplit, TotalAmount: 300,
			SplitLinksSent: []models.SplitLink{{Link: "a", Paid: true}, {Link: "b", Paid: true}, {Link: "c"}},
		}, models.PaymentPartial},
		{"split all paid", models.Booking{
			PaymentMethod: models.PaymentMethodSplit, TotalAmount: 300,
			SplitLinksSent: []models.SplitLink{{Link: "a", Paid: true}, {Link: "b", Paid: true}, {Link: "c", Paid: true}},
		}, models.PaymentPaid},
	}
	for _, tc := range cases {
		if got := DerivePaymentStatus(&tc.b); got != tc.want {
			t.Errorf("%s: DerivePaymentStatus = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCreateOrder(t *testing.T) {
	svc, repo, gw := newTestService()
	seedBooking(t, repo, 550)

	order, err := svc.CreateOrder(context.Background(), "bk-1", 550)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.OrderID == "" || order.Currency != "INR" {
		t.Fatalf("order = %+v", order)
	}
	if len(gw.orders) != 1 || gw.orders[0] != 55000 {
		t.Fatalf("gateway orders = %v, want one order of 55000 paise", gw.orders)
	}

	if _, err := svc.CreateOrder(context.Background(), "bk-1", 0); err == nil {
		t.Fatal("zero amount accepted")
	}
	var nf *booking.NotFoundError
	if _, err := svc.CreateOrder(context.Background(), "missing", 100); !errors.As(err, &nf) {
		t.Fatalf("unknown booking: got %v, want not found", err)
	}
}

func TestVerifyPayment(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 550)
	ctx := context.Background()

	req := VerifyPaymentRequest{
		BookingID: "bk-1",
		UserID:    "cust-1",
		Amount:    550,
		OrderID:   "order_1",
		PaymentID: "pay_1",
	}

	// A forged signature is rejected and writes nothing.
	req.Signature = "deadbeef"
	_, err := svc.VerifyPayment(ctx, req)
	var serr *SignatureError
	if !errors.As(err, &serr) {
		t.Fatalf("forged signature: got %v, want signature error", err)
	}
	untouched, _ := repo.GetByID(ctx, "bk-1")
	if len(untouched.PaidBy) != 0 {
		t.Fatalf("forged signature reached the ledger: %+v", untouched.PaidBy)
	}

	req.Signature = signHex(testKeySecret, req.OrderID+"|"+req.PaymentID)
	updated, err := svc.VerifyPayment(ctx, req)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if updated.PaymentStatus != models.PaymentPaid {
		t.Fatalf("payment status = %q, want paid", updated.PaymentStatus)
	}
	if len(updated.PaidBy) != 1 || updated.PaidBy[0].PaymentID != "pay_1" {
		t.Fatalf("ledger = %+v", updated.PaidBy)
	}

	// Resubmitting the same payment id is a no-op.
	again, err := svc.VerifyPayment(ctx, req)
	if err != nil {
		t.Fatalf("VerifyPayment (repeat): %v", err)
	}
	if len(again.PaidBy) != 1 {
		t.Fatalf("duplicate submission grew the ledger: %+v", again.PaidBy)
	}
}

func TestVerifyPaymentPartial(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 550)
	ctx := context.Background()

	req := VerifyPaymentRequest{
		BookingID: "bk-1",
		UserID:    "cust-1",
		Amount:    200,
		OrderID:   "order_1",
		PaymentID: "pay_1",
	}
	req.Signature = signHex(testKeySecret, req.OrderID+"|"+req.PaymentID)
	updated, err := svc.VerifyPayment(ctx, req)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if updated.PaymentStatus != models.PaymentPartial {
		t.Fatalf("payment status = %q, want partial", updated.PaymentStatus)
	}
}

func TestSendSplitLinksEvenShares(t *testing.T) {
	svc, repo, gw := newTestService()
	seedBooking(t, repo, 300)
	ctx := context.Background()

	emails := []string{"a@x.in", "b@x.in", "c@x.in"}
	links, err := svc.SendSplitLinks(ctx, "bk-1", "cust-1", emails)
	if err != nil {
		t.Fatalf("SendSplitLinks: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("got %d links, want 3", len(links))
	}
	for i, amount := range gw.linkAmounts {
		if amount != 10000 {
			t.Fatalf("link %d amount = %d paise, want 10000", i, amount)
		}
	}
	stored, _ := repo.GetByID(ctx, "bk-1")
	if stored.PaymentMethod != models.PaymentMethodSplit {
		t.Fatalf("method = %q, want split", stored.PaymentMethod)
	}
	if stored.PaymentStatus != models.PaymentPending {
		t.Fatalf("status = %q, want pending before any link is paid", stored.PaymentStatus)
	}
	for _, l := range stored.SplitLinksSent {
		if l.Paid {
			t.Fatalf("link %s born paid", l.Link)
		}
	}
}

func TestSendSplitLinksOnlyCustomer(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)

	_, err := svc.SendSplitLinks(context.Background(), "bk-1", "prov-1", []string{"a@x.in"})
	var aerr *booking.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("got %v, want authorization error", err)
	}
}

func TestCashFlow(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 550)
	ctx := context.Background()

	initiated, err := svc.InitiateCash(ctx, "bk-1", "cust-1")
	if err != nil {
		t.Fatalf("InitiateCash: %v", err)
	}
	if initiated.PaymentStatus != models.PaymentCashInitiated {
		t.Fatalf("status = %q, want cash_initiated", initiated.PaymentStatus)
	}

	// Only the provider can confirm receipt.
	_, err = svc.ConfirmCash(ctx, "bk-1", "cust-1")
	var aerr *booking.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("customer confirm: got %v, want authorization error", err)
	}

	confirmed, err := svc.ConfirmCash(ctx, "bk-1", "prov-1")
	if err != nil {
		t.Fatalf("ConfirmCash: %v", err)
	}
	if confirmed.PaymentStatus != models.PaymentPaid {
		t.Fatalf("status = %q, want paid", confirmed.PaymentStatus)
	}
	if len(confirmed.PaidBy) != 1 || confirmed.PaidBy[0].PaymentID != "cash" {
		t.Fatalf("ledger = %+v", confirmed.PaidBy)
	}

	// Confirming again does not grow the ledger.
	again, err := svc.ConfirmCash(ctx, "bk-1", "prov-1")
	if err != nil {
		t.Fatalf("ConfirmCash (repeat): %v", err)
	}
	if len(again.PaidBy) != 1 {
		t.Fatalf("repeat confirm grew the ledger: %+v", again.PaidBy)
	}

	// Initiating cash on a settled booking is refused.
	_, err = svc.InitiateCash(ctx, "bk-1", "cust-1")
	var perr *booking.PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("initiate after paid: got %v, want precondition error", err)
	}
}

func TestInitiateCashOnlyParties(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 550)

	_, err := svc.InitiateCash(context.Background(), "bk-1", "stranger")
	var aerr *booking.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("got %v, want authorization error", err)
	}
}

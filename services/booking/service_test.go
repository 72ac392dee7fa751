package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"
)

func newTestService() (*DefaultBookingService, *bookingRepo.MemoryBookingRepo) {
	repo := bookingRepo.NewMemoryBookingRepo()
	svc := &DefaultBookingService{
		Repo:     repo,
		Location: time.UTC,
	}
	return svc, repo
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		Provider:      "prov-1",
		ServiceName:   "Deep Cleaning",
		UnitType:      "hour",
		Units:         2,
		Address:       "42 MG Road",
		Date:          "2026-09-20",
		TimeSlot:      models.TimeSlot{From: "09:00", To: "10:00"},
		ServiceAmount: 500,
		PlatformFee:   50,
		TotalAmount:   550,
	}
}

func TestCreateBookingSeedsPendingHistory(t *testing.T) {
	svc, _ := newTestService()
	b, err := svc.CreateBooking(context.Background(), "cust-1", validRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.ID == "" {
		t.Fatal("booking has no id")
	}
	if len(b.StatusHistory) != 1 || b.StatusHistory[0].Status != models.StatusPending {
		t.Fatalf("history = %+v, want single pending entry", b.StatusHistory)
	}
	if b.CurrentStatus() != models.StatusPending {
		t.Fatalf("current status = %q, want pending", b.CurrentStatus())
	}
	if b.PaymentStatus != models.PaymentPending {
		t.Fatalf("payment status = %q, want pending", b.PaymentStatus)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, repo := newTestService()
	cases := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
	}{
		{"missing provider", func(r *CreateBookingRequest) { r.Provider = "" }},
		{"inverted slot", func(r *CreateBookingRequest) { r.TimeSlot = models.TimeSlot{From: "10:00", To: "09:00"} }},
		{"empty slot", func(r *CreateBookingRequest) { r.TimeSlot = models.TimeSlot{From: "10:00", To: "10:00"} }},
		{"bad date", func(r *CreateBookingRequest) { r.Date = "20-09-2026" }},
		{"negative amount", func(r *CreateBookingRequest) { r.TotalAmount = -1 }},
		{"total below service amount", func(r *CreateBookingRequest) { r.TotalAmount = 100 }},
	}
	for _, tc := range cases {
		req := validRequest()
		tc.mutate(&req)
		_, err := svc.CreateBooking(context.Background(), "cust-1", req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: got %v, want validation error", tc.name, err)
		}
	}
	// Invalid requests must never reach the store.
	stored, err := repo.ListByProvider(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("ListByProvider: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("store holds %d bookings after rejected requests", len(stored))
	}
}

func TestCreateBookingRejectsSelfBooking(t *testing.T) {
	svc, _ := newTestService()
	req := validRequest()
	_, err := svc.CreateBooking(context.Background(), req.Provider, req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestCreateBookingSlotConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.CreateBooking(ctx, "cust-1", validRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Overlapping slot for the same provider and day is refused, and the
	// conflict names the blocking interval.
	req := validRequest()
	req.TimeSlot = models.TimeSlot{From: "09:30", To: "10:30"}
	_, err := svc.CreateBooking(ctx, "cust-2", req)
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want slot conflict", err)
	}
	if conflict.Blocking.From != "09:00" || conflict.Blocking.To != "10:00" {
		t.Fatalf("blocking slot = %+v, want 09:00-10:00", conflict.Blocking)
	}

	// A slot that merely touches the occupied one is free.
	req.TimeSlot = models.TimeSlot{From: "10:00", To: "11:00"}
	if _, err := svc.CreateBooking(ctx, "cust-2", req); err != nil {
		t.Fatalf("adjacent slot refused: %v", err)
	}

	// Same slot on another day is free.
	req = validRequest()
	req.Date = "2026-09-21"
	if _, err := svc.CreateBooking(ctx, "cust-2", req); err != nil {
		t.Fatalf("same slot next day refused: %v", err)
	}

	// Same slot with another provider is free.
	req = validRequest()
	req.Provider = "prov-2"
	if _, err := svc.CreateBooking(ctx, "cust-1", req); err != nil {
		t.Fatalf("same slot other provider refused: %v", err)
	}
}

func TestCreateBookingConcurrentOverlapOneWins(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	reqA := validRequest()
	reqB := validRequest()
	reqB.TimeSlot = models.TimeSlot{From: "09:30", To: "10:30"}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, attempt := range []struct {
		customer string
		req      CreateBookingRequest
	}{
		{"cust-1", reqA},
		{"cust-2", reqB},
	} {
		wg.Add(1)
		go func(customer string, req CreateBookingRequest) {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, customer, req)
			errs <- err
		}(attempt.customer, attempt.req)
	}
	wg.Wait()
	close(errs)

	var created, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			created++
		default:
			var conflict *SlotConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("got %v, want slot conflict", err)
			}
			conflicts++
		}
	}
	if created != 1 || conflicts != 1 {
		t.Fatalf("created = %d, conflicts = %d, want exactly one of each", created, conflicts)
	}

	stored, err := repo.ListByProvider(ctx, "prov-1")
	if err != nil {
		t.Fatalf("ListByProvider: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("store holds %d bookings, want 1", len(stored))
	}
}

func TestCancelledBookingReleasesSlot(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b, err := svc.CreateBooking(ctx, "cust-1", validRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	entry := models.StatusEntry{Status: models.StatusCancelled, ChangedAt: time.Now().UTC()}
	if ok, err := repo.AppendStatus(ctx, b.ID, []string{models.StatusPending}, entry); err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}
	if _, err := svc.CreateBooking(ctx, "cust-2", validRequest()); err != nil {
		t.Fatalf("slot not released after cancellation: %v", err)
	}
}

func TestBookedSlotsExcludesInactive(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	b1, err := svc.CreateBooking(ctx, "cust-1", validRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	req := validRequest()
	req.TimeSlot = models.TimeSlot{From: "11:00", To: "12:00"}
	if _, err := svc.CreateBooking(ctx, "cust-2", req); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	entry := models.StatusEntry{Status: models.StatusRejected, ChangedAt: time.Now().UTC()}
	if ok, err := repo.AppendStatus(ctx, b1.ID, []string{models.StatusPending}, entry); err != nil || !ok {
		t.Fatalf("reject: ok=%v err=%v", ok, err)
	}

	slots, err := svc.BookedSlots(ctx, "prov-1", "2026-09-20")
	if err != nil {
		t.Fatalf("BookedSlots: %v", err)
	}
	if len(slots) != 1 || slots[0].From != "11:00" {
		t.Fatalf("slots = %+v, want only 11:00-12:00", slots)
	}
}

func TestListProviderBookingsNewestFirst(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Insert the older booking directly so ordering is deterministic.
	older := &models.Booking{
		ID:       "b-old",
		Customer: "cust-1",
		Provider: "prov-1",
		Date:     time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		TimeSlot: models.TimeSlot{From: "09:00", To: "10:00"},
		StatusHistory: []models.StatusEntry{
			{Status: models.StatusPending, ChangedAt: time.Now().UTC().Add(-time.Hour)},
		},
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := repo.Insert(ctx, older); err != nil {
		t.Fatalf("insert: %v", err)
	}

	req := validRequest()
	req.TimeSlot = models.TimeSlot{From: "11:00", To: "12:00"}
	second, err := svc.CreateBooking(ctx, "cust-2", req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	list, err := svc.ListProviderBookings(ctx, "prov-1")
	if err != nil {
		t.Fatalf("ListProviderBookings: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d bookings, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != older.ID {
		t.Fatalf("bookings not newest first: got %s, %s", list[0].ID, list[1].ID)
	}
}

func TestUnknownBookingIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpdateStatus(context.Background(), "missing", "prov-1", models.StatusConfirmed, nil)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want not found", err)
	}
}

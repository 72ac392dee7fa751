package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"github.com/go-redis/redis/v8"
)

func paidEventBody(shortURL string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"short_url":"%s"}}}}`,
		shortURL))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)

	body := paidEventBody("https://rzp.io/l/1")
	err := svc.HandleWebhook(context.Background(), body, "not-the-signature", "evt_1")
	var serr *SignatureError
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want signature error", err)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := signHex(testWebhookSecret, string(body))
	if err := svc.HandleWebhook(context.Background(), body, sig, "evt_1"); err != nil {
		t.Fatalf("unrelated event not acknowledged: %v", err)
	}
}

func TestWebhookSettlesSplitLinks(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)
	ctx := context.Background()

	links, err := svc.SendSplitLinks(ctx, "bk-1", "cust-1", []string{"a@x.in", "b@x.in", "c@x.in"})
	if err != nil {
		t.Fatalf("SendSplitLinks: %v", err)
	}

	deliver := func(link, eventID string) {
		t.Helper()
		body := paidEventBody(link)
		sig := signHex(testWebhookSecret, string(body))
		if err := svc.HandleWebhook(ctx, body, sig, eventID); err != nil {
			t.Fatalf("HandleWebhook(%s): %v", link, err)
		}
	}

	deliver(links[0].Link, "evt_1")
	deliver(links[1].Link, "evt_2")
	b, _ := repo.GetByID(ctx, "bk-1")
	if b.PaymentStatus != models.PaymentPartial {
		t.Fatalf("after 2 of 3: status = %q, want partial", b.PaymentStatus)
	}

	deliver(links[2].Link, "evt_3")
	b, _ = repo.GetByID(ctx, "bk-1")
	if b.PaymentStatus != models.PaymentPaid {
		t.Fatalf("after 3 of 3: status = %q, want paid", b.PaymentStatus)
	}

	// Redelivery of an already-processed event changes nothing.
	deliver(links[2].Link, "evt_3")
	again, _ := repo.GetByID(ctx, "bk-1")
	if again.PaymentStatus != models.PaymentPaid {
		t.Fatalf("redelivery changed status to %q", again.PaymentStatus)
	}
	paidCount := 0
	for _, l := range again.SplitLinksSent {
		if l.Paid {
			paidCount++
		}
	}
	if paidCount != 3 {
		t.Fatalf("paid links = %d, want 3", paidCount)
	}
}

func TestWebhookUnknownLinkAcknowledged(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)

	body := paidEventBody("https://rzp.io/l/unknown")
	sig := signHex(testWebhookSecret, string(body))
	if err := svc.HandleWebhook(context.Background(), body, sig, "evt_1"); err != nil {
		t.Fatalf("unknown link not acknowledged: %v", err)
	}
}

// memoEventCache is an in-process stand-in for the redis event id set.
type memoEventCache struct {
	keys map[string]bool
}

func newMemoEventCache() *memoEventCache {
	return &memoEventCache{keys: map[string]bool{}}
}

func (c *memoEventCache) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if c.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (c *memoEventCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.keys[key] = true
	return redis.NewStatusResult("OK", nil)
}

// flakyLedgerRepo fails a bounded number of ledger writes before recovering,
// and counts link lookups so tests can tell a deduped delivery from a
// reprocessed one.
type flakyLedgerRepo struct {
	*bookingRepo.MemoryBookingRepo
	failures int
	lookups  int
}

func (r *flakyLedgerRepo) ReplacePayment(ctx context.Context, id string, expectedVersion int64, b *models.Booking) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, errors.New("store unavailable")
	}
	return r.MemoryBookingRepo.ReplacePayment(ctx, id, expectedVersion, b)
}

func (r *flakyLedgerRepo) FindBySplitLink(ctx context.Context, link string) (*models.Booking, error) {
	r.lookups++
	return r.MemoryBookingRepo.FindBySplitLink(ctx, link)
}

func TestWebhookRedeliveryAfterStoreFailure(t *testing.T) {
	svc, repo, _ := newTestService()
	seedBooking(t, repo, 300)
	ctx := context.Background()

	links, err := svc.SendSplitLinks(ctx, "bk-1", "cust-1", []string{"a@x.in", "b@x.in"})
	if err != nil {
		t.Fatalf("SendSplitLinks: %v", err)
	}

	flaky := &flakyLedgerRepo{MemoryBookingRepo: repo, failures: 1}
	cache := newMemoEventCache()
	svc.Repo = flaky
	svc.Cache = cache

	body := paidEventBody(links[0].Link)
	sig := signHex(testWebhookSecret, string(body))

	if err := svc.HandleWebhook(ctx, body, sig, "evt_1"); err == nil {
		t.Fatal("delivery with failing store did not error")
	}
	if cache.keys["webhook:processed:evt_1"] {
		t.Fatal("event recorded as processed before the ledger write committed")
	}

	// The gateway redelivers with the same event id; it must settle now.
	if err := svc.HandleWebhook(ctx, body, sig, "evt_1"); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	b, _ := repo.GetByID(ctx, "bk-1")
	if b.PaymentStatus != models.PaymentPartial {
		t.Fatalf("status = %q, want partial", b.PaymentStatus)
	}
	if !b.SplitLinksSent[0].Paid {
		t.Fatal("redelivered link not marked paid")
	}
	if !cache.keys["webhook:processed:evt_1"] {
		t.Fatal("settled event not recorded for dedup")
	}

	// A further delivery short-circuits on the recorded id without touching
	// the store.
	lookups := flaky.lookups
	if err := svc.HandleWebhook(ctx, body, sig, "evt_1"); err != nil {
		t.Fatalf("deduped delivery: %v", err)
	}
	if flaky.lookups != lookups {
		t.Fatal("deduped delivery reached the store")
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	svc, _, _ := newTestService()

	body := []byte(`{"event":`)
	sig := signHex(testWebhookSecret, string(body))
	if err := svc.HandleWebhook(context.Background(), body, sig, "evt_1"); err == nil {
		t.Fatal("malformed payload accepted")
	}
}

package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/imrishuroy/vg-orderflow/internal/kv"
	"github.com/imrishuroy/vg-orderflow/internal/pricing"
)

type failingStore struct{ err error }

func (f failingStore) Put(ctx context.Context, rec Record) error { return f.err }
func (f failingStore) Get(ctx context.Context, id string) (*Record, error) {
	return nil, f.err
}

type fakePublisher struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (p *fakePublisher) PublishOrderCreated(ctx context.Context, orderID string, expiresAt int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, orderID)
	if p.fail {
		return errors.New("queue down")
	}
	return nil
}

type fakeRecorder struct {
	created  int
	outcomes []string
}

func (r *fakeRecorder) OrderCreated(ctx context.Context) { r.created++ }
func (r *fakeRecorder) OrderLookup(ctx context.Context, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newTestService(t *testing.T, now *time.Time, opts ...Option) *Service {
	t.Helper()
	store := NewKVStore(kv.NewMemory(), 24*time.Hour)
	opts = append([]Option{WithClock(func() time.Time { return *now })}, opts...)
	return NewService(store, pricing.DefaultTable(), opts...)
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := newTestService(t, &now)
	ctx := context.Background()

	receipt, err := svc.Create(ctx, Selection{Cacao: 90.0, IsIced: true, Size: "L", HasTopping: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.Price != 9500 {
		t.Fatalf("expected price 9500, got %d", receipt.Price)
	}
	if receipt.ExpiresAt != now.UnixMilli()+600000 {
		t.Fatalf("expiresAt mismatch: %d", receipt.ExpiresAt)
	}
	if !ValidOrderID(receipt.OrderID) {
		t.Fatalf("bad order id %q", receipt.OrderID)
	}

	rec, err := svc.Get(ctx, receipt.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Price != receipt.Price || rec.ExpiresAt != receipt.ExpiresAt {
		t.Fatalf("record does not match receipt: %+v vs %+v", rec, receipt)
	}
	if rec.CacaoNormalized != "100" || !rec.IsIced || rec.Size != "L" || rec.HasTopping {
		t.Fatalf("unexpected normalized fields: %+v", rec)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", rec.Status)
	}
	if rec.ExpiresAt != rec.CreatedAt+600000 {
		t.Fatalf("expiresAt must be createdAt + 10m")
	}
}

func TestCreate_DefaultsForSparseSelection(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := newTestService(t, &now)
	ctx := context.Background()

	receipt, err := svc.Create(ctx, Selection{Cacao: 40.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := svc.Get(ctx, receipt.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.CacaoNormalized != pricing.TierMilk || rec.Size != "M" || rec.IsIced || rec.HasTopping {
		t.Fatalf("unexpected defaults: %+v", rec)
	}
	if rec.Price != pricing.DefaultTable().BasePrices[pricing.TierMilk] {
		t.Fatalf("expected milk base price, got %d", rec.Price)
	}
	if rec.ShotCount != nil {
		t.Fatalf("expected no shot count, got %d", *rec.ShotCount)
	}
}

func TestNormalize_LooseInputs(t *testing.T) {
	svc := NewService(nil, pricing.DefaultTable())
	rec := svc.Normalize(Selection{Cacao: "66", IsIced: "yes", Size: 3.0, HasTopping: 1.0, ShotCount: 2.0})
	if rec.CacaoNormalized != "70.5" {
		t.Fatalf("expected 70.5, got %s", rec.CacaoNormalized)
	}
	if !rec.IsIced || !rec.HasTopping {
		t.Fatalf("expected truthy flags, got %+v", rec)
	}
	if rec.Size != "M" {
		t.Fatalf("non-string size should default to M, got %s", rec.Size)
	}
	if rec.ShotCount == nil || *rec.ShotCount != 2 {
		t.Fatalf("expected shot count 2, got %v", rec.ShotCount)
	}
}

func TestNormalize_ShotCountOutOfRange(t *testing.T) {
	tbl := pricing.DefaultTable()
	tbl.ShotAddon = 300
	tbl.IncludedShots = 1
	svc := NewService(nil, tbl)

	for _, shots := range []any{1e300, float64(pricing.MaxShots + 1), -1.0, "9e18"} {
		rec := svc.Normalize(Selection{ShotCount: shots})
		if rec.ShotCount != nil {
			t.Fatalf("shotCount %v: expected it dropped, got %d", shots, *rec.ShotCount)
		}
		if rec.Price != 6800 {
			t.Fatalf("shotCount %v: expected base price 6800, got %d", shots, rec.Price)
		}
	}

	rec := svc.Normalize(Selection{ShotCount: float64(pricing.MaxShots)})
	if rec.ShotCount == nil || *rec.ShotCount != pricing.MaxShots {
		t.Fatalf("expected shot count %d, got %v", pricing.MaxShots, rec.ShotCount)
	}
	if want := 6800 + (pricing.MaxShots-1)*300; rec.Price != want {
		t.Fatalf("expected %d, got %d", want, rec.Price)
	}
}

func TestGet_Expired(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	rec := &fakeRecorder{}
	svc := newTestService(t, &now, WithRecorder(rec))
	ctx := context.Background()

	receipt, err := svc.Create(ctx, Selection{Cacao: 70.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// exactly at expiresAt the order is still live
	now = time.UnixMilli(receipt.ExpiresAt)
	if _, err := svc.Get(ctx, receipt.OrderID); err != nil {
		t.Fatalf("expected live order at expiresAt, got %v", err)
	}

	now = time.UnixMilli(receipt.ExpiresAt + 1)
	got, err := svc.Get(ctx, receipt.OrderID)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got != nil {
		t.Fatalf("expired lookup must not return the record")
	}
	if rec.created != 1 {
		t.Fatalf("expected one created metric, got %d", rec.created)
	}
	if len(rec.outcomes) != 2 || rec.outcomes[0] != LookupFound || rec.outcomes[1] != LookupExpired {
		t.Fatalf("unexpected lookup outcomes %v", rec.outcomes)
	}
}

func TestGet_NotFoundAndInvalid(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, &now)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "VG-NOPE0000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, "  "); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestCreate_StoreFailureReturnsNothing(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(failingStore{err: errors.New("disk full")}, pricing.DefaultTable(), WithPublisher(pub))

	receipt, err := svc.Create(context.Background(), Selection{Cacao: 90.0})
	if err == nil {
		t.Fatal("expected error")
	}
	if receipt != (Receipt{}) {
		t.Fatalf("expected empty receipt, got %+v", receipt)
	}
	if len(pub.ids) != 0 {
		t.Fatalf("no event should be published for a failed create")
	}
}

func TestCreate_NilStore(t *testing.T) {
	svc := NewService(nil, pricing.DefaultTable())
	if _, err := svc.Create(context.Background(), Selection{}); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "VG-AAAA0000"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestCreate_PublishFailureStillSucceeds(t *testing.T) {
	now := time.Now()
	pub := &fakePublisher{fail: true}
	svc := newTestService(t, &now, WithPublisher(pub), WithIDGenerator(func() string { return "VG-FIXED000" }))

	receipt, err := svc.Create(context.Background(), Selection{Cacao: 50.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.OrderID != "VG-FIXED000" {
		t.Fatalf("expected injected id, got %s", receipt.OrderID)
	}
	if len(pub.ids) != 1 || pub.ids[0] != "VG-FIXED000" {
		t.Fatalf("expected one publish attempt, got %v", pub.ids)
	}
}

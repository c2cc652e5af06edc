package orders

import (
	"context"
	"testing"
	"time"

	"github.com/imrishuroy/vg-orderflow/internal/kv"
)

func TestKVStore_PutGet(t *testing.T) {
	binding := kv.NewMemory()
	s := NewKVStore(binding, time.Hour)
	ctx := context.Background()

	rec := Record{OrderID: "VG-BBBB1111", CacaoNormalized: "MILK", Size: "M", Price: 6800, Status: StatusPending, CreatedAt: 10, ExpiresAt: 600010}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, rec.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != rec {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	missing, err := s.Get(ctx, "VG-ZZZZ9999")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got %v %v", missing, err)
	}
}

func TestKVStore_CorruptValue(t *testing.T) {
	binding := kv.NewMemory()
	if err := binding.Put(context.Background(), "VG-BBBB1111", []byte("not json"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := NewKVStore(binding, time.Hour)
	if _, err := s.Get(context.Background(), "VG-BBBB1111"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

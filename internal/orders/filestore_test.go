package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/imrishuroy/vg-orderflow/internal/pricing"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.store.json")
	s := NewFileStore(path)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestFileStore_PutGet(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	if got, err := s.Get(ctx, "VG-AAAA0000"); err != nil || got != nil {
		t.Fatalf("expected empty store, got %v %v", got, err)
	}

	rec := Record{OrderID: "VG-AAAA0000", CacaoNormalized: "100", Size: "L", Price: 8800, Status: StatusPending, CreatedAt: 1, ExpiresAt: 600001}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "VG-AAAA0000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != rec {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var onDisk []map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0]["orderId"] != "VG-AAAA0000" {
		t.Fatalf("unexpected file contents: %s", raw)
	}
}

func TestFileStore_ConcurrentPutsAreSerialized(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Put(ctx, Record{OrderID: fmt.Sprintf("VG-%08d", i), Status: StatusPending})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var all []Record
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(all) != n {
		t.Fatalf("expected %d records, got %d", n, len(all))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestFileStore_NonArrayFileReadsEmpty(t *testing.T) {
	s, path := newFileStore(t)
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Get(context.Background(), "VG-AAAA0000")
	if err != nil || got != nil {
		t.Fatalf("expected empty read, got %v %v", got, err)
	}
	if err := s.Put(context.Background(), Record{OrderID: "VG-AAAA0000"}); err != nil {
		t.Fatalf("put over non-array file: %v", err)
	}
	if got, _ := s.Get(context.Background(), "VG-AAAA0000"); got == nil {
		t.Fatal("expected record after put")
	}
}

func TestFileStore_CorruptFileFails(t *testing.T) {
	s, path := newFileStore(t)
	if err := os.WriteFile(path, []byte(`[{"orderId":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Get(context.Background(), "VG-AAAA0000"); err == nil {
		t.Fatal("expected parse error")
	}
	if err := s.Put(context.Background(), Record{OrderID: "VG-AAAA0000"}); err == nil {
		t.Fatal("expected put to fail on a corrupt store")
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != `[{"orderId":` {
		t.Fatalf("failed put must leave the file untouched, got %s", raw)
	}
}

func TestFileStore_PutAfterClose(t *testing.T) {
	s, _ := newFileStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Put(context.Background(), Record{OrderID: "VG-AAAA0000"}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

func TestFileStore_ServiceRoundTrip(t *testing.T) {
	s, _ := newFileStore(t)
	now := time.UnixMilli(1700000000000)
	svc := NewService(s, pricing.DefaultTable(), WithClock(func() time.Time { return now }))

	receipt, err := svc.Create(context.Background(), Selection{Cacao: 60.0, Size: "XL", HasTopping: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.Price != 6800+1000 {
		t.Fatalf("expected 7800, got %d", receipt.Price)
	}
	rec, err := svc.Get(context.Background(), receipt.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.CacaoNormalized != "57.9" || rec.Size != "XL" || !rec.HasTopping {
		t.Fatalf("unexpected record %+v", rec)
	}

	now = now.Add(TTL + time.Millisecond)
	if _, err := svc.Get(context.Background(), receipt.OrderID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"
)

// ErrStoreClosed is returned by FileStore.Put after Close.
var ErrStoreClosed = errors.New("order store closed")

type writeJob struct {
	rec    Record
	result chan error
}

// FileStore keeps every order in one JSON array file. A single goroutine owns
// all writes and runs them in submission order; each write lands in a temp
// sibling that is renamed over the file, so readers see either the old or the
// new complete array. Reads are not serialized with writes.
type FileStore struct {
	path string
	perm os.FileMode

	mu     sync.RWMutex
	closed bool
	jobs   chan writeJob
	done   chan struct{}
}

// NewFileStore starts the writer for the file at path. Call Close to stop it.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path: path,
		perm: 0o644,
		jobs: make(chan writeJob, 64),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *FileStore) run() {
	defer close(s.done)
	for job := range s.jobs {
		job.result <- s.appendRecord(job.rec)
	}
}

// Put queues rec for appending and waits for the write. Once queued, the
// write runs to completion even if ctx is cancelled.
func (s *FileStore) Put(_ context.Context, rec Record) error {
	job := writeJob{rec: rec, result: make(chan error, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.jobs <- job
	s.mu.RUnlock()

	return <-job.result
}

// Get scans the current file for orderID.
func (s *FileStore) Get(_ context.Context, orderID string) (*Record, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].OrderID == orderID {
			rec := all[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Close stops accepting writes and waits for queued ones to finish.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	<-s.done
	return nil
}

func (s *FileStore) appendRecord(rec Record) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all = append(all, rec)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, s.perm); err != nil {
		return fmt.Errorf("write order store: %w", err)
	}
	return nil
}

// readAll loads the array. A missing file, or a valid JSON document that is
// not an array, reads as empty.
func (s *FileStore) readAll() ([]Record, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read order store: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, fmt.Errorf("parse order store: invalid JSON")
		}
		return nil, nil
	}

	var all []Record
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return nil, fmt.Errorf("parse order store: %w", err)
	}
	return all, nil
}

package observability

import (
	"context"
	"time"

	"github.com/sikndrR/fitnessApp/internal/domain"
)

// InstrumentedStore decorates a domain.Store with latency and error metrics.
type InstrumentedStore struct {
	next    domain.Store
	backend string
	now     func() time.Time
}

// Instrument wraps next. backend labels every sample.
func Instrument(next domain.Store, backend string) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, now: time.Now}
}

// Read implements domain.Store.
func (s *InstrumentedStore) Read(ctx context.Context, path string) (domain.Value, bool, error) {
	started := s.now()
	value, found, err := s.next.Read(ctx, path)
	ObserveStoreOp(s.backend, "read", started, err)
	return value, found, err
}

// Write implements domain.Store.
func (s *InstrumentedStore) Write(ctx context.Context, path string, value domain.Value) error {
	started := s.now()
	err := s.next.Write(ctx, path, value)
	ObserveStoreOp(s.backend, "write", started, err)
	if err == nil {
		RecordWrite(s.now())
	}
	return err
}

// Delete implements domain.Store.
func (s *InstrumentedStore) Delete(ctx context.Context, path string) error {
	started := s.now()
	err := s.next.Delete(ctx, path)
	ObserveStoreOp(s.backend, "delete", started, err)
	if err == nil {
		RecordWrite(s.now())
	}
	return err
}

// WriteIfAbsent implements domain.ConditionalWriter, falling back to
// read-then-write when the wrapped store has no conditional write.
func (s *InstrumentedStore) WriteIfAbsent(ctx context.Context, path string, value domain.Value) (bool, error) {
	started := s.now()
	wrote, err := domain.WriteIfAbsent(ctx, s.next, path, value)
	ObserveStoreOp(s.backend, "write_if_absent", started, err)
	if err == nil && wrote {
		RecordWrite(s.now())
	}
	return wrote, err
}

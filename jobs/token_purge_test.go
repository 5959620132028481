package jobs

import (
	"context"
	"errors"
	"testing"
)

type stubPurger struct {
	purged int64
	err    error
	calls  int
}

func (s *stubPurger) PurgeExpired(context.Context) (int64, error) {
	s.calls++
	return s.purged, s.err
}

func TestTokenPurgeJobHandle(t *testing.T) {
	purger := &stubPurger{purged: 3}
	job := NewTokenPurgeJob(purger, nil)

	if err := job.Handle(context.Background(), NewTokenPurgeTask()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("expected one purge call, got %d", purger.calls)
	}
}

func TestTokenPurgeJobPropagatesError(t *testing.T) {
	wantErr := errors.New("store down")
	job := NewTokenPurgeJob(&stubPurger{err: wantErr}, nil)

	if err := job.Handle(context.Background(), NewTokenPurgeTask()); !errors.Is(err, wantErr) {
		t.Fatalf("expected purge error, got %v", err)
	}
}

func TestTokenPurgeJobMissingDependencies(t *testing.T) {
	var job *TokenPurgeJob
	if err := job.Handle(context.Background(), NewTokenPurgeTask()); err == nil {
		t.Fatalf("expected error for nil job")
	}
	job = &TokenPurgeJob{}
	if err := job.Handle(context.Background(), NewTokenPurgeTask()); err == nil {
		t.Fatalf("expected error for missing purger")
	}
}

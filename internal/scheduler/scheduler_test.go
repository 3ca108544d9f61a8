package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(time.UTC, nil)
	if err := s.Add("bad", "not a spec", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
	if err := s.Add("daily", "0 20 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
}

func TestRunExecutesJobs(t *testing.T) {
	s := New(time.UTC, nil)

	ran := make(chan struct{}, 1)
	err := s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("failures are logged, not fatal")
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

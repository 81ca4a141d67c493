package cronrunner

import (
	"context"
	"testing"
	"time"
)

func TestEveryRejectsSubSecond(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Every(500*time.Millisecond, func(context.Context) {}); err == nil {
		t.Fatalf("expected error for sub-second interval")
	}
}

func TestEveryRunsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(nil, ctx)

	ran := make(chan struct{}, 4)
	if _, err := r.Every(time.Second, func(got context.Context) {
		if got != ctx {
			t.Errorf("job got unexpected context")
		}
		ran <- struct{}{}
	}); err != nil {
		t.Fatalf("every: %v", err)
	}
	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}
}

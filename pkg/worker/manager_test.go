package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestManager_ProcessKeepsOrder(t *testing.T) {
	var calls int32
	tasks := []Task{
		{Name: "file", Run: func(ctx context.Context) error { atomic.AddInt32(&calls, 1); return nil }},
		{Name: "s3", Run: func(ctx context.Context) error { atomic.AddInt32(&calls, 1); return errors.New("denied") }},
		{Name: "mongo", Run: func(ctx context.Context) error { atomic.AddInt32(&calls, 1); return nil }},
	}

	core, logs := observer.New(zapcore.WarnLevel)
	results := NewManager(2, zap.New(core)).Process(context.Background(), tasks)

	if calls != 3 {
		t.Fatalf("Expected 3 calls, got %d", calls)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, name := range []string{"file", "s3", "mongo"} {
		if results[i].Name != name {
			t.Errorf("Result %d: expected %s, got %s", i, name, results[i].Name)
		}
	}
	if results[1].Err == nil || results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Unexpected errors: %+v", results)
	}
	if logs.FilterMessage("task failed").Len() != 1 {
		t.Errorf("Expected one failure warning, got %d", logs.Len())
	}
}

func TestManager_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	results := NewManager(1, nil).Process(ctx, []Task{
		{Name: "late", Run: func(ctx context.Context) error { ran = true; return nil }},
	})
	if ran {
		t.Error("Expected task not to run after cancellation")
	}
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", results[0].Err)
	}
}

func TestManager_RecoversPanics(t *testing.T) {
	results := NewManager(0, nil).Process(context.Background(), []Task{
		{Name: "boom", Run: func(ctx context.Context) error { panic("sink exploded") }},
	})
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "sink exploded") {
		t.Fatalf("Expected panic to be reported, got %v", results[0].Err)
	}
}

func TestJoin(t *testing.T) {
	denied := errors.New("denied")
	err := Join([]Result{{Name: "file"}, {Name: "s3", Err: denied}})
	if !errors.Is(err, denied) {
		t.Fatalf("Expected joined error to wrap cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "s3: denied") {
		t.Errorf("Expected task name in error, got %q", err.Error())
	}
	if Join([]Result{{Name: "ok"}}) != nil {
		t.Error("Expected nil when nothing failed")
	}
}

package sink

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

func TestBreakerOpensAfterFailures(t *testing.T) {
	boom := errors.New("unreachable")
	inner := &collectWriter{err: boom}
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 2, Timeout: time.Minute}, inner, inner)

	for i := 0; i < 2; i++ {
		if err := b.WriteAlert(alert.Alert{ID: "a"}); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected inner error, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}
	err := b.WriteDetection(detection.Detection{ID: "d"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if len(inner.dets) != 0 {
		t.Fatalf("open breaker should not reach the writer")
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	inner := &batchCollectWriter{}
	b := NewBreaker(BreakerConfig{Name: "ok"}, inner, nil)
	if err := b.WriteDetections([]detection.Detection{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("WriteDetections: %v", err)
	}
	if inner.batches != 1 || len(inner.dets) != 2 {
		t.Fatalf("expected one batch of 2, got %d batches %d rows", inner.batches, len(inner.dets))
	}
	if err := b.WriteAlert(alert.Alert{ID: "x"}); err != nil {
		t.Fatalf("nil alert writer should be a no-op: %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker")
	}
}

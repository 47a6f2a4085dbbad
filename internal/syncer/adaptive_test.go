package syncer

import (
	"math/rand"
	"testing"
	"time"
)

func TestBatchController_InitialClamped(t *testing.T) {
	cfg := DefaultConfig()

	cfg.InitialBatchSize = 5
	if got := newBatchController(cfg).Size(); got != cfg.MinBatchSize {
		t.Errorf("initial size = %d, want clamped to %d", got, cfg.MinBatchSize)
	}

	cfg.InitialBatchSize = 500
	if got := newBatchController(cfg).Size(); got != cfg.MaxBatchSize {
		t.Errorf("initial size = %d, want clamped to %d", got, cfg.MaxBatchSize)
	}
}

func TestBatchController_GrowsAfterFastStreak(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := newBatchController(cfg)

	fast := cfg.FastThreshold - time.Millisecond

	ctrl.Observe(fast)
	ctrl.Observe(fast)
	if ctrl.Size() != cfg.InitialBatchSize {
		t.Fatalf("size grew before streak completed: %d", ctrl.Size())
	}
	ctrl.Observe(fast)
	if ctrl.Size() != cfg.InitialBatchSize+cfg.BatchSizeStep {
		t.Errorf("size = %d, want %d after fast streak", ctrl.Size(), cfg.InitialBatchSize+cfg.BatchSizeStep)
	}
}

func TestBatchController_ShrinksAfterSlowStreak(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := newBatchController(cfg)

	slow := cfg.SlowThreshold + time.Millisecond

	ctrl.Observe(slow)
	if ctrl.Size() != cfg.InitialBatchSize {
		t.Fatalf("size shrank before streak completed: %d", ctrl.Size())
	}
	ctrl.Observe(slow)
	if ctrl.Size() != cfg.InitialBatchSize-cfg.BatchSizeStep {
		t.Errorf("size = %d, want %d after slow streak", ctrl.Size(), cfg.InitialBatchSize-cfg.BatchSizeStep)
	}
}

func TestBatchController_MediumResetsStreaks(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := newBatchController(cfg)

	fast := cfg.FastThreshold - time.Millisecond
	medium := (cfg.FastThreshold + cfg.SlowThreshold) / 2

	ctrl.Observe(fast)
	ctrl.Observe(fast)
	ctrl.Observe(medium)
	ctrl.Observe(fast)
	ctrl.Observe(fast)
	if ctrl.Size() != cfg.InitialBatchSize {
		t.Errorf("size = %d, medium latency should reset the streak", ctrl.Size())
	}
}

func TestBatchController_StaysWithinBounds(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := newBatchController(cfg)

	// a long run of arbitrary latencies must never push the size out
	// of [MinBatchSize, MaxBatchSize]
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		ctrl.Observe(time.Duration(rng.Intn(400)) * time.Millisecond)
		if ctrl.Size() < cfg.MinBatchSize || ctrl.Size() > cfg.MaxBatchSize {
			t.Fatalf("size %d escaped bounds [%d, %d] at step %d",
				ctrl.Size(), cfg.MinBatchSize, cfg.MaxBatchSize, i)
		}
	}
}

func TestBatchController_SaturatesAtBounds(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := newBatchController(cfg)

	fast := time.Millisecond
	for i := 0; i < 100; i++ {
		ctrl.Observe(fast)
	}
	if ctrl.Size() != cfg.MaxBatchSize {
		t.Errorf("size = %d, want saturation at %d", ctrl.Size(), cfg.MaxBatchSize)
	}

	slow := time.Second
	for i := 0; i < 100; i++ {
		ctrl.Observe(slow)
	}
	if ctrl.Size() != cfg.MinBatchSize {
		t.Errorf("size = %d, want saturation at %d", ctrl.Size(), cfg.MinBatchSize)
	}
}

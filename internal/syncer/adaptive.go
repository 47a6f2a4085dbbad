package syncer

import "time"

// batchController sizes the fallback-path batch windows from observed
// per-record latency. Fast batches grow the window, slow batches shrink
// it, and the size never leaves [MinBatchSize, MaxBatchSize].
type batchController struct {
	cfg  Config
	size int
	fast int
	slow int
}

func newBatchController(cfg Config) *batchController {
	size := cfg.InitialBatchSize
	if size < cfg.MinBatchSize {
		size = cfg.MinBatchSize
	}
	if size > cfg.MaxBatchSize {
		size = cfg.MaxBatchSize
	}
	return &batchController{cfg: cfg, size: size}
}

// Size returns the current batch window size.
func (b *batchController) Size() int {
	return b.size
}

// Observe feeds the average per-record latency of the last window into
// the controller.
func (b *batchController) Observe(avgLatency time.Duration) {
	switch {
	case avgLatency < b.cfg.FastThreshold:
		b.fast++
		b.slow = 0
		if b.fast >= b.cfg.FastStreak && b.size < b.cfg.MaxBatchSize {
			b.size += b.cfg.BatchSizeStep
			if b.size > b.cfg.MaxBatchSize {
				b.size = b.cfg.MaxBatchSize
			}
		}
	case avgLatency > b.cfg.SlowThreshold:
		b.slow++
		b.fast = 0
		if b.slow >= b.cfg.SlowStreak && b.size > b.cfg.MinBatchSize {
			b.size -= b.cfg.BatchSizeStep
			if b.size < b.cfg.MinBatchSize {
				b.size = b.cfg.MinBatchSize
			}
		}
	default:
		b.fast = 0
		b.slow = 0
	}
}

package syncer

import "github.com/lebnicolas/cvelistV5/model"

// Progress is one notification emitted after each batch of a discovery
// run. Consumers may refresh a view incrementally without waiting for
// the run to finish.
type Progress struct {
	Loaded int
	Total  int
	Status string
}

// Run is the handle to one discovery run. The same handle is shared by
// every caller that requested discovery while the run was in flight.
type Run struct {
	progress chan Progress
	done     chan struct{}

	// set before done is closed, immutable afterwards
	records []model.Advisory
	err     error
}

func newRun() *Run {
	return &Run{
		progress: make(chan Progress, 64),
		done:     make(chan struct{}),
	}
}

// Progress returns the progress stream. The channel is closed when the
// run reaches DONE.
func (r *Run) Progress() <-chan Progress {
	return r.progress
}

// Wait blocks until the run finishes and returns the accumulated
// records. Records are in batch-completion order; callers needing a
// deterministic order must sort.
func (r *Run) Wait() ([]model.Advisory, error) {
	<-r.done
	return r.records, r.err
}

// emit delivers a progress notification without ever blocking the run;
// notifications are dropped when no consumer keeps up.
func (r *Run) emit(p Progress) {
	select {
	case r.progress <- p:
	default:
	}
}

func (r *Run) finish(records []model.Advisory, err error) {
	r.records = records
	r.err = err
	close(r.progress)
	close(r.done)
}

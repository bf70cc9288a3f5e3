package logic

import (
	"sync"
)

// Throttler bounds the number of fetches in flight. Requests over the limit wait in a FIFO
// and are admitted in arrival order as slots free up. Submit never blocks.
type Throttler struct {
	metrics       IMetrics
	launch        func(req *FetchRequest)
	maxConcurrent int
	mu            sync.Mutex
	inFlight      int
	deferred      []*FetchRequest
}

// NewThrottler returns a throttler that hands admitted requests to launch.
// launch is always called outside the throttler's lock and must not block.
func NewThrottler(maxConcurrent int, metrics IMetrics, launch func(req *FetchRequest)) *Throttler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Throttler{
		metrics:       metrics,
		launch:        launch,
		maxConcurrent: maxConcurrent,
	}
}

// Submit admits req immediately if a slot is free, otherwise queues it. Returns true if admitted.
func (t *Throttler) Submit(req *FetchRequest) bool {
	t.mu.Lock()
	admitted := t.inFlight < t.maxConcurrent
	if admitted {
		t.inFlight++
	} else {
		t.deferred = append(t.deferred, req)
	}
	t.reportLocked()
	t.mu.Unlock()

	if admitted {
		t.launch(req)
	}
	return admitted
}

// Complete releases one in-flight slot. If a request is waiting, the slot passes straight to it.
func (t *Throttler) Complete() {
	var next *FetchRequest
	t.mu.Lock()
	if len(t.deferred) != 0 {
		next = t.deferred[0]
		t.deferred[0] = nil
		t.deferred = t.deferred[1:]
	} else if t.inFlight > 0 {
		t.inFlight--
	}
	t.reportLocked()
	t.mu.Unlock()

	if next != nil {
		t.launch(next)
	}
}

func (t *Throttler) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *Throttler) Queued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.deferred)
}

func (t *Throttler) MaxConcurrent() int {
	return t.maxConcurrent
}

func (t *Throttler) reportLocked() {
	t.metrics.InFlight(t.inFlight)
	t.metrics.Queued(len(t.deferred))
}

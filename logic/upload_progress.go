package logic

import (
	"context"
	"sync"
	"sync/atomic"
)

// UploadProgress is the progress of one upload, between 0 and 1. It never decreases.
type UploadProgress struct {
	mu    sync.Mutex
	value float64
}

func (p *UploadProgress) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Advance raises the value to v and, while still holding the lock, calls fn with it.
// Returns false and does nothing if v is not above the current value.
func (p *UploadProgress) Advance(v float64, fn func(float64)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v <= p.value || v > 1 {
		return false
	}
	p.value = v
	if fn != nil {
		fn(v)
	}
	return true
}

// UploadHandle belongs to a single upload. Cancel is cooperative: the upload stops
// before its next chunk and never reports completion.
type UploadHandle struct {
	progress  UploadProgress
	cancelled atomic.Bool
	abort     context.CancelFunc
	done      chan struct{}
}

func newUploadHandle() (*UploadHandle, context.Context) {
	ctx, abort := context.WithCancel(context.Background())
	return &UploadHandle{abort: abort, done: make(chan struct{})}, ctx
}

// Cancel also abandons a request that is waiting for the host's response.
func (h *UploadHandle) Cancel() {
	h.cancelled.Store(true)
	h.abort()
}

func (h *UploadHandle) Cancelled() bool {
	return h.cancelled.Load()
}

func (h *UploadHandle) Progress() float64 {
	return h.progress.Value()
}

// Wait blocks until the upload has ended and its callbacks have run.
func (h *UploadHandle) Wait() {
	<-h.done
}

// Done is closed when the upload has ended and its callbacks have run.
func (h *UploadHandle) Done() <-chan struct{} {
	return h.done
}

package logic

import (
	"sync"
	"timeline_station/shared"
)

// Dispatcher runs posted functions one at a time, in post order, on its own goroutine.
// State owned by a dispatcher is only touched from functions posted to it.
type Dispatcher struct {
	name    string
	logger  shared.ILogger
	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func NewDispatcher(name string, logger shared.ILogger) *Dispatcher {
	d := &Dispatcher{
		name:   name,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) Name() string {
	return d.name
}

// Post queues fn and returns immediately. Returns false if the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
	d.signal()
	return true
}

// Sync posts fn and waits until it has run. Must not be called from the dispatcher's own goroutine.
func (d *Dispatcher) Sync(fn func()) bool {
	ran := make(chan struct{})
	if !d.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	<-ran
	return true
}

// Close stops accepting work and waits for already posted functions to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.signal()
	<-d.done
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop() {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				close(d.done)
				return
			}
			<-d.wake
			continue
		}
		for _, fn := range batch {
			d.run(fn)
		}
	}
}

func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Callback on dispatcher %s panicked: %v", d.name, r)
		}
	}()
	fn()
}

package logic

import (
	"sync"
)

// NetworkActivity is a reference count of requests on the wire.
// While the count is above zero the network-active signal is on.
type NetworkActivity struct {
	metrics  IMetrics
	mu       sync.Mutex
	count    int
	onChange func(active bool)
}

func NewNetworkActivity(metrics IMetrics) *NetworkActivity {
	return &NetworkActivity{metrics: metrics}
}

// SetOnChange registers a hook fired when the signal turns on or off.
func (na *NetworkActivity) SetOnChange(fn func(active bool)) {
	na.mu.Lock()
	defer na.mu.Unlock()
	na.onChange = fn
}

func (na *NetworkActivity) Push() {
	na.mu.Lock()
	defer na.mu.Unlock()
	na.count++
	na.metrics.NetworkActive(na.count)
	if na.count == 1 && na.onChange != nil {
		na.onChange(true)
	}
}

func (na *NetworkActivity) Pop() {
	na.mu.Lock()
	defer na.mu.Unlock()
	if na.count == 0 {
		return
	}
	na.count--
	na.metrics.NetworkActive(na.count)
	if na.count == 0 && na.onChange != nil {
		na.onChange(false)
	}
}

func (na *NetworkActivity) Count() int {
	na.mu.Lock()
	defer na.mu.Unlock()
	return na.count
}

func (na *NetworkActivity) Active() bool {
	return na.Count() > 0
}

package logic

import (
	"net/http"
	"timeline_station/shared"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_connection_waker.go -package mocks timeline_station/logic IConnectionWaker

// IConnectionWaker is told before a request goes out after the network has been idle for a while.
type IConnectionWaker interface {
	Wake(url string)
}

type connectionWaker struct {
	logger    shared.ILogger
	transport *http.Transport
}

func NewConnectionWaker(logger shared.ILogger, transport *http.Transport) IConnectionWaker {
	return &connectionWaker{logger, transport}
}

// NewTransport returns the keep-alive transport shared by all outbound requests.
// Compressed responses are decoded transparently.
func NewTransport() *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DisableCompression = false
	return tr
}

// Wake drops pooled connections that may have gone stale while idle so the next request dials fresh.
func (cw *connectionWaker) Wake(url string) {
	cw.logger.Debugf("Network idle; waking connection before request to %s", url)
	cw.transport.CloseIdleConnections()
}

package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"time"
	"timeline_station/shared"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_metrics.go -package mocks timeline_station/logic IMetrics,IFetchObserver,IRequestObserver

type IMetrics interface {
	StartWebRequestIn(label string) IRequestObserver
	StartFetch() IFetchObserver
	InFlight(count int)
	Queued(count int)
	NetworkActive(count int)
	ItemsMerged(count int)
	GapOpened()
	UploadFinished(outcome string)
	ServiceStarted()
}

type IRequestObserver interface {
	Finish()
}

// IFetchObserver records the duration of one outbound fetch under its outcome.
type IFetchObserver interface {
	Finish(outcome string)
}

type metrics struct {
	cfg            *shared.Config
	webRequestsIn  *prometheus.HistogramVec
	fetchesOut     *prometheus.HistogramVec
	inFlight       prometheus.Gauge
	queued         prometheus.Gauge
	networkActive  prometheus.Gauge
	itemsMerged    prometheus.Counter
	gapsOpened     prometheus.Counter
	uploads        *prometheus.CounterVec
	serviceStarted prometheus.Counter
}

func NewMetrics(cfg *shared.Config) IMetrics {

	res := metrics{}
	res.cfg = cfg

	res.webRequestsIn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "web_requests_in_duration",
		Help: "Duration in seconds of local API requests served.",
	}, []string{"label"})
	prometheus.Register(res.webRequestsIn)

	res.fetchesOut = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "fetches_out_duration",
		Help: "Duration in seconds of timeline fetches made, by outcome.",
	}, []string{"outcome"})
	prometheus.Register(res.fetchesOut)

	res.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fetches_in_flight",
		Help: "Fetches admitted by the throttler and not yet completed",
	})
	prometheus.Register(res.inFlight)

	res.queued = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fetches_queued",
		Help: "Fetches waiting for admission",
	})
	prometheus.Register(res.queued)

	res.networkActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_active_count",
		Help: "Requests currently holding the network activity signal",
	})
	prometheus.Register(res.networkActive)

	res.itemsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "items_merged",
		Help: "Number of timeline items merged into views",
	})
	prometheus.Register(res.itemsMerged)

	res.gapsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gaps_opened",
		Help: "Number of load more sentinels inserted",
	})
	prometheus.Register(res.gapsOpened)

	res.uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uploads",
		Help: "Number of media uploads, by outcome",
	}, []string{"outcome"})
	prometheus.Register(res.uploads)

	res.serviceStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "service_started",
		Help: "Service has started up",
	})
	prometheus.Register(res.serviceStarted)

	return &res
}

type requestObserver struct {
	label string
	start time.Time
	hgvec *prometheus.HistogramVec
}

func (ro *requestObserver) Finish() {
	now := time.Now()
	elapsed := float64(now.UnixMilli()-ro.start.UnixMilli()) / 1000.0
	ro.hgvec.WithLabelValues(ro.label).Observe(elapsed)
}

type fetchObserver struct {
	start time.Time
	hgvec *prometheus.HistogramVec
}

func (fo *fetchObserver) Finish(outcome string) {
	elapsed := time.Since(fo.start).Seconds()
	fo.hgvec.WithLabelValues(outcome).Observe(elapsed)
}

func (m *metrics) StartWebRequestIn(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.webRequestsIn}
}

func (m *metrics) StartFetch() IFetchObserver {
	return &fetchObserver{time.Now(), m.fetchesOut}
}

func (m *metrics) InFlight(count int) {
	m.inFlight.Set(float64(count))
}

func (m *metrics) Queued(count int) {
	m.queued.Set(float64(count))
}

func (m *metrics) NetworkActive(count int) {
	m.networkActive.Set(float64(count))
}

func (m *metrics) ItemsMerged(count int) {
	m.itemsMerged.Add(float64(count))
}

func (m *metrics) GapOpened() {
	m.gapsOpened.Add(1)
}

func (m *metrics) UploadFinished(outcome string) {
	m.uploads.WithLabelValues(outcome).Add(1)
}

func (m *metrics) ServiceStarted() {
	m.serviceStarted.Add(1)
}

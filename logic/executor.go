package logic

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
	"timeline_station/dal"
	"timeline_station/shared"
)

type DeliveryMode int

const (
	// Buffered drains the body before the callback runs on the request's dispatcher.
	Buffered DeliveryMode = iota
	// Streaming hands the live body to the callback on the network goroutine.
	Streaming
)

const maxErrorBodyLen = 4096

// FetchResult is what a fetch callback receives. Body is nil on any failure.
// In streaming mode Body is only valid until the callback returns.
type FetchResult struct {
	Body   io.Reader
	Status int
	Err    error
}

func (res *FetchResult) Ok() bool {
	return res.Err == nil && res.Body != nil
}

type FetchCallback func(res *FetchResult)

type FetchRequest struct {
	Url        string
	Account    *dal.Account
	Mode       DeliveryMode
	Dispatcher *Dispatcher
	Callback   FetchCallback
}

type IDownloader interface {
	// Download fetches url in buffered mode and calls cb on the default dispatcher.
	Download(acct *dal.Account, url string, cb FetchCallback)
	// DownloadMode fetches url; in buffered mode cb runs on disp, or on the default dispatcher if disp is nil.
	DownloadMode(acct *dal.Account, url string, mode DeliveryMode, disp *Dispatcher, cb FetchCallback)
	// Fetch is Download with the result delivered on a channel that receives exactly one value.
	Fetch(acct *dal.Account, url string) <-chan *FetchResult
	Throttler() *Throttler
}

type downloader struct {
	cfg         *shared.Config
	logger      shared.ILogger
	userAgent   shared.IUserAgent
	signer      ISigner
	waker       IConnectionWaker
	activity    *NetworkActivity
	metrics     IMetrics
	client      *http.Client
	throttler   *Throttler
	defaultDisp *Dispatcher
	muWake      sync.Mutex
	lastLaunch  time.Time
}

func NewDownloader(
	cfg *shared.Config,
	logger shared.ILogger,
	userAgent shared.IUserAgent,
	signer ISigner,
	waker IConnectionWaker,
	activity *NetworkActivity,
	metrics IMetrics,
	transport *http.Transport,
) IDownloader {

	d := downloader{
		cfg:       cfg,
		logger:    logger,
		userAgent: userAgent,
		signer:    signer,
		waker:     waker,
		activity:  activity,
		metrics:   metrics,
		// No timeout: a request that never completes keeps its slot.
		client:      &http.Client{Transport: transport},
		defaultDisp: NewDispatcher("default", logger),
	}
	d.throttler = NewThrottler(cfg.MaxConcurrent, metrics, d.launch)
	return &d
}

func (d *downloader) Throttler() *Throttler {
	return d.throttler
}

func (d *downloader) Download(acct *dal.Account, url string, cb FetchCallback) {
	d.DownloadMode(acct, url, Buffered, nil, cb)
}

func (d *downloader) DownloadMode(acct *dal.Account, url string, mode DeliveryMode, disp *Dispatcher, cb FetchCallback) {
	if disp == nil {
		disp = d.defaultDisp
	}
	d.throttler.Submit(&FetchRequest{
		Url:        url,
		Account:    acct,
		Mode:       mode,
		Dispatcher: disp,
		Callback:   cb,
	})
}

func (d *downloader) Fetch(acct *dal.Account, url string) <-chan *FetchResult {
	ch := make(chan *FetchResult, 1)
	d.Download(acct, url, func(res *FetchResult) {
		ch <- res
	})
	return ch
}

func (d *downloader) launch(req *FetchRequest) {
	go d.execute(req)
}

func (d *downloader) execute(req *FetchRequest) {

	d.activity.Push()
	obs := d.metrics.StartFetch()
	res, liveBody := d.get(req)
	obs.Finish(fetchOutcome(res.Err))

	if req.Mode == Streaming {
		defer d.throttler.Complete()
		defer d.activity.Pop()
		d.invoke(req, res)
		if liveBody != nil {
			_ = liveBody.Close()
		}
		return
	}

	d.activity.Pop()
	d.throttler.Complete()
	if !req.Dispatcher.Post(func() { d.invoke(req, res) }) {
		d.logger.Warnf("Dispatcher %s is closed; dropping result for %s", req.Dispatcher.Name(), req.Url)
	}
}

func (d *downloader) invoke(req *FetchRequest, res *FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Fetch callback for %s panicked: %v", req.Url, r)
		}
	}()
	req.Callback(res)
}

// Wakes the connection if nothing has gone out for longer than the idle threshold.
func (d *downloader) wakeIfIdle(url string) {
	d.muWake.Lock()
	now := time.Now()
	idle := now.Sub(d.lastLaunch) > d.cfg.IdleWake()
	d.lastLaunch = now
	d.muWake.Unlock()

	if idle {
		d.waker.Wake(url)
	}
}

// Issues the GET. In streaming mode the second return value is the body the caller must close.
func (d *downloader) get(req *FetchRequest) (*FetchResult, io.ReadCloser) {

	d.wakeIfIdle(req.Url)

	httpReq, err := http.NewRequest("GET", req.Url, nil)
	if err != nil {
		return &FetchResult{Err: shared.NewFetchError(shared.ErrTransport, req.Url, 0, err)}, nil
	}
	d.userAgent.AddUserAgent(httpReq)
	if req.Account != nil {
		if err = d.signer.SignRequest(httpReq, req.Account, nil); err != nil {
			d.logger.Errorf("Failed to sign request for %s: %v", req.Url, err)
			return &FetchResult{Err: shared.NewFetchError(shared.ErrAuthorization, req.Url, 0, err)}, nil
		}
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.logger.Warnf("Fetch of %s failed: %v", req.Url, err)
		return &FetchResult{Err: shared.NewFetchError(shared.ErrTransport, req.Url, 0, err)}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		_ = resp.Body.Close()
		kind := shared.ErrStatus
		if resp.StatusCode == http.StatusUnauthorized {
			kind = shared.ErrAuthorization
		}
		bodyStr := string(errBody)
		if len(bodyStr) == 0 {
			bodyStr = "Empty body"
		}
		d.logger.Warnf("Fetch of %s failed with status %s: %s",
			req.Url, resp.Status, shared.TruncateWithEllipsis(bodyStr, shared.MaxErrorTextLen))
		return &FetchResult{Status: resp.StatusCode, Err: shared.NewFetchError(kind, req.Url, resp.StatusCode, nil)}, nil
	}

	if req.Mode == Streaming {
		return &FetchResult{Body: resp.Body, Status: resp.StatusCode}, resp.Body
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		d.logger.Warnf("Failed to read response body from %s: %v", req.Url, err)
		return &FetchResult{Status: resp.StatusCode, Err: shared.NewFetchError(shared.ErrTransport, req.Url, resp.StatusCode, err)}, nil
	}
	return &FetchResult{Body: bytes.NewReader(data), Status: resp.StatusCode}, nil
}

func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrAuthorization):
		return "authorization"
	case errors.Is(err, shared.ErrStatus):
		return "status"
	case errors.Is(err, shared.ErrDecode):
		return "decode"
	default:
		return "transport"
	}
}

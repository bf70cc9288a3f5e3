package logic

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"io"
	"net/http"
	"net/http/httptrace"
	"timeline_station/dal"
	"timeline_station/dto"
	"timeline_station/shared"
)

// Progress weights: connection setup, then the transfer.
const (
	connectedProgress = 0.1
	transferWeight    = 0.9
	// Upper bound of progress until the host has confirmed the upload
	beforeConfirmed = 0.99
)

type IUploader interface {
	// Upload posts data as a multipart media upload. Callbacks run on the uploader's dispatcher;
	// onComplete receives the media URL, or an error. A cancelled upload never calls onComplete.
	Upload(acct *dal.Account, data []byte,
		onProgress func(fraction float64),
		onComplete func(mediaUrl string, err error)) *UploadHandle
}

type uploader struct {
	cfg       *shared.Config
	logger    shared.ILogger
	userAgent shared.IUserAgent
	signer    ISigner
	activity  *NetworkActivity
	metrics   IMetrics
	client    *http.Client
	disp      *Dispatcher
}

func NewUploader(
	cfg *shared.Config,
	logger shared.ILogger,
	userAgent shared.IUserAgent,
	signer ISigner,
	activity *NetworkActivity,
	metrics IMetrics,
	transport *http.Transport,
) IUploader {
	return &uploader{
		cfg:       cfg,
		logger:    logger,
		userAgent: userAgent,
		signer:    signer,
		activity:  activity,
		metrics:   metrics,
		client:    &http.Client{Transport: transport},
		disp:      NewDispatcher("upload", logger),
	}
}

func (u *uploader) Upload(
	acct *dal.Account,
	data []byte,
	onProgress func(fraction float64),
	onComplete func(mediaUrl string, err error),
) *UploadHandle {
	h, ctx := newUploadHandle()
	go u.run(ctx, h, acct, data, onProgress, onComplete)
	return h
}

// Writes the two-part form the media host expects: the file as "media", then "username".
func buildMediaForm(boundary string, data []byte, username string) []byte {
	var buf bytes.Buffer
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data; name=\"media\"; filename=\"none.png\"\r\n")
	buf.WriteString("Content-Type: application/octet-stream\r\n\r\n")
	buf.Write(data)
	buf.WriteString("\r\n--" + boundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data; name=\"username\"\r\n\r\n")
	buf.WriteString(username)
	buf.WriteString("\r\n--" + boundary + "--")
	return buf.Bytes()
}

func (u *uploader) run(
	ctx context.Context,
	h *UploadHandle,
	acct *dal.Account,
	data []byte,
	onProgress func(fraction float64),
	onComplete func(mediaUrl string, err error),
) {
	u.activity.Push()
	defer h.abort()

	report := func(v float64) {
		if h.Cancelled() {
			return
		}
		h.progress.Advance(min(v, beforeConfirmed), func(val float64) {
			if onProgress != nil {
				u.disp.Post(func() { onProgress(val) })
			}
		})
	}
	// Called exactly once on every path
	finish := func(mediaUrl string, err error) {
		u.activity.Pop()
		outcome := "ok"
		if h.Cancelled() {
			outcome = "cancelled"
		} else if err != nil {
			outcome = "failed"
			u.logger.Warnf("Upload for %s failed: %v", acct.Username, err)
		} else {
			h.progress.Advance(1, func(val float64) {
				if onProgress != nil {
					u.disp.Post(func() { onProgress(val) })
				}
			})
		}
		u.metrics.UploadFinished(outcome)
		posted := u.disp.Post(func() {
			defer close(h.done)
			if !h.Cancelled() && onComplete != nil {
				onComplete(mediaUrl, err)
			}
		})
		if !posted {
			close(h.done)
		}
	}

	if onProgress != nil {
		u.disp.Post(func() { onProgress(0) })
	}

	boundary := "###" + uuid.NewString() + "###"
	body := buildMediaForm(boundary, data, acct.Username)
	u.logger.Infof("Uploading %s for %s to %s", humanize.Bytes(uint64(len(body))), acct.Username, u.cfg.UploadUrl)

	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, "POST", u.cfg.UploadUrl, pr)
	if err != nil {
		finish("", err)
		return
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	u.userAgent.AddUserAgent(req)
	if err = u.signer.SignRequest(req, acct, nil); err != nil {
		finish("", shared.NewFetchError(shared.ErrAuthorization, u.cfg.UploadUrl, 0, err))
		return
	}
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) { report(connectedProgress) },
	}
	req = req.WithContext(httptrace.WithClientTrace(ctx, trace))

	go u.writeChunks(h, pw, body, report)

	resp, err := u.client.Do(req)
	if h.Cancelled() {
		if resp != nil {
			_ = resp.Body.Close()
		}
		finish("", shared.ErrCancelled)
		return
	}
	if err != nil {
		finish("", shared.NewFetchError(shared.ErrTransport, u.cfg.UploadUrl, 0, err))
		return
	}
	defer resp.Body.Close()

	mediaUrl, err := u.readConfirmation(resp)
	finish(mediaUrl, err)
}

// Feeds the request body in fixed-size chunks, checking for cancellation before each one.
func (u *uploader) writeChunks(h *UploadHandle, pw *io.PipeWriter, body []byte, report func(float64)) {
	chunkSize := u.cfg.UploadChunkSize
	total := len(body)
	for sent := 0; sent < total; {
		if h.Cancelled() {
			_ = pw.CloseWithError(shared.ErrCancelled)
			return
		}
		end := min(sent+chunkSize, total)
		if _, err := pw.Write(body[sent:end]); err != nil {
			// Transport gave up on the body; the response path reports the failure
			return
		}
		sent = end
		report(connectedProgress + transferWeight*float64(sent)/float64(total))
	}
	_ = pw.Close()
}

func (u *uploader) readConfirmation(resp *http.Response) (string, error) {

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := shared.ErrStatus
		if resp.StatusCode == http.StatusUnauthorized {
			kind = shared.ErrAuthorization
		}
		return "", shared.NewFetchError(kind, u.cfg.UploadUrl, resp.StatusCode, nil)
	}

	var rsp dto.UploadResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rsp); err != nil {
		return "", shared.NewFetchError(shared.ErrDecode, u.cfg.UploadUrl, resp.StatusCode, err)
	}
	if rsp.Stat != "ok" || rsp.MediaUrl == "" {
		msg := rsp.Stat
		if rsp.Err != nil {
			msg = fmt.Sprintf("%s: %s %s", rsp.Stat, rsp.Err.Code, rsp.Err.Msg)
		}
		return "", shared.NewFetchError(shared.ErrStatus, u.cfg.UploadUrl, resp.StatusCode,
			fmt.Errorf("upload rejected: %s", msg))
	}
	return rsp.MediaUrl, nil
}

package logic_test

import (
	"bytes"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"timeline_station/dal"
	"timeline_station/logic"
	"timeline_station/shared"
	"timeline_station/test"
	"timeline_station/test/mocks"
)

type uploadOutcome struct {
	mu        sync.Mutex
	progress  []float64
	completed bool
	mediaUrl  string
	err       error
}

func (o *uploadOutcome) onProgress(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, v)
}

func (o *uploadOutcome) onComplete(mediaUrl string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = true
	o.mediaUrl = mediaUrl
	o.err = err
}

func setupUploaderTest(t *testing.T, handler http.HandlerFunc) (*dal.Account, *logic.NetworkActivity, logic.IUploader) {

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.StubMetrics(ctrl, mockMetrics)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &shared.Config{UploadUrl: srv.URL + "/api/upload", UploadChunkSize: 64}
	cfg.Secrets.ConsumerKey = "consumer"
	cfg.Secrets.ConsumerSecret = "consumer-secret"
	cfg.WithDefaults()

	activity := logic.NewNetworkActivity(mockMetrics)
	up := logic.NewUploader(cfg, log.New(io.Discard), shared.NewUserAgent(cfg), logic.NewSigner(cfg),
		activity, mockMetrics, logic.NewTransport())
	acct := &dal.Account{Id: 1, Username: "miguel", Token: "tok", TokenSecret: "tok-secret"}
	return acct, activity, up
}

func waitUpload(t *testing.T, h *logic.UploadHandle) {
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
	}
}

func assertIncreasing(t *testing.T, vals []float64) {
	for i := 1; i < len(vals); i++ {
		assert.Greater(t, vals[i], vals[i-1])
	}
}

func TestUploadSuccess(t *testing.T) {
	data := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 250)

	var gotMedia []byte
	var gotUser, gotAuth string
	acct, activity, up := setupUploaderTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err == nil && strings.HasPrefix(params["boundary"], "###") {
			body, _ := io.ReadAll(r.Body)
			parts := bytes.Split(body, []byte("--"+params["boundary"]))
			if len(parts) == 4 {
				media := parts[1][bytes.Index(parts[1], []byte("\r\n\r\n"))+4:]
				gotMedia = bytes.TrimSuffix(media, []byte("\r\n"))
				user := parts[2][bytes.Index(parts[2], []byte("\r\n\r\n"))+4:]
				gotUser = string(bytes.TrimSuffix(user, []byte("\r\n")))
			}
		}
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rsp stat="ok"><mediaid>abc</mediaid><mediaurl>http://media.example.com/abc</mediaurl></rsp>`))
	})

	var outcome uploadOutcome
	h := up.Upload(acct, data, outcome.onProgress, outcome.onComplete)
	waitUpload(t, h)

	outcome.mu.Lock()
	defer outcome.mu.Unlock()
	assert.True(t, outcome.completed)
	assert.NoError(t, outcome.err)
	assert.Equal(t, "http://media.example.com/abc", outcome.mediaUrl)
	assert.Equal(t, data, gotMedia)
	assert.Equal(t, "miguel", gotUser)
	assert.Contains(t, gotAuth, `keyId="consumer:tok"`)

	require.NotEmpty(t, outcome.progress)
	assert.Equal(t, 0.0, outcome.progress[0])
	assert.Equal(t, 1.0, outcome.progress[len(outcome.progress)-1])
	assertIncreasing(t, outcome.progress)
	// Several chunk reports between connecting and the confirmation
	assert.Greater(t, len(outcome.progress), 4)
	assert.Equal(t, 1.0, h.Progress())
	assert.False(t, activity.Active())
}

func TestUploadRejected(t *testing.T) {
	acct, _, up := setupUploaderTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`<rsp stat="fail"><err code="1001" msg="Invalid twitter username or password" /></rsp>`))
	})

	var outcome uploadOutcome
	waitUpload(t, up.Upload(acct, []byte("picture"), outcome.onProgress, outcome.onComplete))

	outcome.mu.Lock()
	defer outcome.mu.Unlock()
	assert.True(t, outcome.completed)
	assert.ErrorIs(t, outcome.err, shared.ErrStatus)
	assert.Contains(t, outcome.err.Error(), "1001")
	assert.Equal(t, "", outcome.mediaUrl)
	assertIncreasing(t, outcome.progress)
	assert.Less(t, outcome.progress[len(outcome.progress)-1], 1.0)
}

func TestUploadUnauthorized(t *testing.T) {
	acct, _, up := setupUploaderTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
	})

	var outcome uploadOutcome
	waitUpload(t, up.Upload(acct, []byte("picture"), outcome.onProgress, outcome.onComplete))

	outcome.mu.Lock()
	defer outcome.mu.Unlock()
	assert.True(t, outcome.completed)
	assert.ErrorIs(t, outcome.err, shared.ErrAuthorization)
}

func TestUploadMalformedConfirmation(t *testing.T) {
	acct, _, up := setupUploaderTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"not":"xml"}`))
	})

	var outcome uploadOutcome
	waitUpload(t, up.Upload(acct, []byte("picture"), outcome.onProgress, outcome.onComplete))

	outcome.mu.Lock()
	defer outcome.mu.Unlock()
	assert.ErrorIs(t, outcome.err, shared.ErrDecode)
}

func TestUploadCancelNeverCompletes(t *testing.T) {
	release := make(chan struct{})
	acct, activity, up := setupUploaderTest(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	var outcome uploadOutcome
	started := make(chan struct{})
	var once sync.Once
	h := up.Upload(acct, bytes.Repeat([]byte("x"), 4096),
		func(v float64) {
			outcome.onProgress(v)
			if v > 0 {
				once.Do(func() { close(started) })
			}
		},
		outcome.onComplete)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not start")
	}
	h.Cancel()
	waitUpload(t, h)

	assert.True(t, h.Cancelled())
	outcome.mu.Lock()
	defer outcome.mu.Unlock()
	assert.False(t, outcome.completed)
	assertIncreasing(t, outcome.progress)
	assert.Less(t, h.Progress(), 1.0)
	assert.False(t, activity.Active())
}

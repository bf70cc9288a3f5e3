package logic_test

import (
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"timeline_station/logic"
	"timeline_station/shared"
)

func TestSignerHeaderShape(t *testing.T) {
	signer := logic.NewSigner(&shared.Config{})

	params := url.Values{"status": {"hello world"}}
	auth, err := signer.Sign("POST", "https://api.example.com/1.1/statuses/update.json", params,
		"consumer", "c&secret", "tok", "tok-secret")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(auth, "Signature "))
	assert.Contains(t, auth, `keyId="consumer:tok"`)
	assert.Contains(t, auth, `headers="(request-target) host digest"`)

	// No body, no digest
	auth, err = signer.Sign("GET", "https://api.example.com/1.1/statuses/home_timeline.json", nil,
		"consumer", "c&secret", "tok", "tok-secret")
	assert.NoError(t, err)
	assert.Contains(t, auth, `headers="(request-target) host"`)

	_, err = signer.Sign("GET", "/relative/path", nil, "consumer", "secret", "tok", "tok-secret")
	assert.Error(t, err)
}

func TestSigCheckerRoundTrip(t *testing.T) {
	cfg := &shared.Config{}
	cfg.Secrets.ApiKeys = map[string]string{"desk": "s3cret"}
	chk := logic.NewSigChecker(cfg, log.New(io.Discard))

	newReq := func() *http.Request {
		req, _ := http.NewRequest("GET", "http://localhost:8080/api/accounts", nil)
		return req
	}

	req := newReq()
	assert.NoError(t, logic.SignWithKey(req, nil, "desk", []byte("s3cret")))
	keyId, msg, err := chk.Check(req)
	assert.NoError(t, err)
	assert.Equal(t, "", msg)
	assert.Equal(t, "desk", keyId)

	req = newReq()
	assert.NoError(t, logic.SignWithKey(req, nil, "desk", []byte("wrong")))
	keyId, msg, err = chk.Check(req)
	assert.NoError(t, err)
	assert.Contains(t, msg, "Incorrect signature")
	assert.Equal(t, "", keyId)

	req = newReq()
	assert.NoError(t, logic.SignWithKey(req, nil, "laptop", []byte("s3cret")))
	_, msg, _ = chk.Check(req)
	assert.Equal(t, "Unknown keyId: laptop", msg)

	_, msg, _ = chk.Check(newReq())
	assert.Equal(t, "Missing or invalid signature header", msg)
}

package logic

import (
	"fmt"
	"github.com/go-fed/httpsig"
	"net/http"
	"net/url"
	"strings"
	"timeline_station/dal"
	"timeline_station/shared"
)

type ISigner interface {
	// Sign returns the value of the Authorization header for the given request.
	Sign(method, url string, params url.Values,
		consumerKey, consumerSecret, token, tokenSecret string) (string, error)
	// SignRequest sets the Authorization header on req using the account's tokens.
	SignRequest(req *http.Request, acct *dal.Account, body []byte) error
}

type signer struct {
	cfg *shared.Config
}

func NewSigner(cfg *shared.Config) ISigner {
	return &signer{cfg}
}

func signingKey(consumerSecret, tokenSecret string) []byte {
	return []byte(url.QueryEscape(consumerSecret) + "&" + url.QueryEscape(tokenSecret))
}

func signingKeyId(consumerKey, token string) string {
	return consumerKey + ":" + token
}

func (s *signer) Sign(method, urlStr string, params url.Values,
	consumerKey, consumerSecret, token, tokenSecret string,
) (string, error) {

	var body []byte
	if len(params) != 0 {
		body = []byte(params.Encode())
	}
	req, err := http.NewRequest(method, urlStr, nil)
	if err != nil {
		return "", err
	}
	if err = SignWithKey(req, body, signingKeyId(consumerKey, token), signingKey(consumerSecret, tokenSecret)); err != nil {
		return "", err
	}
	return req.Header.Get("Authorization"), nil
}

func (s *signer) SignRequest(req *http.Request, acct *dal.Account, body []byte) error {
	keyId := signingKeyId(s.cfg.Secrets.ConsumerKey, acct.Token)
	key := signingKey(s.cfg.Secrets.ConsumerSecret, acct.TokenSecret)
	return SignWithKey(req, body, keyId, key)
}

// SignWithKey signs req with an HMAC key; body, when not nil, is covered by a digest header.
func SignWithKey(req *http.Request, body []byte, keyId string, key []byte) error {

	host := req.URL.Host
	if host == "" {
		return fmt.Errorf("cannot sign request without host: %v", req.URL)
	}
	req.Header.Set("host", strings.ToLower(host))

	headers := []string{httpsig.RequestTarget, "host"}
	if body != nil {
		headers = append(headers, "digest")
	}

	hs, _, err := httpsig.NewSigner(
		[]httpsig.Algorithm{httpsig.HMAC_SHA256},
		httpsig.DigestSha256,
		headers,
		httpsig.Authorization,
		0)
	if err != nil {
		return err
	}
	return hs.SignRequest(key, keyId, req, body)
}

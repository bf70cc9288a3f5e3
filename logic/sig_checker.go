package logic

import (
	"fmt"
	"github.com/go-fed/httpsig"
	"net/http"
	"regexp"
	"timeline_station/shared"
)

// ISigChecker verifies HMAC-signed calls to the local API.
type ISigChecker interface {
	// Check returns the caller's key ID if the signature is valid.
	// A non-empty message means the request was rejected; err is reserved for internal failures.
	Check(r *http.Request) (keyId string, msg string, err error)
}

type sigChecker struct {
	cfg     *shared.Config
	logger  shared.ILogger
	reKeyId *regexp.Regexp
}

func NewSigChecker(cfg *shared.Config, logger shared.ILogger) ISigChecker {
	reKeyId := regexp.MustCompile("keyId=['\"]([^'\"]+)['\"]")
	return &sigChecker{cfg, logger, reKeyId}
}

func (chk *sigChecker) Check(r *http.Request) (string, string, error) {

	var err error

	sigHeader := r.Header.Get("Authorization")
	if sigHeader == "" {
		sigHeader = r.Header.Get("Signature")
	}
	groups := chk.reKeyId.FindStringSubmatch(sigHeader)
	if groups == nil {
		return "", "Missing or invalid signature header", nil
	}
	keyId := groups[1]

	secret, ok := chk.cfg.Secrets.ApiKeys[keyId]
	if !ok {
		return "", fmt.Sprintf("Unknown keyId: %s", keyId), nil
	}

	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		chk.logger.Errorf("Failed to create signature verifier: %v", err)
		return "", "", err
	}

	if err = verifier.Verify([]byte(secret), httpsig.HMAC_SHA256); err != nil {
		return "", fmt.Sprintf("Incorrect signature: %v", err), nil
	}

	return keyId, "", nil
}

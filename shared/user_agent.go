package shared

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

const (
	versionFileName   = "version.txt"
	userAgentTemplate = "TimelineStation/%s (+https://%s)"
	defaultVersion    = "0.1"
)

type IUserAgent interface {
	AddUserAgent(req *http.Request)
}

type userAgent struct {
	userAgentValue string
}

func NewUserAgent(cfg *Config) IUserAgent {
	return &userAgent{
		userAgentValue: buildUserAgentString(cfg.Host),
	}
}

func buildUserAgentString(host string) string {
	versionStr := defaultVersion
	if versionBytes, err := os.ReadFile(versionFileName); err == nil {
		versionStr = strings.TrimSpace(string(versionBytes))
		versionStr = strings.TrimPrefix(versionStr, "v")
	}
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf(userAgentTemplate, versionStr, host)
}

func (ua *userAgent) AddUserAgent(req *http.Request) {
	req.Header.Set("User-Agent", ua.userAgentValue)
}

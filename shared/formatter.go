package shared

import (
	"fmt"
	"net/url"
	"unicode"
)

const MaxErrorTextLen = 140

func GetHostName(rawUrl string) (string, error) {
	var parsedUrl *url.URL
	var urlError error
	parsedUrl, urlError = url.Parse(rawUrl)
	if urlError != nil {
		return "", fmt.Errorf("failed to parse URL '%s': %v", rawUrl, urlError)
	}
	return parsedUrl.Hostname(), nil
}

func TruncateWithEllipsis(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	// https://stackoverflow.com/a/73939904/7479498
	lastSpaceIx := maxLen
	len := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			lastSpaceIx = i
		}
		len++
		if len > maxLen {
			return text[:lastSpaceIx] + "…"
		}
	}
	// If here, string is shorter or equal to maxLen
	return text
}

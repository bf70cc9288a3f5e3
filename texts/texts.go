package texts

import (
	"embed"
	"fmt"
	"strings"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_texts.go -package mocks timeline_station/texts ITexts

//go:embed snippets
var fs embed.FS

// Snippet IDs
const (
	LoadMore       = "load_more.txt"
	LoadMorePage   = "load_more_page.txt"
	Loading        = "loading.txt"
	NetFailure     = "net_failure.txt"
	UnableDownload = "unable_download.txt"
	Error          = "error.txt"
	Uploading      = "uploading.txt"
)

type ITexts interface {
	Get(id string) string
	WithVals(id string, vals map[string]string) string
}

func NewTexts() ITexts {
	t := texts{cache: map[string]string{}}
	entries, _ := fs.ReadDir("snippets")
	for _, entry := range entries {
		if bytes, err := fs.ReadFile("snippets/" + entry.Name()); err == nil {
			t.cache[entry.Name()] = strings.TrimSpace(string(bytes))
		}
	}
	return &t
}

// Snippets are read once at construction time, so lookups need no lock.
type texts struct {
	cache map[string]string
}

func (t *texts) Get(id string) string {
	return t.cache[id]
}

func (t *texts) WithVals(id string, vals map[string]string) string {
	res := t.Get(id)
	for ph, val := range vals {
		res = strings.ReplaceAll(res, fmt.Sprintf("{{%s}}", ph), val)
	}
	return res
}

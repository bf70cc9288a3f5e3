package logic

import (
	"sync"
	"timeline_station/dal"
	"timeline_station/shared"
	"timeline_station/texts"
)

// IPagedTimelines keeps one in-memory paged timeline per account and browsed resource.
type IPagedTimelines interface {
	// Get returns the timeline of resource for the account, creating it on first use.
	Get(acct *dal.Account, resource, arg string) (*PagedTimeline, error)
	Drop(accountId int)
}

type browseKey struct {
	accountId int
	resource  string
	arg       string
}

type pagedTimelines struct {
	logger     shared.ILogger
	downloader IDownloader
	txt        texts.ITexts
	ub         shared.UrlBuilder
	mu         sync.Mutex
	byKey      map[browseKey]*PagedTimeline
}

func NewPagedTimelines(
	cfg *shared.Config,
	logger shared.ILogger,
	downloader IDownloader,
	txt texts.ITexts,
) IPagedTimelines {
	return &pagedTimelines{
		logger:     logger,
		downloader: downloader,
		txt:        txt,
		ub:         shared.UrlBuilder{ApiBase: cfg.ApiBase},
		byKey:      make(map[browseKey]*PagedTimeline),
	}
}

func (pts *pagedTimelines) Get(acct *dal.Account, resource, arg string) (*PagedTimeline, error) {
	baseUrl, scheme, err := pts.ub.BrowseResource(resource, arg)
	if err != nil {
		return nil, err
	}
	key := browseKey{acct.Id, resource, arg}
	pts.mu.Lock()
	defer pts.mu.Unlock()
	if pt, ok := pts.byKey[key]; ok {
		return pt, nil
	}
	pt := NewPagedTimeline(pts.logger, pts.downloader, pts.txt, acct, baseUrl, scheme)
	pts.byKey[key] = pt
	return pt, nil
}

func (pts *pagedTimelines) Drop(accountId int) {
	var dropped []*PagedTimeline
	pts.mu.Lock()
	for key, pt := range pts.byKey {
		if key.accountId == accountId {
			dropped = append(dropped, pt)
			delete(pts.byKey, key)
		}
	}
	pts.mu.Unlock()
	for _, pt := range dropped {
		pt.Close()
	}
}

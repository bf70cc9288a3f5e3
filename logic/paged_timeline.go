package logic

import (
	"context"
	"slices"
	"sync/atomic"
	"timeline_station/dal"
	"timeline_station/shared"
	"timeline_station/texts"
)

// PageResult reports one applied page of a paged timeline.
type PageResult struct {
	Count   int
	HasMore bool
	Failed  bool
}

// PagedTimeline is an in-memory timeline over a resource that pages with page numbers, offsets or since ids.
// Nothing is persisted. A page shorter than the scheme's count closes pagination.
type PagedTimeline struct {
	logger     shared.ILogger
	downloader IDownloader
	txt        texts.ITexts
	acct       *dal.Account
	baseUrl    string
	scheme     shared.PageScheme
	disp       *Dispatcher
	loading    atomic.Bool
	// Owned by disp
	entries  []*Entry
	nextPage int
	lastId   int64
}

func NewPagedTimeline(
	logger shared.ILogger,
	downloader IDownloader,
	txt texts.ITexts,
	acct *dal.Account,
	baseUrl string,
	scheme shared.PageScheme,
) *PagedTimeline {
	return &PagedTimeline{
		logger:     logger,
		downloader: downloader,
		txt:        txt,
		acct:       acct,
		baseUrl:    baseUrl,
		scheme:     scheme,
		disp:       NewDispatcher("paged:"+baseUrl, logger),
	}
}

func (pt *PagedTimeline) Close() {
	pt.disp.Close()
}

// Reload fetches the first page, or only what is newer than the top entry if the resource takes a since id.
func (pt *PagedTimeline) Reload() bool {
	return pt.reload(nil)
}

func (pt *PagedTimeline) ReloadSync(ctx context.Context) (PageResult, error) {
	done := make(chan PageResult, 1)
	if !pt.reload(done) {
		return PageResult{}, ErrBusy
	}
	return waitPage(ctx, done)
}

// LoadMore fetches the page after the last one that was full. Returns false if no further page is offered
// or a load is already running.
func (pt *PagedTimeline) LoadMore() bool {
	return pt.loadMore(nil)
}

func (pt *PagedTimeline) LoadMoreSync(ctx context.Context) (PageResult, error) {
	done := make(chan PageResult, 1)
	if !pt.loadMore(done) {
		return PageResult{}, ErrBusy
	}
	return waitPage(ctx, done)
}

func waitPage(ctx context.Context, done chan PageResult) (PageResult, error) {
	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return PageResult{}, ctx.Err()
	}
}

func (pt *PagedTimeline) HasMore() bool {
	var res bool
	pt.disp.Sync(func() { res = pt.nextPage != 0 })
	return res
}

func (pt *PagedTimeline) Entries() []Entry {
	var res []Entry
	pt.disp.Sync(func() {
		res = make([]Entry, len(pt.entries))
		for i, e := range pt.entries {
			res[i] = *e
		}
	})
	return res
}

func (pt *PagedTimeline) reload(done chan PageResult) bool {
	if !pt.loading.CompareAndSwap(false, true) {
		return false
	}
	var since int64
	pt.disp.Sync(func() { since = pt.lastId })
	pt.load(1, since, done)
	return true
}

func (pt *PagedTimeline) loadMore(done chan PageResult) bool {
	if !pt.loading.CompareAndSwap(false, true) {
		return false
	}
	var page int
	pt.disp.Sync(func() {
		page = pt.nextPage
		if page != 0 {
			if lm := pt.loadMoreEntry(); lm != nil {
				lm.Loading = true
				lm.Caption = pt.txt.Get(texts.Loading)
			}
		}
	})
	if page == 0 {
		pt.loading.Store(false)
		return false
	}
	pt.load(page, 0, done)
	return true
}

// Caller holds the loading flag; complete releases it.
func (pt *PagedTimeline) load(page int, since int64, done chan PageResult) {

	url, err := shared.BuildPageUrl(pt.baseUrl, pt.scheme, shared.PageCursor{Page: page, SinceId: since})
	if err != nil {
		pt.logger.Errorf("Invalid paged timeline URL %s: %v", pt.baseUrl, err)
		pt.disp.Post(func() { pt.complete(pt.applyFailure(), done) })
		return
	}

	pt.downloader.DownloadMode(pt.acct, url, Streaming, nil, func(res *FetchResult) {
		var items []*dal.Item
		err := res.Err
		if res.Ok() {
			items, err = DecodeStatuses(res.Body, pt.acct.Id, shared.KindTransient)
		}
		pt.disp.Post(func() {
			if err != nil {
				pt.logger.Warnf("Failed to load page %d of %s: %v", page, url, err)
				pt.complete(pt.applyFailure(), done)
				return
			}
			pt.complete(pt.apply(page, since, items), done)
		})
	})
}

func (pt *PagedTimeline) complete(res PageResult, done chan PageResult) {
	pt.loading.Store(false)
	if done != nil {
		done <- res
	}
}

func (pt *PagedTimeline) applyFailure() PageResult {
	pt.entries = []*Entry{{Kind: EntryError, Caption: pt.txt.Get(texts.UnableDownload)}}
	pt.nextPage = 0
	return PageResult{Failed: true}
}

func (pt *PagedTimeline) apply(page int, since int64, items []*dal.Item) PageResult {

	block := make([]*Entry, 0, len(items))
	for _, itm := range items {
		block = append(block, &Entry{Kind: EntryItem, Item: itm})
	}

	if since != 0 {
		pt.entries = slices.Insert(pt.entries, 0, block...)
	} else {
		if page == 1 {
			pt.entries = nil
		} else if ix := slices.Index(pt.entries, pt.loadMoreEntry()); ix != -1 {
			pt.entries = slices.Delete(pt.entries, ix, ix+1)
		}
		pt.entries = append(pt.entries, block...)
		pt.nextPage = 0
		if len(items) == pt.scheme.Count && pt.scheme.Pages() {
			pt.nextPage = page + 1
			pt.entries = append(pt.entries, &Entry{Kind: EntryLoadMore, Caption: pt.txt.Get(texts.LoadMorePage)})
		}
	}

	if pt.scheme.SinceParam != "" && len(pt.entries) != 0 && pt.entries[0].Kind == EntryItem {
		pt.lastId = pt.entries[0].Item.Id
	}
	return PageResult{Count: len(items), HasMore: pt.nextPage != 0}
}

func (pt *PagedTimeline) loadMoreEntry() *Entry {
	if len(pt.entries) == 0 {
		return nil
	}
	if last := pt.entries[len(pt.entries)-1]; last.Kind == EntryLoadMore {
		return last
	}
	return nil
}

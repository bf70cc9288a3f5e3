package logic

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"
	"timeline_station/dal"
	"timeline_station/shared"
	"timeline_station/texts"
)

const resetViewSize = 200

var ErrBusy = errors.New("timeline is busy")

type EntryKind int

const (
	EntryItem EntryKind = iota
	EntryLoadMore
	EntryError
)

func (k EntryKind) String() string {
	switch k {
	case EntryItem:
		return "item"
	case EntryLoadMore:
		return "load_more"
	case EntryError:
		return "error"
	}
	return "unknown"
}

// Entry is one row of a timeline view.
type Entry struct {
	Kind    EntryKind
	Item    *dal.Item
	MaxId   int64 // load more: upper bound of the follow-up fetch
	Loading bool
	Caption string
}

type TimelineState int32

const (
	StateIdle TimelineState = iota
	StateFetching
	StateMerging
	StateLoadingMore
)

func (s TimelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateMerging:
		return "merging"
	case StateLoadingMore:
		return "loading_more"
	}
	return "unknown"
}

type MergeResult struct {
	Merged     int
	Continuous bool
	Failed     bool
}

// Timeline is the in-memory view of one (account, kind) partition, reconciled against freshly fetched pages.
// The view is owned by the timeline's dispatcher; fetches and merges for one partition never interleave.
type Timeline struct {
	cfg         *shared.Config
	logger      shared.ILogger
	repo        dal.IRepo
	client      ITimelineClient
	txt         texts.ITexts
	metrics     IMetrics
	acct        *dal.Account
	kind        shared.TimelineKind
	disp        *Dispatcher
	state       atomic.Int32
	lastRefresh atomic.Int64
	onMerged    atomic.Pointer[func(MergeResult)]
	entries     []*Entry
}

func NewTimeline(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	client ITimelineClient,
	txt texts.ITexts,
	metrics IMetrics,
	acct *dal.Account,
	kind shared.TimelineKind,
) *Timeline {
	tl := Timeline{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		client:  client,
		txt:     txt,
		metrics: metrics,
		acct:    acct,
		kind:    kind,
		disp:    NewDispatcher(acct.Username+"/"+kind.String(), logger),
	}
	tl.Reset()
	return &tl
}

func (tl *Timeline) Account() *dal.Account {
	return tl.acct
}

func (tl *Timeline) Kind() shared.TimelineKind {
	return tl.kind
}

func (tl *Timeline) State() TimelineState {
	return TimelineState(tl.state.Load())
}

// OnMerged registers a hook that runs on the timeline's dispatcher after every merge.
func (tl *Timeline) OnMerged(fn func(MergeResult)) {
	tl.onMerged.Store(&fn)
}

func (tl *Timeline) Close() {
	tl.disp.Close()
}

// NeedsUpdate is true if the partition was never refreshed or the last refresh is older than the refresh interval.
func (tl *Timeline) NeedsUpdate(now time.Time) bool {
	last := tl.lastRefresh.Load()
	if last == 0 {
		return true
	}
	return now.Sub(time.Unix(0, last)) > tl.cfg.RefreshInterval()
}

// Reset reloads the view from the store, dropping all sentinels and placeholders.
func (tl *Timeline) Reset() {
	tl.disp.Sync(func() {
		items, err := tl.repo.GetItems(tl.acct.Id, tl.kind, resetViewSize, 0)
		if err != nil {
			tl.logger.Errorf("Failed to load %s timeline of %s: %v", tl.kind, tl.acct.Username, err)
			return
		}
		tl.entries = make([]*Entry, 0, len(items))
		for _, itm := range items {
			tl.entries = append(tl.entries, &Entry{Kind: EntryItem, Item: itm})
		}
	})
}

// Entries returns a snapshot of the view.
func (tl *Timeline) Entries() []Entry {
	var res []Entry
	tl.disp.Sync(func() {
		res = make([]Entry, len(tl.entries))
		for i, e := range tl.entries {
			res[i] = *e
			if e.Item != nil {
				itm := *e.Item
				res[i].Item = &itm
			}
		}
	})
	return res
}

// Refresh fetches items newer than the newest cached one. Returns false if the timeline is not idle.
func (tl *Timeline) Refresh() bool {
	return tl.refresh(nil)
}

// RefreshSync refreshes and waits for the merge.
func (tl *Timeline) RefreshSync(ctx context.Context) (MergeResult, error) {
	done := make(chan MergeResult, 1)
	if !tl.refresh(done) {
		return MergeResult{}, ErrBusy
	}
	return waitMerge(ctx, done)
}

// LoadMore activates the "load more" entry at index. Returns false if there is no idle sentinel there
// or the timeline is busy.
func (tl *Timeline) LoadMore(index int) bool {
	return tl.loadMore(index, nil)
}

func (tl *Timeline) LoadMoreSync(ctx context.Context, index int) (MergeResult, error) {
	done := make(chan MergeResult, 1)
	if !tl.loadMore(index, done) {
		return MergeResult{}, ErrBusy
	}
	return waitMerge(ctx, done)
}

func waitMerge(ctx context.Context, done chan MergeResult) (MergeResult, error) {
	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return MergeResult{}, ctx.Err()
	}
}

// FavoriteChanged updates the toggle field in the store and in the view.
func (tl *Timeline) FavoriteChanged(id int64, favorited bool) error {
	if err := tl.repo.SetFavorited(tl.acct.Id, id, favorited); err != nil {
		return err
	}
	tl.disp.Post(func() {
		for _, e := range tl.entries {
			if e.Kind == EntryItem && e.Item.Id == id {
				e.Item.Favorited = favorited
				return
			}
		}
	})
	return nil
}

func (tl *Timeline) refresh(done chan MergeResult) bool {

	if !tl.state.CompareAndSwap(int32(StateIdle), int32(StateFetching)) {
		return false
	}

	// One less than the highest cached id, so an unchanged server still returns an overlapping item.
	var since *int64
	highest, found, err := tl.repo.GetHighestItemId(tl.acct.Id, tl.kind)
	if err != nil {
		tl.logger.Errorf("Failed to get highest id of %s timeline of %s: %v", tl.kind, tl.acct.Username, err)
	} else if found {
		val := highest - 1
		since = &val
	}

	tl.client.ReloadTimeline(tl.acct, tl.kind, since, nil, tl.disp, func(count int) {
		res := tl.merge(nil, since, nil, count)
		if !res.Failed {
			tl.lastRefresh.Store(time.Now().UnixNano())
		}
		tl.finish(res, done)
	})
	return true
}

func (tl *Timeline) loadMore(index int, done chan MergeResult) bool {

	var sentinel *Entry
	var maxId int64
	tl.disp.Sync(func() {
		if index < 0 || index >= len(tl.entries) {
			return
		}
		e := tl.entries[index]
		if e.Kind != EntryLoadMore || e.Loading {
			return
		}
		if !tl.state.CompareAndSwap(int32(StateIdle), int32(StateLoadingMore)) {
			return
		}
		e.Loading = true
		e.Caption = tl.txt.Get(texts.Loading)
		sentinel = e
		maxId = e.MaxId
	})
	if sentinel == nil {
		return false
	}

	tl.client.ReloadTimeline(tl.acct, tl.kind, nil, &maxId, tl.disp, func(count int) {
		res := tl.merge(sentinel, nil, &maxId, count)
		tl.finish(res, done)
	})
	return true
}

func (tl *Timeline) finish(res MergeResult, done chan MergeResult) {
	tl.state.Store(int32(StateIdle))
	if hook := tl.onMerged.Load(); hook != nil {
		(*hook)(res)
	}
	if done != nil {
		done <- res
	}
}

// Runs on the dispatcher. sentinel is the activated "load more" entry, or nil for a top refresh.
// since and maxId are the bounds the page was fetched with.
func (tl *Timeline) merge(sentinel *Entry, since, maxId *int64, count int) MergeResult {

	tl.state.Store(int32(StateMerging))

	at := 0
	if sentinel != nil {
		if at = tl.indexOf(sentinel); at == -1 {
			tl.logger.Infof("Load more entry of %s/%s is gone; view was reset", tl.acct.Username, tl.kind)
			return MergeResult{Failed: count == -1}
		}
	}

	if count == -1 {
		if sentinel != nil {
			sentinel.Loading = false
			sentinel.Caption = tl.txt.Get(texts.LoadMore)
		}
		tl.putErrorPlaceholder(at, sentinel != nil)
		return MergeResult{Failed: true}
	}

	// Drop the sentinel and a failure placeholder left at the insertion point
	if sentinel != nil {
		tl.removeAt(at)
		if at > 0 && tl.entries[at-1].Kind == EntryError {
			at--
			tl.removeAt(at)
		}
	} else if len(tl.entries) != 0 && tl.entries[0].Kind == EntryError {
		tl.removeAt(0)
	}

	page, err := tl.repo.GetItemsWindow(tl.acct.Id, tl.kind, maxId, since, count)
	if err != nil {
		tl.logger.Errorf("Failed to read fetched page of %s/%s: %v", tl.acct.Username, tl.kind, err)
		tl.putErrorPlaceholder(at, false)
		return MergeResult{Failed: true}
	}

	boundary, hasBoundary := tl.firstItemIdFrom(at)
	present := make(map[int64]struct{}, len(tl.entries))
	for _, e := range tl.entries {
		if e.Kind == EntryItem {
			present[e.Item.Id] = struct{}{}
		}
	}

	// Newest first. Reaching the first cached item below the insertion point means there is no gap.
	block := make([]*Entry, 0, len(page))
	continuous := false
	var lastId int64
	for _, itm := range page {
		if hasBoundary && itm.Id <= boundary {
			continuous = true
			break
		}
		if _, ok := present[itm.Id]; ok {
			continue
		}
		block = append(block, &Entry{Kind: EntryItem, Item: itm})
		lastId = itm.Id
	}

	tl.insertEntries(at, block...)
	after := at + len(block)
	if continuous {
		if after < len(tl.entries) && tl.entries[after].Kind == EntryLoadMore {
			tl.removeAt(after)
		}
	} else if len(block) > 0 {
		tl.insertEntries(after, &Entry{
			Kind:    EntryLoadMore,
			MaxId:   lastId - 1,
			Caption: tl.txt.Get(texts.LoadMore),
		})
		tl.metrics.GapOpened()
	}

	tl.metrics.ItemsMerged(len(block))
	tl.logger.Debugf("Merged %d items into %s/%s at %d; continuous: %v",
		len(block), tl.acct.Username, tl.kind, at, continuous)
	return MergeResult{Merged: len(block), Continuous: continuous}
}

// Inserts a failure placeholder at the insertion point, or refreshes the one already there.
// Above a "load more" entry the placeholder sits right before it.
func (tl *Timeline) putErrorPlaceholder(at int, beforeSentinel bool) {
	caption := tl.txt.WithVals(texts.NetFailure, map[string]string{
		"time": time.Now().Format("Jan 2 15:04:05"),
	})
	existing := at
	if beforeSentinel {
		existing = at - 1
	}
	if existing >= 0 && existing < len(tl.entries) && tl.entries[existing].Kind == EntryError {
		tl.entries[existing].Caption = caption
		return
	}
	tl.insertEntries(at, &Entry{Kind: EntryError, Caption: caption})
}

func (tl *Timeline) firstItemIdFrom(ix int) (int64, bool) {
	for ; ix < len(tl.entries); ix++ {
		if tl.entries[ix].Kind == EntryItem {
			return tl.entries[ix].Item.Id, true
		}
	}
	return 0, false
}

func (tl *Timeline) indexOf(e *Entry) int {
	for i, x := range tl.entries {
		if x == e {
			return i
		}
	}
	return -1
}

func (tl *Timeline) insertEntries(ix int, es ...*Entry) {
	tl.entries = slices.Insert(tl.entries, ix, es...)
}

func (tl *Timeline) removeAt(ix int) {
	tl.entries = slices.Delete(tl.entries, ix, ix+1)
}

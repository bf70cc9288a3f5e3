package logic_test

import (
	"context"
	"encoding/json"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"timeline_station/dto"
	"timeline_station/logic"
	"timeline_station/shared"
	"timeline_station/test"
	"timeline_station/test/mocks"
	"timeline_station/texts"
)

func statusesBody(ids ...int64) []byte {
	statuses := make([]dto.Status, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, dto.Status{
			Id:        id,
			CreatedAt: "Wed Mar 23 18:04:11 +0000 2011",
			Text:      "status",
			User:      &dto.User{Id: 1, Name: "Miguel de Icaza", ScreenName: "migueldeicaza"},
		})
	}
	res, _ := json.Marshal(statuses)
	return res
}

func idRange(from, to int64) []int64 {
	var res []int64
	for id := from; id >= to; id-- {
		res = append(res, id)
	}
	return res
}

// Serves canned pages keyed by raw query, and records the queries it saw.
type pageServer struct {
	*httptest.Server
	mu      sync.Mutex
	pages   map[string][]int64
	queries []string
}

func newPageServer(pages map[string][]int64) *pageServer {
	ps := &pageServer{pages: pages}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.queries = append(ps.queries, r.URL.RawQuery)
		ids, ok := ps.pages[r.URL.RawQuery]
		ps.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(statusesBody(ids...))
	}))
	return ps
}

func (ps *pageServer) lastQuery() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.queries[len(ps.queries)-1]
}

func setupPagedTest(t *testing.T, ps *pageServer, path string, scheme shared.PageScheme) *logic.PagedTimeline {
	ctrl, h, dl := setupDownloaderTest(t, true)
	t.Cleanup(ctrl.Finish)
	mockTexts := mocks.NewMockITexts(ctrl)
	test.StubTexts(mockTexts)
	pt := logic.NewPagedTimeline(log.New(io.Discard), dl, mockTexts, h.acct, ps.URL+path, scheme)
	t.Cleanup(pt.Close)
	return pt
}

func reloadPage(t *testing.T, pt *logic.PagedTimeline) logic.PageResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := pt.ReloadSync(ctx)
	require.NoError(t, err)
	return res
}

func TestPagedShortPageClosesPagination(t *testing.T) {
	ps := newPageServer(map[string][]int64{
		"screen_name=joe&page=1&count=50": idRange(137, 101),
	})
	defer ps.Close()
	pt := setupPagedTest(t, ps, "/1.1/statuses/user_timeline.json?screen_name=joe", shared.UserTimelineScheme())

	res := reloadPage(t, pt)
	assert.Equal(t, 37, res.Count)
	assert.False(t, res.HasMore)
	assert.False(t, pt.HasMore())
	assert.Len(t, pt.Entries(), 37)
	assert.False(t, pt.LoadMore())
}

func TestPagedFullSincePageOffersMore(t *testing.T) {
	ps := newPageServer(map[string][]int64{
		"screen_name=joe&page=1&count=50": idRange(150, 101),
		"screen_name=joe&page=2&count=50": idRange(100, 91),
	})
	defer ps.Close()
	pt := setupPagedTest(t, ps, "/1.1/statuses/user_timeline.json?screen_name=joe", shared.UserTimelineScheme())

	res := reloadPage(t, pt)
	assert.Equal(t, 50, res.Count)
	assert.True(t, res.HasMore)
	assert.True(t, pt.HasMore())
	entries := pt.Entries()
	require.Len(t, entries, 51)
	assert.Equal(t, logic.EntryLoadMore, entries[50].Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := pt.LoadMoreSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "screen_name=joe&page=2&count=50", ps.lastQuery())
	assert.Equal(t, 10, res.Count)
	assert.False(t, res.HasMore)
	entries = pt.Entries()
	require.Len(t, entries, 60)
	assert.Equal(t, int64(150), entries[0].Item.Id)
	assert.Equal(t, int64(91), entries[59].Item.Id)
}

func TestPagedPageNumbers(t *testing.T) {
	ps := newPageServer(map[string][]int64{
		"page=1": idRange(100, 81),
		"page=2": idRange(80, 76),
	})
	defer ps.Close()
	pt := setupPagedTest(t, ps, "/1.1/favorites/list.json", shared.FavoritesScheme())

	res := reloadPage(t, pt)
	assert.Equal(t, 20, res.Count)
	assert.True(t, res.HasMore)
	entries := pt.Entries()
	require.Len(t, entries, 21)
	assert.Equal(t, logic.EntryLoadMore, entries[20].Kind)
	assert.Equal(t, texts.LoadMorePage, entries[20].Caption)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := pt.LoadMoreSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "page=2", ps.lastQuery())
	assert.Equal(t, 5, res.Count)
	assert.False(t, res.HasMore)
	assert.Equal(t, view(
		"100", "99", "98", "97", "96", "95", "94", "93", "92", "91",
		"90", "89", "88", "87", "86", "85", "84", "83", "82", "81",
		"80", "79", "78", "77", "76"), describe(pt.Entries()))

	// Reloading a resource without since ids starts over from page 1
	res = reloadPage(t, pt)
	assert.Equal(t, "page=1", ps.lastQuery())
	assert.Len(t, pt.Entries(), 21)
}

func TestPagedSinceReloadInsertsOnTop(t *testing.T) {
	ps := newPageServer(map[string][]int64{
		"screen_name=joe&page=1&count=50":              {12, 11, 10},
		"screen_name=joe&page=1&count=50&since_id=12": {14, 13},
	})
	defer ps.Close()
	pt := setupPagedTest(t, ps, "/1.1/statuses/user_timeline.json?screen_name=joe", shared.UserTimelineScheme())

	reloadPage(t, pt)
	res := reloadPage(t, pt)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, view("14", "13", "12", "11", "10"), describe(pt.Entries()))
}

func TestPagedFailureShowsSingleError(t *testing.T) {
	ps := newPageServer(map[string][]int64{
		"page=1&per_page=20": idRange(40, 21),
	})
	defer ps.Close()
	pt := setupPagedTest(t, ps, "/1.1/lists/statuses.json", shared.ListScheme())

	res := reloadPage(t, pt)
	assert.True(t, res.HasMore)

	// Page 2 is not served
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := pt.LoadMoreSync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	entries := pt.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, logic.EntryError, entries[0].Kind)
	assert.Equal(t, texts.UnableDownload, entries[0].Caption)
	assert.False(t, pt.HasMore())
}

package logic

import (
	"encoding/json"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spaolacci/murmur3"
	"html"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"timeline_station/dal"
	"timeline_station/dto"
	"timeline_station/shared"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_timeline_client.go -package mocks timeline_station/logic ITimelineClient

type ITimelineClient interface {
	// ReloadTimeline fetches one page of the partition and stores its items.
	// onComplete runs on disp with the number of items in the page, or -1 on failure.
	ReloadTimeline(acct *dal.Account, kind shared.TimelineKind, since, maxId *int64,
		disp *Dispatcher, onComplete func(count int))
	LastError() string
}

type timelineClient struct {
	cfg        *shared.Config
	logger     shared.ILogger
	repo       dal.IRepo
	downloader IDownloader
	ub         shared.UrlBuilder
	muErr      sync.Mutex
	lastError  string
}

func NewTimelineClient(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	downloader IDownloader,
) ITimelineClient {
	return &timelineClient{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		downloader: downloader,
		ub:         shared.UrlBuilder{ApiBase: cfg.ApiBase},
	}
}

func (tc *timelineClient) LastError() string {
	tc.muErr.Lock()
	defer tc.muErr.Unlock()
	return tc.lastError
}

func (tc *timelineClient) setLastError(err error) {
	tc.muErr.Lock()
	defer tc.muErr.Unlock()
	tc.lastError = shared.TruncateWithEllipsis(err.Error(), shared.MaxErrorTextLen)
}

func (tc *timelineClient) ReloadTimeline(
	acct *dal.Account,
	kind shared.TimelineKind,
	since, maxId *int64,
	disp *Dispatcher,
	onComplete func(count int),
) {
	complete := func(count int) {
		if !disp.Post(func() { onComplete(count) }) {
			tc.logger.Warnf("Dispatcher %s closed before reload of %s/%s completed", disp.Name(), acct.Username, kind)
		}
	}

	url := tc.ub.TimelineRequest(kind, since, maxId)
	if url == "" {
		tc.setLastError(fmt.Errorf("timeline kind %s cannot be reloaded", kind))
		complete(-1)
		return
	}

	// Decode and store on the network goroutine; only the count goes to the dispatcher.
	tc.downloader.DownloadMode(acct, url, Streaming, nil, func(res *FetchResult) {
		if !res.Ok() {
			tc.setLastError(res.Err)
			complete(-1)
			return
		}
		count, err := tc.storePage(acct, kind, res.Body)
		if err != nil {
			tc.logger.Errorf("Failed to process %s timeline of %s: %v", kind, acct.Username, err)
			tc.setLastError(err)
			complete(-1)
			return
		}
		complete(count)
	})
}

func (tc *timelineClient) storePage(acct *dal.Account, kind shared.TimelineKind, body io.Reader) (int, error) {

	items, err := DecodeStatuses(body, acct.Id, kind)
	if err != nil {
		return 0, err
	}
	newCount, err := tc.repo.AddItemsIfNew(items)
	if err != nil {
		return 0, err
	}
	if err = tc.repo.SetAccountLastLoaded(acct.Id, time.Now().UTC()); err != nil {
		tc.logger.Warnf("Failed to update last loaded time of %s: %v", acct.Username, err)
	}
	tc.logger.Debugf("Stored %s page of %s: %d items, %d new", kind, acct.Username, len(items), newCount)
	return len(items), nil
}

// DecodeStatuses parses a JSON array of statuses into items of the given partition.
func DecodeStatuses(r io.Reader, accountId int, kind shared.TimelineKind) ([]*dal.Item, error) {
	var statuses []dto.Status
	if err := json.NewDecoder(r).Decode(&statuses); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	res := make([]*dal.Item, 0, len(statuses))
	for i := range statuses {
		st := &statuses[i]
		if st.Id == 0 {
			return nil, fmt.Errorf("%w: status without id at position %d", shared.ErrDecode, i)
		}
		res = append(res, statusToItem(st, accountId, kind))
	}
	return res, nil
}

func statusToItem(st *dto.Status, accountId int, kind shared.TimelineKind) *dal.Item {
	itm := dal.Item{
		Id:        st.Id,
		AccountId: accountId,
		Kind:      kind,
		CreatedAt: parseCreatedAt(st.CreatedAt),
		Text:      stripHtml(st.Text),
		Favorited: st.Favorited,
	}
	author := st.User
	if author == nil {
		author = st.Sender
	}
	if author != nil {
		itm.UserName = author.Name
		itm.ScreenName = author.ScreenName
	}
	itm.Source, itm.SourceUrl = parseSource(st.Source)
	itm.ContentHash = getItemHash(&itm)
	return &itm
}

func parseCreatedAt(str string) time.Time {
	for _, layout := range []string{time.RubyDate, time.RFC3339} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// The source field is either plain text or an anchor: <a href="url" rel="nofollow">Client</a>
func parseSource(src string) (name, href string) {
	if !strings.Contains(src, "<") {
		return html.UnescapeString(src), ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return stripHtml(src), ""
	}
	anchor := doc.Find("a").First()
	if anchor.Length() == 0 {
		return stripHtml(src), ""
	}
	return strings.TrimSpace(anchor.Text()), anchor.AttrOr("href", "")
}

func stripHtml(htm string) string {
	p := bluemonday.StrictPolicy()
	plain := p.Sanitize(htm)
	plain = html.UnescapeString(plain)
	plain = strings.TrimSpace(plain)
	return plain
}

// Fingerprint of the fields that can change after an item was first stored.
func getItemHash(itm *dal.Item) int64 {
	str := itm.Text + "\t" + strconv.FormatBool(itm.Favorited)
	hasher := murmur3.New32()
	_, _ = hasher.Write([]byte(str))
	return int64(hasher.Sum32())
}

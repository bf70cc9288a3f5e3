package logic

import (
	"sync"
	"timeline_station/dal"
	"timeline_station/shared"
	"timeline_station/texts"
)

// ITimelines hands out the single Timeline of each (account, kind) partition.
type ITimelines interface {
	Get(acct *dal.Account, kind shared.TimelineKind) *Timeline
	// Drop closes and forgets every timeline of the account.
	Drop(accountId int)
	All() []*Timeline
}

type partitionKey struct {
	accountId int
	kind      shared.TimelineKind
}

type timelines struct {
	cfg     *shared.Config
	logger  shared.ILogger
	repo    dal.IRepo
	client  ITimelineClient
	txt     texts.ITexts
	metrics IMetrics
	mu      sync.Mutex
	byKey   map[partitionKey]*Timeline
}

func NewTimelines(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	client ITimelineClient,
	txt texts.ITexts,
	metrics IMetrics,
) ITimelines {
	return &timelines{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		client:  client,
		txt:     txt,
		metrics: metrics,
		byKey:   make(map[partitionKey]*Timeline),
	}
}

func (tls *timelines) Get(acct *dal.Account, kind shared.TimelineKind) *Timeline {
	key := partitionKey{acct.Id, kind}
	tls.mu.Lock()
	defer tls.mu.Unlock()
	if tl, ok := tls.byKey[key]; ok {
		return tl
	}
	tl := NewTimeline(tls.cfg, tls.logger, tls.repo, tls.client, tls.txt, tls.metrics, acct, kind)
	tls.byKey[key] = tl
	return tl
}

func (tls *timelines) Drop(accountId int) {
	var dropped []*Timeline
	tls.mu.Lock()
	for key, tl := range tls.byKey {
		if key.accountId == accountId {
			dropped = append(dropped, tl)
			delete(tls.byKey, key)
		}
	}
	tls.mu.Unlock()
	for _, tl := range dropped {
		tl.Close()
	}
}

func (tls *timelines) All() []*Timeline {
	tls.mu.Lock()
	defer tls.mu.Unlock()
	res := make([]*Timeline, 0, len(tls.byKey))
	for _, tl := range tls.byKey {
		res = append(res, tl)
	}
	return res
}

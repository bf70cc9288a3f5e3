package logic

import (
	"context"
	"time"
	"timeline_station/dal"
	"timeline_station/shared"
)

// ISyncLoop refreshes every synced partition of every account once its refresh interval has passed.
type ISyncLoop interface {
	Start()
	Stop()
	// SyncOnce runs one pass and returns the number of refreshes started.
	SyncOnce(now time.Time) int
}

type syncLoop struct {
	cfg       *shared.Config
	logger    shared.ILogger
	repo      dal.IRepo
	timelines ITimelines
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewSyncLoop(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	timelines ITimelines,
) ISyncLoop {
	return &syncLoop{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		timelines: timelines,
	}
}

func (sl *syncLoop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	sl.cancel = cancel
	sl.done = make(chan struct{})
	go sl.loop(ctx)
}

func (sl *syncLoop) Stop() {
	if sl.cancel == nil {
		return
	}
	sl.cancel()
	<-sl.done
}

func (sl *syncLoop) loop(ctx context.Context) {
	defer close(sl.done)
	idle := time.Duration(sl.cfg.SyncLoopIdleSec) * time.Second
	for {
		sl.syncInner()
		select {
		case <-ctx.Done():
			return
		case <-time.After(idle):
		}
	}
}

func (sl *syncLoop) syncInner() {

	defer func() {
		if r := recover(); r != nil {
			sl.logger.Errorf("Sync cycle panicked: %v", r)
		}
	}()

	sl.SyncOnce(time.Now())
}

func (sl *syncLoop) SyncOnce(now time.Time) int {

	accounts, err := sl.repo.GetAccounts()
	if err != nil {
		sl.logger.Errorf("Failed to get accounts to sync: %v", err)
		return 0
	}

	started := 0
	for _, acct := range accounts {
		for _, kind := range shared.SyncedKinds {
			tl := sl.timelines.Get(acct, kind)
			if !tl.NeedsUpdate(now) {
				continue
			}
			if tl.Refresh() {
				started++
			}
		}
	}
	if started != 0 {
		sl.logger.Debugf("Started %d timeline refreshes", started)
	}
	return started
}

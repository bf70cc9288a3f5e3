package logic_test

import (
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"io"
	"testing"
	"time"
	"timeline_station/dal"
	"timeline_station/logic"
	"timeline_station/shared"
	"timeline_station/test"
	"timeline_station/test/mocks"
)

func setupTimelinesTest(t *testing.T) (*gomock.Controller, *mocks.MockITimelineClient, dal.IRepo, logic.ITimelines) {
	ctrl := gomock.NewController(t)
	mockClient := mocks.NewMockITimelineClient(ctrl)
	mockTexts := mocks.NewMockITexts(ctrl)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.StubTexts(mockTexts)
	test.StubMetrics(ctrl, mockMetrics)

	cfg := (&shared.Config{}).WithDefaults()
	repo := newTestRepo(t)
	tls := logic.NewTimelines(cfg, log.New(io.Discard), repo, mockClient, mockTexts, mockMetrics)
	return ctrl, mockClient, repo, tls
}

func TestTimelinesOnePerPartition(t *testing.T) {
	ctrl, _, repo, tls := setupTimelinesTest(t)
	defer ctrl.Finish()

	miguel := addTestAccount(t, repo, "miguel")
	joseph := addTestAccount(t, repo, "joseph")

	home := tls.Get(miguel, shared.KindHome)
	assert.Same(t, home, tls.Get(miguel, shared.KindHome))
	assert.NotSame(t, home, tls.Get(miguel, shared.KindReplies))
	assert.NotSame(t, home, tls.Get(joseph, shared.KindHome))
	assert.Len(t, tls.All(), 3)

	tls.Drop(miguel.Id)
	assert.Len(t, tls.All(), 1)
	assert.NotSame(t, home, tls.Get(miguel, shared.KindHome))
}

func TestSyncOnceRefreshesDuePartitions(t *testing.T) {
	ctrl, mockClient, repo, tls := setupTimelinesTest(t)
	defer ctrl.Finish()

	addTestAccount(t, repo, "miguel")
	addTestAccount(t, repo, "joseph")

	// Nothing new on the server
	mockClient.EXPECT().
		ReloadTimeline(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(acct *dal.Account, kind shared.TimelineKind, since, maxId *int64,
			disp *logic.Dispatcher, onComplete func(int)) {
			disp.Post(func() { onComplete(0) })
		}).Times(12)

	sl := logic.NewSyncLoop((&shared.Config{}).WithDefaults(), log.New(io.Discard), repo, tls)

	now := time.Now()
	assert.Equal(t, 6, sl.SyncOnce(now))
	assert.Eventually(t, func() bool {
		for _, tl := range tls.All() {
			if tl.State() != logic.StateIdle || tl.NeedsUpdate(now) {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	// Refreshed a moment ago
	assert.Equal(t, 0, sl.SyncOnce(now))

	// Past the refresh interval
	assert.Equal(t, 6, sl.SyncOnce(now.Add(3*time.Minute)))
	assert.Eventually(t, func() bool {
		for _, tl := range tls.All() {
			if tl.State() != logic.StateIdle {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSyncLoopStartStop(t *testing.T) {
	ctrl, _, repo, tls := setupTimelinesTest(t)
	defer ctrl.Finish()

	// No accounts: the loop passes without refreshing anything
	sl := logic.NewSyncLoop((&shared.Config{}).WithDefaults(), log.New(io.Discard), repo, tls)
	sl.Start()
	sl.Stop()
	assert.Empty(t, tls.All())
}

package logic_test

import (
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"testing"
	"time"
	"timeline_station/dal"
	"timeline_station/shared"
)

func newTestRepo(t *testing.T) dal.IRepo {
	cfg := &shared.Config{DbFile: filepath.Join(t.TempDir(), "timelines.db")}
	repo := dal.NewRepo(cfg.WithDefaults(), log.New(io.Discard))
	repo.InitUpdateDb()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func addTestAccount(t *testing.T, repo dal.IRepo, username string) *dal.Account {
	acct := &dal.Account{
		CreatedAt:   time.Now().UTC(),
		Username:    username,
		Token:       "tok-" + username,
		TokenSecret: "sec-" + username,
	}
	isNew, err := repo.AddAccount(acct)
	require.Nil(t, err)
	require.True(t, isNew)
	return acct
}

func storeItems(t *testing.T, repo dal.IRepo, acct *dal.Account, kind shared.TimelineKind, ids ...int64) {
	for _, id := range ids {
		_, err := repo.AddItemIfNew(&dal.Item{
			Id:         id,
			AccountId:  acct.Id,
			Kind:       kind,
			CreatedAt:  time.Unix(1_300_000_000+id, 0).UTC(),
			ScreenName: "migueldeicaza",
			Text:       "status",
		})
		require.Nil(t, err)
	}
}

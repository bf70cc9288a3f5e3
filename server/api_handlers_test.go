package server_test

import (
	"encoding/json"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
	"timeline_station/dal"
	"timeline_station/dto"
	"timeline_station/logic"
	"timeline_station/server"
	"timeline_station/shared"
	"timeline_station/test"
	"timeline_station/test/mocks"
)

const (
	apiKeyId     = "desk"
	apiKeySecret = "s3cret"
	metricsToken = "scrape-me"
)

type apiHarness struct {
	t          *testing.T
	cfg        *shared.Config
	repo       dal.IRepo
	mockClient *mocks.MockITimelineClient
	remote     *httptest.Server
	local      *httptest.Server
}

func setupApiTest(t *testing.T) (*gomock.Controller, *apiHarness) {

	ctrl := gomock.NewController(t)
	logger := log.New(io.Discard)

	h := &apiHarness{t: t, mockClient: mocks.NewMockITimelineClient(ctrl)}

	// Remote API answers every browse request with two statuses
	h.remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 12, "created_at": "Wed Mar 23 18:04:11 +0000 2011", "text": "second",
			 "user": {"id": 1, "name": "Miguel", "screen_name": "migueldeicaza"}},
			{"id": 11, "created_at": "Wed Mar 23 18:01:11 +0000 2011", "text": "first",
			 "user": {"id": 1, "name": "Miguel", "screen_name": "migueldeicaza"}}
		]`))
	}))
	t.Cleanup(h.remote.Close)

	h.cfg = &shared.Config{
		DbFile:  filepath.Join(t.TempDir(), "timelines.db"),
		ApiBase: h.remote.URL,
	}
	h.cfg.Secrets.ConsumerKey = "consumer"
	h.cfg.Secrets.ConsumerSecret = "consumer-secret"
	h.cfg.Secrets.ApiKeys = map[string]string{apiKeyId: apiKeySecret}
	h.cfg.Secrets.MetricsAuth = metricsToken
	h.cfg.WithDefaults()

	h.repo = dal.NewRepo(h.cfg, logger)
	h.repo.InitUpdateDb()
	t.Cleanup(func() { _ = h.repo.Close() })

	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.StubMetrics(ctrl, mockMetrics)
	mockTexts := mocks.NewMockITexts(ctrl)
	test.StubTexts(mockTexts)
	mockWaker := mocks.NewMockIConnectionWaker(ctrl)
	mockWaker.EXPECT().Wake(gomock.Any()).AnyTimes()

	activity := logic.NewNetworkActivity(mockMetrics)
	downloader := logic.NewDownloader(h.cfg, logger, shared.NewUserAgent(h.cfg), logic.NewSigner(h.cfg),
		mockWaker, activity, mockMetrics, logic.NewTransport())
	timelines := logic.NewTimelines(h.cfg, logger, h.repo, h.mockClient, mockTexts, mockMetrics)
	paged := logic.NewPagedTimelines(h.cfg, logger, downloader, mockTexts)

	groups := []server.IHandlerGroup{
		server.NewApiHandlerGroup(h.cfg, logger, h.repo, timelines, paged, downloader, activity,
			logic.NewSigChecker(h.cfg, logger), mockMetrics),
		server.NewMetricsHandlerGroup(h.cfg, logger),
		server.NewStatusHandlerGroup(h.cfg, logger, timelines, downloader, activity),
	}
	h.local = httptest.NewServer(server.NewMux(groups, logger))
	t.Cleanup(h.local.Close)

	return ctrl, h
}

func (h *apiHarness) addAccount(username string) *dal.Account {
	acct := &dal.Account{
		CreatedAt:   time.Now().UTC(),
		Username:    username,
		Token:       "tok-" + username,
		TokenSecret: "sec-" + username,
	}
	_, err := h.repo.AddAccount(acct)
	require.Nil(h.t, err)
	return acct
}

// Sends a request to the local API signed with the test key.
func (h *apiHarness) do(method, path string) *http.Response {
	req, err := http.NewRequest(method, h.local.URL+path, nil)
	require.NoError(h.t, err)
	require.NoError(h.t, logic.SignWithKey(req, nil, apiKeyId, []byte(apiKeySecret)))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	var res T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestApiRejectsUnsignedRequest(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	resp, err := http.Get(h.local.URL + "/api/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("GET", h.local.URL+"/api/accounts", nil)
	require.NoError(t, logic.SignWithKey(req, nil, apiKeyId, []byte("not-the-secret")))
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestApiListsAccounts(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	resp := h.do("GET", "/api/accounts")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	accounts := decodeBody[[]dto.Account](t, resp)
	require.Len(t, accounts, 1)
	assert.Equal(t, "miguel", accounts[0].Username)
}

func TestApiTimelineNotFound(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/api/accounts/nobody/timelines/home").StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/api/accounts/miguel/timelines/nope").StatusCode)
	assert.Equal(t, http.StatusBadRequest, h.do("POST", "/api/accounts/miguel/timelines/home/more/x").StatusCode)
}

func TestApiRefreshMergesPage(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	h.mockClient.EXPECT().
		ReloadTimeline(gomock.Any(), shared.KindHome, nil, nil, gomock.Any(), gomock.Any()).
		Do(func(acct *dal.Account, kind shared.TimelineKind, since, maxId *int64,
			disp *logic.Dispatcher, onComplete func(int)) {
			for _, id := range []int64{3, 2, 1} {
				_, err := h.repo.AddItemIfNew(&dal.Item{
					Id: id, AccountId: acct.Id, Kind: kind,
					CreatedAt: time.Unix(1_300_000_000+id, 0).UTC(), ScreenName: "migueldeicaza", Text: "status",
				})
				assert.Nil(t, err)
			}
			disp.Post(func() { onComplete(3) })
		})

	resp := h.do("POST", "/api/accounts/miguel/timelines/home/refresh")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[dto.MergeResult](t, resp)
	assert.Equal(t, 3, res.Merged)
	assert.False(t, res.Failed)

	resp = h.do("GET", "/api/accounts/miguel/timelines/home")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tl := decodeBody[dto.Timeline](t, resp)
	assert.Equal(t, "home", tl.Kind)
	require.GreaterOrEqual(t, len(tl.Entries), 3)
	for i, id := range []int64{3, 2, 1} {
		require.NotNil(t, tl.Entries[i].Item)
		assert.Equal(t, id, tl.Entries[i].Item.Id)
	}
}

func TestApiBrowseFavorites(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/api/accounts/miguel/browse/nope/x").StatusCode)

	resp := h.do("POST", "/api/accounts/miguel/browse/favorites/migueldeicaza/reload")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[dto.PageResult](t, resp)
	assert.Equal(t, 2, res.Count)
	assert.False(t, res.HasMore)
	assert.False(t, res.Failed)

	resp = h.do("GET", "/api/accounts/miguel/browse/favorites/migueldeicaza")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pt := decodeBody[dto.PagedTimeline](t, resp)
	assert.Equal(t, "favorites", pt.Resource)
	require.Len(t, pt.Entries, 2)
	assert.Equal(t, int64(12), pt.Entries[0].Item.Id)
	assert.Equal(t, "first", pt.Entries[1].Item.Text)
}

func TestApiDeleteAccount(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	assert.Equal(t, http.StatusOK, h.do("GET", "/api/accounts/miguel/timelines/home").StatusCode)

	assert.Equal(t, http.StatusNoContent, h.do("DELETE", "/api/accounts/miguel").StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/api/accounts/miguel/timelines/home").StatusCode)
	accounts := decodeBody[[]dto.Account](t, h.do("GET", "/api/accounts"))
	assert.Empty(t, accounts)
}

func TestApiNetworkStatus(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	resp := h.do("GET", "/api/network")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody[dto.NetworkStatus](t, resp)
	assert.False(t, status.Active)
	assert.Equal(t, 0, status.InFlight)
	assert.Equal(t, 0, status.Queued)
}

func TestMetricsRequireBearer(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	resp, err := http.Get(h.local.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("GET", h.local.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+metricsToken)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestStatusPageListsTimelines(t *testing.T) {
	ctrl, h := setupApiTest(t)
	defer ctrl.Finish()

	h.addAccount("miguel")
	h.do("GET", "/api/accounts/miguel/timelines/home")

	resp, err := http.Get(h.local.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Version dev")
	assert.Contains(t, string(body), "<td>miguel</td>")
	assert.Contains(t, string(body), "0 in flight, 0 queued")
}

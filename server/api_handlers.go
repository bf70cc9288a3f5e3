package server

import (
	"context"
	"errors"
	"github.com/gorilla/mux"
	"net/http"
	"strconv"
	"time"
	"timeline_station/dal"
	"timeline_station/dto"
	"timeline_station/logic"
	"timeline_station/shared"
)

// A merge normally lands within a few seconds; past this the caller gets the busy state and can poll.
const mergeWaitSec = 60

type apiHandlerGroup struct {
	cfg        *shared.Config
	logger     shared.ILogger
	repo       dal.IRepo
	timelines  logic.ITimelines
	paged      logic.IPagedTimelines
	downloader logic.IDownloader
	activity   *logic.NetworkActivity
	sigChecker logic.ISigChecker
	metrics    logic.IMetrics
}

func NewApiHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	timelines logic.ITimelines,
	paged logic.IPagedTimelines,
	downloader logic.IDownloader,
	activity *logic.NetworkActivity,
	sigChecker logic.ISigChecker,
	metrics logic.IMetrics,
) IHandlerGroup {
	res := apiHandlerGroup{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		timelines:  timelines,
		paged:      paged,
		downloader: downloader,
		activity:   activity,
		sigChecker: sigChecker,
		metrics:    metrics,
	}
	return &res
}

func (hg *apiHandlerGroup) Prefix() string {
	return "/api"
}

func (hg *apiHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"GET", "/accounts", func(w http.ResponseWriter, r *http.Request) { hg.getAccounts(w, r) }},
		{"GET", "/network", func(w http.ResponseWriter, r *http.Request) { hg.getNetwork(w, r) }},
		{"GET", "/accounts/{user}/timelines/{kind}", func(w http.ResponseWriter, r *http.Request) { hg.getTimeline(w, r) }},
		{"POST", "/accounts/{user}/timelines/{kind}/refresh", func(w http.ResponseWriter, r *http.Request) { hg.postRefresh(w, r) }},
		{"POST", "/accounts/{user}/timelines/{kind}/more/{index}", func(w http.ResponseWriter, r *http.Request) { hg.postLoadMore(w, r) }},
		{"POST", "/accounts/{user}/items/{id}/favorite", func(w http.ResponseWriter, r *http.Request) { hg.postFavorite(w, r) }},
		{"DELETE", "/accounts/{user}", func(w http.ResponseWriter, r *http.Request) { hg.deleteAccount(w, r) }},
		{"GET", "/accounts/{user}/browse/{resource}/{arg}", func(w http.ResponseWriter, r *http.Request) { hg.getBrowse(w, r) }},
		{"POST", "/accounts/{user}/browse/{resource}/{arg}/reload", func(w http.ResponseWriter, r *http.Request) { hg.postBrowseReload(w, r) }},
		{"POST", "/accounts/{user}/browse/{resource}/{arg}/more", func(w http.ResponseWriter, r *http.Request) { hg.postBrowseMore(w, r) }},
	}
}

func (hg *apiHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return hg.authMW(next)
	}
}

func (hg *apiHandlerGroup) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyId, msg, err := hg.sigChecker.Check(r)
		if err != nil {
			writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
			return
		}
		if msg != "" {
			hg.logger.Warnf("API request rejected: %s: %s", r.URL.Path, msg)
			writeErrorResponse(w, badSignatureStr, http.StatusUnauthorized)
			return
		}
		hg.logger.Debugf("API request from %s: %s %s", keyId, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (hg *apiHandlerGroup) getAccounts(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("accounts")
	defer obs.Finish()

	accounts, err := hg.repo.GetAccounts()
	if err != nil {
		hg.logger.Errorf("Failed to get accounts: %v", err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	resp := make([]dto.Account, 0, len(accounts))
	for _, acct := range accounts {
		resp = append(resp, dto.Account{
			Username:   acct.Username,
			CreatedAt:  acct.CreatedAt,
			LastLoaded: acct.LastLoaded,
		})
	}
	writeJsonResponse(hg.logger, w, resp)
}

func (hg *apiHandlerGroup) getNetwork(w http.ResponseWriter, r *http.Request) {
	throttler := hg.downloader.Throttler()
	writeJsonResponse(hg.logger, w, dto.NetworkStatus{
		Active:   hg.activity.Active(),
		Count:    hg.activity.Count(),
		InFlight: throttler.InFlight(),
		Queued:   throttler.Queued(),
	})
}

// Resolves the {user} and {kind} route variables. Writes the error response if it returns nil.
func (hg *apiHandlerGroup) resolveTimeline(w http.ResponseWriter, r *http.Request) *logic.Timeline {
	acct := hg.resolveAccount(w, r)
	if acct == nil {
		return nil
	}
	kind, err := shared.ParseTimelineKind(mux.Vars(r)["kind"])
	if err != nil {
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
		return nil
	}
	return hg.timelines.Get(acct, kind)
}

func (hg *apiHandlerGroup) resolveAccount(w http.ResponseWriter, r *http.Request) *dal.Account {
	user := mux.Vars(r)["user"]
	acct, err := hg.repo.GetAccount(user)
	if err != nil {
		hg.logger.Errorf("Failed to get account %s: %v", user, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return nil
	}
	if acct == nil {
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
		return nil
	}
	return acct
}

func (hg *apiHandlerGroup) getTimeline(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("timeline")
	defer obs.Finish()

	tl := hg.resolveTimeline(w, r)
	if tl == nil {
		return
	}
	writeJsonResponse(hg.logger, w, toTimelineDto(tl))
}

func (hg *apiHandlerGroup) postRefresh(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("refresh")
	defer obs.Finish()

	tl := hg.resolveTimeline(w, r)
	if tl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), mergeWaitSec*time.Second)
	defer cancel()
	res, err := tl.RefreshSync(ctx)
	hg.writeMergeResult(w, res, err)
}

func (hg *apiHandlerGroup) postLoadMore(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("load_more")
	defer obs.Finish()

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return
	}
	tl := hg.resolveTimeline(w, r)
	if tl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), mergeWaitSec*time.Second)
	defer cancel()
	res, err := tl.LoadMoreSync(ctx, index)
	hg.writeMergeResult(w, res, err)
}

func (hg *apiHandlerGroup) writeMergeResult(w http.ResponseWriter, res logic.MergeResult, err error) {
	if errors.Is(err, logic.ErrBusy) {
		writeErrorResponse(w, conflictStr, http.StatusConflict)
		return
	}
	if err != nil {
		writeErrorResponse(w, stillMergingStr, http.StatusAccepted)
		return
	}
	writeJsonResponse(hg.logger, w, dto.MergeResult{
		Merged:     res.Merged,
		Continuous: res.Continuous,
		Failed:     res.Failed,
	})
}

func (hg *apiHandlerGroup) postFavorite(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("favorite")
	defer obs.Finish()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return
	}
	on, err := strconv.ParseBool(r.URL.Query().Get("on"))
	if err != nil {
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return
	}
	acct := hg.resolveAccount(w, r)
	if acct == nil {
		return
	}
	for _, kind := range shared.SyncedKinds {
		if err = hg.timelines.Get(acct, kind).FavoriteChanged(id, on); err != nil {
			hg.logger.Errorf("Failed to set favorite flag of %d for %s: %v", id, acct.Username, err)
			writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Signs the account out: its cached items and open views go away.
func (hg *apiHandlerGroup) deleteAccount(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("delete_account")
	defer obs.Finish()

	acct := hg.resolveAccount(w, r)
	if acct == nil {
		return
	}
	hg.timelines.Drop(acct.Id)
	hg.paged.Drop(acct.Id)
	if err := hg.repo.DeleteAccount(acct.Username); err != nil {
		hg.logger.Errorf("Failed to delete account %s: %v", acct.Username, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	hg.logger.Infof("Account %s signed out", acct.Username)
	w.WriteHeader(http.StatusNoContent)
}

func (hg *apiHandlerGroup) resolvePaged(w http.ResponseWriter, r *http.Request) *logic.PagedTimeline {
	acct := hg.resolveAccount(w, r)
	if acct == nil {
		return nil
	}
	vars := mux.Vars(r)
	pt, err := hg.paged.Get(acct, vars["resource"], vars["arg"])
	if err != nil {
		hg.logger.Debugf("Cannot browse %s/%s: %v", vars["resource"], vars["arg"], err)
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
		return nil
	}
	return pt
}

func (hg *apiHandlerGroup) getBrowse(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("browse")
	defer obs.Finish()

	pt := hg.resolvePaged(w, r)
	if pt == nil {
		return
	}
	vars := mux.Vars(r)
	writeJsonResponse(hg.logger, w, &dto.PagedTimeline{
		Username: vars["user"],
		Resource: vars["resource"],
		Arg:      vars["arg"],
		HasMore:  pt.HasMore(),
		Entries:  toEntryDtos(pt.Entries()),
	})
}

func (hg *apiHandlerGroup) postBrowseReload(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("browse_reload")
	defer obs.Finish()

	pt := hg.resolvePaged(w, r)
	if pt == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), mergeWaitSec*time.Second)
	defer cancel()
	res, err := pt.ReloadSync(ctx)
	hg.writePageResult(w, res, err)
}

func (hg *apiHandlerGroup) postBrowseMore(w http.ResponseWriter, r *http.Request) {
	obs := hg.metrics.StartWebRequestIn("browse_more")
	defer obs.Finish()

	pt := hg.resolvePaged(w, r)
	if pt == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), mergeWaitSec*time.Second)
	defer cancel()
	res, err := pt.LoadMoreSync(ctx)
	hg.writePageResult(w, res, err)
}

func (hg *apiHandlerGroup) writePageResult(w http.ResponseWriter, res logic.PageResult, err error) {
	if errors.Is(err, logic.ErrBusy) {
		writeErrorResponse(w, conflictStr, http.StatusConflict)
		return
	}
	if err != nil {
		writeErrorResponse(w, stillMergingStr, http.StatusAccepted)
		return
	}
	writeJsonResponse(hg.logger, w, dto.PageResult{
		Count:   res.Count,
		HasMore: res.HasMore,
		Failed:  res.Failed,
	})
}

func toTimelineDto(tl *logic.Timeline) *dto.Timeline {
	return &dto.Timeline{
		Username: tl.Account().Username,
		Kind:     tl.Kind().String(),
		State:    tl.State().String(),
		Entries:  toEntryDtos(tl.Entries()),
	}
}

func toEntryDtos(entries []logic.Entry) []dto.TimelineEntry {
	res := make([]dto.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		te := dto.TimelineEntry{
			Type:    e.Kind.String(),
			MaxId:   e.MaxId,
			Loading: e.Loading,
			Caption: e.Caption,
		}
		if e.Item != nil {
			te.Item = &dto.TimelineItem{
				Id:         e.Item.Id,
				CreatedAt:  e.Item.CreatedAt,
				UserName:   e.Item.UserName,
				ScreenName: e.Item.ScreenName,
				Text:       e.Item.Text,
				Source:     e.Item.Source,
				SourceUrl:  e.Item.SourceUrl,
				Favorited:  e.Item.Favorited,
			}
		}
		res = append(res, te)
	}
	return res
}

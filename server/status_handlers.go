package server

import (
	"embed"
	"html/template"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"
	"timeline_station/dto"
	"timeline_station/logic"
	"timeline_station/shared"
)

//go:embed templates
var templates embed.FS

const versionFileName = "version.txt"

type statusHandlerGroup struct {
	cfg        *shared.Config
	logger     shared.ILogger
	timelines  logic.ITimelines
	downloader logic.IDownloader
	activity   *logic.NetworkActivity
	version    string
	started    string
	page       *template.Template
}

type statusModel struct {
	Version string
	Started string
	Data    statusData
}

type statusData struct {
	Network   dto.NetworkStatus
	Timelines []timelineRow
}

type timelineRow struct {
	Username string
	Kind     string
	State    string
	Entries  int
}

func NewStatusHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	timelines logic.ITimelines,
	downloader logic.IDownloader,
	activity *logic.NetworkActivity,
) IHandlerGroup {
	res := statusHandlerGroup{
		cfg:        cfg,
		logger:     logger,
		timelines:  timelines,
		downloader: downloader,
		activity:   activity,
		version:    "dev",
		started:    time.Now().Format(time.RFC1123),
		page:       template.Must(template.ParseFS(templates, "templates/status.tmpl")),
	}
	if versionBytes, err := os.ReadFile(versionFileName); err == nil {
		res.version = strings.TrimSpace(string(versionBytes))
	}
	return &res
}

func (hg *statusHandlerGroup) Prefix() string {
	return "/status"
}

func (hg *statusHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"GET", "", func(w http.ResponseWriter, r *http.Request) { hg.getStatus(w, r) }},
	}
}

func (hg *statusHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return emptyMW
}

func (hg *statusHandlerGroup) getStatus(w http.ResponseWriter, r *http.Request) {

	throttler := hg.downloader.Throttler()
	model := statusModel{
		Version: hg.version,
		Started: hg.started,
		Data: statusData{
			Network: dto.NetworkStatus{
				Active:   hg.activity.Active(),
				Count:    hg.activity.Count(),
				InFlight: throttler.InFlight(),
				Queued:   throttler.Queued(),
			},
		},
	}
	for _, tl := range hg.timelines.All() {
		model.Data.Timelines = append(model.Data.Timelines, timelineRow{
			Username: tl.Account().Username,
			Kind:     tl.Kind().String(),
			State:    tl.State().String(),
			Entries:  len(tl.Entries()),
		})
	}
	slices.SortFunc(model.Data.Timelines, func(a, b timelineRow) int {
		if c := strings.Compare(a.Username, b.Username); c != 0 {
			return c
		}
		return strings.Compare(a.Kind, b.Kind)
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := hg.page.Execute(w, &model); err != nil {
		hg.logger.Warnf("Failed to render status page: %v", err)
	}
}

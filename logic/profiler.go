package logic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"
	"timeline_station/shared"
)

const profilerStartDelay = 10 * time.Second
const profilerInterval = 60 * time.Second

// IProfiler periodically dumps goroutine stacks with the fetch pipeline's load.
// Long-lived streaming callbacks and stuck uploads show up here first.
type IProfiler interface {
	Start()
	Stop()
	SaveProfile() (string, error)
}

type profiler struct {
	logger     shared.ILogger
	downloader IDownloader
	activity   *NetworkActivity
	dir        string
	keepDays   int
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewProfiler(
	cfg *shared.Config,
	logger shared.ILogger,
	downloader IDownloader,
	activity *NetworkActivity,
) IProfiler {
	return &profiler{
		logger:     logger,
		downloader: downloader,
		activity:   activity,
		dir:        cfg.ProfileDir,
		keepDays:   cfg.ProfileKeepDays,
	}
}

func (prof *profiler) Start() {
	if prof.dir == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	prof.cancel = cancel
	prof.done = make(chan struct{})
	go prof.loop(ctx)
}

func (prof *profiler) Stop() {
	if prof.cancel == nil {
		return
	}
	prof.cancel()
	<-prof.done
	prof.cancel = nil
}

func (prof *profiler) loop(ctx context.Context) {
	defer close(prof.done)
	delay := profilerStartDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = profilerInterval
		if _, err := prof.SaveProfile(); err != nil {
			prof.logger.Warnf("Failed to save profile: %v", err)
		}
		if err := prof.purgeOld(); err != nil {
			prof.logger.Warnf("Failed to purge old profiles: %v", err)
		}
	}
}

// SaveProfile writes one dump and returns its path.
func (prof *profiler) SaveProfile() (string, error) {
	if err := os.MkdirAll(prof.dir, 0755); err != nil {
		return "", err
	}
	fname := fmt.Sprintf("%v.txt", time.Now().Format("2006-01-02!15-04-05.000"))
	profPath := filepath.Join(prof.dir, fname)
	f, err := os.Create(profPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	throttler := prof.downloader.Throttler()
	if _, err = fmt.Fprintf(f, "Goroutine count: %d\nRequests in flight: %d\nRequests queued: %d\nActivity count: %d\n\n",
		runtime.NumGoroutine(), throttler.InFlight(), throttler.Queued(), prof.activity.Count()); err != nil {
		return "", err
	}
	if err = pprof.Lookup("goroutine").WriteTo(f, 2); err != nil {
		return "", err
	}
	return profPath, nil
}

func (prof *profiler) purgeOld() error {
	cutoff := time.Now().AddDate(0, 0, -prof.keepDays)
	return filepath.Walk(prof.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.ModTime().Before(cutoff) {
			return os.Remove(path)
		}
		return nil
	})
}

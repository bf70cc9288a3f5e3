package main

import (
	"context"
	"fmt"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"io"
	"net/http"
	"os"
	"timeline_station/dal"
	"timeline_station/logic"
	"timeline_station/server"
	"timeline_station/shared"
	"timeline_station/texts"
)

type initErrorHandler struct {
}

func (*initErrorHandler) HandleError(err error) {
	fmt.Fprintf(os.Stderr, "Failed to initialize dependency injection\n%v", err)
}

var logger *log.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:           "timeline-station",
		Short:         "Timeline sync service and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newServeCmd(),
		newAccountCmd(),
		newUploadCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync loop and the local API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serve()
			return nil
		},
	}
}

// Providers shared by the service and the one-shot commands.
func coreProviders(cfg *shared.Config) fx.Option {
	provideConfig := func() *shared.Config {
		return cfg
	}
	logger = initLogger(cfg)
	provideLogger := func() shared.ILogger {
		return logger
	}
	return fx.Options(
		fx.Provide(
			provideConfig,
			provideLogger,
			shared.NewUserAgent,
			logic.NewTransport,
			logic.NewConnectionWaker,
			logic.NewMetrics,
			logic.NewNetworkActivity,
			logic.NewSigner,
			logic.NewDownloader,
			logic.NewUploader,
			texts.NewTexts,
			dal.NewRepo,
		),
		fx.Invoke(func(repo dal.IRepo) { repo.InitUpdateDb() }),
	)
}

func serve() {

	cfg := shared.LoadConfig()

	app := fx.New(
		fx.NopLogger,
		coreProviders(cfg),
		fx.Provide(
			server.NewHTTPServer,
			fx.Annotate(server.NewMux, fx.ParamTags(`group:"handler_group"`)),
			logic.NewSigChecker,
			logic.NewTimelineClient,
			logic.NewTimelines,
			logic.NewPagedTimelines,
			logic.NewSyncLoop,
			logic.NewProfiler,
			asHandlerGroupDef(server.NewApiHandlerGroup),
			asHandlerGroupDef(server.NewMetricsHandlerGroup),
			asHandlerGroupDef(server.NewStatusHandlerGroup),
		),
		fx.Invoke(
			registerHooks,
			func(*http.Server) {},
		),
		fx.ErrorHook(&initErrorHandler{}),
	)
	app.Run()
}

func asHandlerGroupDef(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(server.IHandlerGroup)),
		fx.ResultTags(`group:"handler_group"`),
	)
}

func initLogger(cfg *shared.Config) *log.Logger {

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			msg := fmt.Sprintf("Failed to open log file '%v': %v", cfg.LogFile, err)
			log.Fatal(msg)
		}
		out = io.MultiWriter(os.Stdout, logFile)
	}

	logger := log.New(out)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat("2006-01-02 15:04:05.000")
	switch cfg.LogLevel {
	case "Debug":
		logger.SetLevel(log.DebugLevel)
	case "Info":
		logger.SetLevel(log.InfoLevel)
	case "Warn":
		logger.SetLevel(log.WarnLevel)
	case "Error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.ErrorLevel)
	}
	logger.SetReportCaller(true)

	return logger
}

func registerHooks(
	lc fx.Lifecycle,
	metrics logic.IMetrics,
	syncLoop logic.ISyncLoop,
	profiler logic.IProfiler,
	repo dal.IRepo,
) {
	lc.Append(
		fx.Hook{
			OnStart: func(context.Context) error {
				logger.Printf("Application starting up")
				metrics.ServiceStarted()
				syncLoop.Start()
				profiler.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				logger.Printf("Application shutting down")
				profiler.Stop()
				syncLoop.Stop()
				return repo.Close()
			},
		},
	)
}

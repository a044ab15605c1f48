package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/weave/internal/animation"
	"github.com/conneroisu/weave/internal/assembly"
	"github.com/conneroisu/weave/internal/config"
	"github.com/conneroisu/weave/internal/errors"
	"github.com/conneroisu/weave/internal/layout"
	"github.com/conneroisu/weave/internal/logging"
	"github.com/conneroisu/weave/internal/mapper"
	"github.com/conneroisu/weave/internal/registry"
	"github.com/conneroisu/weave/internal/server"
	"github.com/conneroisu/weave/internal/ui"
	"github.com/conneroisu/weave/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assembly server",
	Long: `Start the assembly server. Rendering surfaces connect over WebSocket at
/ws, send classifier intents, and receive a state snapshot after every
applied instruction.

Examples:
  weave serve                        # Serve with defaults
  weave serve --port 9090            # Serve on a custom port
  weave serve --tuning rules.yml     # Apply rule tuning overrides`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("tuning", "", "Rule tuning overrides file")
	serveCmd.Flags().Bool("watch-tuning", false, "Rebuild the mapper when the tuning file changes")

	bindFlagAs("server.port", "port", serveCmd)
	bindFlagAs("server.host", "host", serveCmd)
	bindFlagAs("rules.tuning_file", "tuning", serveCmd)
	bindFlagAs("rules.watch", "watch-tuning", serveCmd)
}

// bindFlagAs binds a command flag to a dotted viper key.
func bindFlagAs(key, flag string, cmd *cobra.Command) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: viper.GetString("log-format"),
		Output: os.Stdout,
	})
	ctx := cmd.Context()

	collector := errors.NewCollector()

	componentRegistry := registry.NewComponentRegistry()
	ui.RegisterDefaults(componentRegistry)

	layoutEngine := layout.NewEngine(cfg.Layout.SidebarTypes)

	buildMapper := func() (*mapper.Mapper, error) {
		tuning, err := mapper.LoadTuning(cfg.Rules.TuningFile)
		if err != nil {
			return nil, err
		}
		if tuning.StaggerUnit == 0 {
			tuning.StaggerUnit = cfg.Assembly.StaggerUnit
		}
		return mapper.New(mapper.DefaultRules(tuning), mapper.Config{
			StaggerUnit: tuning.StaggerUnit,
			Logger:      logger,
			Collector:   collector,
		}), nil
	}

	intentMapper, err := buildMapper()
	if err != nil {
		return err
	}

	deadline, err := cfg.Assembly.Deadline()
	if err != nil {
		return err
	}

	engine := assembly.New(assembly.Config{
		Registry:          componentRegistry,
		Layout:            layoutEngine,
		Executor:          animation.NewTimedExecutor(),
		Logger:            logger,
		Collector:         collector,
		AnimationDeadline: deadline,
		DefaultLayout:     cfg.Assembly.DefaultLayout,
	})

	srv := server.New(cfg, logger, componentRegistry, engine, intentMapper)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	if cfg.Rules.Watch && cfg.Rules.TuningFile != "" {
		fileWatcher, err := watcher.NewFileWatcher(cfg.Rules.TuningFile, 300*time.Millisecond)
		if err != nil {
			return err
		}
		defer func() { _ = fileWatcher.Close() }()

		fileWatcher.AddHandler(func(path string) {
			rebuilt, err := buildMapper()
			if err != nil {
				logger.Error(watchCtx, err, "tuning reload failed", "path", path)
				return
			}
			srv.ReplaceMapper(rebuilt)
			logger.Info(watchCtx, "rule tuning reloaded", "path", path)
		})
		go fileWatcher.Start(watchCtx)
	}

	// Shut the server down on SIGINT/SIGTERM
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, err, "shutdown failed")
		}
	}()

	return srv.Start()
}

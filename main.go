package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duongdatdev/miniisland-2.0-sub000/api"
	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
	"github.com/duongdatdev/miniisland-2.0-sub000/netclient"
	game "github.com/duongdatdev/miniisland-2.0-sub000/src"
)

// Global variables for command-line flags.
var (
	envFiles  []string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:           "miniisland",
	Short:         "MiniIsland simulation core",
	Long:          `Client-side simulation for MiniIsland: movement prediction, AI, spawning and projectiles, synchronised with the game server over its line protocol.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the game server and run the simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, log)
	},
}

// setup loads configuration and builds the logger. Flags override the
// environment.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.Load(envFiles...)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func loadTuning(cfg config.Config) (config.Tuning, error) {
	if cfg.TuningFile == "" {
		return config.DefaultTuning(), nil
	}
	return config.LoadTuning(cfg.TuningFile)
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	tuning, err := loadTuning(cfg)
	if err != nil {
		return err
	}

	var engine *game.Engine
	client, err := netclient.Dial(ctx, cfg.ServerURL, func(line string) { engine.Deliver(line) }, log)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.ServerURL, err)
	}
	engine, err = game.NewEngine(game.EngineConfig{
		Username:     cfg.Username,
		Tuning:       tuning,
		Seed:         cfg.ArenaSeed,
		TickInterval: cfg.TickInterval,
		Sender:       client,
		Logger:       log,
		OnScene: func(ev game.SceneEvent) {
			log.Debug("scene", zap.Stringer("kind", ev.Kind), zap.String("map", ev.Map))
		},
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	grpcSrv, health := api.NewHealthServer()
	router := api.NewRouter(engine, cfg.AllowOrigins, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.Run(ctx)
		if err == nil {
			err = context.Canceled
		}
		return err
	})
	g.Go(func() error { return engine.Run(ctx, nil) })
	g.Go(func() error {
		return api.ServeHTTP(ctx, cfg.DebugAddr, router, cfg.ReadTimeout, cfg.WriteTimeout, log)
	})
	g.Go(func() error { return api.ServeGRPC(ctx, cfg.GRPCAddr, grpcSrv, log) })
	g.Go(func() error {
		api.WatchHealth(ctx, health, engine, 4*cfg.TickInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Environment files to load (default .env).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides LOG_LEVEL.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console or json), overrides LOG_FORMAT.")
	rootCmd.AddCommand(runCmd, arenaCmd, pathCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tnicklin/dosrt/clock"
	"github.com/tnicklin/dosrt/config"
	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/monitor"
	"github.com/tnicklin/dosrt/store"
)

var defaultConfigFiles = []string{"config/config.yaml", "config/local.yaml"}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

type rootFlags struct {
	configFiles []string
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "dosrt",
		Short: "DOS clock runtime tools",
		Long: `Tools around the DOS runtime clocks: the BIOS tick counter with midnight
wraparound compensation, the RTC wall clock, and the CP437 console codec.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVarP(&flags.configFiles, "config", "c", defaultConfigFiles, "configuration files, later ones override earlier")

	addMonitorCommand(cmd, &flags)
	addNowCommand(cmd, &flags)
	addReportCommand(cmd, &flags)
	addEncodeCommand(cmd)
	addRandCommand(cmd)
	return cmd
}

// loadConfig falls back to defaults when none of the files exist.
func loadConfig(files []string) (*config.AppConfig, error) {
	cfg, err := config.LoadWithDefaults(files...)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// hardware returns the BIOS tick source and RTC for the configured clock
// source. The NTP clock is returned so the caller can start and stop it.
func hardware(cfg *config.AppConfig, log logger.Logger) (clock.TickSource, clock.RTC, *clock.NTPClock) {
	if cfg.Clock.Source != clock.SourceNTP {
		host := clock.System()
		return clock.HostTicks(host), clock.HostRTC(host), nil
	}
	opts := append(cfg.Clock.NTP.Options(), clock.WithLogger(log))
	ntpClock := clock.NewNTP(opts...)
	return clock.HostTicks(ntpClock), clock.HostRTC(ntpClock), ntpClock
}

func build(files []string) (runParams, error) {
	cfg, err := loadConfig(files)
	if err != nil {
		return runParams{}, err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return runParams{}, fmt.Errorf("initialize logger: %w", err)
	}

	ticks, rtc, ntpClock := hardware(cfg, appLogger)

	st := store.NewSQLiteStore(store.Params{
		Path:          cfg.Store.Path,
		Logger:        appLogger,
		FlushDebounce: cfg.Store.FlushDebounce,
	})

	mon, err := monitor.New(monitor.Params{
		Config:    cfg.Monitor,
		Ticks:     ticks,
		RTC:       rtc,
		Store:     st,
		Logger:    appLogger,
		Source:    cfg.Clock.Source,
		DayAnchor: cfg.WallClock.DayAnchor,
	})
	if err != nil {
		return runParams{}, fmt.Errorf("create monitor: %w", err)
	}

	return runParams{
		Config:  cfg,
		Logger:  appLogger,
		NTP:     ntpClock,
		Store:   st,
		Monitor: mon,
	}, nil
}

type runParams struct {
	Config  *config.AppConfig
	Logger  logger.Logger
	NTP     *clock.NTPClock
	Store   *store.SQLiteStore
	Monitor monitor.Monitor
}

// run starts all components and samples until ctx is done or a signal
// arrives.
func run(ctx context.Context, p runParams) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer p.Logger.Sync()

	if err := p.Store.Open(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if err := p.Store.RestoreFromDisk(ctx, p.Config.Store.Path); err != nil {
		p.Logger.WarnW("restore from disk", "error", err)
	}

	if p.NTP != nil {
		if err := p.NTP.Start(ctx); err != nil {
			return fmt.Errorf("start ntp clock: %w", err)
		}
		defer p.NTP.Stop()
	}

	if err := p.Monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	p.Logger.InfoW("monitor running", "source", p.Config.Clock.Source, "interval", p.Config.Monitor.Interval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case <-ctx.Done():
	}

	p.Monitor.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return p.Store.Shutdown(shutdownCtx)
}

func addMonitorCommand(parent *cobra.Command, flags *rootFlags) {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Sample both clocks and record drift",
		Long: `Periodically read the tick counter and the RTC, record how far the
monotonic and wall clocks have moved since the session started, and keep
the observations in the SQLite snapshot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := build(flags.configFiles)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return run(ctx, params)
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
	parent.AddCommand(cmd)
}

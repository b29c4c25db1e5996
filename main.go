package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pizzadetector/internal/config"
	"pizzadetector/internal/log"
	ui "pizzadetector/internal/ui"
	"pizzadetector/processing/capture"
	"pizzadetector/processing/celebration"
	processing "pizzadetector/processing/detector"
)

var (
	cfgFile  string
	logLevel string
	headless bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pizzadetector",
		Short: "Watch the camera and celebrate every pizza",
		Long: `pizzadetector labels a live camera feed and, whenever the model sees
a pizza, sends ten slices flying from the centre of the window to its edges.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "config file (json or yaml)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without a window, logging celebrations instead")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.Init(log.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	settings, err := processing.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	labeler, err := processing.NewLabeler(cfg, logger)
	if err != nil {
		return fmt.Errorf("load labeler: %w", err)
	}
	defer labeler.Close()

	opts := celebration.Options{
		Count:    cfg.Celebration.Count,
		Duration: cfg.Celebration.Duration,
		Jitter:   cfg.Celebration.Jitter,
	}

	if headless {
		return runHeadless(cmd.Context(), cfg, labeler, settings, opts, logger)
	}

	app := ui.CreateApp(cfg, cfgFile, logger)
	spawner := celebration.NewSpawner(app.Stage(), app.Scheduler(), logger, opts)
	det := processing.NewDetector(labeler, spawner, settings, logger)
	app.Attach(processing.NewProcessor(cfg, det, logger), spawner)

	app.Run()
	return nil
}

func runHeadless(ctx context.Context, cfg *config.Config, labeler processing.Labeler, settings processing.Settings, opts celebration.Options, logger *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := celebration.NewSerialScheduler()
	defer sched.Close()

	screen := celebration.Size{Width: float64(cfg.GetWidth()), Height: float64(cfg.GetHeight())}
	stage := celebration.NewLogStage(screen, sched, logger)
	spawner := celebration.NewSpawner(stage, sched, logger, opts)
	det := processing.NewDetector(labeler, spawner, settings, logger)
	proc := processing.NewProcessor(cfg, det, logger)

	streamer, err := capture.NewStreamer(cfg)
	if err != nil {
		return err
	}

	if err := <-proc.Start(streamer); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer proc.Stop()

	logger.WithField("source", cfg.GetSource()).Info("watching for pizza, press Ctrl+C to stop")

	// Preview frames have no consumer without a window.
	go func() {
		for {
			select {
			case <-proc.OutImageStream:
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-proc.ErrChan:
		return fmt.Errorf("capture: %w", err)
	}

	stats := det.Stats()
	logger.WithFields(logrus.Fields{
		"frames":  stats.Frames,
		"dropped": stats.Dropped,
		"matches": stats.Matches,
		"spawned": spawner.Spawned(),
	}).Info("stopped")
	return nil
}

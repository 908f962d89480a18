package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pushpal/internal/channel"
	"pushpal/internal/config"
	"pushpal/internal/plugin"
	"pushpal/internal/runner"
	"pushpal/pkg/logx"
	"pushpal/plugins/exchange"
	"pushpal/plugins/gold"
	"pushpal/plugins/placeholder"
	"pushpal/plugins/stocks"
)

func main() {
	var (
		cfgPath    string
		scheduleID string
		dryRun     bool
	)
	flag.StringVar(&cfgPath, "config", config.DefaultPath, "path to config yaml/json")
	flag.StringVar(&scheduleID, "schedule", "", "run only this schedule id (bypasses cron matching)")
	flag.BoolVar(&dryRun, "dry-run", false, "execute plugins but skip the actual sends")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logx.NewConsole("info")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Error("fatal: load config", logx.Err(err))
		os.Exit(1)
	}

	log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer func() { _ = log.Close() }()

	plugins := plugin.NewRegistry()
	if err := plugins.Register(
		placeholder.New(),
		stocks.New(),
		gold.New(),
		exchange.New(),
	); err != nil {
		log.Error("fatal: register plugins", logx.Err(err))
		os.Exit(1)
	}

	channels := channel.NewRegistry()
	if err := channels.Register(
		channel.NewPushPlus(log),
		channel.NewTelegram(log),
	); err != nil {
		log.Error("fatal: register channels", logx.Err(err))
		os.Exit(1)
	}

	r := runner.New(log, plugins, channels)
	if _, err := r.Run(ctx, cfg, runner.Options{ScheduleID: scheduleID, DryRun: dryRun}); err != nil {
		// Individual job failures are logged inside the run and do not
		// reach here; only fatal config problems do.
		log.Error("fatal: run aborted", logx.Err(err))
		os.Exit(1)
	}
}

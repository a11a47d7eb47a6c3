package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"git.lost.host/meutraa/bandori/internal/config"
	"git.lost.host/meutraa/bandori/internal/play"
)

func main() {
	if err := run(os.Args[1:]); nil != err {
		slog.Error("bandori failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if nil != err {
		return err
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Verbose {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.Command {
	case config.Convert:
		if cfg.Watch {
			return watchSource(ctx, cfg.Source, cfg.Out)
		}
		return convertSource(cfg.Source, cfg.Out)
	case config.Fetch:
		return fetchLevel(ctx, cfg)
	case config.Play:
		return runProgram(cfg, play.Live)
	case config.Watch:
		return runProgram(cfg, play.Watch)
	}
	return nil
}

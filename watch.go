package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watchSource converts source once and again after every change until ctx
// is done. Conversion errors are logged and do not stop the watch.
func watchSource(ctx context.Context, source, out string) error {
	source, err := filepath.Abs(source)
	if nil != err {
		return err
	}
	if err := convertSource(source, out); nil != err {
		slog.Error("conversion failed", "source", source, "err", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return errors.Wrap(err, "unable to create watcher")
	}
	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(filepath.Dir(source)); nil != err {
		watcher.Close()
		return errors.Wrapf(err, "unable to watch %v", source)
	}

	done := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer watcher.Close()
		err := watchLoop(ctx, watcher, source, func() {
			if err := convertSource(source, out); nil != err {
				slog.Error("conversion failed", "source", source, "err", err)
			}
		})
		done <- err
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		slog.Error("watcher stopped", "err", err)
		select {
		case done <- err:
		default:
		}
	}))

	slog.Info("watching", "source", source)
	return <-done
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, source string, changed func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != source {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Debug("source changed", "op", event.Op.String())
				changed()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "err", err)
		}
	}
}

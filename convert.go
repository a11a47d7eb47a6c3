package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/config"
	"git.lost.host/meutraa/bandori/internal/convert"
	"git.lost.host/meutraa/bandori/internal/fetch"
	"git.lost.host/meutraa/bandori/internal/parser"
)

// convertSource converts level data and writes the level as JSON to out,
// or to stdout when out is empty.
func convertSource(source, out string) error {
	psr := &parser.DefaultParser{}
	doc, err := psr.ParseFile(source)
	if nil != err {
		return err
	}
	level, err := convert.Convert(doc)
	if nil != err {
		return errors.Wrapf(err, "unable to convert %v", source)
	}
	data, err := json.MarshalIndent(level, "", "  ")
	if nil != err {
		return errors.Wrap(err, "unable to encode level")
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); nil != err {
		return errors.Wrapf(err, "unable to write %v", out)
	}
	slog.Info("converted", "source", source, "out", out,
		"notes", len(level.Notes),
		"connectors", len(level.Connectors),
		"sim_lines", len(level.SimLines),
	)
	return nil
}

func fetchLevel(ctx context.Context, cfg *config.Config) error {
	client := fetch.NewClient(cfg.CacheDir)
	item, err := client.LevelItem(ctx, cfg.Base, cfg.Name)
	if nil != err {
		return err
	}
	pkg, err := client.ConvertItem(ctx, cfg.Base, item, "Bandori")
	if nil != err {
		return err
	}
	dir, err := fetch.Write(".", pkg)
	if nil != err {
		return err
	}
	slog.Info("fetched", "name", pkg.Name, "title", pkg.Title, "dir", dir, "notes", len(pkg.Data.Notes))
	return nil
}

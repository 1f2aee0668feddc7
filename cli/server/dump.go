package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/assetdb/cli/options"
	"github.com/nspcc-dev/assetdb/pkg/core"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// dump is the JSON representation of the whole asset set.
type dump struct {
	Version string         `json:"version"`
	Assets  []*state.Asset `json:"assets"`
}

func dumpDB(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	assets, err := l.Registry.List()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var out io.Writer = ctx.App.Writer
	if name := ctx.String("out"); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump{Version: core.Version, Assets: assets}); err != nil {
		return cli.NewExitError(err, 1)
	}
	l.Log.Info("assets dumped", zap.Int("count", len(assets)))
	return nil
}

func restoreDB(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	var in io.Reader = os.Stdin
	if name := ctx.String("in"); name != "" {
		f, err := os.Open(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		in = f
	}
	var d dump
	if err := json.NewDecoder(in).Decode(&d); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to decode dump: %w", err), 1)
	}
	if d.Version != core.Version {
		return cli.NewExitError(fmt.Errorf("%w: dump has %q, expected %q", core.ErrVersionMismatch, d.Version, core.Version), 1)
	}

	for i, a := range d.Assets {
		if a == nil {
			return cli.NewExitError(fmt.Errorf("malformed dump: asset #%d is null", i), 1)
		}
	}

	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	var restored, skipped int
	for _, a := range d.Assets {
		err := l.Registry.Restore(a)
		if err != nil {
			if ctx.Bool("skip-existing") && (errors.Is(err, core.ErrIDTaken) || errors.Is(err, core.ErrSymbolTaken)) {
				skipped++
				continue
			}
			return cli.NewExitError(fmt.Errorf("failed to restore asset %d: %w", a.ID, err), 1)
		}
		restored++
	}
	l.Log.Info("assets restored", zap.Int("restored", restored), zap.Int("skipped", skipped))
	return nil
}

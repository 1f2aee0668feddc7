package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nspcc-dev/assetdb/cli/options"
	"github.com/nspcc-dev/assetdb/pkg/config"
	"github.com/nspcc-dev/assetdb/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns 'node' and 'db' commands.
func NewCommands() []cli.Command {
	var cfgFlags = options.Common
	var cfgWithCountFlags = make([]cli.Flag, len(cfgFlags))
	copy(cfgWithCountFlags, cfgFlags)
	cfgWithCountFlags = append(cfgWithCountFlags,
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Output file (stdout if not given)",
		},
	)
	var cfgWithInFlags = make([]cli.Flag, len(cfgFlags))
	copy(cfgWithInFlags, cfgFlags)
	cfgWithInFlags = append(cfgWithInFlags,
		cli.StringFlag{
			Name:  "in, i",
			Usage: "Input file (stdin if not given)",
		},
		cli.BoolFlag{
			Name:  "skip-existing",
			Usage: "Skip assets that are already registered instead of failing",
		},
	)
	return []cli.Command{
		{
			Name:      "node",
			Usage:     "start asset DB node serving metrics",
			UsageText: "assetdb node [--config-path path] [-d] [-p/-m/-t] [--config-file file]",
			Action:    startServer,
			Flags:     cfgFlags,
		},
		{
			Name:  "db",
			Usage: "database manipulations",
			Subcommands: []cli.Command{
				{
					Name:      "dump",
					Usage:     "dump all assets (starting with the lowest ID) to the file",
					UsageText: "assetdb db dump [-o file] [--config-path path] [-p/-m/-t] [--config-file file]",
					Action:    dumpDB,
					Flags:     cfgWithCountFlags,
				},
				{
					Name:      "restore",
					Usage:     "restore assets from the file",
					UsageText: "assetdb db restore [-i file] [--skip-existing] [--config-path path] [-p/-m/-t] [--config-file file]",
					Action:    restoreDB,
					Flags:     cfgWithInFlags,
				},
			},
		},
	}
}

func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}

func startServer(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	return runNode(ctx, newGraceContext())
}

// runNode serves metrics until grace is done. SIGHUP reloads the log level
// and restarts metric services with the updated configuration.
func runNode(ctx *cli.Context, grace context.Context) error {
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	cfg := l.Config
	l.Log.Info("starting asset DB node",
		zap.Stringer("network", cfg.ProtocolConfiguration.Magic),
		zap.String("db", cfg.ApplicationConfiguration.DBConfiguration.Type),
		zap.Int("assets", l.Registry.Count()))

	prometheus, pprof, err := startServices(cfg.ApplicationConfiguration, l.Log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	sighupCh := make(chan os.Signal, 1)
	signal.Notify(sighupCh, sighup)
	defer signal.Stop(sighupCh)

Main:
	for {
		select {
		case sig := <-sighupCh:
			l.Log.Info("signal received", zap.Stringer("name", sig))
			newCfg, err := options.GetConfigFromContext(ctx)
			if err != nil {
				l.Log.Warn("can't reread the config file, signal ignored", zap.Error(err))
				break
			}
			if !ctx.Bool("debug") {
				level := zapcore.InfoLevel
				if newCfg.ApplicationConfiguration.LogLevel != "" {
					level, err = zapcore.ParseLevel(newCfg.ApplicationConfiguration.LogLevel)
					if err != nil {
						l.Log.Warn("wrong LogLevel in ApplicationConfiguration, signal ignored", zap.Error(err))
						break
					}
				}
				l.Level.SetLevel(level)
			}
			prometheus.ShutDown()
			pprof.ShutDown()
			prometheus, pprof, err = startServices(newCfg.ApplicationConfiguration, l.Log)
			if err != nil {
				l.Log.Error("failed to restart services", zap.Error(err))
				break Main
			}
		case <-grace.Done():
			break Main
		}
	}
	prometheus.ShutDown()
	pprof.ShutDown()
	l.Log.Info("shutting down asset DB node")
	return nil
}

func startServices(cfg config.ApplicationConfiguration, log *zap.Logger) (*metrics.Service, *metrics.Service, error) {
	prometheus := metrics.NewPrometheusService(cfg.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.Pprof, log)
	if err := prometheus.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start Prometheus service: %w", err)
	}
	if err := pprof.Start(); err != nil {
		prometheus.ShutDown()
		return nil, nil, fmt.Errorf("failed to start Pprof service: %w", err)
	}
	return prometheus, pprof, nil
}

func checkNoArgs(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(errors.New("this command doesn't accept positional arguments"), 1)
	}
	return nil
}

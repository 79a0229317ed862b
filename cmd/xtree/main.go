package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/benz9527/xtree/xlog"
)

func main() {
	flags := pflag.NewFlagSet("xtree", pflag.ContinueOnError)
	path := flags.StringP("config", "c", "", "yaml config file, hot reloaded")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := fx.New(
		fx.Supply(configPath(*path), replIO{in: os.Stdin, out: &syncWriter{w: os.Stdout}}),
		fx.Provide(
			newConfig,
			newLogger,
			newStore,
			newScheduler,
			newPlayground,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(
			setMaxProcs,
			runMetrics,
			watchConfig,
			runREPL,
		),
	)
	if err := app.Err(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.Run()
}

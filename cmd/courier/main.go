// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/spf13/viper"
	"github.com/xmidt-org/courier"
	"github.com/xmidt-org/courier/courierfx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	code := ExitCodeFor(err)
	if err != nil {
		w := os.Stderr
		if code == 0 {
			w = os.Stdout
		}

		fmt.Fprintln(w, err)
	}

	os.Exit(code)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewNop(), nil
}

func newViper(o *Options) (*viper.Viper, error) {
	v := viper.New()
	if len(o.Config) > 0 {
		v.SetConfigFile(o.Config)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// run sends one request for each url on the command line, in order, and
// writes each result's data to out.  Cancelling ctx cancels every request
// still in flight.
func run(ctx context.Context, args []string, out io.Writer) error {
	var o Options
	parser := flags.NewParser(&o, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}

	header, err := o.header()
	if err != nil {
		return UseExitCode(err, UsageExitCode)
	}

	data, err := o.data()
	if err != nil {
		return UseExitCode(err, UsageExitCode)
	}

	logger, err := newLogger(o.Verbose)
	if err != nil {
		return err
	}

	defer logger.Sync()
	v, err := newViper(&o)
	if err != nil {
		return err
	}

	var d *courier.Dispatcher
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Supply(v, logger),
		courierfx.Provide(o.Key),
		fx.Populate(&d),
	)

	if err := app.Start(ctx); err != nil {
		return err
	}

	defer app.Stop(context.Background())
	stopCancel := context.AfterFunc(ctx, func() {
		d.CancelAllRequest()
	})

	defer stopCancel()
	encode := newEncoder(o.Output, out)
	for _, url := range o.Args.URLs {
		result, err := courier.Request[any](ctx, d, courier.Descriptor{
			URL:     url,
			BaseURL: o.BaseURL,
			Method:  o.Method,
			Header:  header,
			Body:    data,
		})

		if err != nil {
			return err
		}

		if err := encode(result); err != nil {
			return err
		}
	}

	return nil
}

func newEncoder(format string, out io.Writer) func(any) error {
	if format == "yaml" {
		return func(v any) error {
			e := yaml.NewEncoder(out)
			if err := e.Encode(v); err != nil {
				return err
			}

			return e.Close()
		}
	}

	e := json.NewEncoder(out)
	e.SetIndent("", "  ")
	return e.Encode
}

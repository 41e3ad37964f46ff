// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierfx

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/xmidt-org/courier"
	"github.com/xmidt-org/courier/couriermetrics"
	"github.com/xmidt-org/courier/courierhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// GlobalGroup is the fx value group from which global interceptors are
// collected.
const GlobalGroup = "courier.global"

// ErrNilViper is returned to the fx.App when no viper instance is available.
var ErrNilViper = errors.New("courierfx: the viper instance cannot be nil")

// Config is the unmarshaled configuration for a Dispatcher and the HTTP
// client behind it.
type Config struct {
	courier.Config `mapstructure:",squash"`

	// Client configures the *http.Client used to send requests.
	Client courierhttp.ClientConfig

	// Metrics is the namespace for this dispatcher's metrics.  Metrics are
	// only recorded when a prometheus.Registerer component is present.
	Metrics string
}

// UnmarshalIn is the set of dependencies used to unmarshal a Config.
type UnmarshalIn struct {
	fx.In

	// Viper is the required Viper component in the enclosing fx.App.
	Viper *viper.Viper

	// DecodeOptions are an optional set of options from the enclosing fx.App.
	DecodeOptions []viper.DecoderConfigOption `optional:"true"`
}

// UnmarshalKey returns an fx constructor that unmarshals a Config from the
// given viper key.  Decode options from the enclosing app are applied first,
// then opts.
func UnmarshalKey(key string, opts ...viper.DecoderConfigOption) func(UnmarshalIn) (Config, error) {
	return func(in UnmarshalIn) (cfg Config, err error) {
		if in.Viper == nil {
			err = ErrNilViper
			return
		}

		err = in.Viper.UnmarshalKey(
			key,
			&cfg,
			Merge(
				[]viper.DecoderConfigOption{DefaultDecodeHooks},
				in.DecodeOptions,
				opts,
			),
		)

		return
	}
}

// DispatcherIn is the set of dependencies used to build a Dispatcher.
type DispatcherIn struct {
	fx.In

	Config Config

	// Logger is the optional logger for the Dispatcher.
	Logger *zap.Logger `optional:"true"`

	// Registerer is the optional prometheus registerer.  If supplied,
	// request metrics are recorded.
	Registerer prometheus.Registerer `optional:"true"`

	// Global are the global interceptors.  fx supplies these in no particular order.
	Global []courier.Interceptors `group:"courier.global"`

	// Options are extra options applied after everything else.
	Options []courier.Option `optional:"true"`

	Lifecycle fx.Lifecycle
}

// NewDispatcher is an fx constructor that builds an HTTP-backed Dispatcher
// and binds its Close to the application lifecycle.
func NewDispatcher(in DispatcherIn) (*courier.Dispatcher, error) {
	opts := []courier.Option{
		courier.WithGlobal(in.Global...),
	}

	if in.Logger != nil {
		opts = append(opts, courier.WithLogger(in.Logger))
	}

	if in.Registerer != nil {
		opts = append(opts, courier.WithObserver(
			couriermetrics.New(in.Registerer, in.Config.Metrics),
		))
	}

	d, err := courier.New(
		courierhttp.NewTransport(in.Config.Client.NewClient()),
		in.Config.Config,
		append(opts, in.Options...)...,
	)

	if err == nil {
		in.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return d.Close()
			},
		})
	}

	return d, err
}

// Provide unmarshals a Config from the given key and provides both it and
// the *courier.Dispatcher built from it.
func Provide(key string, opts ...viper.DecoderConfigOption) fx.Option {
	return fx.Provide(
		UnmarshalKey(key, opts...),
		NewDispatcher,
	)
}

// Global contributes interceptors to the global group consumed by
// NewDispatcher.  The given interceptors are chained in order.  fx does not
// order the group itself, so interceptors that depend on each other's
// ordering must be passed to a single call.
func Global(i ...courier.Interceptors) fx.Option {
	chained := courier.ChainInterceptors(i...)
	return fx.Provide(
		fx.Annotated{
			Group: GlobalGroup,
			Target: func() courier.Interceptors {
				return chained
			},
		},
	)
}

// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package courierfx integrates courier with go.uber.org/fx.

A *courier.Dispatcher is built from configuration held in an externally
supplied *viper.Viper component:

	v := viper.New() // initialization not shown
	app := fx.New(
		fx.Supply(v),
		courierfx.Provide("weather"),
		courierfx.Global(courier.Interceptors{
			Request: addToken,
		}),
		fx.Invoke(func(d *courier.Dispatcher) {
			// use the dispatcher
		}),
	)

The dispatcher is closed when the enclosing fx.App stops, which cancels any
requests still in flight.
*/
package courierfx

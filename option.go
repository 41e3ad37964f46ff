// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNilLogger is returned by WithLogger when passed a nil logger.
var ErrNilLogger = errors.New("courier: the logger cannot be nil")

// Option represents something that can modify a Dispatcher under construction.
type Option interface {
	Apply(*Dispatcher) error
}

// OptionFunc is a closure type that can act as an Option.
type OptionFunc func(*Dispatcher) error

func (of OptionFunc) Apply(d *Dispatcher) error {
	return of(d)
}

// Options is an aggregate Option that allows several options to
// be grouped together.
type Options []Option

// Apply applies all the options in this slice, returning an
// aggregate error if any errors occurred.
func (o Options) Apply(d *Dispatcher) (err error) {
	for _, opt := range o {
		err = multierr.Append(err, opt.Apply(d))
	}

	return
}

// WithLogger sets the zap logger used by the Dispatcher.  By default,
// nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return OptionFunc(func(d *Dispatcher) error {
		if l == nil {
			return ErrNilLogger
		}

		d.logger = l
		return nil
	})
}

// WithGlobal appends global interceptors.  Multiple global Interceptors are
// chained in the order they are supplied, across all WithGlobal options.
func WithGlobal(i ...Interceptors) Option {
	return OptionFunc(func(d *Dispatcher) error {
		d.global = append(d.global, i...)
		return nil
	})
}

// WithObserver adds observers of request lifecycles.  Nil observers are skipped.
func WithObserver(o ...Observer) Option {
	return OptionFunc(func(d *Dispatcher) error {
		for _, v := range o {
			if v != nil {
				d.observers = append(d.observers, v)
			}
		}

		return nil
	})
}

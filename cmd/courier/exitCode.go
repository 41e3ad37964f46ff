// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
	"github.com/xmidt-org/courier"
)

const (
	// DefaultErrorExitCode is used when no exit code could otherwise be
	// determined for a non-nil error.
	DefaultErrorExitCode int = 1

	UsageExitCode     int = 64
	TransportExitCode int = 69
	TimeoutExitCode   int = 124
	CancelExitCode    int = 130
)

// ExitCoder is an optional interface that an error can implement to supply
// an associated exit code with that error.
type ExitCoder interface {
	// ExitCode returns the exit code associated with this error.
	ExitCode() int
}

type exitCodeErr struct {
	error
	exitCode int
}

func (ece exitCodeErr) ExitCode() int {
	return ece.exitCode
}

func (ece exitCodeErr) Unwrap() error {
	return ece.error
}

// UseExitCode returns a new error object that associates an existing error
// with an exit code.
//
// If err is nil, this function immediately panics so as not to delay a panic
// until the returned error is used.
func UseExitCode(err error, exitCode int) error {
	if err == nil {
		panic("cannot associate a nil error with an exit code")
	}

	return exitCodeErr{
		error:    err,
		exitCode: exitCode,
	}
}

// ExitCodeFor determines the process exit code for the outcome of run.
// Logic is applied in the following order:
//
//   - If err implements ExitCoder, that exit code is returned
//   - A cancelled request yields CancelExitCode
//   - A request that timed out yields TimeoutExitCode
//   - Any other transport failure yields TransportExitCode
//   - A command line parsing error, other than a help request, yields UsageExitCode
//   - Any other non-nil error yields DefaultErrorExitCode
func ExitCodeFor(err error) int {
	var (
		ec       ExitCoder
		te       *courier.TransportError
		flagsErr *flags.Error
	)

	switch {
	case err == nil:
		return 0

	case errors.As(err, &ec):
		return ec.ExitCode()

	case courier.IsCancelled(err):
		return CancelExitCode

	case errors.As(err, &te) && te.Timeout():
		return TimeoutExitCode

	case errors.As(err, &te):
		return TransportExitCode

	case errors.As(err, &flagsErr):
		if flagsErr.Type == flags.ErrHelp {
			return 0
		}

		return UsageExitCode

	default:
		return DefaultErrorExitCode
	}
}

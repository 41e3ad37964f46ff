// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package couriermetrics exposes Prometheus metrics for a courier.Dispatcher.

A Metrics is a courier.Observer, and is installed with courier.WithObserver.
*/
package couriermetrics

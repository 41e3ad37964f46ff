// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package couriertest has utilities for testing code that uses courier.
*/
package couriertest

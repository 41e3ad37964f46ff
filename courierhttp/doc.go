// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package courierhttp is the net/http Transport for courier.  It builds
*http.Client instances from unmarshaled configuration, decorates them with
client middleware, and translates between courier Descriptors and HTTP
requests that carry JSON envelopes.
*/
package courierhttp

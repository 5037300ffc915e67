// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tunnelhttp performs HTTP requests that must only leave the device
// through a connected VPN tunnel, retrying failed responses on a fixed
// budget.
//
// A [RetriableRequest] is run as a [code.hybscloud.com/store.Effect]. It
// watches the tunnel status and the tunnel connection handle, waits while
// the tunnel is down, and emits one [RequestResult] per step: interim
// WillRetry values, then exactly one terminal Completed or Failed value.
//
// Waiting for the tunnel never consumes retry budget. A change of tunnel
// status or connection abandons the attempt in flight and starts over with
// a fresh budget.
package tunnelhttp

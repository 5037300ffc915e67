// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import (
	"fmt"
	"time"
)

// TunnelError is a reason a request could not be issued. It is resolved
// only by a change of tunnel state and never consumes retry budget.
type TunnelError uint8

const (
	// TunnelNotConnected means the VPN is not connected or is stopping.
	TunnelNotConnected TunnelError = iota
	// NilTunnelProviderManager means no tunnel provider handle is available.
	NilTunnelProviderManager
)

func (e TunnelError) Error() string {
	switch e {
	case TunnelNotConnected:
		return "tunnelNotConnected"
	case NilTunnelProviderManager:
		return "nilTunnelProviderManager"
	default:
		return fmt.Sprintf("TunnelError(%d)", uint8(e))
	}
}

// RetryCondition says what must happen before a request is issued again.
// Exactly one of its two forms is set.
type RetryCondition[S, F any] struct {
	whenResolved bool
	tunnelError  TunnelError
	interval     time.Duration
	last         Result[S, F]
}

// WhenResolved waits, without timeout, for err to be resolved upstream.
func WhenResolved[S, F any](err TunnelError) RetryCondition[S, F] {
	return RetryCondition[S, F]{whenResolved: true, tunnelError: err}
}

// AfterTimeInterval retries after interval; last is the result that asked
// for the retry.
func AfterTimeInterval[S, F any](interval time.Duration, last Result[S, F]) RetryCondition[S, F] {
	return RetryCondition[S, F]{interval: interval, last: last}
}

// WhenResolved returns the tunnel error, if c waits on one.
func (c RetryCondition[S, F]) WhenResolved() (TunnelError, bool) {
	return c.tunnelError, c.whenResolved
}

// AfterTimeInterval returns the backoff and last result, if c is timed.
func (c RetryCondition[S, F]) AfterTimeInterval() (time.Duration, Result[S, F], bool) {
	return c.interval, c.last, !c.whenResolved
}

func (c RetryCondition[S, F]) String() string {
	if c.whenResolved {
		return fmt.Sprintf("whenResolved(%v)", c.tunnelError)
	}
	return fmt.Sprintf("afterTimeInterval(%v)", c.interval)
}

// ResultKind discriminates a [RequestResult].
type ResultKind uint8

const (
	KindWillRetry ResultKind = iota
	KindFailed
	KindCompleted
)

func (k ResultKind) String() string {
	switch k {
	case KindWillRetry:
		return "willRetry"
	case KindFailed:
		return "failed"
	case KindCompleted:
		return "completed"
	default:
		return fmt.Sprintf("ResultKind(%d)", uint8(k))
	}
}

// RequestResult is one value of a retriable request's result stream.
// Failed and Completed are terminal.
type RequestResult[S, F any] struct {
	kind   ResultKind
	retry  RetryCondition[S, F]
	err    ErrorEvent[F]
	result Result[S, F]
}

// WillRetry is an interim value: the request will be issued again once
// cond is met.
func WillRetry[S, F any](cond RetryCondition[S, F]) RequestResult[S, F] {
	return RequestResult[S, F]{kind: KindWillRetry, retry: cond}
}

// Failed is the terminal value after the retry budget ran out.
func Failed[S, F any](err ErrorEvent[F]) RequestResult[S, F] {
	return RequestResult[S, F]{kind: KindFailed, err: err}
}

// Completed is the terminal value carrying a final result.
func Completed[S, F any](result Result[S, F]) RequestResult[S, F] {
	return RequestResult[S, F]{kind: KindCompleted, result: result}
}

// Kind reports which case r holds.
func (r RequestResult[S, F]) Kind() ResultKind {
	return r.kind
}

// IsTerminal reports whether r ends the stream.
func (r RequestResult[S, F]) IsTerminal() bool {
	return r.kind != KindWillRetry
}

// WillRetry returns the retry condition of an interim value.
func (r RequestResult[S, F]) WillRetry() (RetryCondition[S, F], bool) {
	return r.retry, r.kind == KindWillRetry
}

// Failed returns the last error of a failed request.
func (r RequestResult[S, F]) Failed() (ErrorEvent[F], bool) {
	return r.err, r.kind == KindFailed
}

// Completed returns the final result of a completed request.
func (r RequestResult[S, F]) Completed() (Result[S, F], bool) {
	return r.result, r.kind == KindCompleted
}

func (r RequestResult[S, F]) String() string {
	switch r.kind {
	case KindWillRetry:
		return fmt.Sprintf("willRetry(%v)", r.retry)
	case KindFailed:
		return fmt.Sprintf("failed(%v)", r.err.Err)
	default:
		if r.result.IsRight() {
			return "completed(success)"
		}
		e, _ := r.result.GetLeft()
		return fmt.Sprintf("completed(failure: %v)", e.Err)
	}
}

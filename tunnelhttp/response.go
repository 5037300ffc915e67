// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"code.hybscloud.com/kont"
)

// ErrorEvent is an error and the time it was observed.
type ErrorEvent[F any] struct {
	Err  F
	Date time.Time
}

// MapErrorEvent transforms the error of e, keeping its date.
func MapErrorEvent[F, G any](e ErrorEvent[F], f func(F) G) ErrorEvent[G] {
	return ErrorEvent[G]{Err: f(e.Err), Date: e.Date}
}

// Result is a decoded response: Right on success, Left on failure.
type Result[S, F any] = kont.Either[ErrorEvent[F], S]

// ResponseHandler decodes a call's outcome and decides, from the result
// alone, whether the call should be issued again.
type ResponseHandler[S, F any] interface {
	Decode(SessionResult) Result[S, F]
	// NeedsRetry returns the error to retry on, or false when the result
	// is final.
	NeedsRetry(Result[S, F]) (ErrorEvent[F], bool)
}

// ResponseErrorKind classifies a [ResponseError].
type ResponseErrorKind uint8

const (
	// FailedRequest is a transport failure; see ResponseError.Request.
	FailedRequest ResponseErrorKind = iota
	// OtherErrorStatusCode is a non-2xx status; see ResponseError.StatusCode.
	OtherErrorStatusCode
	// MalformedBody is a 2xx response whose body could not be decoded.
	MalformedBody
)

func (k ResponseErrorKind) String() string {
	switch k {
	case FailedRequest:
		return "failedRequest"
	case OtherErrorStatusCode:
		return "otherErrorStatusCode"
	case MalformedBody:
		return "malformedBody"
	default:
		return fmt.Sprintf("ResponseErrorKind(%d)", uint8(k))
	}
}

// ResponseError is the failure type of [StatusHandler].
type ResponseError struct {
	Kind       ResponseErrorKind
	StatusCode int
	Request    *RequestError
	Err        error
}

func (e ResponseError) Error() string {
	switch e.Kind {
	case FailedRequest:
		if e.Request != nil {
			return e.Request.Error()
		}
		return "tunnelhttp: request failed"
	case OtherErrorStatusCode:
		return fmt.Sprintf("tunnelhttp: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case MalformedBody:
		return fmt.Sprintf("tunnelhttp: malformed body: %v", e.Err)
	default:
		return e.Kind.String()
	}
}

func (e ResponseError) Unwrap() error {
	if e.Kind == FailedRequest && e.Request != nil {
		return e.Request
	}
	return e.Err
}

// Retryable reports whether the error warrants another call: transport
// failures, malformed bodies and 5xx statuses do. Other statuses are final.
func (e ResponseError) Retryable() bool {
	switch e.Kind {
	case FailedRequest, MalformedBody:
		return true
	case OtherErrorStatusCode:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// StatusHandler decodes 2xx bodies with a decode function and treats every
// other status as an [OtherErrorStatusCode] failure.
type StatusHandler[T any] struct {
	decode func([]byte) (T, error)
}

// NewStatusHandler returns a handler decoding 2xx bodies with decode.
func NewStatusHandler[T any](decode func([]byte) (T, error)) StatusHandler[T] {
	return StatusHandler[T]{decode: decode}
}

// JSON decodes 2xx bodies as JSON into T.
func JSON[T any]() StatusHandler[T] {
	return NewStatusHandler(func(data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	})
}

// Raw returns 2xx bodies unchanged.
func Raw() StatusHandler[[]byte] {
	return NewStatusHandler(func(data []byte) ([]byte, error) {
		return data, nil
	})
}

// Decode implements [ResponseHandler].
func (h StatusHandler[T]) Decode(sr SessionResult) Result[T, ResponseError] {
	fail := func(err ResponseError) Result[T, ResponseError] {
		return kont.Left[ErrorEvent[ResponseError], T](ErrorEvent[ResponseError]{Err: err, Date: sr.Date})
	}
	if reqErr, ok := sr.Result.GetLeft(); ok {
		return fail(ResponseError{Kind: FailedRequest, Request: &reqErr})
	}
	data, _ := sr.Result.GetRight()
	code := data.Metadata.StatusCode
	if code < 200 || code > 299 {
		return fail(ResponseError{Kind: OtherErrorStatusCode, StatusCode: code})
	}
	v, err := h.decode(data.Data)
	if err != nil {
		return fail(ResponseError{Kind: MalformedBody, StatusCode: code, Err: err})
	}
	return kont.Right[ErrorEvent[ResponseError]](v)
}

// NeedsRetry implements [ResponseHandler].
func (h StatusHandler[T]) NeedsRetry(r Result[T, ResponseError]) (ErrorEvent[ResponseError], bool) {
	e, ok := r.GetLeft()
	if !ok || !e.Err.Retryable() {
		return ErrorEvent[ResponseError]{}, false
	}
	return e, true
}

var _ ResponseHandler[[]byte, ResponseError] = StatusHandler[[]byte]{}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"code.hybscloud.com/kont"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"code.hybscloud.com/store/internal/logging"
	"code.hybscloud.com/store/internal/metrics"
)

// RequestIDHeader carries a fresh identifier on every call.
const RequestIDHeader = "X-Request-ID"

// Doer executes one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseMetadata is what is known about a response before its body.
type ResponseMetadata struct {
	URL        string
	Header     http.Header
	StatusCode int
}

// ResponseData is a fully received response.
type ResponseData struct {
	Metadata ResponseMetadata
	Data     []byte
}

// RequestError is a failed call. PartialResponseMetadata is set when the
// server answered before the failure, e.g. when reading the body failed.
type RequestError struct {
	PartialResponseMetadata *ResponseMetadata
	Err                     error
}

func (e RequestError) Error() string {
	if e.PartialResponseMetadata != nil {
		return fmt.Sprintf("tunnelhttp: request failed after status %d: %v",
			e.PartialResponseMetadata.StatusCode, e.Err)
	}
	return "tunnelhttp: request failed: " + e.Err.Error()
}

func (e RequestError) Unwrap() error {
	return e.Err
}

// SessionResult is the outcome of one call and the time it was produced.
type SessionResult struct {
	Date   time.Time
	Result kont.Either[RequestError, ResponseData]
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithClientClock sets the clock used to date results.
func WithClientClock(c clock.PassiveClock) ClientOption {
	return func(cl *Client) {
		cl.clock = c
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger logr.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// Client executes [Request] descriptors, one network call each.
type Client struct {
	doer   Doer
	clock  clock.PassiveClock
	logger logr.Logger
}

// NewClient returns a client issuing calls through doer. A nil doer uses
// [http.DefaultClient].
func NewClient(doer Doer, opts ...ClientOption) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	c := &Client{
		doer:   doer,
		clock:  clock.RealClock{},
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute issues req once. Cancelling ctx aborts the call in flight.
func (c *Client) Execute(ctx context.Context, req Request) SessionResult {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return c.failed(nil, err)
	}
	if req.Header != nil {
		hr.Header = req.Header.Clone()
	}
	id := uuid.NewString()
	hr.Header.Set(RequestIDHeader, id)

	logger := c.logger.WithValues("request", req.String(), "requestID", id)
	logger.V(logging.DEBUG).Info("Executing request")

	resp, err := c.doer.Do(hr)
	if err != nil {
		var partial *ResponseMetadata
		if resp != nil {
			md := metadataOf(resp)
			partial = &md
			resp.Body.Close()
		}
		logger.V(logging.DEFAULT).Info("Request failed", "err", err)
		metrics.RecordCall("0")
		return c.failed(partial, err)
	}
	defer resp.Body.Close()

	md := metadataOf(resp)
	data, err := io.ReadAll(resp.Body)
	metrics.RecordCall(strconv.Itoa(resp.StatusCode))
	if err != nil {
		logger.V(logging.DEFAULT).Info("Reading response body failed", "status", resp.StatusCode, "err", err)
		return c.failed(&md, err)
	}
	logger.V(logging.DEBUG).Info("Request completed", "status", resp.StatusCode, "bytes", len(data))
	return SessionResult{
		Date:   c.clock.Now(),
		Result: kont.Right[RequestError](ResponseData{Metadata: md, Data: data}),
	}
}

func (c *Client) failed(partial *ResponseMetadata, err error) SessionResult {
	return SessionResult{
		Date:   c.clock.Now(),
		Result: kont.Left[RequestError, ResponseData](RequestError{PartialResponseMetadata: partial, Err: err}),
	}
}

func metadataOf(resp *http.Response) ResponseMetadata {
	md := ResponseMetadata{
		Header:     resp.Header.Clone(),
		StatusCode: resp.StatusCode,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		md.URL = resp.Request.URL.String()
	}
	return md
}

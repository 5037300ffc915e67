// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"code.hybscloud.com/store"
	"code.hybscloud.com/store/internal/logging"
	"code.hybscloud.com/store/internal/metrics"
)

const (
	DefaultRetryCount    = 5
	DefaultRetryInterval = time.Second
)

type config struct {
	retryCount         int
	retryInterval      time.Duration
	clock              clock.Clock
	logger             logr.Logger
	ignoreTunnelChecks bool
}

// Option configures a [RetriableRequest].
type Option func(*config)

// WithRetryCount sets how many times a response asking for a retry is
// retried. The request is issued at most n+1 times per tunnel session.
func WithRetryCount(n int) Option {
	return func(c *config) {
		c.retryCount = max(n, 0)
	}
}

// WithRetryInterval sets the fixed wait between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) {
		c.retryInterval = d
	}
}

// WithClock sets the clock driving retry timers.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithIgnoreTunnelChecks issues requests whatever the reported VPN status.
// A connection handle is still required. Meant for debugging off-device.
func WithIgnoreTunnelChecks(ignore bool) Option {
	return func(c *config) {
		c.ignoreTunnelChecks = ignore
	}
}

// RetriableRequest issues a request through the tunnel, retrying responses
// that the handler asks to retry.
type RetriableRequest[S, F any] struct {
	request Request
	handler ResponseHandler[S, F]
	cfg     config
}

// NewRetriableRequest prepares req. Defaults are [DefaultRetryCount] and
// [DefaultRetryInterval] on the real clock.
func NewRetriableRequest[S, F any](req Request, handler ResponseHandler[S, F], opts ...Option) *RetriableRequest[S, F] {
	if handler == nil {
		panic("tunnelhttp: nil response handler")
	}
	if req.URL == nil {
		panic("tunnelhttp: request without URL")
	}
	cfg := config{
		retryCount:    DefaultRetryCount,
		retryInterval: DefaultRetryInterval,
		clock:         clock.RealClock{},
		logger:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RetriableRequest[S, F]{request: req, handler: handler, cfg: cfg}
}

// Request returns the request descriptor.
func (r *RetriableRequest[S, F]) Request() Request {
	return r.request
}

// Effect returns the request's result stream.
//
// The latest values of statuses and connections are combined; consecutive
// equal pairs are ignored. Each new pair abandons the attempt in flight,
// including its HTTP call, and starts a fresh one with the full retry
// budget. The stream ends after the first Completed or Failed value, or
// when the effect's context is cancelled; nothing is emitted after either.
func (r *RetriableRequest[S, F]) Effect(
	statuses store.Observable[TunnelStatus],
	connections store.Observable[*Connection],
	client *Client,
) store.Effect[RequestResult[S, F]] {
	return store.Stream(func(ctx context.Context, emit func(RequestResult[S, F])) {
		r.run(ctx, statuses, connections, client, emit)
	})
}

type tunnelPair struct {
	status     TunnelStatus
	conn       *Connection
	haveStatus bool
	haveConn   bool
}

func (p tunnelPair) ready() bool {
	return p.haveStatus && p.haveConn
}

func (r *RetriableRequest[S, F]) run(
	ctx context.Context,
	statuses store.Observable[TunnelStatus],
	connections store.Observable[*Connection],
	client *Client,
	emit func(RequestResult[S, F]),
) {
	logger := r.cfg.logger.WithValues("request", r.request.String())

	var (
		mu     sync.Mutex
		latest tunnelPair
	)
	notify := make(chan struct{}, 1)
	wake := func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
	cancelStatuses := statuses.Subscribe(func(s TunnelStatus) {
		mu.Lock()
		latest.status, latest.haveStatus = s, true
		mu.Unlock()
		wake()
	})
	defer cancelStatuses()
	cancelConnections := connections.Subscribe(func(c *Connection) {
		mu.Lock()
		latest.conn, latest.haveConn = c, true
		mu.Unlock()
		wake()
	})
	defer cancelConnections()

	// emitMu orders emissions against attempt cancellation: once an
	// attempt's context is cancelled under emitMu, it emits nothing more.
	var (
		emitMu     sync.Mutex
		terminated bool
	)
	finished := make(chan struct{})
	var (
		current     tunnelPair
		stopAttempt func()
	)
	defer func() {
		if stopAttempt != nil {
			stopAttempt()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.V(logging.DEBUG).Info("Request cancelled")
			return
		case <-finished:
			return
		case <-notify:
		}
		mu.Lock()
		next := latest
		mu.Unlock()
		if !next.ready() || (current.ready() && next.status == current.status && next.conn == current.conn) {
			continue
		}
		current = next
		if stopAttempt != nil {
			stopAttempt()
		}
		emitMu.Lock()
		over := terminated
		emitMu.Unlock()
		if over {
			return
		}
		logger.V(logging.DEBUG).Info("Tunnel changed, starting attempt", "tunnel", next.status, "connection", next.conn != nil)

		actx, acancel := context.WithCancel(ctx)
		done := make(chan struct{})
		stopAttempt = func() {
			emitMu.Lock()
			acancel()
			emitMu.Unlock()
			<-done
		}
		guarded := func(v RequestResult[S, F]) bool {
			emitMu.Lock()
			defer emitMu.Unlock()
			if terminated || actx.Err() != nil {
				return false
			}
			terminated = v.IsTerminal()
			metrics.RecordResult(v.Kind().String())
			logger.V(logging.VERBOSE).Info("Request result", "result", v)
			emit(v)
			return true
		}
		go func(p tunnelPair) {
			defer close(done)
			if r.attempt(actx, p, client, guarded) {
				acancel()
				close(finished)
			}
		}(next)
	}
}

// attempt runs one tunnel session. It reports whether a terminal value was
// emitted.
func (r *RetriableRequest[S, F]) attempt(ctx context.Context, p tunnelPair, client *Client, emit func(RequestResult[S, F]) bool) bool {
	if !r.cfg.ignoreTunnelChecks && !p.status.Connected() {
		emit(WillRetry(WhenResolved[S, F](TunnelNotConnected)))
		return false
	}
	if p.conn == nil {
		emit(WillRetry(WhenResolved[S, F](NilTunnelProviderManager)))
		return false
	}
	for retries := 0; ; retries++ {
		// The handle may have gone away since the pair was observed.
		if tunnelErr, ok := r.checkConnection(p.conn); !ok {
			emit(WillRetry(WhenResolved[S, F](tunnelErr)))
			return false
		}
		sr := client.Execute(ctx, r.request)
		if ctx.Err() != nil {
			return false
		}
		result := r.handler.Decode(sr)
		errEvent, retry := r.handler.NeedsRetry(result)
		if !retry {
			return emit(Completed[S, F](result))
		}
		if retries >= r.cfg.retryCount {
			return emit(Failed[S](errEvent))
		}
		if !emit(WillRetry(AfterTimeInterval[S, F](r.cfg.retryInterval, result))) {
			return false
		}
		timer := r.cfg.clock.NewTimer(r.cfg.retryInterval)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}

func (r *RetriableRequest[S, F]) checkConnection(conn *Connection) (TunnelError, bool) {
	status := conn.Status()
	switch {
	case status.Released:
		return NilTunnelProviderManager, false
	case r.cfg.ignoreTunnelChecks || status.Connected():
		return 0, true
	default:
		return TunnelNotConnected, false
	}
}

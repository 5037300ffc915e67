// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/go-logr/logr"

	"code.hybscloud.com/store/internal/logging"
	"code.hybscloud.com/store/internal/metrics"
)

// Store owns a state value and applies actions to it one at a time on its
// dispatcher.
//
// Send may be called from any goroutine. The reducer runs on the dispatcher
// in global FIFO order of Send calls; the new state is committed and
// published before the action's effects are subscribed. Each effect runs on
// its own goroutine, and every value it emits is sent back into the store
// through the dispatcher.
//
// The state is only reachable through the reducer. Value and Subscribe
// expose read-only copies. A state holding maps, slices or pointers must
// implement Clone() S returning a deep copy: the store clones the committed
// state before each reduction so that published values never change under
// their readers. Without Clone, S must have value semantics.
type Store[S, A any] struct {
	serial     Serial
	name       string
	base       logr.Logger
	logger     logr.Logger
	fatal      FatalFunc
	dispatcher Dispatcher
	reducer    func(*S, A) []Effect[A]

	// Owned by the dispatcher.
	state    S
	pending  Queue[A]
	draining bool
	effects  map[Serial]context.CancelFunc
	detach   func()

	subject     *Subject[S]
	outstanding atomix.Uint32
	closed      atomix.Uint32
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a store holding initial. makeEnv is called once, with the new
// store, to build the reducer's environment.
func New[S, A, E any](
	initial S,
	reducer Reducer[S, A, E],
	dispatcher Dispatcher,
	makeEnv func(*Store[S, A]) E,
	opts ...Option,
) *Store[S, A] {
	s := newStore[S, A](initial, dispatcher, buildOptions(opts))
	env := makeEnv(s)
	s.reducer = func(state *S, action A) []Effect[A] {
		return reducer(state, action, env)
	}
	return s
}

func newStore[S, A any](initial S, dispatcher Dispatcher, o options) *Store[S, A] {
	ctx, cancel := context.WithCancel(context.Background())
	serial := nextSerial()
	return &Store[S, A]{
		serial:     serial,
		name:       o.name,
		base:       o.logger,
		logger:     o.logger.WithValues("store", o.name, "serial", serial),
		fatal:      o.fatal,
		dispatcher: dispatcher,
		state:      initial,
		effects:    make(map[Serial]context.CancelFunc),
		subject:    NewSubject(initial),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Serial returns the store's identifier.
func (s *Store[S, A]) Serial() Serial {
	return s.serial
}

// Send schedules action on the dispatcher and returns immediately.
func (s *Store[S, A]) Send(action A) {
	s.dispatcher.Dispatch(func() {
		s.apply(action)
	})
}

// Value returns the last published state. Safe from any goroutine.
func (s *Store[S, A]) Value() S {
	return s.subject.Value()
}

// Subscribe delivers the current state, then every change. Consecutive
// equal states are not delivered twice.
//
// Deliveries hold the store's publication lock. An observer must not call
// Subscribe on the same store, or Project it, synchronously.
func (s *Store[S, A]) Subscribe(observer func(S)) (cancel func()) {
	return s.subject.Subscribe(observer)
}

// OutstandingEffects returns the number of subscribed effects whose
// completion has not been processed yet.
func (s *Store[S, A]) OutstandingEffects() int {
	return int(s.outstanding.Load())
}

// Wait blocks until the store has no outstanding effects, or ctx ends.
// Another goroutine must be running the dispatcher.
func (s *Store[S, A]) Wait(ctx context.Context) error {
	var bo iox.Backoff
	for s.outstanding.Load() != 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		bo.Wait()
	}
	return nil
}

// Close interrupts every outstanding effect and detaches a projected store
// from its parent. Actions sent afterwards are dropped.
func (s *Store[S, A]) Close() {
	if s.closed.Add(1) != 1 {
		return
	}
	s.cancel()
	s.dispatcher.Dispatch(func() {
		if s.detach != nil {
			s.detach()
			s.detach = nil
		}
	})
}

// apply runs action through the reducer, trampolining actions that arrive
// while a reduction is already in progress on this store.
func (s *Store[S, A]) apply(action A) {
	if s.closed.Load() != 0 {
		s.logger.V(logging.DEBUG).Info("Dropping action sent to closed store")
		return
	}
	s.pending.Enqueue(action)
	if s.draining {
		return
	}
	s.draining = true
	for {
		next, ok := s.pending.Dequeue()
		if !ok {
			break
		}
		s.reduce(next)
	}
	s.draining = false
}

// syncSend applies action immediately and returns the resulting state.
// Must be called on the dispatcher.
func (s *Store[S, A]) syncSend(action A) S {
	s.apply(action)
	return s.state
}

func (s *Store[S, A]) reduce(action A) {
	s.logger.V(logging.TRACE).Info("Reducing action", "action", action)
	s.state = clone(s.state)
	effects := s.reducer(&s.state, action)
	metrics.RecordAction(s.name)
	s.publish()
	for _, e := range effects {
		s.subscribe(e)
	}
}

// publish hands the committed state to observers unless it equals the
// last published one.
func (s *Store[S, A]) publish() {
	if equal(s.subject.Value(), s.state) {
		return
	}
	s.subject.Set(s.state)
}

// setState replaces the state outside the reducer. Used by projections to
// follow their parent. Must be called on the dispatcher.
func (s *Store[S, A]) setState(v S) {
	s.state = v
	s.publish()
}

func (s *Store[S, A]) subscribe(e Effect[A]) {
	id := nextSerial()
	ctx, cancel := context.WithCancel(s.ctx)
	s.effects[id] = cancel
	s.outstanding.Add(1)
	metrics.RecordEffectStarted(s.name)
	go func() {
		err := e.Run(ctx, func(a A) {
			s.Send(a)
		})
		s.dispatcher.Dispatch(func() {
			s.complete(id, err)
		})
	}()
}

func (s *Store[S, A]) complete(id Serial, err error) {
	if cancel, ok := s.effects[id]; ok {
		cancel()
		delete(s.effects, id)
	}
	s.outstanding.Add(^uint32(0))
	metrics.RecordEffectFinished(s.name)
	if err != nil && s.closed.Load() == 0 {
		s.logger.Error(err, "Effect interrupted", "effect", id)
		s.fatal("unexpected effect interruption", "store", s.name, "effect", id)
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"

	"code.hybscloud.com/kont"
)

// subscriber is the argument of an effect's one-shot start continuation.
type subscriber[A any] struct {
	ctx  context.Context
	emit func(A)
}

// Effect is a cold unit of asynchronous work. No work is performed until
// Run is called. Effect cannot fail: failures travel inside the emitted
// value (see [Attempt]).
//
// An Effect is one-shot. Copies share the same subscription, and a second
// Run panics; build a new Effect to repeat the work.
// The zero Effect completes immediately without emitting.
type Effect[A any] struct {
	start *kont.Affine[struct{}, subscriber[A]]
}

// newEffect wraps run as a one-shot Effect.
func newEffect[A any](run func(ctx context.Context, emit func(A))) Effect[A] {
	return Effect[A]{start: kont.Once(func(s subscriber[A]) struct{} {
		run(s.ctx, s.emit)
		return struct{}{}
	})}
}

// Run subscribes to the effect on the calling goroutine and blocks until it
// terminates. Calls to emit are serialized and happen before Run returns,
// but may come from goroutines the effect starts.
// Returns nil on completion, or the context error if ctx ended first.
func (e Effect[A]) Run(ctx context.Context, emit func(A)) error {
	if e.start == nil {
		return ctx.Err()
	}
	e.start.Resume(subscriber[A]{ctx: ctx, emit: emit})
	return ctx.Err()
}

// Deferred runs work at subscription time, emits its result and completes.
func Deferred[A any](work func() A) Effect[A] {
	return newEffect(func(_ context.Context, emit func(A)) {
		emit(work())
	})
}

// DeferredOn posts work onto d. work receives a fulfil callback; the first
// call emits its value and completes the effect, later calls are ignored.
// A nil d runs work inline at subscription time.
func DeferredOn[A any](d Dispatcher, work func(fulfill func(A))) Effect[A] {
	return newEffect(func(ctx context.Context, emit func(A)) {
		done := make(chan struct{})
		var value A
		once := kont.Once(func(a A) struct{} {
			value = a
			close(done)
			return struct{}{}
		})
		fulfill := func(a A) { once.TryResume(a) }
		if d == nil {
			work(fulfill)
		} else {
			d.Dispatch(func() { work(fulfill) })
		}
		select {
		case <-done:
			emit(value)
		case <-ctx.Done():
		}
	})
}

// FireAndForget runs work for its side effect and completes without
// emitting.
func FireAndForget[A any](work func()) Effect[A] {
	return newEffect(func(context.Context, func(A)) {
		work()
	})
}

// Just emits a and completes.
func Just[A any](a A) Effect[A] {
	return newEffect(func(_ context.Context, emit func(A)) {
		emit(a)
	})
}

// None completes without emitting.
func None[A any]() Effect[A] {
	return newEffect(func(context.Context, func(A)) {})
}

// Stream builds a multi-valued effect. run emits any number of values and
// returns to complete; it should return promptly once ctx is done. run may
// emit from goroutines of its own if the calls are serialized and finish
// before run returns.
func Stream[A any](run func(ctx context.Context, emit func(A))) Effect[A] {
	return newEffect(run)
}

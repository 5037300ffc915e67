// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
)

// SerialEffectKind discriminates a [SerialEffectAction].
type SerialEffectKind uint8

const (
	// KindAction is an externally sent action.
	KindAction SerialEffectKind = iota
	// KindEffectAction is an action emitted by the effect chain in flight.
	KindEffectAction
	// KindEffectCompleted signals that the effect chain in flight has drained.
	KindEffectCompleted
)

func (k SerialEffectKind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindEffectAction:
		return "effectAction"
	case KindEffectCompleted:
		return "effectCompleted"
	default:
		return fmt.Sprintf("SerialEffectKind(%d)", uint8(k))
	}
}

// SerialEffectAction is the action alphabet of a [SerialEffect] reducer.
// Callers construct only external actions with [SerialAction]; the other
// kinds are produced by the wrapper itself.
type SerialEffectAction[A any] struct {
	kind  SerialEffectKind
	value A
}

// SerialAction wraps an external action.
func SerialAction[A any](a A) SerialEffectAction[A] {
	return SerialEffectAction[A]{kind: KindAction, value: a}
}

func effectAction[A any](a A) SerialEffectAction[A] {
	return SerialEffectAction[A]{kind: KindEffectAction, value: a}
}

func effectCompleted[A any]() SerialEffectAction[A] {
	return SerialEffectAction[A]{kind: KindEffectCompleted}
}

// Kind reports which case a holds.
func (a SerialEffectAction[A]) Kind() SerialEffectKind {
	return a.kind
}

// Action returns the wrapped action. ok is false for KindEffectCompleted.
func (a SerialEffectAction[A]) Action() (action A, ok bool) {
	return a.value, a.kind != KindEffectCompleted
}

func (a SerialEffectAction[A]) String() string {
	if a.kind == KindEffectCompleted {
		return a.kind.String()
	}
	return fmt.Sprintf("%s(%v)", a.kind, a.value)
}

// SerialEffectState is the state of a [SerialEffect] reducer: the wrapped
// state plus the actions deferred while an effect chain is in flight.
type SerialEffectState[S, A any] struct {
	PendingActionQueue       Queue[A]
	PendingEffectActionQueue Queue[A]
	PendingEffectCompletion  bool
	Value                    S
}

// NewSerialEffectState returns an idle state wrapping value.
func NewSerialEffectState[S, A any](value S) SerialEffectState[S, A] {
	return SerialEffectState[S, A]{Value: value}
}

// Clone copies the deferred work and clones the wrapped value.
func (s SerialEffectState[S, A]) Clone() SerialEffectState[S, A] {
	return SerialEffectState[S, A]{
		PendingActionQueue:       s.PendingActionQueue.Clone(),
		PendingEffectActionQueue: s.PendingEffectActionQueue.Clone(),
		PendingEffectCompletion:  s.PendingEffectCompletion,
		Value:                    clone(s.Value),
	}
}

// Equal reports whether s and other hold the same value and the same
// deferred work.
func (s SerialEffectState[S, A]) Equal(other SerialEffectState[S, A]) bool {
	return s.PendingEffectCompletion == other.PendingEffectCompletion &&
		s.PendingActionQueue.Equal(other.PendingActionQueue) &&
		s.PendingEffectActionQueue.Equal(other.PendingEffectActionQueue) &&
		equal(s.Value, other.Value)
}

// SerialEffect wraps r so that the whole cascade of one action is reduced
// before the next externally sent action reaches r.
//
// While an effect chain is in flight, external actions and actions emitted
// by the chain are deferred in separate queues. When the chain completes,
// deferred effect actions run first, then external ones, each in arrival
// order. The effects returned by one reduction run one after another.
//
// A completion signal with no chain in flight is reported to the fatal
// handler configured with [WithFatal].
func SerialEffect[S, A, E any](r Reducer[S, A, E], opts ...Option) Reducer[SerialEffectState[S, A], SerialEffectAction[A], E] {
	o := buildOptions(opts)
	run := func(state *SerialEffectState[S, A], a A, env E) []Effect[SerialEffectAction[A]] {
		effects := r(&state.Value, a, env)
		state.PendingEffectCompletion = true
		chain, ok := NonEmptyFromSlice(effects)
		if !ok {
			return []Effect[SerialEffectAction[A]]{Just(effectCompleted[A]())}
		}
		sequential := Reduce(chain, func(acc, next Effect[A]) Effect[A] {
			return Concat(acc, next)
		})
		return []Effect[SerialEffectAction[A]]{Stream(func(ctx context.Context, emit func(SerialEffectAction[A])) {
			err := sequential.Run(ctx, func(v A) {
				emit(effectAction(v))
			})
			if err != nil {
				// The store is closing; nothing may follow the interruption.
				return
			}
			emit(effectCompleted[A]())
		})}
	}

	return func(state *SerialEffectState[S, A], action SerialEffectAction[A], env E) []Effect[SerialEffectAction[A]] {
		switch action.kind {
		case KindAction:
			if state.PendingEffectCompletion {
				state.PendingActionQueue.Enqueue(action.value)
				return nil
			}
			return run(state, action.value, env)
		case KindEffectAction:
			if state.PendingEffectCompletion {
				state.PendingEffectActionQueue.Enqueue(action.value)
				return nil
			}
			return run(state, action.value, env)
		case KindEffectCompleted:
			if !state.PendingEffectCompletion {
				o.fatal("effect completed with no effect chain in flight", "reducer", o.name)
				return nil
			}
			if next, ok := state.PendingEffectActionQueue.Dequeue(); ok {
				return run(state, next, env)
			}
			if next, ok := state.PendingActionQueue.Dequeue(); ok {
				return run(state, next, env)
			}
			state.PendingEffectCompletion = false
			return nil
		default:
			o.fatal("unknown serial effect action", "kind", action.kind)
			return nil
		}
	}
}

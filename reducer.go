// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

// Reducer mutates state in place for one action and returns the effects the
// action requires. A reducer is synchronous and must not block; all
// asynchronous work is expressed as the returned effects.
//
// state points at a private copy: a store clones its state before every
// reduction when S implements Clone() S, so in-place map and slice updates
// do not leak into published values.
type Reducer[S, A, E any] func(state *S, action A, env E) []Effect[A]

// Combine runs reducers in declaration order against the same state and
// concatenates their effects.
func Combine[S, A, E any](reducers ...Reducer[S, A, E]) Reducer[S, A, E] {
	return func(state *S, action A, env E) []Effect[A] {
		var effects []Effect[A]
		for _, r := range reducers {
			effects = append(effects, r(state, action, env)...)
		}
		return effects
	}
}

// CasePath focuses on one case of a sum-typed action.
// Extract reports whether root carries the case; Embed wraps a value back
// into the root type.
type CasePath[Root, Value any] struct {
	Extract func(Root) (Value, bool)
	Embed   func(Value) Root
}

// Pullback lifts a reducer over (LS, LA, LE) into one over (GS, GA, GE).
//
// A global action that does not carry the local case yields no effects and
// leaves state untouched. Only the sub-state returned by state is mutated,
// and every local action emitted by the returned effects is embedded back
// into the global action type.
func Pullback[LS, LA, LE, GS, GA, GE any](
	r Reducer[LS, LA, LE],
	state func(*GS) *LS,
	action CasePath[GA, LA],
	env func(GE) LE,
) Reducer[GS, GA, GE] {
	return func(global *GS, globalAction GA, globalEnv GE) []Effect[GA] {
		local, ok := action.Extract(globalAction)
		if !ok {
			return nil
		}
		effects := r(state(global), local, env(globalEnv))
		if len(effects) == 0 {
			return nil
		}
		pulled := make([]Effect[GA], len(effects))
		for i, e := range effects {
			pulled[i] = Map(e, action.Embed)
		}
		return pulled
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store provides a unidirectional state runtime: a [Store] owns a
// value, applies actions to it through a [Reducer], and feeds the output of
// asynchronous [Effect] values back into itself.
//
// # Architecture
//
//   - Dispatch: every reduction runs on a [Dispatcher]. [QueueDispatcher] is a dedicated goroutine fed by a lock-free [code.hybscloud.com/lfq] ring.
//   - Reduction: reducers are synchronous and never block. Asynchronous work is returned as one-shot, cold effects.
//   - Effects: each effect runs on its own goroutine under a cancellable context. Emitted values re-enter the store in dispatch order.
//   - Failure: effects cannot fail. Fallible work encodes its outcome as a [code.hybscloud.com/kont.Either] (see [Attempt]).
//
// # API Topologies
//
//   - Effects: [Deferred], [DeferredOn], [FireAndForget], [Just], [None], [Stream]; combined with [Map] and [Concat].
//   - Reducers: [Combine] and [Pullback] with a [CasePath].
//   - Stores: [New], [Project]. Values are observed through [Subject] and [Observable].
//   - Serialization: [SerialEffect] runs the whole cascade of one action before the next queued one.
//
// # Invariant Violations
//
// Broken internal invariants, such as an effect interrupted while its store
// is open, are reported to a [FatalFunc]. The default, [Panic], stops the
// program. [LogAndContinue] logs the violation and carries on.
//
// # Example
//
//	d := store.NewQueueDispatcher()
//	defer d.Close()
//	counter := store.New(0, func(n *int, delta int, _ struct{}) []store.Effect[int] {
//		*n += delta
//		return nil
//	}, d, func(*store.Store[int, int]) struct{} { return struct{}{} })
//	counter.Send(2)
package store

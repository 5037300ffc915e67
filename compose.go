// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "context"

// Map applies f to every value emitted by e.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	return newEffect(func(ctx context.Context, emit func(B)) {
		_ = e.Run(ctx, func(a A) { emit(f(a)) })
	})
}

// Concat runs effects one after another. Each effect completes before the
// next one is subscribed. An interruption stops the chain.
func Concat[A any](effects ...Effect[A]) Effect[A] {
	return newEffect(func(ctx context.Context, emit func(A)) {
		for _, e := range effects {
			if err := e.Run(ctx, emit); err != nil {
				return
			}
		}
	})
}

// Collect runs e on the calling goroutine and returns every emitted value.
func Collect[A any](ctx context.Context, e Effect[A]) ([]A, error) {
	var values []A
	err := e.Run(ctx, func(a A) {
		values = append(values, a)
	})
	return values, err
}

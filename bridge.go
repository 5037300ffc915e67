// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"code.hybscloud.com/kont"
)

// FromCont defers a pure kont computation: it is run with [kont.Run] at
// subscription time and its result emitted.
func FromCont[A any](m kont.Cont[A, A]) Effect[A] {
	return Deferred(func() A {
		return kont.Run(m)
	})
}

// Attempt defers a fallible call and encodes its outcome as an Either:
// Right on success, Left carrying the error otherwise.
func Attempt[A any](work func() (A, error)) Effect[kont.Either[error, A]] {
	return Deferred(func() kont.Either[error, A] {
		a, err := work()
		if err != nil {
			return kont.Left[error, A](err)
		}
		return kont.Right[error](a)
	})
}

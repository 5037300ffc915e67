// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

// NonEmpty is a sequence with at least one element.
type NonEmpty[A any] struct {
	Head A
	Tail []A
}

// NonEmptyOf builds a NonEmpty from a head and any tail.
func NonEmptyOf[A any](head A, tail ...A) NonEmpty[A] {
	return NonEmpty[A]{Head: head, Tail: tail}
}

// NonEmptyFromSlice returns false for an empty slice.
func NonEmptyFromSlice[A any](xs []A) (NonEmpty[A], bool) {
	if len(xs) == 0 {
		return NonEmpty[A]{}, false
	}
	return NonEmpty[A]{Head: xs[0], Tail: xs[1:]}, true
}

// Len returns the number of elements, always at least 1.
func (n NonEmpty[A]) Len() int {
	return 1 + len(n.Tail)
}

// Slice returns all elements in order.
func (n NonEmpty[A]) Slice() []A {
	out := make([]A, 0, n.Len())
	out = append(out, n.Head)
	return append(out, n.Tail...)
}

// Reduce folds the elements left to right, seeded with the head.
func Reduce[A any](n NonEmpty[A], f func(acc, next A) A) A {
	acc := n.Head
	for _, x := range n.Tail {
		acc = f(acc, x)
	}
	return acc
}

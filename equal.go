// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "reflect"

// equaler is implemented by state types that define their own equality.
type equaler[T any] interface {
	Equal(T) bool
}

// cloner is implemented by state types that hold maps, slices or pointers
// and need a deep copy before the reducer mutates them.
type cloner[T any] interface {
	Clone() T
}

// equal compares state values. An Equal(T) bool method takes precedence
// over reflect.DeepEqual.
func equal[T any](a, b T) bool {
	if e, ok := any(a).(equaler[T]); ok {
		return e.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

// clone returns v.Clone() when T defines it, and v otherwise.
func clone[T any](v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}
	return v
}

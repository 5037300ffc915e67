// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "reflect"

// compactThreshold is the consumed-prefix length past which Dequeue
// reallocates the backing array.
const compactThreshold = 32

// Queue is an unbounded FIFO value type.
//
// Copies are safe snapshots: a Queue never writes inside the visible range
// of a backing array it shares with an earlier copy, it only appends past
// it or reallocates. The zero Queue is empty and ready to use.
type Queue[A any] struct {
	items []A
	head  int
}

// QueueOf returns a queue holding items in order.
func QueueOf[A any](items ...A) Queue[A] {
	return Queue[A]{items: append([]A(nil), items...)}
}

// Enqueue appends a to the back of the queue.
func (q *Queue[A]) Enqueue(a A) {
	q.items = append(q.items, a)
}

// Dequeue removes and returns the front element, or false if empty.
func (q *Queue[A]) Dequeue() (A, bool) {
	var zero A
	if q.head >= len(q.items) {
		return zero, false
	}
	a := q.items[q.head]
	q.head++
	switch {
	case q.head == len(q.items):
		q.items, q.head = nil, 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		q.items, q.head = append([]A(nil), q.items[q.head:]...), 0
	}
	return a, true
}

// Peek returns the front element without removing it.
func (q Queue[A]) Peek() (A, bool) {
	if q.head >= len(q.items) {
		var zero A
		return zero, false
	}
	return q.items[q.head], true
}

// Len returns the number of queued elements.
func (q Queue[A]) Len() int {
	return len(q.items) - q.head
}

// IsEmpty reports whether the queue holds no elements.
func (q Queue[A]) IsEmpty() bool {
	return q.Len() == 0
}

// Items returns a copy of the queued elements, front first.
func (q Queue[A]) Items() []A {
	return append([]A(nil), q.items[q.head:]...)
}

// Clone returns a queue that shares no storage with q.
func (q Queue[A]) Clone() Queue[A] {
	return Queue[A]{items: q.Items()}
}

// Equal reports whether both queues hold equal elements in the same order.
func (q Queue[A]) Equal(other Queue[A]) bool {
	if q.Len() != other.Len() {
		return false
	}
	for i := range q.Len() {
		if !reflect.DeepEqual(q.items[q.head+i], other.items[other.head+i]) {
			return false
		}
	}
	return true
}

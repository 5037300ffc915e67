// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "sync"

// Observable is a continuously observable value. Subscribe delivers the
// current value immediately, then every later change, until cancel is
// called.
type Observable[T any] interface {
	Subscribe(observer func(T)) (cancel func())
}

type observerEntry[T any] struct {
	id Serial
	fn func(T)
}

// Subject holds a current value and fans every change out to its observers
// in subscription order.
//
// Deliveries are serialized. An observer must not call Set or Subscribe on
// the same Subject synchronously.
type Subject[T any] struct {
	deliver   sync.Mutex // serializes Set deliveries and initial Subscribe deliveries
	mu        sync.Mutex // guards value and observers
	value     T
	observers []observerEntry[T]
}

// NewSubject returns a Subject holding initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the current value. Safe from any goroutine.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and delivers it to every observer.
func (s *Subject[T]) Set(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	s.mu.Lock()
	s.value = v
	observers := append([]observerEntry[T](nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o.fn(v)
	}
}

// Subscribe implements Observable.
func (s *Subject[T]) Subscribe(observer func(T)) (cancel func()) {
	id := nextSerial()
	s.deliver.Lock()
	s.mu.Lock()
	s.observers = append(s.observers, observerEntry[T]{id: id, fn: observer})
	v := s.value
	s.mu.Unlock()
	observer(v)
	s.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Subject[T]) remove(id Serial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

var _ Observable[int] = (*Subject[int])(nil)

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store_test

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	"code.hybscloud.com/store"
)

func TestStoreSendAppliesInOrder(t *testing.T) {
	d := &store.ManualDispatcher{}
	var order []int
	s := store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		order = append(order, a)
		*n = a
		return nil
	}, d, withoutEnv[int, int])

	for i := 1; i <= 5; i++ {
		s.Send(i)
	}
	if s.Value() != 0 {
		t.Fatalf("value before dispatch: got %d, want 0", s.Value())
	}
	if d.Len() != 5 {
		t.Fatalf("dispatched work: got %d, want 5", d.Len())
	}
	settle(t, d, s)
	if s.Value() != 5 {
		t.Fatalf("value: got %d, want 5", s.Value())
	}
	for i, a := range order {
		if a != i+1 {
			t.Fatalf("order[%d]: got %d, want %d", i, a, i+1)
		}
	}
}

func TestStoreEnvironmentBuiltOnce(t *testing.T) {
	d := &store.ManualDispatcher{}
	calls := 0
	type env struct{ step int }
	var self *store.Store[int, int]
	s := store.New(0, func(n *int, _ int, e env) []store.Effect[int] {
		*n += e.step
		return nil
	}, d, func(s *store.Store[int, int]) env {
		calls++
		self = s
		return env{step: 3}
	})
	if self != s {
		t.Fatalf("environment built with a different store")
	}
	s.Send(0)
	s.Send(0)
	settle(t, d, s)
	if calls != 1 {
		t.Fatalf("environment built %d times, want 1", calls)
	}
	if s.Value() != 6 {
		t.Fatalf("value: got %d, want 6", s.Value())
	}
}

func TestStoreEffectFeedsBack(t *testing.T) {
	d := &store.ManualDispatcher{}
	type state struct{ log []string }
	s := store.New(state{}, func(st *state, a string, _ noEnv) []store.Effect[string] {
		st.log = append(st.log, a)
		if a == "fetch" {
			return []store.Effect[string]{store.Deferred(func() string { return "fetched" })}
		}
		return nil
	}, d, withoutEnv[state, string])

	s.Send("fetch")
	settle(t, d, s)
	got := s.Value().log
	if len(got) != 2 || got[0] != "fetch" || got[1] != "fetched" {
		t.Fatalf("log: got %v, want [fetch fetched]", got)
	}
}

func TestStoreOutstandingEffects(t *testing.T) {
	d := &store.ManualDispatcher{}
	release := make(chan struct{})
	s := store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n += a
		if a != 1 {
			return nil
		}
		wait := func() { <-release }
		return []store.Effect[int]{store.FireAndForget[int](wait), store.FireAndForget[int](wait)}
	}, d, withoutEnv[int, int])

	s.Send(1)
	d.Step()
	if got := s.OutstandingEffects(); got != 2 {
		t.Fatalf("outstanding: got %d, want 2", got)
	}
	close(release)
	settle(t, d, s)
	if got := s.OutstandingEffects(); got != 0 {
		t.Fatalf("outstanding after completion: got %d, want 0", got)
	}
}

func TestStoreStateCommittedBeforeEffects(t *testing.T) {
	d := &store.ManualDispatcher{}
	var seen []int
	var s *store.Store[int, int]
	s = store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n += a
		if a == 1 {
			return []store.Effect[int]{store.FireAndForget[int](func() {
				seen = append(seen, s.Value())
			})}
		}
		return nil
	}, d, withoutEnv[int, int])

	s.Send(1)
	settle(t, d, s)
	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("effect observed %v, want [1]", seen)
	}
}

func TestStoreSubscribe(t *testing.T) {
	d := &store.ManualDispatcher{}
	s := store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n = a
		return nil
	}, d, withoutEnv[int, int])

	var got []int
	cancel := s.Subscribe(func(v int) { got = append(got, v) })
	for _, a := range []int{1, 1, 2, 2, 2, 3} {
		s.Send(a)
	}
	settle(t, d, s)
	cancel()
	s.Send(4)
	settle(t, d, s)

	want := []int{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("deliveries: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deliveries: got %v, want %v", got, want)
		}
	}
}

func TestStoreCloseInterruptsEffects(t *testing.T) {
	d := &store.ManualDispatcher{}
	started := make(chan struct{})
	interrupted := make(chan struct{})
	s := store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n += a
		return []store.Effect[int]{store.Stream(func(ctx context.Context, emit func(int)) {
			close(started)
			<-ctx.Done()
			close(interrupted)
		})}
	}, d, withoutEnv[int, int])

	s.Send(1)
	d.Step()
	<-started
	s.Close()
	select {
	case <-interrupted:
	case <-time.After(settleTimeout):
		t.Fatalf("effect not interrupted by Close")
	}
	settle(t, d, s)

	s.Send(5)
	settle(t, d, s)
	if s.Value() != 1 {
		t.Fatalf("value after close: got %d, want 1", s.Value())
	}
}

func TestStoreWait(t *testing.T) {
	skipRace(t)
	d := store.NewQueueDispatcher(store.WithLogger(testr.New(t)))
	defer d.Close()
	release := make(chan struct{})
	s := store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n += a
		if a == 1 {
			return []store.Effect[int]{store.Deferred(func() int {
				<-release
				return 10
			})}
		}
		return nil
	}, d, withoutEnv[int, int], store.WithName("wait"))

	s.Send(1)
	await(t, func() bool { return s.OutstandingEffects() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatalf("Wait returned before the effect completed")
	}

	close(release)
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	await(t, func() bool { return s.Value() == 11 })
}

func TestStoreReentrantSendsTrampoline(t *testing.T) {
	d := &store.InlineDispatcher{}
	const depth = 100000
	var s *store.Store[int, int]
	s = store.New(0, func(n *int, a int, _ noEnv) []store.Effect[int] {
		*n = a
		if a < depth {
			s.Send(a + 1)
		}
		return nil
	}, d, withoutEnv[int, int])

	s.Send(1)
	if s.Value() != depth {
		t.Fatalf("value: got %d, want %d", s.Value(), depth)
	}
}

func TestStoreSerialMonotonic(t *testing.T) {
	d := &store.ManualDispatcher{}
	s1 := store.New(0, sum, d, withoutEnv[int, int])
	s2 := store.New(0, sum, d, withoutEnv[int, int])
	s3 := store.New(0, sum, d, withoutEnv[int, int])

	if s1.Serial() >= s2.Serial() {
		t.Fatalf("serials not increasing: %d >= %d", s1.Serial(), s2.Serial())
	}
	if s2.Serial() >= s3.Serial() {
		t.Fatalf("serials not increasing: %d >= %d", s2.Serial(), s3.Serial())
	}
}

func TestStoreConcurrentSubscribers(t *testing.T) {
	skipRace(t)
	d := store.NewQueueDispatcher()
	defer d.Close()
	s := store.New(0, sum, d, withoutEnv[int, int])

	var mu sync.Mutex
	last := make([]int, 4)
	for i := range last {
		s.Subscribe(func(v int) {
			mu.Lock()
			last[i] = v
			mu.Unlock()
		})
	}
	for range 100 {
		s.Send(1)
	}
	await(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, v := range last {
			if v != 100 {
				return false
			}
		}
		return true
	})
}

type tally struct {
	Counts map[string]int
}

func (t tally) Clone() tally {
	return tally{Counts: maps.Clone(t.Counts)}
}

func TestStorePublishesInPlaceMapUpdates(t *testing.T) {
	s := store.New(tally{Counts: map[string]int{}}, func(st *tally, key string, _ noEnv) []store.Effect[string] {
		st.Counts[key]++
		return nil
	}, &store.InlineDispatcher{}, withoutEnv[tally, string])

	var got []int
	s.Subscribe(func(v tally) { got = append(got, v.Counts["a"]) })
	first := s.Value()

	s.Send("a")
	s.Send("a")

	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("deliveries: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deliveries: got %v, want %v", got, want)
		}
	}
	if n := first.Counts["a"]; n != 0 {
		t.Fatalf("earlier value changed under its reader: got %d, want 0", n)
	}
	if n := s.Value().Counts["a"]; n != 2 {
		t.Fatalf("value: got %d, want 2", n)
	}
}

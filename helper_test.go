// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store_test

import (
	"testing"
	"time"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/store"
)

const settleTimeout = 5 * time.Second

type quiescer interface {
	OutstandingEffects() int
}

// settle drives d until it is empty and none of stores has an outstanding
// effect. Effects run on their own goroutines, so an empty dispatcher is
// polled with backoff until their completions arrive.
func settle(t testing.TB, d *store.ManualDispatcher, stores ...quiescer) {
	t.Helper()
	deadline := time.Now().Add(settleTimeout)
	var bo iox.Backoff
	for {
		if d.Step() {
			bo.Reset()
			continue
		}
		idle := true
		for _, s := range stores {
			if s.OutstandingEffects() != 0 {
				idle = false
				break
			}
		}
		if idle && d.Len() == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("settle: not quiescent after %v", settleTimeout)
		}
		bo.Wait()
	}
}

// await polls cond until it holds.
func await(t testing.TB, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(settleTimeout)
	var bo iox.Backoff
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("await: condition not met after %v", settleTimeout)
		}
		bo.Wait()
	}
}

type noEnv struct{}

func withoutEnv[S, A any](*store.Store[S, A]) noEnv { return noEnv{} }

// sum is a reducer without effects.
func sum(state *int, action int, _ noEnv) []store.Effect[int] {
	*state += action
	return nil
}

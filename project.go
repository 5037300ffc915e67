// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "code.hybscloud.com/store/internal/logging"

// Project derives a store whose value is toLocal of parent's value and
// whose actions are forwarded to parent through toGlobal.
//
// Sending to the derived store reduces the translated action on the parent
// immediately, on the shared dispatcher, and sets the local value from the
// parent's resulting state. The derived store also follows the parent's
// value stream so that changes made by other senders reach it; the
// propagation of its own sends is not applied a second time.
//
// The derived store does not keep parent alive beyond forwarding. Close
// detaches it from the parent's value stream.
//
// Project subscribes to parent, so it must not be called synchronously from
// one of parent's observers.
func Project[S, A, LS, LA any](
	parent *Store[S, A],
	toLocal func(S) LS,
	toGlobal func(LA) A,
	opts ...Option,
) *Store[LS, LA] {
	o := buildOptions(append([]Option{
		WithName(parent.name + "/projection"),
		WithLogger(parent.base),
		WithFatal(parent.fatal),
	}, opts...))
	seen := parent.Value()
	child := newStore[LS, LA](toLocal(seen), parent.dispatcher, o)

	sending := false
	child.reducer = func(local *LS, action LA) []Effect[LA] {
		sending = true
		*local = toLocal(parent.syncSend(toGlobal(action)))
		sending = false
		return nil
	}

	first := true
	cancel := parent.Subscribe(func(v S) {
		if first {
			first = false
			// The parent may have moved on since seen was read. The child
			// is not shared yet, so its state is replaced directly.
			if !equal(seen, v) {
				child.state = toLocal(v)
				child.subject = NewSubject(child.state)
			}
			return
		}
		if sending || child.closed.Load() != 0 {
			return
		}
		child.logger.V(logging.TRACE).Info("Following parent value")
		child.setState(toLocal(v))
	})
	child.detach = cancel
	return child
}

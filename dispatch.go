// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/go-logr/logr"

	"code.hybscloud.com/store/internal/logging"
)

// Dispatcher is a single-writer execution context. Work dispatched from any
// goroutine runs one item at a time, in the order Dispatch was called.
type Dispatcher interface {
	Dispatch(work func())
}

// mailboxCapacity is the ring size of a QueueDispatcher mailbox.
// Work beyond it spills into an overflow slice, so Dispatch never blocks.
const mailboxCapacity = 64

// QueueDispatcher runs work on a dedicated goroutine.
//
// The mailbox is a bounded lock-free SPSC ring from lfq. Producers are
// serialized by mu, so the ring sees a single producer; the dispatcher
// goroutine is its only consumer. Once the ring is full, work queues in an
// overflow slice that the consumer moves back into the ring, preserving
// FIFO order.
type QueueDispatcher struct {
	name     string
	logger   logr.Logger
	mu       sync.Mutex
	ring     lfq.SPSC[func()]
	overflow []func()
	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	closed   atomix.Uint32
}

// NewQueueDispatcher starts a dispatcher goroutine. Call Close to stop it.
func NewQueueDispatcher(opts ...Option) *QueueDispatcher {
	o := buildOptions(opts)
	d := &QueueDispatcher{
		name:   o.name,
		logger: o.logger.WithValues("dispatcher", o.name),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	d.ring.Init(mailboxCapacity)
	go d.loop()
	return d
}

// Dispatch enqueues work. Never blocks. Work dispatched after Close is
// dropped.
func (d *QueueDispatcher) Dispatch(work func()) {
	if d.closed.Load() != 0 {
		d.logger.V(logging.DEBUG).Info("Dropping work dispatched after close")
		return
	}
	d.mu.Lock()
	if len(d.overflow) > 0 || d.ring.Enqueue(&work) != nil {
		d.overflow = append(d.overflow, work)
	}
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops the dispatcher goroutine after the work item in progress and
// waits for it to exit. Queued work that has not started is discarded.
func (d *QueueDispatcher) Close() {
	if d.closed.Add(1) != 1 {
		<-d.done
		return
	}
	close(d.quit)
	<-d.done
}

func (d *QueueDispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case <-d.quit:
			return
		default:
		}
		work, err := d.ring.Dequeue()
		if err == nil {
			work()
			continue
		}
		if !iox.IsWouldBlock(err) {
			d.logger.Error(err, "Mailbox dequeue failed")
		}
		if d.refill() {
			continue
		}
		select {
		case <-d.wake:
		case <-d.quit:
			return
		}
	}
}

// refill moves overflow work into the ring. Holding mu keeps the ring
// single-producer.
func (d *QueueDispatcher) refill() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	moved := 0
	for moved < len(d.overflow) {
		if err := d.ring.Enqueue(&d.overflow[moved]); err != nil {
			break
		}
		moved++
	}
	if moved == len(d.overflow) {
		d.overflow = nil
	} else {
		d.overflow = d.overflow[moved:]
	}
	return moved > 0
}

// InlineDispatcher runs work on the calling goroutine.
//
// It is a caller-runs trampoline: the first caller drains the queue, and
// any Dispatch made while draining, reentrant or from another goroutine,
// is queued and run by the draining goroutine. Call depth stays bounded
// under long action cascades.
type InlineDispatcher struct {
	mu       sync.Mutex
	queue    Queue[func()]
	draining bool
}

// Dispatch implements Dispatcher.
func (d *InlineDispatcher) Dispatch(work func()) {
	d.mu.Lock()
	d.queue.Enqueue(work)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for {
		next, ok := d.queue.Dequeue()
		if !ok {
			d.draining = false
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		next()
		d.mu.Lock()
	}
}

// ManualDispatcher queues work until the owner steps it. Used to drive a
// store deterministically.
type ManualDispatcher struct {
	mu    sync.Mutex
	queue Queue[func()]
}

// Dispatch implements Dispatcher.
func (d *ManualDispatcher) Dispatch(work func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.Enqueue(work)
}

// Step runs the oldest queued work item. Returns false if none was queued.
func (d *ManualDispatcher) Step() bool {
	d.mu.Lock()
	work, ok := d.queue.Dequeue()
	d.mu.Unlock()
	if !ok {
		return false
	}
	work()
	return true
}

// Len returns the number of queued work items.
func (d *ManualDispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

var (
	_ Dispatcher = (*QueueDispatcher)(nil)
	_ Dispatcher = (*InlineDispatcher)(nil)
	_ Dispatcher = (*ManualDispatcher)(nil)
)

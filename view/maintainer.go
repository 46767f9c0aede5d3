/*
 * Copyright 2022 The FlowSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package view keeps materialized views current. Insert deltas and flush
// barriers travel one ordered channel into the maintainer loop, so a
// barrier is committed only after every delta enqueued before it has been
// folded into the views. Committing the barrier advances the snapshot
// manager's epoch, which is what makes the write visible to later reads.
package view

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/snapshot"
	"github.com/flowsql/flowsql/storage"
	"github.com/flowsql/flowsql/types"
	"github.com/flowsql/flowsql/utils/log"
)

// Flusher commits a write barrier: Flush returns once every write staged at
// or below the epoch is durably visible to reads acquired afterwards.
type Flusher interface {
	Flush(ctx context.Context, epoch types.Epoch) error
}

// ErrMaintainerStopped indicates a flush or delta against a stopped
// maintainer.
var ErrMaintainerStopped = errors.New("view maintainer stopped")

type barrier struct {
	epoch types.Epoch
	done  chan error
}

type message struct {
	delta   *types.Delta
	barrier *barrier
}

// Maintainer is the reference incremental view maintainer. It implements
// worker.DeltaSink on the ingest side and Flusher on the barrier side.
type Maintainer struct {
	store    *storage.Store
	snap     *snapshot.Manager
	views    map[string][]View // source table -> views
	in       chan message
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
}

const maintainerQueueDepth = 64

// NewMaintainer builds a maintainer over the given views and initializes
// their backing tables.
func NewMaintainer(store *storage.Store, snap *snapshot.Manager, views ...View) (m *Maintainer, err error) {
	m = &Maintainer{
		store:  store,
		snap:   snap,
		views:  make(map[string][]View),
		in:     make(chan message, maintainerQueueDepth),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, v := range views {
		if err = v.Init(store); err != nil {
			m = nil
			return
		}
		m.views[v.Source()] = append(m.views[v.Source()], v)
	}
	return
}

// Start runs the maintainer loop.
func (m *Maintainer) Start() {
	go m.run()
}

// Stop terminates the maintainer loop. Pending barriers fail. Repeated
// stops are no-ops.
func (m *Maintainer) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	<-m.doneCh
}

// Ingest hands one base-table delta to the maintainer. Deltas of one writer
// arrive in epoch order; the loop applies them in arrival order.
func (m *Maintainer) Ingest(delta types.Delta) {
	d := delta
	select {
	case m.in <- message{delta: &d}:
	case <-m.stopCh:
	}
}

// Flush implements Flusher. It enqueues a barrier behind all previously
// ingested deltas and blocks until the barrier epoch is committed, the
// context is done, or the maintainer stops.
func (m *Maintainer) Flush(ctx context.Context, epoch types.Epoch) (err error) {
	b := &barrier{epoch: epoch, done: make(chan error, 1)}
	select {
	case m.in <- message{barrier: b}:
	case <-m.stopCh:
		return ErrMaintainerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err = <-b.done:
	case <-m.stopCh:
		err = ErrMaintainerStopped
	case <-ctx.Done():
		err = ctx.Err()
	}
	return
}

func (m *Maintainer) run() {
	defer close(m.doneCh)
	for {
		select {
		case <-m.stopCh:
			return
		case msg := <-m.in:
			if msg.delta != nil {
				m.applyDelta(msg.delta)
			}
			if msg.barrier != nil {
				m.snap.Commit(msg.barrier.epoch)
				msg.barrier.done <- nil
			}
		}
	}
}

func (m *Maintainer) applyDelta(delta *types.Delta) {
	for _, v := range m.views[delta.Table] {
		if err := v.Apply(m.store, *delta); err != nil {
			log.WithFields(log.Fields{
				"view":  v.Name(),
				"table": delta.Table,
				"epoch": delta.Epoch,
			}).WithError(err).Error("apply delta to view failed")
		}
	}
}

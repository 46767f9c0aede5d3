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

// Package worker implements the compute-node runtime: registering task
// fragments, executing the closed operator set against the versioned table
// store, and exposing task output through pull-based sinks.
package worker

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/compute"
	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/storage"
	"github.com/flowsql/flowsql/types"
	"github.com/flowsql/flowsql/utils/log"
)

// sinkChunkBuffer bounds the chunks a task may run ahead of its consumer.
const sinkChunkBuffer = 16

// DeltaSink receives the row batches written by insert tasks, keyed by their
// write epoch. The view maintainer is the production implementation.
type DeltaSink interface {
	Ingest(delta types.Delta)
}

// Runtime is the per-node task execution runtime.
type Runtime struct {
	node      proto.Node
	store     *storage.Store
	deltas    DeltaSink
	clients   *compute.ClientManager
	chunkSize int

	tasks sync.Map // task id string -> struct{}
	sinks sync.Map // sink id string -> *sinkBuffer
}

// NewRuntime returns a runtime bound to one node identity and table store.
// The client manager is used by exchange fragments to pull upstream sinks.
func NewRuntime(node proto.Node, store *storage.Store, deltas DeltaSink,
	clients *compute.ClientManager, chunkSize int) *Runtime {
	return &Runtime{
		node:      node,
		store:     store,
		deltas:    deltas,
		clients:   clients,
		chunkSize: chunkSize,
	}
}

// Node returns the runtime's node identity.
func (r *Runtime) Node() proto.Node {
	return r.node
}

// CreateTask registers a task fragment and starts executing it against the
// request epoch. The returned sink id addresses the task's output.
func (r *Runtime) CreateTask(req *types.CreateTaskRequest) (sinkID proto.SinkID, err error) {
	if req.Fragment == nil {
		err = ErrInvalidFragment
		return
	}
	if _, loaded := r.tasks.LoadOrStore(req.TaskID.String(), struct{}{}); loaded {
		err = ErrTaskExists
		return
	}

	sinkID = proto.SinkID{TaskID: req.TaskID, OutputID: 0}
	sink := newSinkBuffer(sinkChunkBuffer)
	r.sinks.Store(sinkID.String(), sink)

	log.WithFields(log.Fields{
		"task":  req.TaskID,
		"epoch": req.Epoch,
		"plan":  req.Fragment.Kind,
	}).Debug("task created")

	go r.runTask(req, sink)
	return
}

// PullData returns the next output chunk of a sink, blocking while the task
// is still producing. A drained or failed sink is dropped from the registry.
func (r *Runtime) PullData(sinkID proto.SinkID) (c *types.Chunk, eos bool, err error) {
	v, ok := r.sinks.Load(sinkID.String())
	if !ok {
		err = ErrSinkNotExists
		return
	}
	c, eos, err = v.(*sinkBuffer).pull()
	if eos || err != nil {
		r.sinks.Delete(sinkID.String())
		r.tasks.Delete(sinkID.TaskID.String())
	}
	return
}

// AbortTask terminates a task's sink and deregisters the task. The executor
// unblocks on its next emit; no chunk of an aborted task is delivered. The
// task id becomes reusable once the abort returns.
func (r *Runtime) AbortTask(taskID proto.TaskID) {
	sinkID := proto.SinkID{TaskID: taskID, OutputID: 0}
	if v, ok := r.sinks.Load(sinkID.String()); ok {
		v.(*sinkBuffer).finish(ErrTaskAborted)
	}
	r.sinks.Delete(sinkID.String())
	r.tasks.Delete(taskID.String())
}

// SinkCount returns the number of registered sinks, mainly for tests.
func (r *Runtime) SinkCount() (n int) {
	r.sinks.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return
}

func (r *Runtime) runTask(req *types.CreateTaskRequest, sink *sinkBuffer) {
	err := r.execute(req.Fragment, req.Epoch, sink)
	if err != nil && errors.Cause(err) != ErrTaskAborted {
		log.WithFields(log.Fields{"task": req.TaskID}).WithError(err).Error("task failed")
	}
	sink.finish(err)
}

func (r *Runtime) execute(fragment *types.PlanNode, epoch types.Epoch, sink *sinkBuffer) (err error) {
	switch fragment.Kind {
	case types.ScanPlan:
		return r.executeScan(fragment, epoch, sink)
	case types.ValuesPlan:
		return r.executeValues(fragment, sink)
	case types.InsertPlan:
		return r.executeInsert(fragment, epoch, sink)
	case types.ExchangePlan:
		return r.executeExchange(fragment, sink)
	}
	return errors.Wrapf(ErrInvalidFragment, "unhandled plan kind %v", fragment.Kind)
}

// executeScan emits the rows visible at the task epoch, in table order,
// split into chunks of at most chunkSize rows.
func (r *Runtime) executeScan(fragment *types.PlanNode, epoch types.Epoch, sink *sinkBuffer) (err error) {
	table, err := r.store.Table(fragment.Scan.Table)
	if err != nil {
		return
	}
	rows := table.ScanAt(epoch)
	for start := 0; start < len(rows); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err = sink.put(&types.Chunk{
			Columns:   fragment.Scan.Columns,
			DeclTypes: fragment.Scan.DeclTypes,
			Rows:      rows[start:end],
		}); err != nil {
			return
		}
	}
	return
}

func (r *Runtime) executeValues(fragment *types.PlanNode, sink *sinkBuffer) (err error) {
	return sink.put(&types.Chunk{
		Columns:   fragment.Values.Columns,
		DeclTypes: fragment.Values.DeclTypes,
		Rows:      fragment.Values.Rows,
	})
}

// executeInsert evaluates its input rows and appends them to the target
// table. A statement scheduled at snapshot epoch E stages its writes at
// E+1; they stay invisible until the flush barrier commits E+1. The delta
// is handed to the maintainer before the effect chunk is emitted, so a
// flush issued after the result is consumed always trails the delta.
func (r *Runtime) executeInsert(fragment *types.PlanNode, epoch types.Epoch, sink *sinkBuffer) (err error) {
	if len(fragment.Children) != 1 {
		return errors.Wrap(ErrInvalidFragment, "insert requires exactly one input")
	}
	input := fragment.Children[0]
	if input.Kind != types.ValuesPlan {
		return errors.Wrapf(ErrInvalidFragment, "unsupported insert input %v", input.Kind)
	}

	table, err := r.store.Table(fragment.Insert.Table)
	if err != nil {
		return
	}

	writeEpoch := epoch + 1
	count, err := table.Append(writeEpoch, input.Values.Rows)
	if err != nil {
		return
	}

	if r.deltas != nil && table.HasMaterializedView() {
		r.deltas.Ingest(types.Delta{
			Table: fragment.Insert.Table,
			Epoch: writeEpoch,
			Rows:  input.Values.Rows,
		})
	}

	return sink.put(&types.Chunk{
		Columns:   fragment.OutputColumns(),
		DeclTypes: fragment.OutputDeclTypes(),
		Rows:      []types.Row{{Values: []string{strconv.FormatInt(count, 10)}}},
	})
}

// executeExchange drains its upstream sinks in source order and forwards
// the chunks unchanged, preserving chunk boundaries and row order.
func (r *Runtime) executeExchange(fragment *types.PlanNode, sink *sinkBuffer) (err error) {
	for _, source := range fragment.Exchange.Sources {
		client := r.clients.GetOrCreate(source.Node)
		var stream *compute.ChunkStream
		if stream, err = client.GetData(context.Background(), source.SinkID); err != nil {
			return
		}
		for {
			var c *types.Chunk
			if c, err = stream.Next(); err == io.EOF {
				err = nil
				break
			} else if err != nil {
				stream.Close()
				return
			}
			if err = sink.put(c); err != nil {
				stream.Close()
				return
			}
		}
	}
	return
}

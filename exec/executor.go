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

// Package exec drives one statement through its whole lifecycle: lease a
// read epoch, schedule the plan, pull the result stream, assemble the typed
// result, and for view-backed inserts flush the write epoch before
// returning. Every statement runs at exactly one epoch from start to end.
package exec

import (
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/compute"
	"github.com/flowsql/flowsql/scheduler"
	"github.com/flowsql/flowsql/snapshot"
	"github.com/flowsql/flowsql/types"
	"github.com/flowsql/flowsql/utils/log"
	"github.com/flowsql/flowsql/view"
)

// Executor assembles query results from scheduled plans. It is safe for
// concurrent use; every Run call is an independent statement.
type Executor struct {
	snap    *snapshot.Manager
	queries *scheduler.QueryManager
	clients *compute.ClientManager
	flusher view.Flusher
}

// NewExecutor wires an executor over its collaborators. The flusher commits
// write barriers of view-backed inserts; it must outlive the executor.
func NewExecutor(snap *snapshot.Manager, queries *scheduler.QueryManager,
	clients *compute.ClientManager, flusher view.Flusher) *Executor {
	return &Executor{
		snap:    snap,
		queries: queries,
		clients: clients,
		flusher: flusher,
	}
}

// Run executes one compiled plan and returns its typed result. Cancelling
// the context aborts the statement at whatever stage it is in; the snapshot
// lease is released on every exit path.
func (e *Executor) Run(ctx context.Context, plan *types.PlanNode) (result types.Result, err error) {
	stmtType := types.StatementTypeOf(plan)
	state := stateCompiled

	s, err := e.snap.Acquire()
	if err != nil {
		return
	}
	defer s.Release()
	state = stateSnapshotAcquired

	handle, err := e.queries.Schedule(ctx, plan, s.Epoch())
	if err != nil {
		return
	}
	// a failed statement must not leave tasks producing into sinks nobody
	// will ever read; only a clean finish keeps them running to completion
	defer func() {
		if err != nil {
			handle.Cancel()
			return
		}
		handle.Close()
	}()
	state = stateScheduled

	loc, err := handle.Wait(ctx)
	if err != nil {
		return
	}
	state = stateDispatched

	le := log.WithFields(log.Fields{
		"query": handle.QueryID(),
		"epoch": s.Epoch(),
		"type":  stmtType,
	})
	le.Debug("query dispatched")

	state = stateFetching
	chunks, err := e.fetchAll(ctx, loc)
	if err != nil {
		return
	}
	state = stateAssembled

	switch stmtType {
	case types.CommandStatement:
		if result, err = assembleCommand(chunks); err != nil {
			return
		}
	default:
		result = assembleQuery(plan, chunks)
	}

	// a view-backed insert staged its rows at the next epoch; commit that
	// epoch before returning so a follow-up read at latest sees the write
	if spec := viewInsertOf(plan); spec != nil {
		state = stateFlushPending
		if err = e.flusher.Flush(ctx, s.Epoch()+1); err != nil {
			result = nil
			err = errors.Wrapf(ErrFlushFailure, "table %s: %v", spec.Table, err)
			return
		}
	}
	state = stateCompleted

	le.WithField("state", state).Debug("query completed")
	return
}

// fetchAll drains the terminal sink's chunk stream in arrival order.
func (e *Executor) fetchAll(ctx context.Context, loc scheduler.QueryResultLocation) (chunks []*types.Chunk, err error) {
	client := e.clients.GetOrCreate(loc.Node)
	stream, err := client.GetData(ctx, loc.SinkID)
	if err != nil {
		err = errors.Wrapf(ErrFetchFailure, "open sink %s: %v", loc.SinkID, err)
		return
	}
	defer stream.Close()

	for {
		var chunk *types.Chunk
		if chunk, err = stream.Next(); err != nil {
			if err == io.EOF {
				err = nil
				return
			}
			chunks = nil
			err = errors.Wrapf(ErrFetchFailure, "sink %s: %v", loc.SinkID, err)
			return
		}
		chunks = append(chunks, chunk)
	}
}

// assembleCommand decodes the single-cell affected-row count a command
// statement returns.
func assembleCommand(chunks []*types.Chunk) (result *types.CommandResult, err error) {
	for _, chunk := range chunks {
		if len(chunk.Rows) == 0 {
			continue
		}
		row := chunk.Rows[0]
		if len(row.Values) == 0 {
			err = errors.Wrap(ErrDecodeFailure, "empty command result row")
			return
		}
		var n int64
		if n, err = strconv.ParseInt(row.Values[0], 10, 64); err != nil {
			err = errors.Wrapf(ErrDecodeFailure, "affected rows %q: %v", row.Values[0], err)
			return
		}
		result = &types.CommandResult{
			StatementType: types.CommandStatement,
			AffectedRows:  n,
		}
		return
	}
	err = errors.Wrap(ErrDecodeFailure, "command produced no result row")
	return
}

// assembleQuery concatenates fetched chunks into a row-set result, keeping
// sink arrival order.
func assembleQuery(plan *types.PlanNode, chunks []*types.Chunk) *types.QueryResult {
	result := &types.QueryResult{
		StatementType: types.QueryStatement,
		Columns:       plan.OutputColumns(),
		DeclTypes:     plan.OutputDeclTypes(),
	}
	for _, chunk := range chunks {
		result.Rows = append(result.Rows, chunk.Rows...)
	}
	return result
}

// viewInsertOf returns the insert spec of a plan writing a view-backed
// table, or nil for everything else.
func viewInsertOf(node *types.PlanNode) *types.InsertSpec {
	if node.Kind == types.InsertPlan && node.Insert.HasMaterializedView {
		return node.Insert
	}
	for _, c := range node.Children {
		if spec := viewInsertOf(c); spec != nil {
			return spec
		}
	}
	return nil
}

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

// Package scheduler turns a compiled plan plus a fixed epoch into placed,
// dispatched tasks and resolves the terminal sink location the caller pulls
// results from. Stages are dispatched children-first; every task of one
// query runs at the same epoch, and a single sub-task failure fails the
// whole query.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ivpusic/grpool"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/flowsql/flowsql/compute"
	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/types"
	"github.com/flowsql/flowsql/utils/log"
)

const (
	dispatchPoolWorkers = 16
	dispatchPoolQueue   = 64
	abortTimeout        = 2 * time.Second
)

// QueryManager owns scheduling for one frontend: worker list, placement
// policy, task registry and the dispatch pool.
type QueryManager struct {
	workers  *WorkerManager
	policy   Policy
	clients  *compute.ClientManager
	registry *Registry
	pool     *grpool.Pool
	timeout  time.Duration
}

// NewQueryManager returns a manager with its own registry and dispatch
// pool.
func NewQueryManager(workers *WorkerManager, policy Policy,
	clients *compute.ClientManager, timeout time.Duration) *QueryManager {
	return &QueryManager{
		workers:  workers,
		policy:   policy,
		clients:  clients,
		registry: NewRegistry(),
		pool:     grpool.NewPool(dispatchPoolWorkers, dispatchPoolQueue),
		timeout:  timeout,
	}
}

// Registry exposes the task tracking state, mainly for tests.
func (m *QueryManager) Registry() *Registry {
	return m.registry
}

// Close releases the dispatch pool.
func (m *QueryManager) Close() {
	m.pool.Release()
}

// QueryHandle resolves to the query's result location. Cancelling it before
// resolution aborts every dispatched sub-task and drops all tracking state.
type QueryHandle struct {
	queryID string
	mgr     *QueryManager

	cancel    context.CancelFunc
	done      chan struct{}
	loc       QueryResultLocation
	err       error
	closeOnce sync.Once
}

// QueryID returns the query's unique id.
func (h *QueryHandle) QueryID() string {
	return h.queryID
}

// Wait blocks until the result location resolves, scheduling fails, or the
// context is done. A context abort cancels the query.
func (h *QueryHandle) Wait(ctx context.Context) (loc QueryResultLocation, err error) {
	select {
	case <-ctx.Done():
		h.Cancel()
		err = errors.Wrap(ErrQueryCancelled, ctx.Err().Error())
		return
	case <-h.done:
	}
	loc, err = h.loc, h.err
	return
}

// Cancel aborts scheduling and every dispatched sub-task, then drops the
// query's tracking state.
func (h *QueryHandle) Cancel() {
	h.cancel()
	<-h.done
	h.closeOnce.Do(func() {
		h.mgr.abortQuery(h.queryID)
		h.mgr.registry.RemoveQuery(h.queryID)
	})
}

// Close drops the query's tracking state once the caller is done with the
// result location. It does not abort running tasks.
func (h *QueryHandle) Close() {
	h.closeOnce.Do(func() {
		h.mgr.registry.RemoveQuery(h.queryID)
	})
}

// Schedule fragments the plan and dispatches its tasks at the given epoch.
// The returned handle resolves to the terminal sink location. No failure is
// retried here; retry is the caller's policy.
func (m *QueryManager) Schedule(ctx context.Context, plan *types.PlanNode, epoch types.Epoch) (h *QueryHandle, err error) {
	g, err := Fragment(plan)
	if err != nil {
		err = errors.Wrapf(ErrSchedulingFailure, "fragment plan: %v", err)
		return
	}

	queryID := uuid.Must(uuid.NewV4()).String()
	schedCtx, cancel := context.WithTimeout(ctx, m.timeout)
	h = &QueryHandle{
		queryID: queryID,
		mgr:     m,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	log.WithFields(log.Fields{
		"query":  queryID,
		"epoch":  epoch,
		"stages": len(g.Stages),
	}).Debug("scheduling query")

	go func() {
		defer close(h.done)
		defer cancel()
		loc, err := m.runSchedule(schedCtx, queryID, g, epoch)
		if err != nil {
			if schedCtx.Err() == context.DeadlineExceeded {
				err = errors.Wrapf(ErrSchedulingTimeout, "query %s: %v", queryID, err)
			}
			// tasks dispatched before the failure must not keep running
			m.abortQuery(queryID)
			m.registry.RemoveQuery(queryID)
			h.err = err
			return
		}
		h.loc = loc
	}()
	return
}

func (m *QueryManager) runSchedule(ctx context.Context, queryID string,
	g *StageGraph, epoch types.Epoch) (loc QueryResultLocation, err error) {
	assignments := make(map[uint32][]QueryResultLocation)

	for _, stageID := range g.ScheduleOrder() {
		stage := g.Stages[stageID]

		var nodes []proto.Node
		if nodes, err = m.policy.Place(stage, m.workers.List()); err != nil {
			return
		}
		fillExchangeSources(stage.Root, assignments)

		var placed []QueryResultLocation
		if placed, err = m.dispatchStage(ctx, queryID, stage, nodes, epoch); err != nil {
			return
		}
		assignments[stageID] = placed
	}

	// the terminal stage is Single, so exactly one task carries the result
	loc = assignments[g.RootID][0]
	return
}

// dispatchStage fans the stage's task definitions out to their workers
// through the dispatch pool. The first failure cancels the remaining
// dispatches of the stage.
func (m *QueryManager) dispatchStage(ctx context.Context, queryID string, stage *Stage,
	nodes []proto.Node, epoch types.Epoch) (placed []QueryResultLocation, err error) {
	stageCtx, cancelStage := context.WithCancel(ctx)
	defer cancelStage()

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		failure error
	)
	placed = make([]QueryResultLocation, len(nodes))

	for seq, node := range nodes {
		seq, node := seq, node
		taskID := proto.TaskID{QueryID: queryID, StageID: stage.ID, SeqID: uint32(seq)}
		req := &types.CreateTaskRequest{
			TaskID:   taskID,
			Epoch:    epoch,
			Fragment: stage.Root,
		}

		wg.Add(1)
		m.pool.JobQueue <- func() {
			defer wg.Done()
			client := m.clients.GetOrCreate(node)
			resp, err := client.CreateTask(stageCtx, req)
			if err != nil {
				errOnce.Do(func() {
					failure = errors.Wrapf(ErrDispatchFailure,
						"task %s on %s: %v", taskID, node.ID, err)
					cancelStage()
				})
				return
			}
			loc := QueryResultLocation{TaskID: taskID, Node: node, SinkID: resp.SinkID}
			placed[seq] = loc
			m.registry.Register(loc)
		}
	}
	wg.Wait()

	if failure != nil {
		placed = nil
		err = failure
	}
	return
}

// abortQuery terminates every dispatched task of a query, best effort.
func (m *QueryManager) abortQuery(queryID string) {
	locs := m.registry.QueryLocations(queryID)
	if len(locs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	for _, loc := range locs {
		client := m.clients.GetOrCreate(loc.Node)
		if err := client.AbortTask(ctx, loc.TaskID); err != nil {
			log.WithFields(log.Fields{"task": loc.TaskID}).
				WithError(err).Debug("abort task failed")
		}
	}
}

// fillExchangeSources points every exchange operator of a stage at the
// sinks of its already-placed child stage.
func fillExchangeSources(node *types.PlanNode, assignments map[uint32][]QueryResultLocation) {
	if node.Kind == types.ExchangePlan {
		node.Exchange.Sources = node.Exchange.Sources[:0]
		for _, loc := range assignments[node.Exchange.SourceStageID] {
			node.Exchange.Sources = append(node.Exchange.Sources, types.ExchangeSource{
				Node:   loc.Node,
				SinkID: loc.SinkID,
			})
		}
	}
	for _, c := range node.Children {
		fillExchangeSources(c, assignments)
	}
}

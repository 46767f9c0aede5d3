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

package scheduler

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/proto"
)

// Policy selects the worker nodes a stage's tasks run on. Implementations
// must be safe for concurrent use by unrelated queries.
type Policy interface {
	Place(stage *Stage, workers []proto.Node) ([]proto.Node, error)
}

// RoundRobinPolicy places every stage on a single worker, rotating through
// the worker list.
type RoundRobinPolicy struct {
	next uint64
}

// NewRoundRobinPolicy returns a round-robin placement policy.
func NewRoundRobinPolicy() *RoundRobinPolicy {
	return &RoundRobinPolicy{}
}

// Place implements Policy.
func (p *RoundRobinPolicy) Place(stage *Stage, workers []proto.Node) (placed []proto.Node, err error) {
	if len(workers) == 0 {
		err = errors.Wrap(ErrSchedulingFailure, "no worker available")
		return
	}
	n := atomic.AddUint64(&p.next, 1)
	placed = []proto.Node{workers[int(n-1)%len(workers)]}
	return
}

// ScanSpreadPolicy spreads stages that read a table over every worker, so
// each task scans the shard its worker holds, and falls back to round-robin
// for compute-only stages. The terminal fan-in stage always runs as one
// task.
type ScanSpreadPolicy struct {
	rr RoundRobinPolicy
}

// NewScanSpreadPolicy returns the default placement policy.
func NewScanSpreadPolicy() *ScanSpreadPolicy {
	return &ScanSpreadPolicy{}
}

// Place implements Policy.
func (p *ScanSpreadPolicy) Place(stage *Stage, workers []proto.Node) (placed []proto.Node, err error) {
	if len(workers) == 0 {
		err = errors.Wrap(ErrSchedulingFailure, "no worker available")
		return
	}
	if !stage.Single && stage.Root.ContainsScan() {
		placed = append(placed, workers...)
		return
	}
	return p.rr.Place(stage, workers)
}

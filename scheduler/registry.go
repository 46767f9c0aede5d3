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
	"sync"

	"github.com/flowsql/flowsql/proto"
)

// QueryResultLocation identifies where a task's output can be pulled from.
// The location a query resolves to always addresses the terminal sink.
type QueryResultLocation struct {
	TaskID proto.TaskID
	Node   proto.Node
	SinkID proto.SinkID
}

// Registry tracks the locations of dispatched tasks. It is an owned value
// constructed per query manager; unrelated queries never contend on a
// global lock.
type Registry struct {
	locations sync.Map // task id string -> QueryResultLocation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register records one dispatched task location.
func (r *Registry) Register(loc QueryResultLocation) {
	r.locations.Store(loc.TaskID.String(), loc)
}

// Lookup fetches a task location.
func (r *Registry) Lookup(taskID proto.TaskID) (loc QueryResultLocation, ok bool) {
	v, ok := r.locations.Load(taskID.String())
	if ok {
		loc = v.(QueryResultLocation)
	}
	return
}

// QueryLocations returns the registered locations of one query.
func (r *Registry) QueryLocations(queryID string) (locs []QueryResultLocation) {
	r.locations.Range(func(_, v interface{}) bool {
		loc := v.(QueryResultLocation)
		if loc.TaskID.QueryID == queryID {
			locs = append(locs, loc)
		}
		return true
	})
	return
}

// RemoveQuery drops all tracking state of one query.
func (r *Registry) RemoveQuery(queryID string) {
	r.locations.Range(func(k, v interface{}) bool {
		if v.(QueryResultLocation).TaskID.QueryID == queryID {
			r.locations.Delete(k)
		}
		return true
	})
}

// Len returns the tracked task count.
func (r *Registry) Len() (n int) {
	r.locations.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return
}

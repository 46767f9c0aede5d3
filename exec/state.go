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

package exec

// queryState tracks where a statement is in its lifecycle, for logging and
// failure attribution.
type queryState int

const (
	stateCompiled queryState = iota
	stateSnapshotAcquired
	stateScheduled
	stateDispatched
	stateFetching
	stateAssembled
	stateFlushPending
	stateCompleted
	stateFailed
)

func (s queryState) String() string {
	switch s {
	case stateCompiled:
		return "compiled"
	case stateSnapshotAcquired:
		return "snapshot_acquired"
	case stateScheduled:
		return "scheduled"
	case stateDispatched:
		return "dispatched"
	case stateFetching:
		return "fetching"
	case stateAssembled:
		return "assembled"
	case stateFlushPending:
		return "flush_pending"
	case stateCompleted:
		return "completed"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

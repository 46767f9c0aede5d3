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

package types

import "github.com/flowsql/flowsql/proto"

// CreateTaskRequest asks a compute node to register and execute one task
// fragment at a fixed epoch.
type CreateTaskRequest struct {
	TaskID   proto.TaskID `json:"id"`
	Epoch    Epoch        `json:"e"`
	Fragment *PlanNode    `json:"f"`
}

// GetDataRequest pulls the next output chunk of a sink.
type GetDataRequest struct {
	SinkID proto.SinkID `json:"s"`
}

// AbortTaskRequest terminates a dispatched task.
type AbortTaskRequest struct {
	TaskID proto.TaskID `json:"id"`
}

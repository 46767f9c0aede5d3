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

// CreateTaskResponse acknowledges task registration and names the sink the
// task's output can be pulled from.
type CreateTaskResponse struct {
	SinkID proto.SinkID `json:"s"`
}

// GetDataResponse carries one output chunk, or the end-of-stream marker when
// the producing task has emitted everything.
type GetDataResponse struct {
	Chunk       *Chunk `json:"c,omitempty"`
	EndOfStream bool   `json:"eos"`
}

// AbortTaskResponse acknowledges a task abort.
type AbortTaskResponse struct {
}

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

package worker

import (
	"github.com/flowsql/flowsql/types"
)

// ServiceName is the RPC service name the runtime registers under.
const ServiceName = "Worker"

// Service exposes the runtime over RPC as "Worker.CreateTask" and
// "Worker.GetData".
type Service struct {
	runtime *Runtime
}

// NewService returns the RPC service wrapper of a runtime.
func NewService(runtime *Runtime) *Service {
	return &Service{runtime: runtime}
}

// CreateTask registers a task fragment for asynchronous execution.
func (s *Service) CreateTask(req *types.CreateTaskRequest, resp *types.CreateTaskResponse) (err error) {
	sinkID, err := s.runtime.CreateTask(req)
	if err != nil {
		return
	}
	resp.SinkID = sinkID
	return
}

// GetData pulls the next output chunk of a sink. It blocks while the
// producing task is still running and returns the end-of-stream marker once
// the sink is drained.
func (s *Service) GetData(req *types.GetDataRequest, resp *types.GetDataResponse) (err error) {
	c, eos, err := s.runtime.PullData(req.SinkID)
	if err != nil {
		return
	}
	resp.Chunk = c
	resp.EndOfStream = eos
	return
}

// AbortTask terminates a dispatched task on query cancellation.
func (s *Service) AbortTask(req *types.AbortTaskRequest, resp *types.AbortTaskResponse) (err error) {
	s.runtime.AbortTask(req.TaskID)
	return
}

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

// Package proto defines node identities and task/sink addressing shared
// between the frontend core and compute nodes.
package proto

import "fmt"

// NodeID defines the unique identifier of a compute node.
type NodeID string

// Node defines a compute node endpoint.
type Node struct {
	ID   NodeID `json:"i" yaml:"ID"`
	Addr string `json:"a" yaml:"Addr"`
}

// TaskID identifies one worker-bound unit of a distributed query plan.
type TaskID struct {
	QueryID string `json:"q"`
	StageID uint32 `json:"s"`
	SeqID   uint32 `json:"t"`
}

func (id TaskID) String() string {
	return fmt.Sprintf("%s.%d.%d", id.QueryID, id.StageID, id.SeqID)
}

// SinkID identifies one output endpoint of a task from which result chunks
// can be pulled.
type SinkID struct {
	TaskID   TaskID `json:"t"`
	OutputID uint32 `json:"o"`
}

func (id SinkID) String() string {
	return fmt.Sprintf("%s#%d", id.TaskID, id.OutputID)
}

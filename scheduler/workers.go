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

// WorkerManager tracks the live compute nodes available for placement.
type WorkerManager struct {
	mu    sync.RWMutex
	nodes []proto.Node
}

// NewWorkerManager returns a manager seeded with the given nodes.
func NewWorkerManager(nodes ...proto.Node) *WorkerManager {
	return &WorkerManager{
		nodes: append([]proto.Node(nil), nodes...),
	}
}

// List returns a copy of the live node list.
func (m *WorkerManager) List() []proto.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]proto.Node(nil), m.nodes...)
}

// Add registers a node.
func (m *WorkerManager) Add(node proto.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = append(m.nodes, node)
}

// Remove drops a node by id.
func (m *WorkerManager) Remove(id proto.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.nodes[:0]
	for _, n := range m.nodes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	m.nodes = kept
}

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

package compute

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/rpc"
)

const clientCacheSize = 128

// ClientManager hands out per-node clients and owns the two pieces of shared
// state of the fetch path: the client cache and the sink-reader occupancy
// registry. Construct one per process component; nothing here is global.
type ClientManager struct {
	caller      *rpc.Caller
	clients     *lru.Cache
	occupancy   sync.Map // sink id string -> struct{}
	fetchBuffer int
}

// NewClientManager returns a manager whose streams buffer up to fetchBuffer
// chunks at the transport before backpressure applies.
func NewClientManager(fetchBuffer int) *ClientManager {
	cache, _ := lru.New(clientCacheSize)
	return &ClientManager{
		caller:      rpc.NewCaller(),
		clients:     cache,
		fetchBuffer: fetchBuffer,
	}
}

// GetOrCreate returns the cached client of a node, creating it on first use.
func (m *ClientManager) GetOrCreate(node proto.Node) (client *Client) {
	if cached, ok := m.clients.Get(node.ID); ok {
		return cached.(*Client)
	}
	client = &Client{node: node, mgr: m}
	m.clients.Add(node.ID, client)
	return
}

// Close releases the pooled transport sessions.
func (m *ClientManager) Close() {
	m.caller.Close()
}

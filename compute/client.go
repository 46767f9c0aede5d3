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

// Package compute provides the point-to-point client abstraction to one
// compute node: task creation and chunk-by-chunk retrieval of a task's
// output sink.
package compute

import (
	"context"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/types"
)

// Client talks to exactly one compute node.
type Client struct {
	node proto.Node
	mgr  *ClientManager
}

// Node returns the remote node this client is bound to.
func (c *Client) Node() proto.Node {
	return c.node
}

// CreateTask registers a task fragment on the remote node for asynchronous
// execution at a fixed epoch.
func (c *Client) CreateTask(ctx context.Context, req *types.CreateTaskRequest) (resp *types.CreateTaskResponse, err error) {
	resp = &types.CreateTaskResponse{}
	if err = c.mgr.caller.CallNodeWithContext(ctx, c.node, "Worker.CreateTask", req, resp); err != nil {
		resp = nil
		err = errors.Wrapf(ErrRPCFailure, "create task %s on %s: %v", req.TaskID, c.node.ID, err)
	}
	return
}

// AbortTask terminates a dispatched task on the remote node.
func (c *Client) AbortTask(ctx context.Context, taskID proto.TaskID) (err error) {
	req := &types.AbortTaskRequest{TaskID: taskID}
	resp := &types.AbortTaskResponse{}
	if err = c.mgr.caller.CallNodeWithContext(ctx, c.node, "Worker.AbortTask", req, resp); err != nil {
		err = errors.Wrapf(ErrRPCFailure, "abort task %s on %s: %v", taskID, c.node.ID, err)
	}
	return
}

// GetData opens the single streaming read of a sink. The second concurrent
// call for the same sink id fails with ErrSinkBusy until the first stream
// is closed or drained.
func (c *Client) GetData(ctx context.Context, sinkID proto.SinkID) (stream *ChunkStream, err error) {
	key := sinkID.String()
	if _, loaded := c.mgr.occupancy.LoadOrStore(key, struct{}{}); loaded {
		err = errors.Wrapf(ErrSinkBusy, "sink %s", key)
		return
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream = newChunkStream(c.mgr.fetchBuffer, cancel, func() {
		c.mgr.occupancy.Delete(key)
	})
	go stream.pullLoop(streamCtx, c.mgr.caller, c.node, sinkID)
	return
}

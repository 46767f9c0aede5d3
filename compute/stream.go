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
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/rpc"
	"github.com/flowsql/flowsql/types"
)

// ChunkStream is the lazy, finite chunk sequence of one sink. A background
// puller fills a bounded channel, so transport backpressure applies even
// when the consumer materializes everything. The stream terminates on the
// producer's end-of-stream marker, a transport failure, or cancellation.
type ChunkStream struct {
	ch     chan *types.Chunk
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool

	releaseOnce sync.Once
	release     func()
}

func newChunkStream(buffer int, cancel context.CancelFunc, release func()) *ChunkStream {
	return &ChunkStream{
		ch:      make(chan *types.Chunk, buffer),
		cancel:  cancel,
		release: release,
	}
}

func (s *ChunkStream) pullLoop(ctx context.Context, caller *rpc.Caller, node proto.Node, sinkID proto.SinkID) {
	defer func() {
		close(s.ch)
		s.releaseOnce.Do(s.release)
	}()

	for {
		req := &types.GetDataRequest{SinkID: sinkID}
		resp := &types.GetDataResponse{}
		if err := caller.CallNodeWithContext(ctx, node, "Worker.GetData", req, resp); err != nil {
			if ctx.Err() != nil {
				s.setErr(ctx.Err())
			} else {
				s.setErr(errors.Wrapf(ErrRPCFailure, "pull sink %s from %s: %v", sinkID, node.ID, err))
			}
			return
		}
		if resp.EndOfStream {
			return
		}
		if resp.Chunk == nil {
			// a frame carries either a chunk or the end marker
			s.setErr(errors.Wrapf(ErrRPCFailure, "empty frame from sink %s", sinkID))
			return
		}
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		case s.ch <- resp.Chunk:
		}
	}
}

func (s *ChunkStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Next returns the next chunk in producer order. It returns io.EOF on a
// clean end of stream and the recorded failure otherwise. After Close it
// returns ErrStreamClosed immediately, buffered chunks included.
func (s *ChunkStream) Next() (c *types.Chunk, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStreamClosed
	}
	s.mu.Unlock()

	c, ok := <-s.ch
	if ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

// Close cancels the puller and releases the sink reader slot. No chunk is
// delivered after Close returns.
func (s *ChunkStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.releaseOnce.Do(s.release)
}

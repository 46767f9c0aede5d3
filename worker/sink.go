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
	"sync"

	"github.com/flowsql/flowsql/types"
)

// sinkBuffer is the output endpoint of one task. The executing goroutine
// pushes chunks in emission order; GetData pulls drain them in the same
// order. The channel bound applies output backpressure to the executor.
// finish is idempotent, so an abort racing the task's own completion is
// safe.
type sinkBuffer struct {
	ch   chan *types.Chunk
	done chan struct{}
	once sync.Once
	err  error // set before done closes, nil on clean end
}

func newSinkBuffer(buffer int) *sinkBuffer {
	return &sinkBuffer{
		ch:   make(chan *types.Chunk, buffer),
		done: make(chan struct{}),
	}
}

// put appends one chunk, blocking while the buffer is full. It fails once
// the sink has been finished, unblocking an executor whose reader is gone.
func (b *sinkBuffer) put(c *types.Chunk) (err error) {
	select {
	case b.ch <- c:
	case <-b.done:
		err = ErrTaskAborted
	}
	return
}

// finish terminates the stream, cleanly when err is nil. Only the first
// call takes effect.
func (b *sinkBuffer) finish(err error) {
	b.once.Do(func() {
		b.err = err
		close(b.done)
	})
}

// pull returns the next chunk, the end-of-stream marker, or the recorded
// task failure. Chunks buffered before a clean finish are drained first.
func (b *sinkBuffer) pull() (c *types.Chunk, eos bool, err error) {
	select {
	case c = <-b.ch:
		return
	case <-b.done:
		// prefer chunks that were buffered before the finish
		select {
		case c = <-b.ch:
			return
		default:
		}
		if b.err != nil {
			err = b.err
			return
		}
		eos = true
		return
	}
}

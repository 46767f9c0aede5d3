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

package rpc

import (
	"context"
	"expvar"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"time"

	"github.com/pkg/errors"
	mw "github.com/zserge/metric"

	"github.com/flowsql/flowsql/proto"
)

var (
	callRPCExpvarLock sync.Mutex
)

func recordRPCCost(startTime time.Time, method string, err error) {
	var (
		name, nameC string
		val, valC   expvar.Var
	)
	costTime := time.Since(startTime)
	if err == nil {
		name = "t_succ:" + method
		nameC = "c_succ:" + method
	} else {
		name = "t_fail:" + method
		nameC = "c_fail:" + method
	}
	// Optimistically, val will not be nil except the first call of method.
	// expvar uses sync.Map underneath, so try it first without lock.
	val = expvar.Get(name)
	valC = expvar.Get(nameC)
	if val == nil || valC == nil {
		callRPCExpvarLock.Lock()
		val = expvar.Get(name)
		if val == nil {
			expvar.Publish(name, mw.NewHistogram("10s1s", "1m5s", "1h1m"))
			expvar.Publish(nameC, mw.NewCounter("10s1s", "1h1m"))
		}
		callRPCExpvarLock.Unlock()
		val = expvar.Get(name)
		valC = expvar.Get(nameC)
	}
	val.(mw.Metric).Add(costTime.Seconds())
	valC.(mw.Metric).Add(1)
}

// Caller wraps session pooling and RPC calling to compute nodes.
type Caller struct {
	pool *SessionPool
}

// NewCaller returns a caller backed by its own session pool.
func NewCaller() *Caller {
	return &Caller{
		pool: NewSessionPool(),
	}
}

// CallNode invokes the named method on a node and waits for completion.
func (c *Caller) CallNode(node proto.Node, method string, args, reply interface{}) (err error) {
	return c.CallNodeWithContext(context.Background(), node, method, args, reply)
}

// CallNodeWithContext invokes the named method on a node, honoring context
// cancellation. The in-flight net/rpc call itself cannot be aborted; on
// cancellation the stream is closed and the reply discarded.
func (c *Caller) CallNodeWithContext(
	ctx context.Context, node proto.Node, method string, args, reply interface{}) (err error) {
	startTime := time.Now()
	defer func() {
		recordRPCCost(startTime, method, err)
	}()

	conn, err := c.pool.Get(node.Addr)
	if err != nil {
		err = errors.Wrapf(err, "dial to node %s failed", node.ID)
		return
	}

	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	defer client.Close()

	ch := client.Go(method, args, reply, make(chan *rpc.Call, 1))

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case call := <-ch.Done:
		err = call.Error
	}

	return
}

// Close releases the caller's pooled sessions.
func (c *Caller) Close() {
	c.pool.Close()
}

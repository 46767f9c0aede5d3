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
	"net"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowsql/flowsql/proto"
)

// nothing listens on this address, so every pull fails at dial time
var deadNode = proto.Node{ID: "dead", Addr: "127.0.0.1:1"}

func testSinkID() proto.SinkID {
	return proto.SinkID{
		TaskID: proto.TaskID{QueryID: "q", StageID: 0, SeqID: 0},
	}
}

func TestClientManager(t *testing.T) {
	Convey("Given a client manager", t, func() {
		mgr := NewClientManager(4)
		defer mgr.Close()

		Convey("clients are cached per node", func() {
			c1 := mgr.GetOrCreate(deadNode)
			c2 := mgr.GetOrCreate(deadNode)
			So(c1, ShouldEqual, c2)
			So(c1.Node(), ShouldResemble, deadNode)
		})
	})
}

func TestChunkStream(t *testing.T) {
	Convey("Given a client against an unreachable node", t, func() {
		defer leaktest.Check(t)()

		mgr := NewClientManager(4)
		defer mgr.Close()
		client := mgr.GetOrCreate(deadNode)

		Convey("a broken transport surfaces as a stream failure", func() {
			stream, err := client.GetData(context.Background(), testSinkID())
			So(err, ShouldBeNil)
			defer stream.Close()

			_, err = stream.Next()
			So(errors.Cause(err), ShouldEqual, ErrRPCFailure)
		})

		Convey("reads after close fail with the closed error", func() {
			stream, err := client.GetData(context.Background(), testSinkID())
			So(err, ShouldBeNil)
			stream.Close()
			_, err = stream.Next()
			So(err, ShouldEqual, ErrStreamClosed)
		})
	})
}

func TestSinkOccupancy(t *testing.T) {
	Convey("Given a node that accepts but never answers", t, func() {
		defer leaktest.Check(t)()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		defer l.Close()
		go func() {
			for {
				conn, err := l.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
			}
		}()
		silent := proto.Node{ID: "silent", Addr: l.Addr().String()}

		mgr := NewClientManager(4)
		defer mgr.Close()
		client := mgr.GetOrCreate(silent)

		Convey("a sink supports exactly one concurrent reader", func() {
			stream, err := client.GetData(context.Background(), testSinkID())
			So(err, ShouldBeNil)

			_, err = client.GetData(context.Background(), testSinkID())
			So(errors.Cause(err), ShouldEqual, ErrSinkBusy)

			Convey("and the slot frees on close", func() {
				stream.Close()
				retry, err := client.GetData(context.Background(), testSinkID())
				So(err, ShouldBeNil)
				retry.Close()
			})
		})
	})
}

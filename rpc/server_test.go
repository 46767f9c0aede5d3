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
	"sync"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowsql/flowsql/proto"
)

type EchoService struct{}

type EchoReq struct {
	Msg string
}

type EchoResp struct {
	Msg string
}

func (s *EchoService) Echo(req *EchoReq, resp *EchoResp) error {
	if req.Msg == "boom" {
		return errors.New("refused")
	}
	resp.Msg = req.Msg
	return nil
}

func startEchoServer(t *testing.T) (*Server, proto.Node) {
	server, err := NewServerWithService(ServiceMap{"Echo": &EchoService{}})
	if err != nil {
		t.Fatal(err)
	}
	if err = server.InitRPCServer("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	go server.Serve()
	return server, proto.Node{ID: "echo", Addr: server.Listener.Addr().String()}
}

func TestCaller(t *testing.T) {
	Convey("Given an echo server and a caller", t, func() {
		server, node := startEchoServer(t)
		defer server.Stop()
		caller := NewCaller()
		defer caller.Close()

		Convey("calls round-trip over one pooled session", func() {
			for i := 0; i < 3; i++ {
				resp := &EchoResp{}
				err := caller.CallNode(node, "Echo.Echo", &EchoReq{Msg: "hello"}, resp)
				So(err, ShouldBeNil)
				So(resp.Msg, ShouldEqual, "hello")
			}
		})

		Convey("concurrent calls multiplex on the session", func() {
			const n = 16
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					resp := &EchoResp{}
					errs[i] = caller.CallNode(node, "Echo.Echo", &EchoReq{Msg: "m"}, resp)
				}(i)
			}
			wg.Wait()
			for i := 0; i < n; i++ {
				So(errs[i], ShouldBeNil)
			}
		})

		Convey("remote errors propagate", func() {
			err := caller.CallNode(node, "Echo.Echo", &EchoReq{Msg: "boom"}, &EchoResp{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "refused")
		})

		Convey("a cancelled context aborts the wait", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := caller.CallNodeWithContext(ctx, node, "Echo.Echo", &EchoReq{Msg: "m"}, &EchoResp{})
			So(err, ShouldEqual, context.Canceled)
		})

		Convey("an unreachable node fails at dial", func() {
			err := caller.CallNode(proto.Node{ID: "dead", Addr: "127.0.0.1:1"},
				"Echo.Echo", &EchoReq{}, &EchoResp{})
			So(err, ShouldNotBeNil)
		})
	})
}

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

// Package rpc provides the yamux-multiplexed net/rpc transport between the
// frontend core and compute nodes.
package rpc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/hashicorp/yamux"

	"github.com/flowsql/flowsql/utils/log"
)

// ServiceMap maps service name to service instance.
type ServiceMap map[string]interface{}

// Server is the node-side RPC server. Each inbound connection carries one
// yamux session; each accepted stream serves one rpc codec.
type Server struct {
	rpcServer  *rpc.Server
	stopCh     chan struct{}
	serviceMap ServiceMap
	Listener   net.Listener
}

// NewServer returns a new Server.
func NewServer() *Server {
	return &Server{
		rpcServer:  rpc.NewServer(),
		stopCh:     make(chan struct{}),
		serviceMap: make(ServiceMap),
	}
}

// NewServerWithService returns a new Server with services registered.
func NewServerWithService(serviceMap ServiceMap) (server *Server, err error) {
	server = NewServer()
	for name, service := range serviceMap {
		if err = server.RegisterService(name, service); err != nil {
			return nil, err
		}
	}
	return server, nil
}

// InitRPCServer binds the server to a listen address.
func (s *Server) InitRPCServer(addr string) (err error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return
	}
	s.Listener = l
	return
}

// RegisterService registers a service instance under a service name.
func (s *Server) RegisterService(name string, service interface{}) error {
	return s.rpcServer.RegisterName(name, service)
}

// Serve runs the server accept loop until Stop is called.
func (s *Server) Serve() {
serverLoop:
	for {
		select {
		case <-s.stopCh:
			log.Info("stopping server loop")
			break serverLoop
		default:
			conn, err := s.Listener.Accept()
			if err != nil {
				select {
				case <-s.stopCh:
					break serverLoop
				default:
				}
				log.WithError(err).Debug("accept connection failed")
				continue
			}
			go s.handleConn(conn)
		}
	}
}

// handleConn runs a yamux session over one inbound connection and serves
// every stream opened on it.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess, err := yamux.Server(conn, nil)
	if err != nil {
		log.WithError(err).Error("init yamux server session failed")
		return
	}

	for {
		muxConn, err := sess.AcceptStream()
		if err != nil {
			log.WithError(err).Debugf("%s closed session", conn.RemoteAddr())
			return
		}
		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(muxConn))
	}
}

// Stop stops the server main loop and closes the listener.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.Listener != nil {
		s.Listener.Close()
	}
}

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
	"net"
	"sync"

	"github.com/hashicorp/yamux"
	"github.com/pkg/errors"
)

// SessionPool caches one yamux session per remote address and hands out
// streams on it. Streams are cheap; sessions carry the TCP dial cost.
type SessionPool struct {
	mu       sync.Mutex
	sessions map[string]*yamux.Session
}

// NewSessionPool returns an empty session pool.
func NewSessionPool() *SessionPool {
	return &SessionPool{
		sessions: make(map[string]*yamux.Session),
	}
}

// Get opens a stream to the remote address, dialing a fresh session when
// none is cached or the cached one has gone away.
func (p *SessionPool) Get(addr string) (conn net.Conn, err error) {
	p.mu.Lock()
	sess, ok := p.sessions[addr]
	p.mu.Unlock()

	if ok && !sess.IsClosed() {
		if conn, err = sess.Open(); err == nil {
			return
		}
		// session broken, fall through to redial
	}

	raw, err := net.Dial("tcp", addr)
	if err != nil {
		err = errors.Wrapf(err, "dial %s failed", addr)
		return
	}
	if sess, err = yamux.Client(raw, nil); err != nil {
		raw.Close()
		err = errors.Wrapf(err, "init yamux client session to %s failed", addr)
		return
	}

	p.mu.Lock()
	if old, ok := p.sessions[addr]; ok && !old.IsClosed() {
		// lost the race, keep the existing session
		p.mu.Unlock()
		sess.Close()
		sess = old
	} else {
		p.sessions[addr] = sess
		p.mu.Unlock()
	}

	if conn, err = sess.Open(); err != nil {
		err = errors.Wrapf(err, "open stream to %s failed", addr)
	}
	return
}

// Close closes all pooled sessions.
func (p *SessionPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sess := range p.sessions {
		sess.Close()
	}
	p.sessions = make(map[string]*yamux.Session)
}

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

// Package snapshot issues and leases read epochs. Every query holds exactly
// one scoped snapshot for its lifetime; leases are reference-counted per
// epoch so the backing versioned state is not reclaimed while any query at
// that epoch is still running.
package snapshot

import (
	"sync"

	"github.com/flowsql/flowsql/types"
)

// Manager owns the committed-epoch clock and the per-epoch lease counts.
type Manager struct {
	mu        sync.Mutex
	committed types.Epoch
	hasCommit bool
	leases    map[types.Epoch]int
}

// NewManager returns a manager with no committed epoch. Acquire fails until
// the first Commit.
func NewManager() *Manager {
	return &Manager{
		leases: make(map[types.Epoch]int),
	}
}

// Commit advances the committed epoch. Epochs never move backwards; a stale
// commit is a no-op.
func (m *Manager) Commit(epoch types.Epoch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasCommit && epoch <= m.committed {
		return
	}
	m.committed = epoch
	m.hasCommit = true
}

// CurrentEpoch returns the latest committed epoch without taking a lease.
func (m *Manager) CurrentEpoch() (epoch types.Epoch, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCommit {
		err = ErrSnapshotUnavailable
		return
	}
	epoch = m.committed
	return
}

// Acquire leases the latest committed epoch and returns the scoped handle.
// The handle is the only way to release the lease, and releasing it more
// than once is a no-op by construction.
func (m *Manager) Acquire() (s *ScopedSnapshot, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCommit {
		err = ErrSnapshotUnavailable
		return
	}
	m.leases[m.committed]++
	s = &ScopedSnapshot{
		epoch: m.committed,
		mgr:   m,
	}
	return
}

// LeaseCount returns the outstanding lease count of an epoch.
func (m *Manager) LeaseCount(epoch types.Epoch) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leases[epoch]
}

func (m *Manager) release(epoch types.Epoch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.leases[epoch]; c > 1 {
		m.leases[epoch] = c - 1
	} else {
		delete(m.leases, epoch)
	}
}

// ScopedSnapshot is a leased handle on one read epoch. Callers defer
// Release right after Acquire so the lease is returned on every exit path.
type ScopedSnapshot struct {
	epoch types.Epoch
	mgr   *Manager
	once  sync.Once
}

// Epoch returns the leased epoch.
func (s *ScopedSnapshot) Epoch() types.Epoch {
	return s.epoch
}

// Release returns the lease. Subsequent calls are no-ops, so a deferred
// Release combined with an explicit early one cannot double-free.
func (s *ScopedSnapshot) Release() {
	s.once.Do(func() {
		s.mgr.release(s.epoch)
	})
}

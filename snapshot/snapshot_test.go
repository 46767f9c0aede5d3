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

package snapshot

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowsql/flowsql/types"
)

func TestManager(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := NewManager()

		Convey("Acquire fails before the first commit", func() {
			s, err := m.Acquire()
			So(s, ShouldBeNil)
			So(err, ShouldEqual, ErrSnapshotUnavailable)
			_, err = m.CurrentEpoch()
			So(err, ShouldEqual, ErrSnapshotUnavailable)
		})

		Convey("Commit makes the epoch acquirable", func() {
			m.Commit(3)
			epoch, err := m.CurrentEpoch()
			So(err, ShouldBeNil)
			So(epoch, ShouldEqual, types.Epoch(3))

			s, err := m.Acquire()
			So(err, ShouldBeNil)
			So(s.Epoch(), ShouldEqual, types.Epoch(3))
			So(m.LeaseCount(3), ShouldEqual, 1)

			s.Release()
			So(m.LeaseCount(3), ShouldEqual, 0)
		})

		Convey("The epoch never moves backwards", func() {
			m.Commit(5)
			m.Commit(2)
			epoch, err := m.CurrentEpoch()
			So(err, ShouldBeNil)
			So(epoch, ShouldEqual, types.Epoch(5))
		})

		Convey("Commit of epoch zero counts as a commit", func() {
			m.Commit(0)
			s, err := m.Acquire()
			So(err, ShouldBeNil)
			So(s.Epoch(), ShouldEqual, types.Epoch(0))
			s.Release()
		})

		Convey("Releasing twice returns the lease once", func() {
			m.Commit(1)
			s1, err := m.Acquire()
			So(err, ShouldBeNil)
			s2, err := m.Acquire()
			So(err, ShouldBeNil)
			So(m.LeaseCount(1), ShouldEqual, 2)

			s1.Release()
			s1.Release()
			So(m.LeaseCount(1), ShouldEqual, 1)
			s2.Release()
			So(m.LeaseCount(1), ShouldEqual, 0)
		})

		Convey("Concurrent acquires with no commit in between see one epoch", func() {
			m.Commit(7)
			const n = 32
			var wg sync.WaitGroup
			epochs := make([]types.Epoch, n)
			snaps := make([]*ScopedSnapshot, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					s, err := m.Acquire()
					if err != nil {
						t.Error(err)
						return
					}
					epochs[i] = s.Epoch()
					snaps[i] = s
				}(i)
			}
			wg.Wait()

			for i := 0; i < n; i++ {
				So(epochs[i], ShouldEqual, types.Epoch(7))
			}
			So(m.LeaseCount(7), ShouldEqual, n)
			for i := 0; i < n; i++ {
				snaps[i].Release()
			}
			So(m.LeaseCount(7), ShouldEqual, 0)
		})

		Convey("A commit after acquire does not move a held lease", func() {
			m.Commit(1)
			s, err := m.Acquire()
			So(err, ShouldBeNil)
			m.Commit(2)
			So(s.Epoch(), ShouldEqual, types.Epoch(1))
			So(m.LeaseCount(1), ShouldEqual, 1)
			s.Release()
		})
	})
}

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

package scheduler

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/types"
)

var testWorkers = []proto.Node{
	{ID: "w0", Addr: "127.0.0.1:7100"},
	{ID: "w1", Addr: "127.0.0.1:7101"},
	{ID: "w2", Addr: "127.0.0.1:7102"},
}

func TestRoundRobinPolicy(t *testing.T) {
	Convey("Given a round-robin policy", t, func() {
		p := NewRoundRobinPolicy()
		stage := &Stage{Root: scanPlan()}

		Convey("placement rotates through the worker list", func() {
			seen := make(map[proto.NodeID]int)
			for i := 0; i < 6; i++ {
				placed, err := p.Place(stage, testWorkers)
				So(err, ShouldBeNil)
				So(placed, ShouldHaveLength, 1)
				seen[placed[0].ID]++
			}
			So(seen, ShouldHaveLength, 3)
			for _, n := range seen {
				So(n, ShouldEqual, 2)
			}
		})

		Convey("an empty worker list fails", func() {
			_, err := p.Place(stage, nil)
			So(errors.Cause(err), ShouldEqual, ErrSchedulingFailure)
		})
	})
}

func TestScanSpreadPolicy(t *testing.T) {
	Convey("Given the scan-spread policy", t, func() {
		p := NewScanSpreadPolicy()

		Convey("a non-terminal scan stage spreads over every worker", func() {
			stage := &Stage{Root: scanPlan()}
			placed, err := p.Place(stage, testWorkers)
			So(err, ShouldBeNil)
			So(placed, ShouldResemble, testWorkers)
		})

		Convey("the terminal stage runs as one task even when it scans", func() {
			stage := &Stage{Root: scanPlan(), Single: true}
			placed, err := p.Place(stage, testWorkers)
			So(err, ShouldBeNil)
			So(placed, ShouldHaveLength, 1)
		})

		Convey("a compute-only stage falls back to round-robin", func() {
			stage := &Stage{Root: types.NewValues([]string{"a"}, []string{"text"}, nil)}
			placed, err := p.Place(stage, testWorkers)
			So(err, ShouldBeNil)
			So(placed, ShouldHaveLength, 1)
		})

		Convey("an empty worker list fails", func() {
			_, err := p.Place(&Stage{Root: scanPlan()}, nil)
			So(errors.Cause(err), ShouldEqual, ErrSchedulingFailure)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry with two queries", t, func() {
		r := NewRegistry()
		locA0 := QueryResultLocation{
			TaskID: proto.TaskID{QueryID: "qa", StageID: 0, SeqID: 0},
			Node:   testWorkers[0],
			SinkID: proto.SinkID{TaskID: proto.TaskID{QueryID: "qa"}},
		}
		locA1 := QueryResultLocation{
			TaskID: proto.TaskID{QueryID: "qa", StageID: 1, SeqID: 0},
			Node:   testWorkers[1],
		}
		locB := QueryResultLocation{
			TaskID: proto.TaskID{QueryID: "qb", StageID: 0, SeqID: 0},
			Node:   testWorkers[2],
		}
		r.Register(locA0)
		r.Register(locA1)
		r.Register(locB)
		So(r.Len(), ShouldEqual, 3)

		Convey("Lookup finds a registered task", func() {
			got, ok := r.Lookup(locA0.TaskID)
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, locA0)
		})

		Convey("QueryLocations scopes to one query", func() {
			So(r.QueryLocations("qa"), ShouldHaveLength, 2)
			So(r.QueryLocations("qb"), ShouldHaveLength, 1)
			So(r.QueryLocations("qc"), ShouldBeEmpty)
		})

		Convey("RemoveQuery drops only that query's state", func() {
			r.RemoveQuery("qa")
			So(r.Len(), ShouldEqual, 1)
			_, ok := r.Lookup(locA0.TaskID)
			So(ok, ShouldBeFalse)
			_, ok = r.Lookup(locB.TaskID)
			So(ok, ShouldBeTrue)
		})
	})
}

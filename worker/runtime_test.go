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
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/storage"
	"github.com/flowsql/flowsql/types"
)

type deltaRecorder struct {
	mu     sync.Mutex
	deltas []types.Delta
}

func (r *deltaRecorder) Ingest(delta types.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, delta)
}

func (r *deltaRecorder) all() []types.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Delta(nil), r.deltas...)
}

func row(values ...string) types.Row {
	return types.Row{Values: values}
}

func taskID(query string, stage, seq uint32) proto.TaskID {
	return proto.TaskID{QueryID: query, StageID: stage, SeqID: seq}
}

// drain pulls a sink until end of stream or failure.
func drain(r *Runtime, sinkID proto.SinkID) (rows []types.Row, err error) {
	for {
		c, eos, err := r.PullData(sinkID)
		if err != nil {
			return rows, err
		}
		if eos {
			return rows, nil
		}
		rows = append(rows, c.Rows...)
	}
}

func newTestRuntime(chunkSize int) (*Runtime, *storage.Store, *deltaRecorder) {
	store := storage.NewStore()
	rec := &deltaRecorder{}
	node := proto.Node{ID: "w0", Addr: "127.0.0.1:7200"}
	return NewRuntime(node, store, rec, nil, chunkSize), store, rec
}

func TestRuntimeScan(t *testing.T) {
	Convey("Given a runtime over a populated table", t, func() {
		r, store, _ := newTestRuntime(2)
		tb, err := store.CreateTable("t", []string{"a"}, []string{"text"}, false)
		So(err, ShouldBeNil)
		_, err = tb.Append(1, []types.Row{row("x"), row("y"), row("z")})
		So(err, ShouldBeNil)
		_, err = tb.Append(2, []types.Row{row("late")})
		So(err, ShouldBeNil)

		Convey("a scan task emits the rows visible at its epoch, chunked", func() {
			sinkID, err := r.CreateTask(&types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    1,
				Fragment: types.NewScan("t", []string{"a"}, []string{"text"}),
			})
			So(err, ShouldBeNil)

			rows, err := drain(r, sinkID)
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []types.Row{row("x"), row("y"), row("z")})
		})

		Convey("a drained sink is deregistered", func() {
			sinkID, err := r.CreateTask(&types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    1,
				Fragment: types.NewScan("t", []string{"a"}, []string{"text"}),
			})
			So(err, ShouldBeNil)
			_, err = drain(r, sinkID)
			So(err, ShouldBeNil)
			_, _, err = r.PullData(sinkID)
			So(err, ShouldEqual, ErrSinkNotExists)
		})

		Convey("duplicate task ids are rejected", func() {
			req := &types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    1,
				Fragment: types.NewScan("t", []string{"a"}, []string{"text"}),
			}
			_, err := r.CreateTask(req)
			So(err, ShouldBeNil)
			_, err = r.CreateTask(req)
			So(err, ShouldEqual, ErrTaskExists)
		})

		Convey("a task without a fragment is rejected", func() {
			_, err := r.CreateTask(&types.CreateTaskRequest{TaskID: taskID("q", 0, 0)})
			So(err, ShouldEqual, ErrInvalidFragment)
		})

		Convey("a scan of a missing table fails the sink", func() {
			sinkID, err := r.CreateTask(&types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    1,
				Fragment: types.NewScan("missing", []string{"a"}, []string{"text"}),
			})
			So(err, ShouldBeNil)
			_, err = drain(r, sinkID)
			So(errors.Cause(err), ShouldEqual, storage.ErrTableNotExists)
		})
	})
}

func TestRuntimeValues(t *testing.T) {
	Convey("A values task emits its literal rows", t, func() {
		r, _, _ := newTestRuntime(16)
		sinkID, err := r.CreateTask(&types.CreateTaskRequest{
			TaskID: taskID("q", 0, 0),
			Epoch:  0,
			Fragment: types.NewValues([]string{"a"}, []string{"text"},
				[]types.Row{row("1"), row("2")}),
		})
		So(err, ShouldBeNil)
		rows, err := drain(r, sinkID)
		So(err, ShouldBeNil)
		So(rows, ShouldResemble, []types.Row{row("1"), row("2")})
	})
}

func TestRuntimeInsert(t *testing.T) {
	Convey("Given a runtime over a view-backed table", t, func() {
		r, store, rec := newTestRuntime(16)
		_, err := store.CreateTable("t", []string{"a", "b", "c"},
			[]string{"text", "int", "text"}, true)
		So(err, ShouldBeNil)

		input := types.NewValues([]string{"a", "b", "c"}, []string{"text", "int", "text"},
			[]types.Row{row("x", "1", "g")})

		Convey("an insert at epoch E stages rows at E+1 and reports the count", func() {
			sinkID, err := r.CreateTask(&types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    4,
				Fragment: types.NewInsert("t", true, input),
			})
			So(err, ShouldBeNil)

			rows, err := drain(r, sinkID)
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []types.Row{row("1")})

			tb, err := store.Table("t")
			So(err, ShouldBeNil)
			So(tb.ScanAt(4), ShouldBeEmpty)
			So(tb.ScanAt(5), ShouldResemble, []types.Row{row("x", "1", "g")})

			Convey("and the delta reached the sink before the result did", func() {
				deltas := rec.all()
				So(deltas, ShouldHaveLength, 1)
				So(deltas[0].Table, ShouldEqual, "t")
				So(deltas[0].Epoch, ShouldEqual, types.Epoch(5))
				So(deltas[0].Rows, ShouldResemble, []types.Row{row("x", "1", "g")})
			})
		})

		Convey("an insert into a plain table emits no delta", func() {
			_, err := store.CreateTable("plain", []string{"a", "b", "c"},
				[]string{"text", "int", "text"}, false)
			So(err, ShouldBeNil)
			sinkID, err := r.CreateTask(&types.CreateTaskRequest{
				TaskID:   taskID("q", 0, 0),
				Epoch:    0,
				Fragment: types.NewInsert("plain", false, input),
			})
			So(err, ShouldBeNil)
			_, err = drain(r, sinkID)
			So(err, ShouldBeNil)
			So(rec.all(), ShouldBeEmpty)
		})
	})
}

func TestRuntimeAbort(t *testing.T) {
	Convey("Given a task blocked on a full sink", t, func() {
		r, store, _ := newTestRuntime(1)
		tb, err := store.CreateTable("t", []string{"a"}, []string{"text"}, false)
		So(err, ShouldBeNil)
		// more single-row chunks than the sink buffers, so the task blocks
		var rows []types.Row
		for i := 0; i < sinkChunkBuffer*4; i++ {
			rows = append(rows, row("v"))
		}
		_, err = tb.Append(1, rows)
		So(err, ShouldBeNil)

		id := taskID("q", 0, 0)
		req := &types.CreateTaskRequest{
			TaskID:   id,
			Epoch:    1,
			Fragment: types.NewScan("t", []string{"a"}, []string{"text"}),
		}
		sinkID, err := r.CreateTask(req)
		So(err, ShouldBeNil)
		So(r.SinkCount(), ShouldEqual, 1)

		Convey("aborting deregisters the sink and delivers nothing", func() {
			r.AbortTask(id)
			So(r.SinkCount(), ShouldEqual, 0)
			_, _, err := r.PullData(sinkID)
			So(err, ShouldEqual, ErrSinkNotExists)

			Convey("and the task id is reusable afterwards", func() {
				_, err := r.CreateTask(req)
				So(err, ShouldBeNil)
				r.AbortTask(id)
			})
		})

		Convey("aborting an unknown task is a no-op", func() {
			r.AbortTask(taskID("other", 0, 0))
			So(r.SinkCount(), ShouldEqual, 1)
			r.AbortTask(id)
		})
	})
}

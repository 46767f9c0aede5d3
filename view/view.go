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

package view

import (
	"sort"
	"strconv"

	"github.com/flowsql/flowsql/storage"
	"github.com/flowsql/flowsql/types"
)

// View is one continuously maintained derived table. Apply folds a base
// table delta into the view state and publishes the recomputed contents to
// the store at the delta epoch, so reads below that epoch are unaffected.
type View interface {
	Name() string
	Source() string
	Init(store *storage.Store) error
	Apply(store *storage.Store, delta types.Delta) error
}

// DescConcatView keeps the concatenation of one source column, ordered
// descending, as a single-row single-column view.
type DescConcatView struct {
	name   string
	source string
	column int
	state  []string
}

// NewDescConcatView builds a descending-concatenation view over the given
// column index of the source table.
func NewDescConcatView(name, source string, column int) *DescConcatView {
	return &DescConcatView{
		name:   name,
		source: source,
		column: column,
	}
}

// Name implements View.
func (v *DescConcatView) Name() string { return v.name }

// Source implements View.
func (v *DescConcatView) Source() string { return v.source }

// Init implements View.
func (v *DescConcatView) Init(store *storage.Store) (err error) {
	_, err = store.CreateTable(v.name, []string{"value"}, []string{"text"}, false)
	return
}

// Apply implements View.
func (v *DescConcatView) Apply(store *storage.Store, delta types.Delta) (err error) {
	for _, row := range delta.Rows {
		v.state = append(v.state, row.Values[v.column])
	}
	sort.Sort(sort.Reverse(sort.StringSlice(v.state)))

	var content string
	for _, s := range v.state {
		content += s
	}

	table, err := store.Table(v.name)
	if err != nil {
		return
	}
	return table.Replace(delta.Epoch, []types.Row{{Values: []string{content}}})
}

type groupEntry struct {
	orderKey int
	value    string
}

// GroupConcatView groups the source table by one column and keeps, per
// group, the concatenation of another column ordered by a numeric order
// column ascending. One view row per group, ordered by group key.
type GroupConcatView struct {
	name      string
	source    string
	groupCol  int
	orderCol  int
	concatCol int
	groups    map[string][]groupEntry
}

// NewGroupConcatView builds a grouped concatenation view.
func NewGroupConcatView(name, source string, groupCol, orderCol, concatCol int) *GroupConcatView {
	return &GroupConcatView{
		name:      name,
		source:    source,
		groupCol:  groupCol,
		orderCol:  orderCol,
		concatCol: concatCol,
		groups:    make(map[string][]groupEntry),
	}
}

// Name implements View.
func (v *GroupConcatView) Name() string { return v.name }

// Source implements View.
func (v *GroupConcatView) Source() string { return v.source }

// Init implements View.
func (v *GroupConcatView) Init(store *storage.Store) (err error) {
	_, err = store.CreateTable(v.name, []string{"grp", "value"}, []string{"text", "text"}, false)
	return
}

// Apply implements View.
func (v *GroupConcatView) Apply(store *storage.Store, delta types.Delta) (err error) {
	for _, row := range delta.Rows {
		key := row.Values[v.groupCol]
		order, _ := strconv.Atoi(row.Values[v.orderCol])
		v.groups[key] = append(v.groups[key], groupEntry{
			orderKey: order,
			value:    row.Values[v.concatCol],
		})
	}

	keys := make([]string, 0, len(v.groups))
	for key := range v.groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]types.Row, 0, len(keys))
	for _, key := range keys {
		entries := append([]groupEntry(nil), v.groups[key]...)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].orderKey < entries[j].orderKey
		})
		var content string
		for _, e := range entries {
			content += e.value
		}
		rows = append(rows, types.Row{Values: []string{key, content}})
	}

	table, err := store.Table(v.name)
	if err != nil {
		return
	}
	return table.Replace(delta.Epoch, rows)
}

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

// Package storage provides the epoch-versioned in-memory table store backing
// the worker runtime. A row appended at epoch W is visible to reads at any
// epoch E >= W; a row replaced at epoch W stops being visible from W on.
// Reads at a fixed epoch are therefore immutable regardless of later writes.
package storage

import (
	"sync"

	"github.com/flowsql/flowsql/types"
)

const noEpoch = ^types.Epoch(0)

type versionedRow struct {
	row       types.Row
	addedAt   types.Epoch
	removedAt types.Epoch // noEpoch while live
}

// Table holds one versioned table.
type Table struct {
	mu        sync.RWMutex
	name      string
	columns   []string
	declTypes []string
	hasMView  bool
	rows      []versionedRow
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the schema column names.
func (t *Table) Columns() []string {
	return t.columns
}

// DeclTypes returns the schema declared types.
func (t *Table) DeclTypes() []string {
	return t.declTypes
}

// HasMaterializedView reports whether the table feeds a maintained view.
func (t *Table) HasMaterializedView() bool {
	return t.hasMView
}

// Append adds rows becoming visible at the given epoch, preserving their
// order, and returns the appended row count.
func (t *Table) Append(epoch types.Epoch, rows []types.Row) (count int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		if len(r.Values) != len(t.columns) {
			err = ErrColumnCountMismatch
			return
		}
		t.rows = append(t.rows, versionedRow{row: r, addedAt: epoch, removedAt: noEpoch})
		count++
	}
	return
}

// Replace supersedes the whole visible content of the table at the given
// epoch. Readers below the epoch keep seeing the old rows. Used by the view
// maintainer to publish recomputed view contents.
func (t *Table) Replace(epoch types.Epoch, rows []types.Row) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].removedAt == noEpoch {
			t.rows[i].removedAt = epoch
		}
	}
	for _, r := range rows {
		if len(r.Values) != len(t.columns) {
			err = ErrColumnCountMismatch
			return
		}
		t.rows = append(t.rows, versionedRow{row: r, addedAt: epoch, removedAt: noEpoch})
	}
	return
}

// ScanAt returns the rows visible at the given epoch in insertion order.
func (t *Table) ScanAt(epoch types.Epoch) (rows []types.Row) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, vr := range t.rows {
		if vr.addedAt <= epoch && (vr.removedAt == noEpoch || epoch < vr.removedAt) {
			rows = append(rows, vr.row)
		}
	}
	return
}

// Store is the table registry of one node.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]*Table),
	}
}

// CreateTable registers a new table schema.
func (s *Store) CreateTable(name string, columns, declTypes []string, hasMView bool) (t *Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		err = ErrTableExists
		return
	}
	t = &Table{
		name:      name,
		columns:   columns,
		declTypes: declTypes,
		hasMView:  hasMView,
	}
	s.tables[name] = t
	return
}

// Table fetches a table by name.
func (s *Store) Table(name string) (t *Table, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		err = ErrTableNotExists
	}
	return
}

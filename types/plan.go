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

package types

import "github.com/flowsql/flowsql/proto"

// PlanKind is the closed tag set of physical plan operators handled by the
// execution core. Consumers switch on it exhaustively; an unknown kind is a
// programming error, not a runtime branch.
type PlanKind int

const (
	// ScanPlan reads a table in row order at the query epoch.
	ScanPlan PlanKind = iota
	// ValuesPlan produces an inline list of literal rows.
	ValuesPlan
	// InsertPlan appends its input rows to a target table.
	InsertPlan
	// ExchangePlan pulls and concatenates the output of child tasks.
	ExchangePlan
)

func (k PlanKind) String() string {
	switch k {
	case ScanPlan:
		return "Scan"
	case ValuesPlan:
		return "Values"
	case InsertPlan:
		return "Insert"
	case ExchangePlan:
		return "Exchange"
	}
	return "Unknown"
}

// ScanSpec carries the scan operator payload.
type ScanSpec struct {
	Table     string   `json:"tb"`
	Columns   []string `json:"c"`
	DeclTypes []string `json:"t"`
}

// ValuesSpec carries the inline literal rows payload.
type ValuesSpec struct {
	Columns   []string `json:"c"`
	DeclTypes []string `json:"t"`
	Rows      []Row    `json:"r"`
}

// InsertSpec carries the insert operator payload, including whether the
// target table feeds a continuously maintained materialized view.
type InsertSpec struct {
	Table               string `json:"tb"`
	HasMaterializedView bool   `json:"mv"`
}

// ExchangeSource locates one upstream sink an exchange operator pulls from.
type ExchangeSource struct {
	Node   proto.Node   `json:"n"`
	SinkID proto.SinkID `json:"s"`
}

// ExchangeSpec carries the exchange operator payload. Sources are filled in
// by the scheduler once the child stage placement is known.
type ExchangeSpec struct {
	SourceStageID uint32           `json:"ss"`
	Columns       []string         `json:"c"`
	DeclTypes     []string         `json:"t"`
	Sources       []ExchangeSource `json:"src"`
}

// PlanNode is one node of an immutable physical plan tree. Exactly one of
// the payload pointers matching Kind is set. The tagged-struct layout keeps
// the variant set closed while remaining wire-encodable.
type PlanNode struct {
	Kind     PlanKind      `json:"k"`
	Scan     *ScanSpec     `json:"scan,omitempty"`
	Values   *ValuesSpec   `json:"values,omitempty"`
	Insert   *InsertSpec   `json:"insert,omitempty"`
	Exchange *ExchangeSpec `json:"exchange,omitempty"`
	Children []*PlanNode   `json:"ch,omitempty"`
}

// NewScan returns a scan plan node.
func NewScan(table string, columns, declTypes []string) *PlanNode {
	return &PlanNode{
		Kind: ScanPlan,
		Scan: &ScanSpec{Table: table, Columns: columns, DeclTypes: declTypes},
	}
}

// NewValues returns a values plan node.
func NewValues(columns, declTypes []string, rows []Row) *PlanNode {
	return &PlanNode{
		Kind:   ValuesPlan,
		Values: &ValuesSpec{Columns: columns, DeclTypes: declTypes, Rows: rows},
	}
}

// NewInsert returns an insert plan node over the given input.
func NewInsert(table string, hasMView bool, input *PlanNode) *PlanNode {
	return &PlanNode{
		Kind:     InsertPlan,
		Insert:   &InsertSpec{Table: table, HasMaterializedView: hasMView},
		Children: []*PlanNode{input},
	}
}

// NewExchange returns an exchange plan node over the given input. The input
// subtree becomes a separate stage during fragmentation.
func NewExchange(input *PlanNode) *PlanNode {
	return &PlanNode{
		Kind: ExchangePlan,
		Exchange: &ExchangeSpec{
			Columns:   input.OutputColumns(),
			DeclTypes: input.OutputDeclTypes(),
		},
		Children: []*PlanNode{input},
	}
}

// OutputColumns returns the column names this node emits.
func (n *PlanNode) OutputColumns() []string {
	switch n.Kind {
	case ScanPlan:
		return n.Scan.Columns
	case ValuesPlan:
		return n.Values.Columns
	case InsertPlan:
		return []string{"rows_affected"}
	case ExchangePlan:
		return n.Exchange.Columns
	}
	return nil
}

// OutputDeclTypes returns the declared column types this node emits.
func (n *PlanNode) OutputDeclTypes() []string {
	switch n.Kind {
	case ScanPlan:
		return n.Scan.DeclTypes
	case ValuesPlan:
		return n.Values.DeclTypes
	case InsertPlan:
		return []string{"int"}
	case ExchangePlan:
		return n.Exchange.DeclTypes
	}
	return nil
}

// ContainsScan reports whether any node of the subtree reads a table. Used
// by placement to spread scan stages over all data-holding workers.
func (n *PlanNode) ContainsScan() bool {
	if n.Kind == ScanPlan {
		return true
	}
	for _, c := range n.Children {
		if c.ContainsScan() {
			return true
		}
	}
	return false
}

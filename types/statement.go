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

// StatementType is the closed tag distinguishing row-returning statements
// from effect-returning ones.
type StatementType int

const (
	// QueryStatement returns rows.
	QueryStatement StatementType = iota
	// CommandStatement returns an affected-row count.
	CommandStatement
)

func (t StatementType) String() string {
	switch t {
	case QueryStatement:
		return "Query"
	case CommandStatement:
		return "Command"
	}
	return "Unknown"
}

// StatementTypeOf classifies the statement backing a compiled plan from its
// root operator.
func StatementTypeOf(plan *PlanNode) StatementType {
	switch plan.Kind {
	case InsertPlan:
		return CommandStatement
	case ScanPlan, ValuesPlan, ExchangePlan:
		return QueryStatement
	}
	return QueryStatement
}

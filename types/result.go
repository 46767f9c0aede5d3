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

// Result is the surface returned to the caller of a statement: either a
// QueryResult or a CommandResult.
type Result interface {
	Type() StatementType
}

// QueryResult carries the buffered rows of a row-returning statement in
// producer order, together with the plan's output schema. The rows are fully
// materialized so the result supports multiple independent traversals.
type QueryResult struct {
	StatementType StatementType
	Columns       []string
	DeclTypes     []string
	Rows          []Row
}

// Type implements Result.
func (r *QueryResult) Type() StatementType {
	return r.StatementType
}

// CommandResult carries the effect summary of a write statement.
type CommandResult struct {
	StatementType StatementType
	AffectedRows  int64
}

// Type implements Result.
func (r *CommandResult) Type() StatementType {
	return r.StatementType
}

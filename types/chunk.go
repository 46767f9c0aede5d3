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

// Row defines a single row of text-encoded column values.
type Row struct {
	Values []string `json:"v"`
}

// Chunk is a bounded, ordered batch of rows with an attached schema. It is
// the unit of result transfer between compute nodes and the frontend.
type Chunk struct {
	Columns   []string `json:"c"`
	DeclTypes []string `json:"t"`
	Rows      []Row    `json:"r"`
}

// Cardinality returns the row count of the chunk.
func (c *Chunk) Cardinality() int {
	return len(c.Rows)
}

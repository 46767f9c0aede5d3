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

package storage

import "errors"

var (
	// ErrTableNotExists defines errors on reading or writing an unknown table.
	ErrTableNotExists = errors.New("table not exists")

	// ErrTableExists defines error on re-creating an existing table.
	ErrTableExists = errors.New("table already exists")

	// ErrColumnCountMismatch defines error on writing rows whose arity does
	// not match the table schema.
	ErrColumnCountMismatch = errors.New("column count mismatch")
)

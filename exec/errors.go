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

package exec

import "github.com/pkg/errors"

var (
	// ErrFetchFailure indicates the result stream broke before end of stream.
	ErrFetchFailure = errors.New("fetching query result failed")
	// ErrDecodeFailure indicates a result chunk could not be decoded into the
	// shape its statement type requires.
	ErrDecodeFailure = errors.New("decoding query result failed")
	// ErrFlushFailure indicates the write-then-read barrier of a view-backed
	// insert could not be completed.
	ErrFlushFailure = errors.New("flushing write epoch failed")
)

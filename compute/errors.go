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

package compute

import "errors"

var (
	// ErrRPCFailure indicates a transport failure while talking to a
	// compute node. The decision to abort the query belongs to the caller;
	// no retry happens here.
	ErrRPCFailure = errors.New("compute node rpc failed")

	// ErrSinkBusy indicates a second concurrent reader on a sink id. A sink
	// supports exactly one active reader.
	ErrSinkBusy = errors.New("sink already has an active reader")

	// ErrStreamClosed indicates a read from an explicitly closed stream.
	ErrStreamClosed = errors.New("chunk stream closed")
)

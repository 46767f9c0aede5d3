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

import "errors"

var (
	// ErrTaskExists defines error on re-creating an already registered task.
	ErrTaskExists = errors.New("task already exists")

	// ErrSinkNotExists defines error on pulling from an unknown sink.
	ErrSinkNotExists = errors.New("sink not exists")

	// ErrInvalidFragment defines error on executing a malformed plan fragment.
	ErrInvalidFragment = errors.New("invalid plan fragment")

	// ErrTaskAborted defines error on pulling from a sink whose task was
	// aborted by the scheduler.
	ErrTaskAborted = errors.New("task aborted")
)

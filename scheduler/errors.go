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

package scheduler

import "errors"

var (
	// ErrSchedulingFailure indicates no placement was possible for some
	// stage of the plan.
	ErrSchedulingFailure = errors.New("no placement possible")

	// ErrDispatchFailure indicates a task definition could not be delivered
	// to its worker. One failed sub-task fails the whole query; partial
	// success is not a supported outcome.
	ErrDispatchFailure = errors.New("task dispatch failed")

	// ErrSchedulingTimeout indicates scheduling exceeded its deadline.
	ErrSchedulingTimeout = errors.New("scheduling timed out")

	// ErrQueryCancelled indicates the handle was cancelled before the
	// result location resolved.
	ErrQueryCancelled = errors.New("query cancelled")

	// ErrEmptyPlan indicates a nil plan was submitted.
	ErrEmptyPlan = errors.New("empty plan")
)

// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// ring and runner errors
	ErrRingSize = errors.Normalize(
		"ring size must be at least 1, got %d",
		errors.RFCCodeText("BENCH:ErrRingSize"),
	)
	ErrChainCount = errors.Normalize(
		"chain count must be at least 1, got %d",
		errors.RFCCodeText("BENCH:ErrChainCount"),
	)
	ErrNegativeToken = errors.Normalize(
		"initial token must be non-negative, got %d",
		errors.RFCCodeText("BENCH:ErrNegativeToken"),
	)
	ErrTooManyActors = errors.Normalize(
		"configuration needs %d actors, above the limit %d",
		errors.RFCCodeText("BENCH:ErrTooManyActors"),
	)
	ErrNodeChannel = errors.Normalize(
		"node %d inbound channel is not managed by this builder",
		errors.RFCCodeText("BENCH:ErrNodeChannel"),
	)

	// actor system errors
	ErrActorDuplicate = errors.Normalize(
		"actor %d already registered",
		errors.RFCCodeText("BENCH:ErrActorDuplicate"),
	)
	ErrActorNotFound = errors.Normalize(
		"actor %d not found",
		errors.RFCCodeText("BENCH:ErrActorNotFound"),
	)
	ErrSystemStopped = errors.Normalize(
		"actor system is stopped",
		errors.RFCCodeText("BENCH:ErrSystemStopped"),
	)

	// harness errors
	ErrUnknownVariant = errors.Normalize(
		"unknown benchmark variant %q",
		errors.RFCCodeText("BENCH:ErrUnknownVariant"),
	)
)

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMutationPending indicates the anchor already has a pending or applied mutation.
	ErrMutationPending = errors.New("mutation already requested")

	// ErrNoPendingMutation indicates the anchor has no pending mutation to apply.
	ErrNoPendingMutation = errors.New("no pending mutation")

	// ErrConcurrentMutation indicates two writers raced on the same anchor's
	// mutation state; the loser's update is discarded, not retried
	// automatically.
	ErrConcurrentMutation = errors.New("concurrent mutation conflict")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

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

import (
	"github.com/poiesic/grounder/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalAnchor serializes an Anchor to bytes.
func MarshalAnchor(anchor *core.Anchor) []byte {
	buf := make([]byte, core.AnchorMUS.Size(*anchor))
	core.AnchorMUS.Marshal(*anchor, buf)
	return buf
}

// UnmarshalAnchor deserializes an Anchor from bytes.
func UnmarshalAnchor(data []byte) (*core.Anchor, error) {
	anchor, _, err := core.AnchorMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &anchor, nil
}

// MarshalLogEntry serializes a GroundingLogEntry to bytes.
func MarshalLogEntry(entry *core.GroundingLogEntry) []byte {
	buf := make([]byte, core.GroundingLogEntryMUS.Size(*entry))
	core.GroundingLogEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalLogEntry deserializes a GroundingLogEntry from bytes.
func UnmarshalLogEntry(data []byte) (*core.GroundingLogEntry, error) {
	entry, _, err := core.GroundingLogEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalObservation serializes a DriftObservation to bytes.
func MarshalObservation(obs *core.DriftObservation) []byte {
	buf := make([]byte, core.DriftObservationMUS.Size(*obs))
	core.DriftObservationMUS.Marshal(*obs, buf)
	return buf
}

// UnmarshalObservation deserializes a DriftObservation from bytes.
func UnmarshalObservation(data []byte) (*core.DriftObservation, error) {
	obs, _, err := core.DriftObservationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

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


package badger

import "github.com/poiesic/grounder/storage"

// MemoryRepositories bundles in-memory repositories for testing.
// Caller must Close when done.
type MemoryRepositories struct {
	Chunks  storage.ChunkRepository
	Anchors storage.AnchorRepository
	Log     storage.GroundingLogRepository
	Drift   storage.DriftRepository

	backend *Backend
}

// Close closes the repositories and the shared backend.
func (m *MemoryRepositories) Close() error {
	m.Chunks.Close()
	m.Anchors.Close()
	m.Log.Close()
	m.Drift.Close()
	return m.backend.Close()
}

// NewMemoryRepositories creates in-memory repositories for testing.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	anchorRepo, err := NewAnchorRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	logRepo, err := NewGroundingLogRepository(backend)
	if err != nil {
		anchorRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	driftRepo, err := NewDriftRepository(backend)
	if err != nil {
		logRepo.Close()
		anchorRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Chunks:  chunkRepo,
		Anchors: anchorRepo,
		Log:     logRepo,
		Drift:   driftRepo,
		backend: backend,
	}, nil
}

// Copyright 2026 Veritom Systems
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

// Package config holds the runtime-mutable retrieval settings: the
// similarity threshold, the LLM top-results count, and the fusion weights.
//
// Settings are read far more often than written, so reads take a snapshot
// under an RWMutex. Updates are validated, applied, and persisted to a TOML
// file so they survive restarts.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultSimilarityThreshold is the initial similarity floor.
	DefaultSimilarityThreshold = 0.2
	// DefaultLLMTopResults is the initial number of results handed to the
	// summarizer.
	DefaultLLMTopResults = 3
	// DefaultDenseWeight and DefaultSparseWeight are the initial fusion
	// weights.
	DefaultDenseWeight  = 0.7
	DefaultSparseWeight = 0.3

	// MinLLMTopResults and MaxLLMTopResults bound the summarizer input size.
	MinLLMTopResults = 1
	MaxLLMTopResults = 20
)

var (
	// ErrInvalidThreshold is returned when a threshold falls outside the
	// open interval (0, 1).
	ErrInvalidThreshold = errors.New("similarity threshold must be within the open interval (0, 1)")

	// ErrInvalidTopResults is returned when the top-results count falls
	// outside [1, 20].
	ErrInvalidTopResults = errors.New("top results count must be between 1 and 20")

	// ErrInvalidWeights is returned when a fusion weight is negative or both
	// weights are zero.
	ErrInvalidWeights = errors.New("fusion weights must be non-negative and not both zero")
)

// Snapshot is an immutable copy of the settings, safe to use for the
// duration of one query while updates happen concurrently.
type Snapshot struct {
	SimilarityThreshold float64
	LLMTopResults       int
	DenseWeight         float64
	SparseWeight        float64
}

// fileSettings is the TOML shape persisted on disk.
type fileSettings struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	LLMTopResults       int     `toml:"llm_top_results"`
	DenseWeight         float64 `toml:"dense_weight"`
	SparseWeight        float64 `toml:"sparse_weight"`
}

// Settings is the mutable runtime configuration. All methods are safe for
// concurrent use.
type Settings struct {
	mu      sync.RWMutex
	current Snapshot
	path    string
	logger  *slog.Logger
}

// Option configures Settings.
type Option func(*Settings) error

// WithPath sets the TOML file used to persist updates. When the file exists
// its values override the defaults.
func WithPath(path string) Option {
	return func(s *Settings) error {
		s.path = path
		return s.load()
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSettings creates settings with defaults and applies the options.
func NewSettings(opts ...Option) (*Settings, error) {
	s := &Settings{
		current: Snapshot{
			SimilarityThreshold: DefaultSimilarityThreshold,
			LLMTopResults:       DefaultLLMTopResults,
			DenseWeight:         DefaultDenseWeight,
			SparseWeight:        DefaultSparseWeight,
		},
		logger: slog.Default().With("component", "settings"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Snapshot returns a copy of the current settings.
func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetSimilarityThreshold validates, applies and persists a new threshold.
func (s *Settings) SetSimilarityThreshold(threshold float64) error {
	if threshold <= 0 || threshold >= 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidThreshold, threshold)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.SimilarityThreshold = threshold
	return s.persist()
}

// SetLLMTopResults validates, applies and persists a new top-results count.
func (s *Settings) SetLLMTopResults(count int) error {
	if count < MinLLMTopResults || count > MaxLLMTopResults {
		return fmt.Errorf("%w: got %d", ErrInvalidTopResults, count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.LLMTopResults = count
	return s.persist()
}

// SetFusionWeights validates, applies and persists new fusion weights.
func (s *Settings) SetFusionWeights(dense, sparse float64) error {
	if dense < 0 || sparse < 0 || dense+sparse == 0 {
		return fmt.Errorf("%w: got dense=%g sparse=%g", ErrInvalidWeights, dense, sparse)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.DenseWeight = dense
	s.current.SparseWeight = sparse
	return s.persist()
}

// load reads persisted settings from the configured path, keeping defaults
// when the file does not exist yet.
func (s *Settings) load() error {
	if s.path == "" {
		return nil
	}

	var fs fileSettings
	if _, err := toml.DecodeFile(s.path, &fs); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load settings from %s: %w", s.path, err)
	}

	if fs.SimilarityThreshold > 0 && fs.SimilarityThreshold < 1 {
		s.current.SimilarityThreshold = fs.SimilarityThreshold
	}
	if fs.LLMTopResults >= MinLLMTopResults && fs.LLMTopResults <= MaxLLMTopResults {
		s.current.LLMTopResults = fs.LLMTopResults
	}
	if fs.DenseWeight >= 0 && fs.SparseWeight >= 0 && fs.DenseWeight+fs.SparseWeight > 0 {
		s.current.DenseWeight = fs.DenseWeight
		s.current.SparseWeight = fs.SparseWeight
	}
	return nil
}

// persist writes the settings file via a temp file and rename, so a crash
// mid-write never leaves a truncated file. Callers hold the write lock.
func (s *Settings) persist() error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create settings temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	fs := fileSettings{
		SimilarityThreshold: s.current.SimilarityThreshold,
		LLMTopResults:       s.current.LLMTopResults,
		DenseWeight:         s.current.DenseWeight,
		SparseWeight:        s.current.SparseWeight,
	}
	if err := toml.NewEncoder(tmp).Encode(fs); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	s.logger.Debug("settings persisted", "path", s.path)
	return nil
}

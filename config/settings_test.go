package config

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)

	snap := settings.Snapshot()
	assert.Equal(t, DefaultSimilarityThreshold, snap.SimilarityThreshold)
	assert.Equal(t, DefaultLLMTopResults, snap.LLMTopResults)
	assert.Equal(t, DefaultDenseWeight, snap.DenseWeight)
	assert.Equal(t, DefaultSparseWeight, snap.SparseWeight)
}

func TestSetSimilarityThresholdBounds(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)

	tests := []struct {
		name      string
		threshold float64
		valid     bool
	}{
		{"mid range", 0.5, true},
		{"near zero", 0.001, true},
		{"near one", 0.999, true},
		{"zero excluded", 0, false},
		{"one excluded", 1, false},
		{"negative", -0.2, false},
		{"above one", 1.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := settings.SetSimilarityThreshold(tt.threshold)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.threshold, settings.Snapshot().SimilarityThreshold)
				return
			}
			require.ErrorIs(t, err, ErrInvalidThreshold)
			assert.Contains(t, err.Error(), "(0, 1)", "error names the violated bound")
		})
	}
}

func TestSetLLMTopResultsBounds(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)

	require.NoError(t, settings.SetLLMTopResults(1))
	require.NoError(t, settings.SetLLMTopResults(20))
	assert.Equal(t, 20, settings.Snapshot().LLMTopResults)

	err = settings.SetLLMTopResults(0)
	require.ErrorIs(t, err, ErrInvalidTopResults)
	assert.Contains(t, err.Error(), "between 1 and 20")
	assert.ErrorIs(t, settings.SetLLMTopResults(21), ErrInvalidTopResults)
}

func TestSetFusionWeights(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)

	require.NoError(t, settings.SetFusionWeights(0.5, 0.5))
	snap := settings.Snapshot()
	assert.Equal(t, 0.5, snap.DenseWeight)
	assert.Equal(t, 0.5, snap.SparseWeight)

	assert.ErrorIs(t, settings.SetFusionWeights(-0.1, 0.5), ErrInvalidWeights)
	assert.ErrorIs(t, settings.SetFusionWeights(0, 0), ErrInvalidWeights)
}

func TestSettingsPersistAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	settings, err := NewSettings(WithPath(path))
	require.NoError(t, err)
	require.NoError(t, settings.SetSimilarityThreshold(0.35))
	require.NoError(t, settings.SetLLMTopResults(7))
	require.NoError(t, settings.SetFusionWeights(0.6, 0.4))

	reloaded, err := NewSettings(WithPath(path))
	require.NoError(t, err)
	snap := reloaded.Snapshot()
	assert.Equal(t, 0.35, snap.SimilarityThreshold)
	assert.Equal(t, 7, snap.LLMTopResults)
	assert.Equal(t, 0.6, snap.DenseWeight)
	assert.Equal(t, 0.4, snap.SparseWeight)
}

func TestSettingsMissingFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.toml")

	settings, err := NewSettings(WithPath(path))
	require.NoError(t, err)
	assert.Equal(t, DefaultSimilarityThreshold, settings.Snapshot().SimilarityThreshold)
}

func TestRejectedUpdateLeavesSettingsUnchanged(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)
	require.NoError(t, settings.SetSimilarityThreshold(0.4))

	require.Error(t, settings.SetSimilarityThreshold(1.2))
	assert.Equal(t, 0.4, settings.Snapshot().SimilarityThreshold)
}

func TestSettingsConcurrentAccess(t *testing.T) {
	settings, err := NewSettings()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = settings.SetSimilarityThreshold(0.3)
				snap := settings.Snapshot()
				assert.Greater(t, snap.SimilarityThreshold, 0.0)
			}
		}()
	}
	wg.Wait()
}

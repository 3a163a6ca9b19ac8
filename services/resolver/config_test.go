// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://rest.uniprot.org", cfg.BaseURL)
	assert.Equal(t, "9606", cfg.OrganismID)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 10, cfg.MaxResults)
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
organism_id: "10090"
max_results: 25
concurrency: 4
rate_limit_delay_min: 0.1
rate_limit_delay_max: 0.2
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "10090", cfg.OrganismID)
	assert.Equal(t, 25, cfg.MaxResults)
	assert.Equal(t, 4, cfg.Concurrency)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://rest.uniprot.org", cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_results: [not a number"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("validation failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_results: 0"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"empty organism allowed", func(c *Config) { c.OrganismID = "" }, false},
		{"non-numeric organism", func(c *Config) { c.OrganismID = "human" }, true},
		{"bad base url", func(c *Config) { c.BaseURL = "not-a-url" }, true},
		{"inverted jitter window", func(c *Config) {
			c.RateLimitDelayMinSeconds = 2.0
			c.RateLimitDelayMaxSeconds = 0.5
		}, true},
		{"excessive retries", func(c *Config) { c.MaxRetries = 99 }, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Criteria(t *testing.T) {
	cfg := DefaultConfig()
	base := cfg.Criteria()
	assert.Equal(t, cfg.OrganismID, base.OrganismID)
	assert.Equal(t, cfg.ReviewedOnly, base.ReviewedOnly)
	assert.Equal(t, cfg.ExactMatch, base.ExactMatch)
	assert.Equal(t, cfg.MaxResults, base.MaxResults)
	require.NoError(t, base.Validate())
}

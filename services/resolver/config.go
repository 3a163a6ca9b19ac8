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
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-facing configuration for a resolution run.
//
// Description:
//
//	Field defaults match the service's published fair-use limits: 3 retries,
//	30s per-call timeout, and a 0.5–2.0s pacing window between calls.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// BaseURL is the root of the protein search service.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// OrganismID is the numeric taxonomy id filter, e.g. "9606" for human.
	// Empty disables the organism clause.
	OrganismID string `yaml:"organism_id" validate:"omitempty,numeric"`

	// ReviewedOnly restricts the base criteria to curated entries.
	ReviewedOnly bool `yaml:"reviewed_only"`

	// ExactMatch uses exact gene-name matching in the base criteria.
	ExactMatch bool `yaml:"exact_match"`

	// MaxResults caps candidates requested per strategy.
	MaxResults int `yaml:"max_results" validate:"min=1,max=500"`

	// MaxRetries is the transport retry ceiling per physical query.
	MaxRetries int `yaml:"max_retries" validate:"min=0,max=10"`

	// RequestTimeoutSeconds is the independent timeout of one physical call.
	RequestTimeoutSeconds int `yaml:"request_timeout" validate:"min=1,max=600"`

	// RateLimitDelayMinSeconds / RateLimitDelayMaxSeconds bound the uniform
	// jitter window applied before each physical call.
	RateLimitDelayMinSeconds float64 `yaml:"rate_limit_delay_min" validate:"min=0"`
	RateLimitDelayMaxSeconds float64 `yaml:"rate_limit_delay_max" validate:"min=0"`

	// RequestsPerSecond adds a hard token-bucket cap on top of the jitter.
	// Zero disables the cap.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// ProgressEvery is the batch progress cadence in genes.
	ProgressEvery int `yaml:"progress_every" validate:"min=0"`

	// Concurrency is the number of genes resolved in parallel.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:                  "https://rest.uniprot.org",
		OrganismID:               "9606",
		ReviewedOnly:             true,
		ExactMatch:               true,
		MaxResults:               10,
		MaxRetries:               3,
		RequestTimeoutSeconds:    30,
		RateLimitDelayMinSeconds: 0.5,
		RateLimitDelayMaxSeconds: 2.0,
		ProgressEvery:            DefaultProgressEvery,
		Concurrency:              1,
	}
}

// LoadConfig reads a YAML config file over the defaults.
//
// Outputs:
//   - Config: Defaults overlaid with the file's values, validated.
//   - error: Non-nil on read, parse, or validation failure.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolver: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("resolver: parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field jitter-window constraint.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("resolver: invalid config: %w", err)
	}
	if c.RateLimitDelayMaxSeconds < c.RateLimitDelayMinSeconds {
		return fmt.Errorf("resolver: rate_limit_delay_max (%v) below rate_limit_delay_min (%v)",
			c.RateLimitDelayMaxSeconds, c.RateLimitDelayMinSeconds)
	}
	return nil
}

// Criteria derives the immutable per-batch BaseCriteria.
func (c Config) Criteria() BaseCriteria {
	return BaseCriteria{
		OrganismID:   c.OrganismID,
		ReviewedOnly: c.ReviewedOnly,
		ExactMatch:   c.ExactMatch,
		MaxResults:   c.MaxResults,
	}
}

// RequestTimeout returns the per-call timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// NewThrottleFromConfig builds the shared pacing gate described by c.
func NewThrottleFromConfig(c Config) (*Throttle, error) {
	minDelay := time.Duration(c.RateLimitDelayMinSeconds * float64(time.Second))
	maxDelay := time.Duration(c.RateLimitDelayMaxSeconds * float64(time.Second))
	return NewThrottle(minDelay, maxDelay, c.RequestsPerSecond)
}

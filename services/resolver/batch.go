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
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultProgressEvery is the progress notification cadence, in genes.
const DefaultProgressEvery = 10

// ProgressEvent is an observational snapshot emitted during a batch run.
type ProgressEvent struct {
	RunID     string
	Processed int
	Total     int
	Successes int
	Failures  int
	Ambiguous int
	Elapsed   time.Duration
}

// Observer receives progress notifications from a batch run.
//
// Description:
//
//	Purely observational: observers must not influence resolution. The
//	observer is injected rather than reached through global logging state so
//	unit tests can assert on cadence deterministically.
//
// Thread Safety: OnProgress may be called from multiple goroutines when the
// batch runs concurrently; implementations must tolerate that.
type Observer interface {
	OnProgress(event ProgressEvent)
}

// SlogObserver logs progress events through a structured logger.
type SlogObserver struct {
	Logger *slog.Logger
}

func (o SlogObserver) OnProgress(event ProgressEvent) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("batch progress",
		slog.String("run_id", event.RunID),
		slog.Int("processed", event.Processed),
		slog.Int("total", event.Total),
		slog.Int("successes", event.Successes),
		slog.Int("failures", event.Failures),
		slog.Int("ambiguous", event.Ambiguous),
		slog.Duration("elapsed", event.Elapsed),
	)
}

// GeneResolver resolves a single gene symbol. *Engine is the production
// implementation; tests substitute fakes.
type GeneResolver interface {
	Resolve(ctx context.Context, geneSymbol string) ResolutionResult
}

// BatchResolver runs resolution across many gene symbols.
//
// Thread Safety: Safe for concurrent use; each ResolveAll call owns its
// entire mutable state.
type BatchResolver struct {
	resolver GeneResolver

	// concurrency is the number of genes resolved in parallel. 1 (the
	// default) preserves the simple sequential model.
	concurrency int

	// progressEvery is the notification cadence in genes.
	progressEvery int

	observer Observer
	logger   *slog.Logger
}

// BatchOption customizes a BatchResolver.
type BatchOption func(*BatchResolver)

// WithConcurrency sets the number of genes resolved in parallel. Values
// below 1 are coerced to 1. The shared transport throttle remains the only
// pacing authority, so raising this does not raise outbound throughput.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchResolver) {
		if n < 1 {
			n = 1
		}
		b.concurrency = n
	}
}

// WithObserver injects a progress observer.
func WithObserver(obs Observer) BatchOption {
	return func(b *BatchResolver) { b.observer = obs }
}

// WithProgressEvery sets the progress cadence in genes. Values below 1
// disable notifications.
func WithProgressEvery(n int) BatchOption {
	return func(b *BatchResolver) { b.progressEvery = n }
}

// WithBatchLogger sets the structured logger for batch-level events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchResolver) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBatchResolver builds a batch orchestrator over a per-gene resolver.
func NewBatchResolver(resolver GeneResolver, opts ...BatchOption) *BatchResolver {
	b := &BatchResolver{
		resolver:      resolver,
		concurrency:   1,
		progressEvery: DefaultProgressEvery,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ResolveAll resolves every unique, non-blank gene symbol and returns the
// frozen report.
//
// Description:
//
//	Input symbols are trimmed, blanks dropped, and duplicates collapsed to
//	their first occurrence; the report preserves that first-seen order even
//	when resolutions complete out of order. Per-gene failures are captured
//	inside their ResolutionResult; the batch always completes and returns a
//	full report.
//
// Outputs:
//   - *BatchReport: One entry per unique non-blank input symbol.
func (b *BatchResolver) ResolveAll(ctx context.Context, geneSymbols []string) *BatchReport {
	genes := dedupeSymbols(geneSymbols)
	start := time.Now()
	runID := uuid.NewString()

	b.logger.Info("starting batch resolution",
		slog.String("run_id", runID),
		slog.Int("input_symbols", len(geneSymbols)),
		slog.Int("unique_genes", len(genes)),
	)

	// Results are indexed by input position, not arrival order, so the
	// concurrent path needs no ordering coordination.
	results := make([]ResolutionResult, len(genes))
	progress := &progressTracker{
		runID:    runID,
		total:    len(genes),
		every:    b.progressEvery,
		observer: b.observer,
		start:    start,
	}

	if b.concurrency <= 1 {
		for i, gene := range genes {
			results[i] = b.resolver.Resolve(ctx, gene)
			progress.record(results[i])
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.concurrency)
		for i, gene := range genes {
			g.Go(func() error {
				results[i] = b.resolver.Resolve(gctx, gene)
				progress.record(results[i])
				return nil
			})
		}
		// Workers never return errors; failures live inside results.
		_ = g.Wait()
	}

	report := &BatchReport{
		RunID:          runID,
		Genes:          genes,
		Results:        make(map[string]ResolutionResult, len(genes)),
		FailuresByKind: make(map[FailureKind]int),
		Elapsed:        time.Since(start),
	}
	for i, gene := range genes {
		res := results[i]
		report.Results[gene] = res
		if res.Resolved() {
			report.Successes++
			if res.Ambiguous {
				report.AmbiguousCount++
			}
		} else {
			report.Failures++
			kind := KindNotFound
			if res.Failure != nil {
				kind = res.Failure.Kind
			}
			report.FailuresByKind[kind]++
		}
	}

	b.logger.Info("batch resolution complete",
		slog.String("run_id", runID),
		slog.Int("successes", report.Successes),
		slog.Int("failures", report.Failures),
		slog.Int("ambiguous", report.AmbiguousCount),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report
}

// dedupeSymbols trims, drops blanks, and collapses duplicates preserving
// first-seen order.
func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// progressTracker accumulates running counts and emits observer events at a
// fixed cadence. Counts are folded under a mutex because the concurrent
// batch path records completions from multiple goroutines.
type progressTracker struct {
	mu        sync.Mutex
	runID     string
	total     int
	every     int
	observer  Observer
	start     time.Time
	processed int
	successes int
	failures  int
	ambiguous int
}

func (p *progressTracker) record(res ResolutionResult) {
	p.mu.Lock()
	p.processed++
	if res.Resolved() {
		p.successes++
		if res.Ambiguous {
			p.ambiguous++
		}
	} else {
		p.failures++
	}
	emit := p.observer != nil && p.every > 0 &&
		(p.processed%p.every == 0 || p.processed == p.total)
	event := ProgressEvent{
		RunID:     p.runID,
		Processed: p.processed,
		Total:     p.total,
		Successes: p.successes,
		Failures:  p.failures,
		Ambiguous: p.ambiguous,
		Elapsed:   time.Since(p.start),
	}
	p.mu.Unlock()

	if emit {
		p.observer.OnProgress(event)
	}
}

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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// resolverTracerName is the shared OTel tracer name for resolution spans.
const resolverTracerName = "genefetch.resolver"

// SearchTransport sends one search query to the external service.
//
// Description:
//
//	The production implementation (services/uniprot) already exhausts its
//	own retry budget before returning; the engine therefore treats any
//	transport error as "no candidates from this strategy" and advances the
//	waterfall instead of aborting.
//
// Thread Safety: Implementations must be safe for concurrent use.
type SearchTransport interface {
	// Search executes the AND-joined boolean query and returns parsed
	// candidates. A *Failure error carries the transport failure kind.
	Search(ctx context.Context, query string, size int) ([]CandidateRecord, error)
}

// Engine resolves a single gene symbol through the strategy waterfall.
//
// Thread Safety: Safe for concurrent use after construction; all per-gene
// state is local to Resolve.
type Engine struct {
	transport SearchTransport
	base      BaseCriteria
	plan      []Strategy
	logger    *slog.Logger
}

// NewEngine builds an Engine over the given transport and base criteria.
//
// Description:
//
//	Validates the criteria up front so a malformed configuration fails fast,
//	before any network activity. The strategy waterfall is planned once here;
//	it is deterministic for a given BaseCriteria.
//
// Inputs:
//   - transport: The outbound search transport. Must not be nil.
//   - base: Per-batch search configuration.
//   - logger: Structured logger; nil falls back to slog.Default().
//
// Outputs:
//   - *Engine: The configured engine.
//   - error: Non-nil when transport is nil or base is malformed.
func NewEngine(transport SearchTransport, base BaseCriteria, logger *slog.Logger) (*Engine, error) {
	if transport == nil {
		return nil, fmt.Errorf("resolver: nil search transport")
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transport: transport,
		base:      base,
		plan:      PlanStrategies(base),
		logger:    logger,
	}, nil
}

// Resolve maps one gene symbol to a canonical protein record.
//
// Description:
//
//	Blank symbols are rejected immediately with InvalidInput. Otherwise the
//	four planned strategies run in order; the first strategy that yields at
//	least one candidate wins and no further strategies are attempted. When a
//	strategy returns multiple candidates and any of them is reviewed, the
//	selection pool is restricted to reviewed entries; the first candidate of
//	the (possibly restricted) pool becomes canonical. The service's own
//	relevance ordering decides which candidate is "first"; that ranking is
//	opaque and deliberately not second-guessed here.
//
//	Cancellation is honored at strategy boundaries only; an in-flight call
//	runs to its own timeout before cancellation takes effect.
//
// Outputs:
//   - ResolutionResult: Always populated; failures are captured inside the
//     result rather than returned as an error, so batch callers never abort.
func (e *Engine) Resolve(ctx context.Context, geneSymbol string) ResolutionResult {
	symbol := strings.TrimSpace(geneSymbol)
	if symbol == "" {
		return failedResult(geneSymbol, NewFailure(KindInvalidInput, nil))
	}

	ctx, span := otel.Tracer(resolverTracerName).Start(ctx, "resolver.Engine.Resolve",
		trace.WithAttributes(
			attribute.String("gene", symbol),
			attribute.Int("strategy_count", len(e.plan)),
		),
	)
	defer span.End()

	start := time.Now()

	// Last transport-level failure seen across the waterfall. Reported only
	// when every strategy came up empty, so callers can tell a clean miss
	// (NotFound) from an exhausted transport (RateLimited/TransportError).
	var lastTransportFailure *Failure

	for i, strategy := range e.plan {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			res := failedResult(symbol, NewFailure(KindTransportError, err))
			recordResolution(res, time.Since(start))
			return res
		}

		query := strategy.Query(symbol)
		e.logger.Debug("trying search strategy",
			slog.String("gene", symbol),
			slog.Int("strategy", i+1),
			slog.String("query", query),
		)

		candidates, err := e.transport.Search(ctx, query, strategy.MaxResults)
		if err != nil {
			// The transport already exhausted its own retry budget; treat
			// the strategy as empty and keep walking the waterfall.
			if kind, ok := KindOf(err); ok {
				lastTransportFailure = NewFailure(kind, err)
			} else {
				lastTransportFailure = NewFailure(KindTransportError, err)
			}
			e.logger.Warn("search strategy failed",
				slog.String("gene", symbol),
				slog.Int("strategy", i+1),
				slog.Any("error", err),
			)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		res := selectCanonical(symbol, candidates, i)
		span.AddEvent("strategy_succeeded", trace.WithAttributes(
			attribute.Int("strategy", i+1),
			attribute.Int("candidates", len(candidates)),
			attribute.Bool("ambiguous", res.Ambiguous),
		))
		e.logger.Info("gene resolved",
			slog.String("gene", symbol),
			slog.Int("strategy", i+1),
			slog.String("accession", res.Selected.Accession),
			slog.Bool("ambiguous", res.Ambiguous),
		)
		recordResolution(res, time.Since(start))
		return res
	}

	failure := lastTransportFailure
	if failure == nil {
		failure = NewFailure(KindNotFound, nil)
	}
	span.SetStatus(codes.Error, string(failure.Kind))
	e.logger.Warn("all search strategies exhausted",
		slog.String("gene", symbol),
		slog.String("failure", string(failure.Kind)),
	)
	res := failedResult(symbol, failure)
	recordResolution(res, time.Since(start))
	return res
}

// selectCanonical applies the reviewed-entry preference and builds the
// success result.
func selectCanonical(symbol string, candidates []CandidateRecord, strategyIndex int) ResolutionResult {
	pool := candidates
	for _, c := range candidates {
		if c.Reviewed {
			pool = reviewedOnly(candidates)
			break
		}
	}
	canonical := pool[0]

	// Alternates come from the original candidate list, de-duplicated by
	// accession, with the canonical excluded.
	seen := map[string]bool{canonical.Accession: true}
	var alternates []CandidateRecord
	for _, c := range candidates {
		if seen[c.Accession] {
			continue
		}
		seen[c.Accession] = true
		alternates = append(alternates, c)
	}

	return ResolutionResult{
		GeneSymbol:    symbol,
		Selected:      &canonical,
		Alternates:    alternates,
		StrategyIndex: strategyIndex,
		Ambiguous:     len(candidates) > 1,
	}
}

func reviewedOnly(candidates []CandidateRecord) []CandidateRecord {
	out := make([]CandidateRecord, 0, len(candidates))
	for _, c := range candidates {
		if c.Reviewed {
			out = append(out, c)
		}
	}
	return out
}

func failedResult(symbol string, failure *Failure) ResolutionResult {
	return ResolutionResult{
		GeneSymbol:    strings.TrimSpace(symbol),
		StrategyIndex: -1,
		Failure:       failure,
		FailureKind:   failure.Kind,
	}
}

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

import "time"

// CandidateRecord is one protein entry returned by the search service.
//
// Description:
//
//	Constructed only by the transport's parse step and never mutated
//	afterwards. The parse step applies explicit defaults (see
//	services/uniprot) so fields here are always populated: "Unknown" for
//	names the service omitted, never the empty string.
type CandidateRecord struct {
	// Accession is the stable external identifier, e.g. "P04637".
	Accession string `json:"accession"`

	// ID is the human-readable display id, e.g. "P53_HUMAN".
	ID string `json:"id"`

	// GeneNames is the primary gene name plus synonyms, space-joined.
	GeneNames string `json:"gene_names"`

	// ProteinName is the recommended protein display name.
	ProteinName string `json:"protein_name"`

	// Sequence is the amino-acid sequence. May be empty when the search
	// response omitted the sequence field.
	Sequence string `json:"sequence"`

	// Organism is the scientific organism name.
	Organism string `json:"organism"`

	// Reviewed reports whether the entry is manually curated.
	Reviewed bool `json:"reviewed"`

	// EntryType is the raw entry-type tag from the service.
	EntryType string `json:"entry_type"`
}

// ResolutionResult is the immutable outcome of resolving one gene symbol.
type ResolutionResult struct {
	// GeneSymbol is the (trimmed) input symbol this result belongs to.
	GeneSymbol string `json:"gene_symbol"`

	// Selected is the canonical candidate, nil when resolution failed.
	Selected *CandidateRecord `json:"selected,omitempty"`

	// Alternates lists every other candidate the succeeding strategy
	// returned, de-duplicated by accession and never containing the
	// canonical accession.
	Alternates []CandidateRecord `json:"alternates,omitempty"`

	// StrategyIndex is the zero-based index of the strategy that produced
	// the selection. -1 when no strategy succeeded.
	StrategyIndex int `json:"strategy_index"`

	// Ambiguous is set when the succeeding strategy returned more than one
	// candidate. Informational, not a failure.
	Ambiguous bool `json:"ambiguous"`

	// Failure is nil on success; otherwise it carries the failure kind and
	// underlying cause.
	Failure *Failure `json:"-"`

	// FailureKind duplicates Failure.Kind for serialized reports. Empty on
	// success.
	FailureKind FailureKind `json:"failure_kind,omitempty"`
}

// Resolved reports whether a canonical candidate was selected.
func (r ResolutionResult) Resolved() bool {
	return r.Selected != nil
}

// BatchReport is the aggregate outcome of a batch resolution run.
//
// Description:
//
//	Mutable only while ResolveAll is executing; frozen before being handed
//	to the caller. Iteration via Genes preserves input order regardless of
//	completion order.
type BatchReport struct {
	// RunID uniquely identifies this batch run in logs and progress events.
	RunID string `json:"run_id"`

	// Genes lists the unique, non-blank gene symbols in first-seen input
	// order. Each appears exactly once in Results.
	Genes []string `json:"genes"`

	// Results maps gene symbol to its resolution outcome.
	Results map[string]ResolutionResult `json:"results"`

	// Successes counts results with a selection.
	Successes int `json:"successes"`

	// Failures counts results without a selection.
	Failures int `json:"failures"`

	// AmbiguousCount counts successful results flagged ambiguous.
	AmbiguousCount int `json:"ambiguous_count"`

	// FailuresByKind breaks Failures down by failure kind.
	FailuresByKind map[FailureKind]int `json:"failures_by_kind"`

	// Elapsed is the total wall time of the batch run.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Result returns the resolution for gene and whether it was part of the run.
func (b *BatchReport) Result(gene string) (ResolutionResult, bool) {
	r, ok := b.Results[gene]
	return r, ok
}

// SuccessRate returns the fraction of genes that resolved, in [0, 1].
// Returns 0 for an empty report.
func (b *BatchReport) SuccessRate() float64 {
	if len(b.Genes) == 0 {
		return 0
	}
	return float64(b.Successes) / float64(len(b.Genes))
}

// FailedGenes returns the genes whose resolution failed, in input order.
// Useful for writing a re-run subset.
func (b *BatchReport) FailedGenes() []string {
	var failed []string
	for _, gene := range b.Genes {
		if !b.Results[gene].Resolved() {
			failed = append(failed, gene)
		}
	}
	return failed
}

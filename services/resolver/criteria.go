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
	"strings"
)

// BaseCriteria is the per-batch search configuration.
//
// Description:
//
//	Supplied once per batch and treated as immutable. The planner derives
//	the four-step waterfall from it; the ReviewedOnly and ExactMatch fields
//	act as the starting point that the waterfall progressively relaxes.
//
// Thread Safety: Value type, copied everywhere; safe for concurrent use.
type BaseCriteria struct {
	// OrganismID is the NCBI taxonomy identifier as a string, e.g. "9606"
	// for human. Empty means no organism filter.
	OrganismID string

	// ReviewedOnly restricts matches to manually curated entries.
	ReviewedOnly bool

	// ExactMatch uses the exact gene-name clause instead of the fuzzy one.
	ExactMatch bool

	// MaxResults caps the number of candidates requested per strategy.
	MaxResults int
}

// Validate rejects criteria that would produce nonsense queries.
//
// Description:
//
//	Called by NewEngine so that malformed criteria fail fast, before any
//	network activity. OrganismID may be empty (no organism clause) but if
//	present must be a numeric taxonomy id.
func (c BaseCriteria) Validate() error {
	if c.MaxResults < 1 {
		return fmt.Errorf("resolver: max results must be >= 1, got %d", c.MaxResults)
	}
	if c.OrganismID != "" {
		for _, r := range c.OrganismID {
			if r < '0' || r > '9' {
				return fmt.Errorf("resolver: organism id %q is not a numeric taxonomy id", c.OrganismID)
			}
		}
	}
	return nil
}

// Strategy is one step of the query waterfall.
//
// Description:
//
//	A Strategy is a fully resolved set of query knobs: the planner fixes
//	ReviewedOnly and ExactMatch per step while OrganismID and MaxResults
//	carry over from the base criteria. Strategies are plain comparable
//	values so a planned waterfall can be compared with ==.
type Strategy struct {
	OrganismID   string
	ReviewedOnly bool
	ExactMatch   bool
	MaxResults   int
}

// Query renders the strategy as an AND-joined boolean query for the given
// gene symbol.
//
// Description:
//
//	Clause order is fixed: gene match, then organism filter (if any), then
//	reviewed filter (if required). Example output for TP53 under the
//	strictest strategy:
//
//	  gene_exact:TP53 AND organism_id:9606 AND reviewed:true
func (s Strategy) Query(geneSymbol string) string {
	parts := make([]string, 0, 3)

	if s.ExactMatch {
		parts = append(parts, "gene_exact:"+geneSymbol)
	} else {
		parts = append(parts, "gene:"+geneSymbol)
	}
	if s.OrganismID != "" {
		parts = append(parts, "organism_id:"+s.OrganismID)
	}
	if s.ReviewedOnly {
		parts = append(parts, "reviewed:true")
	}

	return strings.Join(parts, " AND ")
}

// NumStrategies is the fixed length of every planned waterfall.
const NumStrategies = 4

// PlanStrategies produces the fixed, ordered query waterfall for base.
//
// Description:
//
//	Precision-first, recall-fallback: try the strictest filter (curated +
//	exact) before relaxing curation status, then before relaxing match
//	exactness. The function is pure: identical input always yields an
//	identical, equality-comparable strategy list.
//
// Outputs:
//   - []Strategy: Always exactly NumStrategies entries, in order:
//     1. reviewed-only + exact match
//     2. unreviewed allowed + exact match
//     3. reviewed-only + fuzzy match
//     4. unreviewed allowed + fuzzy match
func PlanStrategies(base BaseCriteria) []Strategy {
	steps := [NumStrategies]struct {
		reviewed bool
		exact    bool
	}{
		{reviewed: true, exact: true},
		{reviewed: false, exact: true},
		{reviewed: true, exact: false},
		{reviewed: false, exact: false},
	}

	strategies := make([]Strategy, 0, NumStrategies)
	for _, step := range steps {
		strategies = append(strategies, Strategy{
			OrganismID:   base.OrganismID,
			ReviewedOnly: step.reviewed,
			ExactMatch:   step.exact,
			MaxResults:   base.MaxResults,
		})
	}
	return strategies
}

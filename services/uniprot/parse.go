// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package uniprot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/resolver"
)

// unknownValue is the documented default for display fields the service
// omitted. Accession is the one field with no default: an entry without a
// stable identifier is unusable and is rejected by the parse step.
const unknownValue = "Unknown"

// reviewedEntryPrefix distinguishes curated entries in the entryType tag,
// e.g. "UniProtKB reviewed (Swiss-Prot)".
const reviewedEntryPrefix = "UniProtKB reviewed"

// --- Wire Types ---

type searchResponse struct {
	Results []entryJSON `json:"results"`
}

type entryJSON struct {
	PrimaryAccession   string           `json:"primaryAccession"`
	UniProtkbID        string           `json:"uniProtkbId"`
	EntryType          string           `json:"entryType"`
	Genes              []geneJSON       `json:"genes"`
	ProteinDescription *descriptionJSON `json:"proteinDescription"`
	Organism           *organismJSON    `json:"organism"`
	Sequence           *sequenceJSON    `json:"sequence"`
}

type geneJSON struct {
	GeneName *valueJSON  `json:"geneName"`
	Synonyms []valueJSON `json:"synonyms"`
}

type descriptionJSON struct {
	RecommendedName *recommendedNameJSON `json:"recommendedName"`
}

type recommendedNameJSON struct {
	FullName *valueJSON `json:"fullName"`
}

type organismJSON struct {
	ScientificName string `json:"scientificName"`
}

type sequenceJSON struct {
	Value string `json:"value"`
}

type valueJSON struct {
	Value string `json:"value"`
}

// parseSearchResponse decodes a search payload into candidate records.
//
// Description:
//
//	Strict parse step: the JSON must decode, every entry must carry a
//	primary accession, and all display fields get explicit defaults
//	("Unknown") instead of silently empty strings. This isolates the wire
//	format from the internal CandidateRecord type.
func parseSearchResponse(body []byte) ([]resolver.CandidateRecord, error) {
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	records := make([]resolver.CandidateRecord, 0, len(payload.Results))
	for i, entry := range payload.Results {
		record, err := candidateFromEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// candidateFromEntry maps one wire entry to an immutable CandidateRecord.
func candidateFromEntry(entry entryJSON) (resolver.CandidateRecord, error) {
	if entry.PrimaryAccession == "" {
		return resolver.CandidateRecord{}, fmt.Errorf("missing primaryAccession")
	}

	record := resolver.CandidateRecord{
		Accession:   entry.PrimaryAccession,
		ID:          entry.UniProtkbID,
		GeneNames:   geneNamesOf(entry.Genes),
		ProteinName: unknownValue,
		Organism:    unknownValue,
		Reviewed:    strings.HasPrefix(entry.EntryType, reviewedEntryPrefix),
		EntryType:   entry.EntryType,
	}
	if record.ID == "" {
		record.ID = entry.PrimaryAccession
	}
	if entry.EntryType == "" {
		record.EntryType = unknownValue
	}
	if d := entry.ProteinDescription; d != nil && d.RecommendedName != nil &&
		d.RecommendedName.FullName != nil && d.RecommendedName.FullName.Value != "" {
		record.ProteinName = d.RecommendedName.FullName.Value
	}
	if entry.Organism != nil && entry.Organism.ScientificName != "" {
		record.Organism = entry.Organism.ScientificName
	}
	if entry.Sequence != nil {
		record.Sequence = entry.Sequence.Value
	}
	return record, nil
}

// geneNamesOf flattens primary gene names and synonyms into one
// space-joined string. Empty when the service sent no gene block.
func geneNamesOf(genes []geneJSON) string {
	var names []string
	for _, g := range genes {
		if g.GeneName != nil && g.GeneName.Value != "" {
			names = append(names, g.GeneName.Value)
		}
		for _, syn := range g.Synonyms {
			if syn.Value != "" {
				names = append(names, syn.Value)
			}
		}
	}
	return strings.Join(names, " ")
}

// parseSequenceResponse decodes a single-entry payload down to its
// amino-acid sequence.
func parseSequenceResponse(body []byte) (string, error) {
	var entry struct {
		Sequence *sequenceJSON `json:"sequence"`
	}
	if err := json.Unmarshal(body, &entry); err != nil {
		return "", fmt.Errorf("decoding JSON: %w", err)
	}
	if entry.Sequence == nil || entry.Sequence.Value == "" {
		return "", fmt.Errorf("entry carries no sequence")
	}
	return entry.Sequence.Value, nil
}

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
	"testing"
)

func TestParseSearchResponse_SparseEntryGetsDefaults(t *testing.T) {
	body := []byte(`{"results": [{"primaryAccession": "A0A024"}]}`)

	records, err := parseSearchResponse(body)
	if err != nil {
		t.Fatalf("parseSearchResponse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.ID != "A0A024" {
		t.Errorf("ID = %q, want accession fallback A0A024", rec.ID)
	}
	if rec.ProteinName != unknownValue {
		t.Errorf("ProteinName = %q, want %q", rec.ProteinName, unknownValue)
	}
	if rec.Organism != unknownValue {
		t.Errorf("Organism = %q, want %q", rec.Organism, unknownValue)
	}
	if rec.EntryType != unknownValue {
		t.Errorf("EntryType = %q, want %q", rec.EntryType, unknownValue)
	}
	if rec.Reviewed {
		t.Error("entry with no entryType marked reviewed")
	}
	if rec.GeneNames != "" {
		t.Errorf("GeneNames = %q, want empty", rec.GeneNames)
	}
}

func TestParseSearchResponse_RejectsMissingAccession(t *testing.T) {
	body := []byte(`{"results": [{"uniProtkbId": "P53_HUMAN"}]}`)
	if _, err := parseSearchResponse(body); err == nil {
		t.Error("entry without primaryAccession accepted")
	}
}

func TestParseSearchResponse_RejectsMalformedJSON(t *testing.T) {
	if _, err := parseSearchResponse([]byte(`{"results": [`)); err == nil {
		t.Error("truncated JSON accepted")
	}
}

func TestCandidateFromEntry_ReviewedPrefix(t *testing.T) {
	tests := []struct {
		entryType string
		want      bool
	}{
		{"UniProtKB reviewed (Swiss-Prot)", true},
		{"UniProtKB reviewed", true},
		{"UniProtKB unreviewed (TrEMBL)", false},
		{"", false},
		{"Inactive", false},
	}

	for _, tt := range tests {
		rec, err := candidateFromEntry(entryJSON{
			PrimaryAccession: "P04637",
			EntryType:        tt.entryType,
		})
		if err != nil {
			t.Fatalf("candidateFromEntry(%q): %v", tt.entryType, err)
		}
		if rec.Reviewed != tt.want {
			t.Errorf("Reviewed for entryType %q = %v, want %v", tt.entryType, rec.Reviewed, tt.want)
		}
	}
}

func TestGeneNamesOf_FlattensNamesAndSynonyms(t *testing.T) {
	genes := []geneJSON{
		{
			GeneName: &valueJSON{Value: "TP53"},
			Synonyms: []valueJSON{{Value: "P53"}, {Value: ""}},
		},
		{
			GeneName: &valueJSON{Value: "TRP53"},
		},
		{
			// No primary name block at all.
			Synonyms: []valueJSON{{Value: "LFS1"}},
		},
	}

	got := geneNamesOf(genes)
	if got != "TP53 P53 TRP53 LFS1" {
		t.Errorf("geneNamesOf = %q, want %q", got, "TP53 P53 TRP53 LFS1")
	}
}

func TestParseSequenceResponse(t *testing.T) {
	seq, err := parseSequenceResponse([]byte(`{"sequence": {"value": "MEEPQSDPSV"}}`))
	if err != nil {
		t.Fatalf("parseSequenceResponse: %v", err)
	}
	if seq != "MEEPQSDPSV" {
		t.Errorf("sequence = %q, want MEEPQSDPSV", seq)
	}

	if _, err := parseSequenceResponse([]byte(`{}`)); err == nil {
		t.Error("entry without sequence accepted")
	}
	if _, err := parseSequenceResponse([]byte(`{"sequence": {"value": ""}}`)); err == nil {
		t.Error("empty sequence accepted")
	}
}

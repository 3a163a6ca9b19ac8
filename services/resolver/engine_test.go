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
	"sync"
	"testing"
)

// fakeTransport scripts per-call responses and records every query.
type fakeTransport struct {
	mu      sync.Mutex
	queries []string
	respond func(call int, query string) ([]CandidateRecord, error)
}

func (f *fakeTransport) Search(_ context.Context, query string, _ int) ([]CandidateRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	call := len(f.queries)
	f.mu.Unlock()
	return f.respond(call, query)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func testBase() BaseCriteria {
	return BaseCriteria{OrganismID: "9606", ReviewedOnly: true, ExactMatch: true, MaxResults: 10}
}

func reviewedCandidate(accession string) CandidateRecord {
	return CandidateRecord{
		Accession:   accession,
		ID:          accession + "_HUMAN",
		ProteinName: "Cellular tumor antigen p53",
		Organism:    "Homo sapiens",
		Sequence:    "MEEPQSDPSV",
		Reviewed:    true,
		EntryType:   "UniProtKB reviewed (Swiss-Prot)",
	}
}

func unreviewedCandidate(accession string) CandidateRecord {
	return CandidateRecord{
		Accession: accession,
		ID:        accession + "_HUMAN",
		EntryType: "UniProtKB unreviewed (TrEMBL)",
	}
}

func TestEngine_Resolve_BlankSymbolNoNetwork(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		t.Fatal("transport must not be called for blank input")
		return nil, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for _, symbol := range []string{"", "   ", "\t"} {
		res := engine.Resolve(context.Background(), symbol)
		if res.Resolved() {
			t.Errorf("Resolve(%q) resolved, want failure", symbol)
		}
		if res.FailureKind != KindInvalidInput {
			t.Errorf("Resolve(%q) kind = %q, want %q", symbol, res.FailureKind, KindInvalidInput)
		}
	}
	if transport.callCount() != 0 {
		t.Errorf("transport called %d times, want 0", transport.callCount())
	}
}

func TestEngine_Resolve_FirstSuccessShortCircuits(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return []CandidateRecord{reviewedCandidate("P04637")}, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "TP53")
	if !res.Resolved() {
		t.Fatalf("Resolve failed: %v", res.Failure)
	}
	if transport.callCount() != 1 {
		t.Errorf("transport called %d times, want 1", transport.callCount())
	}
	if res.StrategyIndex != 0 {
		t.Errorf("StrategyIndex = %d, want 0", res.StrategyIndex)
	}
	if res.Ambiguous {
		t.Error("single candidate flagged ambiguous")
	}
	if got := transport.queries[0]; got != "gene_exact:TP53 AND organism_id:9606 AND reviewed:true" {
		t.Errorf("first query = %q", got)
	}
}

func TestEngine_Resolve_ExhaustsAllStrategies(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return nil, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "NOTAREALGENE123")
	if res.Resolved() {
		t.Fatal("Resolve succeeded on empty transport")
	}
	if transport.callCount() != NumStrategies {
		t.Errorf("transport called %d times, want %d", transport.callCount(), NumStrategies)
	}
	if res.FailureKind != KindNotFound {
		t.Errorf("kind = %q, want %q", res.FailureKind, KindNotFound)
	}
	if res.StrategyIndex != -1 {
		t.Errorf("StrategyIndex = %d, want -1", res.StrategyIndex)
	}
}

func TestEngine_Resolve_TransportFailureAdvancesWaterfall(t *testing.T) {
	transport := &fakeTransport{respond: func(call int, _ string) ([]CandidateRecord, error) {
		if call == 1 {
			return nil, NewFailure(KindTransportError, context.DeadlineExceeded)
		}
		return []CandidateRecord{reviewedCandidate("P04637")}, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "TP53")
	if !res.Resolved() {
		t.Fatalf("Resolve failed: %v", res.Failure)
	}
	if res.StrategyIndex != 1 {
		t.Errorf("StrategyIndex = %d, want 1 (second strategy)", res.StrategyIndex)
	}
}

func TestEngine_Resolve_RateLimitSurfacesOnExhaustion(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return nil, NewFailure(KindRateLimited, nil)
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "TP53")
	if res.Resolved() {
		t.Fatal("Resolve succeeded on rate-limited transport")
	}
	if res.FailureKind != KindRateLimited {
		t.Errorf("kind = %q, want %q", res.FailureKind, KindRateLimited)
	}
	if transport.callCount() != NumStrategies {
		t.Errorf("transport called %d times, want %d", transport.callCount(), NumStrategies)
	}
}

func TestEngine_Resolve_ReviewedPreference(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return []CandidateRecord{
			unreviewedCandidate("A0A024"),
			reviewedCandidate("P04637"),
			unreviewedCandidate("A0A025"),
		}, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "TP53")
	if !res.Resolved() {
		t.Fatalf("Resolve failed: %v", res.Failure)
	}
	if res.Selected.Accession != "P04637" {
		t.Errorf("selected %q, want reviewed P04637", res.Selected.Accession)
	}
	if !res.Ambiguous {
		t.Error("three candidates not flagged ambiguous")
	}
	if len(res.Alternates) != 2 {
		t.Fatalf("alternates = %d, want 2", len(res.Alternates))
	}
	for _, alt := range res.Alternates {
		if alt.Accession == res.Selected.Accession {
			t.Errorf("alternates contain canonical accession %q", alt.Accession)
		}
	}
}

func TestEngine_Resolve_AlternatesDeduplicated(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return []CandidateRecord{
			unreviewedCandidate("A0A024"),
			unreviewedCandidate("A0A024"),
			unreviewedCandidate("A0A025"),
		}, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res := engine.Resolve(context.Background(), "TP53")
	if !res.Resolved() {
		t.Fatalf("Resolve failed: %v", res.Failure)
	}
	// No reviewed candidates: the pool is the original list, first wins.
	if res.Selected.Accession != "A0A024" {
		t.Errorf("selected %q, want A0A024", res.Selected.Accession)
	}
	if len(res.Alternates) != 1 || res.Alternates[0].Accession != "A0A025" {
		t.Errorf("alternates = %v, want exactly [A0A025]", res.Alternates)
	}
}

func TestEngine_Resolve_CanceledContext(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) {
		return []CandidateRecord{reviewedCandidate("P04637")}, nil
	}}
	engine, err := NewEngine(transport, testBase(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := engine.Resolve(ctx, "TP53")
	if res.Resolved() {
		t.Fatal("Resolve succeeded under canceled context")
	}
	if res.FailureKind != KindTransportError {
		t.Errorf("kind = %q, want %q", res.FailureKind, KindTransportError)
	}
	if transport.callCount() != 0 {
		t.Errorf("transport called %d times after cancellation, want 0", transport.callCount())
	}
}

func TestNewEngine_RejectsMalformedCriteria(t *testing.T) {
	transport := &fakeTransport{respond: func(int, string) ([]CandidateRecord, error) { return nil, nil }}

	if _, err := NewEngine(nil, testBase(), nil); err == nil {
		t.Error("NewEngine accepted nil transport")
	}
	if _, err := NewEngine(transport, BaseCriteria{OrganismID: "9606"}, nil); err == nil {
		t.Error("NewEngine accepted zero MaxResults")
	}
	if _, err := NewEngine(transport, BaseCriteria{OrganismID: "human", MaxResults: 10}, nil); err == nil {
		t.Error("NewEngine accepted non-numeric organism id")
	}
}

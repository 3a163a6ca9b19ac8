// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report writes BatchReport data to the file formats downstream
// structure-prediction tooling consumes: a CSV summary, a full JSON dump, a
// FASTA of resolved sequences, and a failed-gene CSV for targeted re-runs.
// It consumes the frozen report and applies no resolution logic.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/resolver"
)

// csvHeader is the column layout of the summary CSV, one row per gene in
// input order.
var csvHeader = []string{
	"gene", "accession", "id", "protein_name", "organism", "reviewed",
	"entry_type", "strategy", "ambiguous", "alternate_accessions", "error",
}

// WriteCSV writes the per-gene summary table.
func WriteCSV(rep *resolver.BatchReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("report: writing header: %w", err)
	}
	for _, gene := range rep.Genes {
		res := rep.Results[gene]
		if err := w.Write(csvRow(res)); err != nil {
			return fmt.Errorf("report: writing row for %s: %w", gene, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flushing %s: %w", path, err)
	}
	return nil
}

func csvRow(res resolver.ResolutionResult) []string {
	if !res.Resolved() {
		return []string{
			res.GeneSymbol, "", "", "", "", "", "", "", "false", "",
			string(res.FailureKind),
		}
	}

	sel := res.Selected
	alternates := make([]string, 0, len(res.Alternates))
	for _, alt := range res.Alternates {
		alternates = append(alternates, alt.Accession)
	}
	return []string{
		res.GeneSymbol,
		sel.Accession,
		sel.ID,
		sel.ProteinName,
		sel.Organism,
		strconv.FormatBool(sel.Reviewed),
		sel.EntryType,
		strconv.Itoa(res.StrategyIndex + 1),
		strconv.FormatBool(res.Ambiguous),
		strings.Join(alternates, ";"),
		"",
	}
}

// WriteJSON dumps the full report, including alternates, for archival and
// downstream JSON tooling.
func WriteJSON(rep *resolver.BatchReport, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteFASTA writes resolved sequences as FASTA, one record per gene whose
// canonical candidate carried a sequence. Headers are the accession followed
// by the gene symbol, e.g. ">P04637 GN=TP53".
func WriteFASTA(rep *resolver.BatchReport, path string) error {
	var sb strings.Builder
	for _, gene := range rep.Genes {
		res := rep.Results[gene]
		if !res.Resolved() || res.Selected.Sequence == "" {
			continue
		}
		fmt.Fprintf(&sb, ">%s GN=%s\n%s\n", res.Selected.Accession, gene, res.Selected.Sequence)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteSequencesFASTA writes accession → sequence pairs in the given order.
// Used by the direct sequence-fetch path, which has no BatchReport.
func WriteSequencesFASTA(order []string, sequences map[string]string, path string) error {
	var sb strings.Builder
	for _, accession := range order {
		seq, ok := sequences[accession]
		if !ok || seq == "" {
			continue
		}
		fmt.Fprintf(&sb, ">%s\n%s\n", accession, seq)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteFailedCSV writes the genes that did not resolve, with their failure
// kinds, so a later run can retry just the transient subset.
func WriteFailedCSV(rep *resolver.BatchReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"gene", "error"}); err != nil {
		return fmt.Errorf("report: writing header: %w", err)
	}
	for _, gene := range rep.FailedGenes() {
		res := rep.Results[gene]
		if err := w.Write([]string{gene, string(res.FailureKind)}); err != nil {
			return fmt.Errorf("report: writing row for %s: %w", gene, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flushing %s: %w", path, err)
	}
	return nil
}

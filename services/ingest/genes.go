// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest loads gene-symbol and accession lists from delimited files.
// It sits outside the resolution core: it produces the ordered string slice
// the batch resolver consumes and applies no resolution logic of its own.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultGeneColumn is the column name gene lists usually arrive under.
const DefaultGeneColumn = "GENE"

// DefaultAccessionColumn is the column name accession lists arrive under.
const DefaultAccessionColumn = "protein_id"

// ReadColumn extracts one named column from a TSV or CSV file.
//
// Description:
//
//	The delimiter is chosen by extension: ".tsv" and ".tab" read as
//	tab-separated, everything else as comma-separated. The first row is the
//	header; the named column is matched after trimming whitespace. Blank
//	cells are dropped; duplicates are preserved (de-duplication is the
//	batch resolver's job, which keeps first-seen order authoritative).
//
// Inputs:
//   - path: The delimited file to read.
//   - column: The header name of the wanted column.
//
// Outputs:
//   - []string: Cell values in file order, blanks removed.
//   - error: Non-nil when the file is unreadable, empty, or lacks the column.
func ReadColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delimiterFor(path)
	// Ragged rows are common in hand-edited spreadsheet exports.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest: %s is empty", path)
	}

	colIdx := -1
	for i, header := range rows[0] {
		if strings.TrimSpace(header) == column {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, fmt.Errorf("ingest: column %q not found in %s (headers: %s)",
			column, path, strings.Join(rows[0], ", "))
	}

	values := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if colIdx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[colIdx])
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// ReadGeneList reads gene symbols from the given file using the default
// gene column.
func ReadGeneList(path string) ([]string, error) {
	return ReadColumn(path, DefaultGeneColumn)
}

// ReadAccessionList reads protein accessions from the given file using the
// default accession column.
func ReadAccessionList(path string) ([]string, error) {
	return ReadColumn(path, DefaultAccessionColumn)
}

func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package uniprot is the rate-limited transport to the UniProt REST API.
// It implements resolver.SearchTransport for gene searches and a single
// accession sequence fetch, with bounded retry on 429 and transient
// failures and a strict parse step that isolates the wire format from the
// internal CandidateRecord type.
package uniprot

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver implements the gene-symbol to protein-record resolution
// engine: a fixed waterfall of search strategies, a per-gene resolution
// algorithm with ambiguity handling, and a batch orchestrator that turns an
// ordered list of gene symbols into an auditable report.
//
// The package is transport-agnostic. It consumes any SearchTransport
// implementation (the production one lives in services/uniprot) and never
// performs file I/O itself; loaders and writers sit at its boundary.
//
// Thread Safety:
//
//	Engine and Throttle are safe for concurrent use. BatchReport is mutable
//	only while ResolveAll is running and frozen before it is returned.
package resolver

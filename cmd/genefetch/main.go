// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// genefetch resolves gene symbols to canonical protein records via the
// UniProt REST API and writes the results for downstream structure
// prediction jobs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/ingest"
	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/report"
	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/resolver"
	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/uniprot"
)

// Flag values shared by the subcommands.
var (
	configPath  string
	inputPath   string
	columnName  string
	outDir      string
	organismID  string
	concurrency int
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "genefetch",
		Short: "Resolve gene symbols to canonical protein records",
		Long: `genefetch converts gene-symbol lists into structured protein identities
using the UniProt search API, with a precision-first fallback waterfall,
rate-limited transport, and an auditable per-gene report.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults apply when omitted)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a gene list and write CSV/JSON/FASTA reports",
		RunE:  runResolve,
	}
	resolveCmd.Flags().StringVarP(&inputPath, "input", "i", "", "TSV/CSV file with gene symbols (required)")
	resolveCmd.Flags().StringVar(&columnName, "column", ingest.DefaultGeneColumn, "header of the gene column")
	resolveCmd.Flags().StringVarP(&outDir, "out-dir", "o", "results", "output directory")
	resolveCmd.Flags().StringVar(&organismID, "organism", "", "taxonomy id override, e.g. 9606")
	resolveCmd.Flags().IntVar(&concurrency, "concurrency", 0, "genes resolved in parallel (overrides config)")
	_ = resolveCmd.MarkFlagRequired("input")

	sequencesCmd := &cobra.Command{
		Use:   "sequences",
		Short: "Fetch amino-acid sequences for an accession list into FASTA",
		RunE:  runSequences,
	}
	sequencesCmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file with protein accessions (required)")
	sequencesCmd.Flags().StringVar(&columnName, "column", ingest.DefaultAccessionColumn, "header of the accession column")
	sequencesCmd.Flags().StringVarP(&outDir, "out-dir", "o", "results", "output directory")
	_ = sequencesCmd.MarkFlagRequired("input")

	root.AddCommand(resolveCmd, sequencesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides, and wires the shared pieces.
func setup() (resolver.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := resolver.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = resolver.LoadConfig(configPath)
		if err != nil {
			return resolver.Config{}, nil, err
		}
	}
	if organismID != "" {
		cfg.OrganismID = organismID
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if err := cfg.Validate(); err != nil {
		return resolver.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	genes, err := ingest.ReadColumn(inputPath, columnName)
	if err != nil {
		return err
	}
	logger.Info("loaded gene list",
		slog.String("input", inputPath),
		slog.Int("symbols", len(genes)),
	)

	throttle, err := resolver.NewThrottleFromConfig(cfg)
	if err != nil {
		return err
	}
	client := uniprot.NewClient(
		uniprot.WithBaseURL(cfg.BaseURL),
		uniprot.WithMaxRetries(cfg.MaxRetries),
		uniprot.WithTimeout(cfg.RequestTimeout()),
		uniprot.WithThrottle(throttle),
		uniprot.WithLogger(logger),
	)
	engine, err := resolver.NewEngine(client, cfg.Criteria(), logger)
	if err != nil {
		return err
	}
	batch := resolver.NewBatchResolver(engine,
		resolver.WithConcurrency(cfg.Concurrency),
		resolver.WithProgressEvery(cfg.ProgressEvery),
		resolver.WithObserver(resolver.SlogObserver{Logger: logger}),
		resolver.WithBatchLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := batch.ResolveAll(ctx, genes)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	stem := inputStem(inputPath)
	if err := report.WriteCSV(rep, filepath.Join(outDir, stem+"_proteins.csv")); err != nil {
		return err
	}
	if err := report.WriteJSON(rep, filepath.Join(outDir, stem+"_proteins.json")); err != nil {
		return err
	}
	if err := report.WriteFASTA(rep, filepath.Join(outDir, stem+"_sequences.fasta")); err != nil {
		return err
	}
	if rep.Failures > 0 {
		if err := report.WriteFailedCSV(rep, filepath.Join(outDir, stem+"_failed.csv")); err != nil {
			return err
		}
	}

	logger.Info("resolution run finished",
		slog.String("run_id", rep.RunID),
		slog.Int("genes", len(rep.Genes)),
		slog.Int("successes", rep.Successes),
		slog.Int("failures", rep.Failures),
		slog.Int("ambiguous", rep.AmbiguousCount),
		slog.Float64("success_rate", rep.SuccessRate()),
		slog.Duration("elapsed", rep.Elapsed),
	)
	fmt.Printf("Resolved %d/%d genes (%.1f%%), %d ambiguous, in %s. Reports in %s.\n",
		rep.Successes, len(rep.Genes), rep.SuccessRate()*100, rep.AmbiguousCount,
		rep.Elapsed.Round(100*time.Millisecond), outDir)
	return nil
}

func runSequences(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	accessions, err := ingest.ReadColumn(inputPath, columnName)
	if err != nil {
		return err
	}

	throttle, err := resolver.NewThrottleFromConfig(cfg)
	if err != nil {
		return err
	}
	client := uniprot.NewClient(
		uniprot.WithBaseURL(cfg.BaseURL),
		uniprot.WithMaxRetries(cfg.MaxRetries),
		uniprot.WithTimeout(cfg.RequestTimeout()),
		uniprot.WithThrottle(throttle),
		uniprot.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// De-duplicate preserving first-seen order, mirroring the batch
	// resolver's discipline for gene symbols.
	seen := make(map[string]bool, len(accessions))
	var order []string
	sequences := make(map[string]string)
	var failed []string
	for _, accession := range accessions {
		if seen[accession] {
			continue
		}
		seen[accession] = true
		order = append(order, accession)

		seq, err := client.FetchSequence(ctx, accession)
		if err != nil {
			logger.Warn("sequence fetch failed",
				slog.String("accession", accession),
				slog.Any("error", err),
			)
			failed = append(failed, accession)
			continue
		}
		sequences[accession] = seq
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	out := filepath.Join(outDir, inputStem(inputPath)+"_sequences.fasta")
	if err := report.WriteSequencesFASTA(order, sequences, out); err != nil {
		return err
	}

	fmt.Printf("Fetched %d/%d sequences into %s (%d failed).\n",
		len(sequences), len(order), out, len(failed))
	return nil
}

// inputStem is the input filename without directory or extension, used to
// derive output filenames.
func inputStem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

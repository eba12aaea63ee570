// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/originstats/services/origins/graph"
	"github.com/AleutianAI/originstats/services/origins/storage/badger"
)

var (
	flagImportSrc string
	flagImportDst string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build a graph dataset from a JSON graph description",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportSrc, "src", "", "JSON graph description file")
	importCmd.Flags().StringVar(&flagImportDst, "dst", "", "dataset directory to create")
	importCmd.MarkFlagRequired("src")
	importCmd.MarkFlagRequired("dst")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(flagImportSrc)
	if err != nil {
		return fmt.Errorf("open description: %w", err)
	}
	defer f.Close()

	g, err := graph.ParseDescription(f)
	if err != nil {
		return err
	}

	cfg := badger.DefaultConfig()
	cfg.Path = flagImportDst
	cfg.Logger = slog.Default()
	db, err := badger.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := graph.ImportDataset(db, g); err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}
	slog.Info("dataset imported",
		slog.String("path", flagImportDst),
		slog.Uint64("nodes", g.NodeCount()),
		slog.Uint64("arcs", g.ArcCount()))
	return nil
}

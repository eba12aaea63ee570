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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagComputeDrop     bool
	flagComputeTruncate int
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute all origin statistics offline and persist the cache",
	RunE:  runCompute,
}

func init() {
	computeCmd.Flags().BoolVar(&flagComputeDrop, "drop-no-snapshot", false,
		"discard origins without a resolvable snapshot when computing")
	computeCmd.Flags().IntVar(&flagComputeTruncate, "truncate", 0,
		"keep only the first N records before persisting (0 = keep all)")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, ds, err := openStore(flagComputeDrop)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := st.LoadOrCompute(ctx); err != nil {
		return fmt.Errorf("load origins: %w", err)
	}
	if flagComputeTruncate > 0 {
		st.Truncate(flagComputeTruncate)
	}

	slog.Info("computing statistics", slog.Int("origins", st.Len()))
	if err := st.ComputeAllRecords(ctx); err != nil {
		return err
	}
	if err := st.Persist(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	slog.Info("cache written", slog.String("path", st.CacheFile()))
	return nil
}

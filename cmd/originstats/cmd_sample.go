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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var flagSampleN int

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a uniform random sample of records to a separate cache file",
	RunE:  runSample,
}

func init() {
	sampleCmd.Flags().IntVar(&flagSampleN, "n", 100, "sample size")
	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, ds, err := openStore(false)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := st.LoadOrCompute(ctx); err != nil {
		return fmt.Errorf("load origins: %w", err)
	}
	return st.Sample(flagSampleN)
}

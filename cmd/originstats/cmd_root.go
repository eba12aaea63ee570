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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/originstats/pkg/logging"
	"github.com/AleutianAI/originstats/services/origins/graph"
	"github.com/AleutianAI/originstats/services/origins/store"
)

var (
	flagGraphPath string
	flagDataDir   string
	flagFormat    string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "originstats",
	Short:         "Origin statistics engine and API for provenance graphs",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagGraphPath, "graph", "",
		"path to the graph dataset directory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data", "./data",
		"directory for cache files")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json",
		`cache file format: "json" or "binary"`)
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "log", false,
		"enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(logging.New(logging.Config{
			Level:   level,
			Service: "originstats",
		}))
	}
}

// openStore loads the graph dataset and constructs a store over it. A graph
// load failure is fatal: the process cannot do anything without a graph.
func openStore(dropNoSnapshot bool) (*store.Store, *graph.Dataset, error) {
	if flagGraphPath == "" {
		return nil, nil, fmt.Errorf("--graph is required")
	}
	codec := store.CodecFor(flagFormat)
	if codec == nil {
		return nil, nil, fmt.Errorf("unknown cache format %q", flagFormat)
	}

	ds, err := graph.OpenDataset(flagGraphPath, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("load graph: %w", err)
	}
	slog.Info("graph loaded",
		slog.Uint64("nodes", ds.NodeCount()),
		slog.Uint64("arcs", ds.ArcCount()))

	st := store.New(ds, store.Config{
		DataDir:        flagDataDir,
		Codec:          codec,
		DropNoSnapshot: dropNoSnapshot,
		Logger:         slog.Default(),
	})
	return st, ds, nil
}

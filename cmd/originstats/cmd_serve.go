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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/originstats/services/origins"
	"github.com/AleutianAI/originstats/services/origins/telemetry"
)

var (
	flagHost           string
	flagPort           int
	flagFilterActive   bool
	flagPrecompute     bool
	flagDropNoSnapshot bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve origin statistics over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "127.0.0.1", "host to bind")
	serveCmd.Flags().IntVar(&flagPort, "port", 5000, "port to bind")
	serveCmd.Flags().BoolVar(&flagFilterActive, "filter-active", true,
		"restrict GET /origins to origins with cached commits and a commit date")
	serveCmd.Flags().BoolVar(&flagPrecompute, "precompute", false,
		"run the bulk statistics pass before binding")
	serveCmd.Flags().BoolVar(&flagDropNoSnapshot, "drop-no-snapshot", false,
		"discard origins without a resolvable snapshot when computing")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx,
		telemetry.DefaultConfig("originstats", origins.ServiceVersion))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	st, ds, err := openStore(flagDropNoSnapshot)
	if err != nil {
		return err
	}
	defer ds.Close()

	slog.Info("loading origins")
	if err := st.LoadOrCompute(ctx); err != nil {
		return fmt.Errorf("load origins: %w", err)
	}
	if flagPrecompute {
		slog.Info("precomputing statistics", slog.Int("origins", st.Len()))
		if err := st.ComputeAllRecords(ctx); err != nil {
			return err
		}
		if err := st.Persist(); err != nil {
			slog.Warn("failed to persist precomputed cache",
				slog.String("error", err.Error()))
		}
	}

	svcCfg := origins.DefaultServiceConfig()
	svcCfg.FilterActive = flagFilterActive
	svc := origins.NewService(st, svcCfg)

	if flagVerbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(origins.RequestIDMiddleware())
	router.Use(origins.CORSMiddleware())
	if flagVerbose {
		router.Use(origins.DebugLogMiddleware(slog.Default()))
	}

	origins.RegisterRoutes(router, origins.NewHandlers(svc))
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	addr := fmt.Sprintf("%s:%d", flagHost, flagPort)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

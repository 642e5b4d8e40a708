// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/socsys/fidentikit/pkg/clientsets"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/dispatcher"
	"github.com/socsys/fidentikit/pkg/logger/conf"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
	"github.com/socsys/fidentikit/pkg/server"
)

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.LogLevel != "" {
		log.SetLevel(conf.ParseLevel(cfg.LogLevel))
	}
	if err := cfg.Validate(true, true); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		cancel()
	}()

	if err := clientsets.InitClientSets(ctx, cfg, true, true); err != nil {
		log.Fatalf("failed to initialize clients: %v", err)
	}
	cs := clientsets.GetClientSet()
	for _, analyzer := range model.KnownAnalyzers {
		if err := cs.Broker.DeclareQueue(analyzer); err != nil {
			log.Fatalf("failed to declare queue %s: %v", analyzer, err)
		}
		if err := cs.DocStore.EnsureIndexes(ctx, analyzer); err != nil {
			log.Warnf("failed to ensure indexes on %s: %v", analyzer, err)
		}
	}

	d := dispatcher.New(cfg, cs.DocStore, cs.BlobStore, cs.Broker)
	sweep, err := d.StartStuckTaskSweep(ctx)
	if err != nil {
		log.Fatalf("failed to schedule stuck task sweep: %v", err)
	}
	defer sweep.Stop()

	if err := server.New(cfg, d).Start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package clientsets initializes the process-wide infrastructure clients:
// document store, relational store, blob store and broker.
package clientsets

import (
	"context"
	"sync"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/database"
	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/queue"
	"github.com/socsys/fidentikit/pkg/storage"
)

// ClientSet bundles every shared client a service uses.
type ClientSet struct {
	DocStore  *docstore.Store
	BlobStore *storage.BlobStore
	Broker    *queue.Broker
}

var (
	mu        sync.Mutex
	clientSet *ClientSet
)

// InitClientSets connects the clients a service needs. Workers set
// loadStores=false: they only talk to the broker and reply over HTTP.
func InitClientSets(ctx context.Context, cfg *config.Config, loadStores, loadBroker bool) error {
	mu.Lock()
	defer mu.Unlock()
	cs := &ClientSet{}
	if loadStores {
		store, err := docstore.Connect(cfg.DocumentStore)
		if err != nil {
			return err
		}
		cs.DocStore = store
		blob, err := storage.NewBlobStore(cfg.BlobStore)
		if err != nil {
			return err
		}
		cs.BlobStore = blob
		if cfg.RelationalStore.DSN != "" {
			if err := database.InitDatabase(cfg.RelationalStore); err != nil {
				return err
			}
		} else {
			log.Warn("relational store not configured; range and ground-truth scans unavailable")
		}
	}
	if loadBroker {
		broker, err := queue.Connect(cfg.Broker)
		if err != nil {
			return err
		}
		cs.Broker = broker
	}
	clientSet = cs
	log.Infof("client sets initialized (stores=%v broker=%v)", loadStores, loadBroker)
	return nil
}

// GetClientSet returns the shared clients; InitClientSets must have run.
func GetClientSet() *ClientSet {
	mu.Lock()
	defer mu.Unlock()
	return clientSet
}

// SetClientSet injects clients, used by tests.
func SetClientSet(cs *ClientSet) {
	mu.Lock()
	defer mu.Unlock()
	clientSet = cs
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package dispatcher turns scan requests into queued tasks, receives the
// worker replies, offloads large artifacts to the blob store and keeps
// the analysis collections tidy.
package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/metrics"
	"github.com/socsys/fidentikit/pkg/model"
	"github.com/socsys/fidentikit/pkg/queue"
	"github.com/socsys/fidentikit/pkg/storage"
)

// Dispatcher is stateless across requests; durability lives in the
// document store and the broker.
type Dispatcher struct {
	cfg    *config.Config
	store  *docstore.Store
	blobs  *storage.BlobStore
	broker *queue.Broker
}

// New wires a dispatcher from already-connected clients.
func New(cfg *config.Config, store *docstore.Store, blobs *storage.BlobStore, broker *queue.Broker) *Dispatcher {
	return &Dispatcher{cfg: cfg, store: store, blobs: blobs, broker: broker}
}

// CreateScan materializes and publishes a scan in one step, returning
// the scan id and the number of tasks published.
func (d *Dispatcher) CreateScan(ctx context.Context, analyzer string, scan model.ScanConfig) (string, int, error) {
	if scan.ScanID == "" {
		scan.ScanID = uuid.NewString()
	}
	tasks, err := d.Materialize(ctx, analyzer, scan)
	if err != nil {
		return "", 0, err
	}
	published, err := d.PublishTasks(ctx, analyzer, tasks)
	return scan.ScanID, published, err
}

// PublishTasks assigns identities, publishes every task to the analyzer
// queue and records the request-state document. A broker rejection stops
// the fan-out and surfaces the failure; tasks already published stand.
func (d *Dispatcher) PublishTasks(ctx context.Context, analyzer string, tasks []model.Task) (int, error) {
	published := 0
	for i := range tasks {
		task := &tasks[i]
		task.Analyzer = analyzer
		task.TaskConfig.TaskID = uuid.NewString()
		task.TaskConfig.Transition(model.TaskStateRequestSent, time.Now())
		body, err := task.MarshalJSON()
		if err != nil {
			return published, errors.NewError().WithCode(errors.CodeInvalidArgument).
				WithMessagef("failed to encode task for %s", task.Domain).WithError(err)
		}
		if err := d.broker.Publish(ctx, analyzer, body, d.cfg.Dispatcher.ReplyURL, task.TaskConfig.TaskID); err != nil {
			return published, err
		}
		doc, err := docstore.TaskToDocument(*task)
		if err != nil {
			return published, err
		}
		if err := d.store.InsertDocument(ctx, analyzer, doc); err != nil {
			return published, err
		}
		metrics.TasksPublished.WithLabelValues(analyzer, string(task.ScanConfig.ScanType)).Inc()
		published++
	}
	log.Infof("published %d tasks to %s", published, analyzer)
	return published, nil
}

// republish re-emits one prior task under a fresh id and deletes the old
// records only after the broker accepted the new request. Losing the
// delete leaves a duplicate, reconciled by pruning.
func (d *Dispatcher) republish(ctx context.Context, analyzer string, prior model.Task) error {
	next := model.Task{
		Analyzer:   analyzer,
		ScanConfig: prior.ScanConfig,
		Domain:     prior.Domain,
		Analysis:   prior.Analysis,
	}
	if _, err := d.PublishTasks(ctx, analyzer, []model.Task{next}); err != nil {
		return err
	}
	if _, err := d.store.DeleteByTaskID(ctx, analyzer, prior.TaskConfig.TaskID); err != nil {
		return err
	}
	return nil
}

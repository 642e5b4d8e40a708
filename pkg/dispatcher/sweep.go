// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// StartStuckTaskSweep schedules the periodic rescan of tasks that never
// reached a terminal state within the worker wall-time budget. The
// returned cron is already running; callers stop it on shutdown.
func (d *Dispatcher) StartStuckTaskSweep(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	spec := d.cfg.Dispatcher.GetStuckTaskCron()
	_, err := c.AddFunc(spec, func() {
		d.SweepStuckTasks(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Infof("stuck task sweep scheduled (%s)", spec)
	return c, nil
}

// SweepStuckTasks republishes every stuck task across all analyzer
// collections. A task counts as stuck when its request was sent more
// than one wall-time budget ago and no response ever arrived.
func (d *Dispatcher) SweepStuckTasks(ctx context.Context) {
	cutoff := time.Now().Add(-d.cfg.Worker.GetTaskTimeout())
	for _, analyzer := range model.KnownAnalyzers {
		docs, err := d.store.FindStuck(ctx, analyzer, cutoff)
		if err != nil {
			log.Warnf("stuck task query on %s failed: %v", analyzer, err)
			continue
		}
		for _, doc := range docs {
			prior, err := docstore.DocumentToTask(doc)
			if err != nil {
				log.Warnf("skipping undecodable stuck document: %v", err)
				continue
			}
			log.Warnf("rescanning stuck task %s (%s)", prior.TaskConfig.TaskID, prior.Domain)
			if err := d.republish(ctx, analyzer, prior); err != nil {
				log.Warnf("failed to rescan stuck task %s: %v", prior.TaskConfig.TaskID, err)
			}
		}
	}
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/socsys/fidentikit/pkg/database"
	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/metrics"
	"github.com/socsys/fidentikit/pkg/model"
)

// HandleReply processes one worker reply: terminal state stamp, rank
// attachment, artifact offload and document insert. The request-state
// document written at publish time is replaced by the full result.
func (d *Dispatcher) HandleReply(ctx context.Context, body []byte) error {
	var task model.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessage("reply body is not a task document").WithError(err)
	}
	if task.TaskConfig.TaskID == "" {
		return errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessage("reply is missing a task id")
	}
	analyzer := task.Analyzer
	if analyzer == "" {
		analyzer = model.AnalyzerLandscape
	}
	task.TaskConfig.Transition(model.TaskStateResponseReceived, time.Now())
	d.attachRank(ctx, &task)

	doc, err := docstore.TaskToDocument(task)
	if err != nil {
		return err
	}
	if err := d.OffloadArtifacts(ctx, doc, task.Domain); err != nil {
		return err
	}
	if _, err := d.store.DeleteByTaskID(ctx, analyzer, task.TaskConfig.TaskID); err != nil {
		return err
	}
	if err := d.store.InsertDocument(ctx, analyzer, doc); err != nil {
		return err
	}
	metrics.RepliesReceived.WithLabelValues(analyzer).Inc()
	log.Infof("stored result for task %s (%s)", task.TaskConfig.TaskID, task.Domain)
	return nil
}

// attachRank looks the domain up in the scan's top-sites list. Rank is
// advisory; a missing list or database leaves the task unranked.
func (d *Dispatcher) attachRank(ctx context.Context, task *model.Task) {
	listID := task.ScanConfig.ListID
	if listID == "" || database.GetDB() == nil {
		return
	}
	rank, ok, err := database.NewTopSitesFacade().RankOf(ctx, listID, task.Domain)
	if err != nil {
		log.Warnf("rank lookup failed for %s in %s: %v", task.Domain, listID, err)
		return
	}
	if ok {
		task.ListRank = &rank
	}
}

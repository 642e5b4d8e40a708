// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"context"

	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// RescanErrored re-emits every task of a scan whose result carries an
// error or exception. Publish happens before the old record is deleted;
// a crash in between leaves a duplicate for the pruning operation.
func (d *Dispatcher) RescanErrored(ctx context.Context, analyzer, scanID string) (int, error) {
	docs, err := d.store.FindErrored(ctx, analyzer, scanID)
	if err != nil {
		return 0, err
	}
	rescanned := 0
	for _, doc := range docs {
		prior, err := docstore.DocumentToTask(doc)
		if err != nil {
			log.Warnf("skipping undecodable errored document: %v", err)
			continue
		}
		if err := d.republish(ctx, analyzer, prior); err != nil {
			return rescanned, err
		}
		rescanned++
	}
	return rescanned, nil
}

// PruneDuplicates keeps the newest document per duplicated task id and
// removes the rest together with the blobs only they reference.
func (d *Dispatcher) PruneDuplicates(ctx context.Context, analyzer, scanID string) (int, error) {
	groups, err := d.store.FindDuplicates(ctx, analyzer, scanID)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, group := range groups {
		keep := newestDocIndex(group.Docs)
		for i, doc := range group.Docs {
			if i == keep {
				continue
			}
			d.removeBlobs(ctx, doc)
			if id, ok := doc["_id"]; ok {
				if err := d.store.DeleteDocumentByID(ctx, analyzer, id); err != nil {
					return pruned, err
				}
				pruned++
			}
		}
	}
	return pruned, nil
}

// newestDocIndex picks the document to keep: the latest
// response_received timestamp, falling back to insertion order.
func newestDocIndex(docs []docstore.Document) int {
	keep := len(docs) - 1
	best := ""
	for i, doc := range docs {
		ts := nestedTimestamp(doc)
		if ts > best {
			best = ts
			keep = i
		}
	}
	return keep
}

func nestedTimestamp(doc docstore.Document) string {
	tc, ok := doc["task_config"].(map[string]interface{})
	if !ok {
		return ""
	}
	ts, _ := tc["task_timestamp_response_received"].(string)
	return ts
}

// DeleteScan removes a scan's blobs and then its documents.
func (d *Dispatcher) DeleteScan(ctx context.Context, analyzer, scanID string) (int64, error) {
	docs, err := d.store.FindByScanID(ctx, analyzer, scanID)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		d.removeBlobs(ctx, doc)
	}
	return d.store.DeleteByScanID(ctx, analyzer, scanID)
}

func (d *Dispatcher) removeBlobs(ctx context.Context, doc docstore.Document) {
	for _, ref := range collectBlobRefs(map[string]interface{}(doc)) {
		if err := d.blobs.Remove(ctx, ref.BucketName, ref.ObjectName); err != nil {
			log.Warnf("blob cleanup failed for %s/%s: %v", ref.BucketName, ref.ObjectName, err)
		}
	}
}

// TagScans adds scan ids to a tag; UntagScans removes them.
func (d *Dispatcher) TagScans(ctx context.Context, tagName string, scanIDs ...string) error {
	return d.store.AddTag(ctx, tagName, scanIDs...)
}

func (d *Dispatcher) UntagScans(ctx context.Context, tagName string, scanIDs ...string) error {
	return d.store.RemoveTag(ctx, tagName, scanIDs...)
}

// GetTag resolves a tag to its scan ids.
func (d *Dispatcher) GetTag(ctx context.Context, tagName string) (*model.ScanTag, bool, error) {
	return d.store.GetTag(ctx, tagName)
}

// ListScans pages through the scans of a collection.
func (d *Dispatcher) ListScans(ctx context.Context, analyzer string, page int) ([]docstore.ScanSummary, error) {
	return d.store.ListScans(ctx, analyzer, page, d.cfg.Dispatcher.GetPageSize())
}

// TasksByScan, TasksByTask and TasksByDomain are the query surface the
// UI consumes.
func (d *Dispatcher) TasksByScan(ctx context.Context, analyzer, scanID string) ([]docstore.Document, error) {
	return d.store.FindByScanID(ctx, analyzer, scanID)
}

func (d *Dispatcher) TasksByTask(ctx context.Context, analyzer, taskID string) ([]docstore.Document, error) {
	return d.store.FindByTaskID(ctx, analyzer, taskID)
}

func (d *Dispatcher) TasksByDomain(ctx context.Context, analyzer, domain string) ([]docstore.Document, error) {
	return d.store.FindByDomain(ctx, analyzer, domain)
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package docstore is the document-store facade. Task documents are kept
// as raw maps so the analyzer-keyed envelope (and the blob offload
// rewrite) round-trips without schema coupling.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/model"
)

// Store wraps the Mongo database holding analysis collections and
// scan_tags.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Document is one stored task envelope.
type Document = map[string]interface{}

// Connect opens the document store.
func Connect(cfg config.DocumentStoreConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessage("failed to connect to document store").WithError(err)
	}
	return &Store{client: client, db: client.Database(cfg.GetDatabase())}, nil
}

// NewStoreWithDatabase wraps an existing database handle, used by tests.
func NewStoreWithDatabase(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the minimum index set on an analyzer collection.
func (s *Store) EnsureIndexes(ctx context.Context, analyzer string) error {
	coll := s.db.Collection(analyzer)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "scan_config.scan_id", Value: 1}}},
		{Keys: bson.D{{Key: "task_config.task_id", Value: 1}}},
		{Keys: bson.D{{Key: "domain", Value: 1}}},
		{Keys: bson.D{{Key: "task_config.task_state", Value: 1}}},
		{Keys: bson.D{{Key: "task_config.task_timestamp_response_received", Value: -1}}},
		{Keys: bson.D{{Key: fmt.Sprintf("%s_result.identity_providers.idp_name", analyzer), Value: 1}}},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to create indexes on %s", analyzer).WithError(err)
	}
	return nil
}

// TaskToDocument converts a task envelope to the stored map form by going
// through its wire encoding, preserving the dynamic keys.
func TaskToDocument(t model.Task) (Document, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentToTask decodes a stored document back into the typed envelope.
func DocumentToTask(doc Document) (model.Task, error) {
	var t model.Task
	data, err := json.Marshal(doc)
	if err != nil {
		return t, err
	}
	err = json.Unmarshal(data, &t)
	return t, err
}

// InsertDocument stores one task document in the analyzer collection.
func (s *Store) InsertDocument(ctx context.Context, analyzer string, doc Document) error {
	_, err := s.db.Collection(analyzer).InsertOne(ctx, doc)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to insert document into %s", analyzer).WithError(err)
	}
	return nil
}

// FindByTaskID returns every document for a task id (more than one means
// duplicates).
func (s *Store) FindByTaskID(ctx context.Context, analyzer, taskID string) ([]Document, error) {
	return s.find(ctx, analyzer, bson.M{"task_config.task_id": taskID}, nil)
}

// FindByScanID returns every document of a scan.
func (s *Store) FindByScanID(ctx context.Context, analyzer, scanID string) ([]Document, error) {
	return s.find(ctx, analyzer, bson.M{"scan_config.scan_id": scanID}, nil)
}

// FindByDomain returns documents for one domain, newest first.
func (s *Store) FindByDomain(ctx context.Context, analyzer, domain string) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "task_config.task_timestamp_response_received", Value: -1}})
	return s.find(ctx, analyzer, bson.M{"domain": domain}, opts)
}

// FindErrored returns documents whose result carries an error or
// exception field, eligible for rescan.
func (s *Store) FindErrored(ctx context.Context, analyzer, scanID string) ([]Document, error) {
	filter := bson.M{
		"scan_config.scan_id": scanID,
		"$or": bson.A{
			bson.M{fmt.Sprintf("%s_result.error", analyzer): bson.M{"$exists": true, "$ne": ""}},
			bson.M{fmt.Sprintf("%s_result.exception", analyzer): bson.M{"$exists": true, "$ne": ""}},
		},
	}
	return s.find(ctx, analyzer, filter, nil)
}

// FindStuck returns tasks that never reached a terminal state within the
// wall-time budget.
func (s *Store) FindStuck(ctx context.Context, analyzer string, olderThan time.Time) ([]Document, error) {
	filter := bson.M{
		"task_config.task_state":                  bson.M{"$ne": string(model.TaskStateResponseReceived)},
		"task_config.task_timestamp_request_sent": bson.M{"$lt": olderThan.UTC().Format(time.RFC3339Nano)},
	}
	return s.find(ctx, analyzer, filter, nil)
}

func (s *Store) find(ctx context.Context, analyzer string, filter bson.M, opts *options.FindOptionsBuilder) ([]Document, error) {
	coll := s.db.Collection(analyzer)
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, filter, opts)
	} else {
		cursor, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("query on %s failed", analyzer).WithError(err)
	}
	defer cursor.Close(ctx)
	var docs []Document
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

// DeleteByTaskID removes every document of a task id and returns the
// count removed.
func (s *Store) DeleteByTaskID(ctx context.Context, analyzer, taskID string) (int64, error) {
	res, err := s.db.Collection(analyzer).DeleteMany(ctx, bson.M{"task_config.task_id": taskID})
	if err != nil {
		return 0, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to delete task %s from %s", taskID, analyzer).WithError(err)
	}
	return res.DeletedCount, nil
}

// DeleteDocumentByID removes a single stored document by its object id.
func (s *Store) DeleteDocumentByID(ctx context.Context, analyzer string, id interface{}) error {
	_, err := s.db.Collection(analyzer).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to delete document from %s", analyzer).WithError(err)
	}
	return nil
}

// DeleteByScanID removes every document of a scan.
func (s *Store) DeleteByScanID(ctx context.Context, analyzer, scanID string) (int64, error) {
	res, err := s.db.Collection(analyzer).DeleteMany(ctx, bson.M{"scan_config.scan_id": scanID})
	if err != nil {
		return 0, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to delete scan %s from %s", scanID, analyzer).WithError(err)
	}
	return res.DeletedCount, nil
}

// CountByState counts documents of a scan in a given task state.
func (s *Store) CountByState(ctx context.Context, analyzer, scanID string, state model.TaskState) (int64, error) {
	n, err := s.db.Collection(analyzer).CountDocuments(ctx, bson.M{
		"scan_config.scan_id":    scanID,
		"task_config.task_state": string(state),
	})
	if err != nil {
		return 0, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("count on %s failed", analyzer).WithError(err)
	}
	return n, nil
}

// ScanSummary is one row of the paged scan listing.
type ScanSummary struct {
	ScanConfig       map[string]interface{} `json:"scan_config"`
	TaskCount        int64                  `json:"task_count"`
	ResponseReceived int64                  `json:"response_received"`
	LatestRequest    string                 `json:"latest_request_sent,omitempty"`
}

// ListScans aggregates scans in a collection, most recent request first.
func (s *Store) ListScans(ctx context.Context, analyzer string, page, pageSize int) ([]ScanSummary, error) {
	if page < 0 {
		page = 0
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         "$scan_config.scan_id",
			"scan_config": bson.M{"$first": "$scan_config"},
			"task_count":  bson.M{"$sum": 1},
			"response_received": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$task_config.task_state", string(model.TaskStateResponseReceived)}}, 1, 0,
			}}},
			"latest_request": bson.M{"$max": "$task_config.task_timestamp_request_sent"},
		}}},
		{{Key: "$sort", Value: bson.M{"latest_request": -1}}},
		{{Key: "$skip", Value: page * pageSize}},
		{{Key: "$limit", Value: pageSize}},
	}
	cursor, err := s.db.Collection(analyzer).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("scan listing on %s failed", analyzer).WithError(err)
	}
	defer cursor.Close(ctx)
	var out []ScanSummary
	for cursor.Next(ctx) {
		var row struct {
			ScanConfig       map[string]interface{} `bson:"scan_config"`
			TaskCount        int64                  `bson:"task_count"`
			ResponseReceived int64                  `bson:"response_received"`
			LatestRequest    string                 `bson:"latest_request"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, ScanSummary{
			ScanConfig:       row.ScanConfig,
			TaskCount:        row.TaskCount,
			ResponseReceived: row.ResponseReceived,
			LatestRequest:    row.LatestRequest,
		})
	}
	return out, cursor.Err()
}

// DuplicateGroup is a set of documents sharing one task id.
type DuplicateGroup struct {
	TaskID string
	Docs   []Document
}

// FindDuplicates groups a scan's documents by task id and returns groups
// of size greater than one.
func (s *Store) FindDuplicates(ctx context.Context, analyzer, scanID string) ([]DuplicateGroup, error) {
	docs, err := s.FindByScanID(ctx, analyzer, scanID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]Document)
	var order []string
	for _, doc := range docs {
		taskID := nestedString(doc, "task_config", "task_id")
		if taskID == "" {
			continue
		}
		if _, ok := grouped[taskID]; !ok {
			order = append(order, taskID)
		}
		grouped[taskID] = append(grouped[taskID], doc)
	}
	var out []DuplicateGroup
	for _, taskID := range order {
		if len(grouped[taskID]) > 1 {
			out = append(out, DuplicateGroup{TaskID: taskID, Docs: grouped[taskID]})
		}
	}
	return out, nil
}

func nestedString(doc Document, keys ...string) string {
	var cur interface{} = doc
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[k]
	}
	s, _ := cur.(string)
	return s
}

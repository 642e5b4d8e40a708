// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/model"
)

const tagsCollection = "scan_tags"

// AddTag upserts scan ids into a tag.
func (s *Store) AddTag(ctx context.Context, tagName string, scanIDs ...string) error {
	ids := make(bson.A, 0, len(scanIDs))
	for _, id := range scanIDs {
		ids = append(ids, id)
	}
	_, err := s.db.Collection(tagsCollection).UpdateOne(ctx,
		bson.M{"tag_name": tagName},
		bson.M{"$addToSet": bson.M{"scan_ids": bson.M{"$each": ids}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to add tag %s", tagName).WithError(err)
	}
	return nil
}

// RemoveTag removes scan ids from a tag. Removing from a missing tag is a
// no-op.
func (s *Store) RemoveTag(ctx context.Context, tagName string, scanIDs ...string) error {
	ids := make(bson.A, 0, len(scanIDs))
	for _, id := range scanIDs {
		ids = append(ids, id)
	}
	_, err := s.db.Collection(tagsCollection).UpdateOne(ctx,
		bson.M{"tag_name": tagName},
		bson.M{"$pull": bson.M{"scan_ids": bson.M{"$in": ids}}},
	)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to remove tag %s", tagName).WithError(err)
	}
	return nil
}

// GetTag returns a tag's scan id set. A missing tag returns (nil, false).
func (s *Store) GetTag(ctx context.Context, tagName string) (*model.ScanTag, bool, error) {
	var tag model.ScanTag
	err := s.db.Collection(tagsCollection).FindOne(ctx, bson.M{"tag_name": tagName}).Decode(&tag)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewError().WithCode(errors.CodeDocStoreError).
			WithMessagef("failed to read tag %s", tagName).WithError(err)
	}
	return &tag, true, nil
}

// LatestScanIDs resolves the scans tagged "latest". When the tag is
// absent, the bool is false and consumers decide their own fallback.
func (s *Store) LatestScanIDs(ctx context.Context) ([]string, bool, error) {
	tag, ok, err := s.GetTag(ctx, model.LatestTag)
	if err != nil || !ok {
		return nil, false, err
	}
	return tag.ScanIDs, true, nil
}

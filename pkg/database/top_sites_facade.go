// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/socsys/fidentikit/pkg/database/model"
)

// TopSitesFacade reads ranked top-sites lists.
type TopSitesFacade struct {
	db *gorm.DB
}

func NewTopSitesFacade() *TopSitesFacade {
	return &TopSitesFacade{db: GetDB()}
}

func NewTopSitesFacadeWithDB(db *gorm.DB) *TopSitesFacade {
	return &TopSitesFacade{db: db}
}

// ListRange returns entries with offset <= rank < offset+limit, ordered by
// rank ascending. An empty selection is not an error.
func (f *TopSitesFacade) ListRange(ctx context.Context, listID string, offset, limit int) ([]model.TopSitesEntry, error) {
	var entries []model.TopSitesEntry
	err := f.db.WithContext(ctx).
		Where("list_id = ? AND rank >= ? AND rank < ?", listID, offset, offset+limit).
		Order("rank ASC").
		Find(&entries).Error
	return entries, err
}

// RankOf looks up a domain's rank in a list; the bool reports presence.
func (f *TopSitesFacade) RankOf(ctx context.Context, listID, domain string) (int, bool, error) {
	var entry model.TopSitesEntry
	err := f.db.WithContext(ctx).
		Where("list_id = ? AND domain = ?", listID, domain).
		Order("rank ASC").
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return entry.Rank, true, nil
}

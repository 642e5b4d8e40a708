// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/socsys/fidentikit/pkg/database/model"
)

// GroundTruthFacade reads labeled observations for ground-truth scans.
type GroundTruthFacade struct {
	db *gorm.DB
}

func NewGroundTruthFacade() *GroundTruthFacade {
	return &GroundTruthFacade{db: GetDB()}
}

func NewGroundTruthFacadeWithDB(db *gorm.DB) *GroundTruthFacade {
	return &GroundTruthFacade{db: db}
}

// DomainGroundTruth aggregates the usable rows of one domain.
type DomainGroundTruth struct {
	Domain         string
	LoginPageURLs  []string
	IdpNames       []string
}

// ListUsableByDomain aggregates ground-truth rows by domain, keeping only
// rows with sso=true, sso_error false or null, and non-null login page and
// IdP name. Pagination is applied over the ordered distinct domains.
func (f *GroundTruthFacade) ListUsableByDomain(ctx context.Context, gtID string, offset, limit int) ([]DomainGroundTruth, error) {
	var rows []model.GroundTruthRow
	err := f.db.WithContext(ctx).
		Where("gt_id = ? AND sso = ? AND (sso_error IS NULL OR sso_error = ?)", gtID, true, false).
		Where("login_page_url IS NOT NULL AND idp_name IS NOT NULL").
		Order("domain ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*DomainGroundTruth)
	var order []string
	for _, row := range rows {
		g, ok := grouped[row.Domain]
		if !ok {
			g = &DomainGroundTruth{Domain: row.Domain}
			grouped[row.Domain] = g
			order = append(order, row.Domain)
		}
		if row.LoginPageURL != nil && !contains(g.LoginPageURLs, *row.LoginPageURL) {
			g.LoginPageURLs = append(g.LoginPageURLs, *row.LoginPageURL)
		}
		if row.IdpName != nil && !contains(g.IdpNames, *row.IdpName) {
			g.IdpNames = append(g.IdpNames, *row.IdpName)
		}
	}

	if offset >= len(order) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(order) {
		end = len(order)
	}
	var out []DomainGroundTruth
	for _, domain := range order[offset:end] {
		out = append(out, *grouped[domain])
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

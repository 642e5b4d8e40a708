// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

// TopSitesEntry is one ranked domain in a top-sites list.
type TopSitesEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ListID    string    `gorm:"column:list_id;index:idx_list_rank,priority:1" json:"list_id"`
	Rank      int       `gorm:"column:rank;index:idx_list_rank,priority:2" json:"rank"`
	Domain    string    `gorm:"column:domain" json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

func (TopSitesEntry) TableName() string {
	return "top_sites_lists"
}

// GroundTruthRow is one labeled observation used for ground-truth scans.
type GroundTruthRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GroundTruthID string   `gorm:"column:gt_id;index" json:"gt_id"`
	Domain       string    `gorm:"column:domain;index" json:"domain"`
	SSO          bool      `gorm:"column:sso" json:"sso"`
	SSOError     *bool     `gorm:"column:sso_error" json:"sso_error"`
	LoginPageURL *string   `gorm:"column:login_page_url" json:"login_page_url"`
	IdpName      *string   `gorm:"column:idp_name" json:"idp_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func (GroundTruthRow) TableName() string {
	return "ground_truth"
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

// ScanType enumerates how a scan selects its task population.
type ScanType string

const (
	ScanTypeSingle           ScanType = "single"
	ScanTypeRange            ScanType = "range"
	ScanTypeGroundTruth      ScanType = "ground-truth"
	ScanTypeRescanLoginPages ScanType = "rescan-login-pages"
	ScanTypeTask             ScanType = "task"
	ScanTypeScan             ScanType = "scan"
	ScanTypeTag              ScanType = "tag"
)

// ScanConfig identifies a scan and carries its type-specific parameters.
// Scans are immutable once created.
type ScanConfig struct {
	ScanID   string   `json:"scan_id" bson:"scan_id"`
	ScanType ScanType `json:"scan_type" bson:"scan_type"`

	// single
	Domain string `json:"domain,omitempty" bson:"domain,omitempty"`

	// range
	ListID string `json:"list_id,omitempty" bson:"list_id,omitempty"`
	Offset int    `json:"offset,omitempty" bson:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty" bson:"limit,omitempty"`

	// ground-truth (shares Offset/Limit)
	GroundTruthID string `json:"gt_id,omitempty" bson:"gt_id,omitempty"`

	// rescan-login-pages
	ReferenceScanID string `json:"reference_scan_id,omitempty" bson:"reference_scan_id,omitempty"`

	// task / tag cohort selection
	TargetTaskID  string `json:"target_task_id,omitempty" bson:"target_task_id,omitempty"`
	TargetTagName string `json:"target_tag_name,omitempty" bson:"target_tag_name,omitempty"`
}

// ScanTag is a mutable many-to-many label from tag names to scans. The
// special tag "latest" is consulted when consumers ask for latest results
// without an explicit scan id.
type ScanTag struct {
	TagName string   `json:"tag_name" bson:"tag_name"`
	ScanIDs []string `json:"scan_ids" bson:"scan_ids"`
}

const LatestTag = "latest"

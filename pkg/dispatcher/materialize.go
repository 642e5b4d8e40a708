// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"context"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/database"
	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/loginpage"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// Materialize expands one scan request into its per-domain task set.
// Tasks come back without identities; PublishTasks assigns them. An
// empty selection for range and ground-truth scans is valid and yields
// zero tasks.
func (d *Dispatcher) Materialize(ctx context.Context, analyzer string, scan model.ScanConfig) ([]model.Task, error) {
	switch scan.ScanType {
	case model.ScanTypeSingle:
		if scan.Domain == "" {
			return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
				WithMessage("single scan requires a domain")
		}
		return []model.Task{{ScanConfig: scan, Domain: scan.Domain, Analysis: d.cfg.Analysis}}, nil
	case model.ScanTypeRange:
		return d.materializeRange(ctx, scan)
	case model.ScanTypeGroundTruth:
		return d.materializeGroundTruth(ctx, scan)
	case model.ScanTypeRescanLoginPages:
		return d.materializeRescanLoginPages(ctx, analyzer, scan)
	default:
		return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessagef("unsupported scan type %q", scan.ScanType)
	}
}

func (d *Dispatcher) materializeRange(ctx context.Context, scan model.ScanConfig) ([]model.Task, error) {
	if scan.ListID == "" {
		return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessage("range scan requires a list_id")
	}
	entries, err := database.NewTopSitesFacade().ListRange(ctx, scan.ListID, scan.Offset, scan.Limit)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessagef("failed to read list %s", scan.ListID).WithError(err)
	}
	var tasks []model.Task
	for _, entry := range entries {
		tasks = append(tasks, model.Task{ScanConfig: scan, Domain: entry.Domain, Analysis: d.cfg.Analysis})
	}
	return tasks, nil
}

// materializeGroundTruth pins each task to the labeled login pages and
// restricts the provider scope to the labeled providers, so the scan
// measures recognition rather than discovery.
func (d *Dispatcher) materializeGroundTruth(ctx context.Context, scan model.ScanConfig) ([]model.Task, error) {
	if scan.GroundTruthID == "" {
		return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessage("ground-truth scan requires a gt_id")
	}
	groups, err := database.NewGroundTruthFacade().ListUsableByDomain(ctx, scan.GroundTruthID, scan.Offset, scan.Limit)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessagef("failed to read ground truth %s", scan.GroundTruthID).WithError(err)
	}
	var tasks []model.Task
	for _, group := range groups {
		analysis := manualAnalysis(d.cfg.Analysis, group.LoginPageURLs)
		analysis.Idp.IdpScope = group.IdpNames
		tasks = append(tasks, model.Task{ScanConfig: scan, Domain: group.Domain, Analysis: analysis})
	}
	return tasks, nil
}

// materializeRescanLoginPages re-runs analysis against the candidate
// sets of a prior scan (or, absent a reference, the scans tagged
// latest). Prior results without candidates are skipped with a warning.
func (d *Dispatcher) materializeRescanLoginPages(ctx context.Context, analyzer string, scan model.ScanConfig) ([]model.Task, error) {
	scanIDs := []string{scan.ReferenceScanID}
	if scan.ReferenceScanID == "" {
		ids, ok, err := d.store.LatestScanIDs(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
				WithMessage("rescan-login-pages needs a reference scan or a latest tag")
		}
		scanIDs = ids
	}
	var tasks []model.Task
	for _, scanID := range scanIDs {
		docs, err := d.store.FindByScanID(ctx, analyzer, scanID)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			prior, err := docstore.DocumentToTask(doc)
			if err != nil {
				log.Warnf("skipping undecodable document in scan %s: %v", scanID, err)
				continue
			}
			if prior.Result == nil || len(prior.Result.LoginPageCandidates) == 0 {
				log.Warnf("skipping %s from scan %s: no login page candidates recorded", prior.Domain, scanID)
				continue
			}
			urls := make([]string, 0, len(prior.Result.LoginPageCandidates))
			for _, c := range prior.Result.LoginPageCandidates {
				urls = append(urls, c.LoginPageCandidate)
			}
			tasks = append(tasks, model.Task{
				ScanConfig: scan,
				Domain:     prior.Domain,
				Analysis:   manualAnalysis(d.cfg.Analysis, urls),
			})
		}
	}
	return tasks, nil
}

// manualAnalysis clones the base analysis with candidate discovery
// pinned to the given URLs.
func manualAnalysis(base *config.AnalysisConfig, urls []string) *config.AnalysisConfig {
	analysis := config.AnalysisConfig{}
	if base != nil {
		analysis = *base
	}
	analysis.LoginPage.LoginPageStrategyScope = []string{loginpage.StrategyManual}
	analysis.LoginPage.Manual.URLs = urls
	return &analysis
}

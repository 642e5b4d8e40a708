// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package loginpage discovers login page candidates for a domain. Each
// strategy proposes URLs; the generator normalizes, prioritizes,
// de-duplicates and orders them into the final candidate list.
package loginpage

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// Generator runs the configured discovery strategies for one domain.
type Generator struct {
	cfg    config.LoginPageConfig
	meta   config.MetasearchConfig
	client *resty.Client
}

// NewGenerator builds a generator with a shared HTTP client for the
// non-browser strategies.
func NewGenerator(cfg config.LoginPageConfig, meta config.MetasearchConfig) *Generator {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &Generator{cfg: cfg, meta: meta, client: client}
}

// Generate runs every strategy in scope and returns the ordered,
// de-duplicated candidate list. homepageURL is the resolved landing
// URL; page holds the loaded homepage and is only used by the crawling
// strategy. Strategy failures are logged and skipped, never fatal.
func (g *Generator) Generate(ctx context.Context, domain, homepageURL string, page *browser.Page) []model.LoginPageCandidate {
	var all []model.LoginPageCandidate
	for _, strategy := range g.cfg.LoginPageStrategyScope {
		var urls []string
		var info map[string]interface{}
		switch strategy {
		case StrategyHomepage:
			if homepageURL != "" {
				urls = []string{homepageURL}
			}
		case StrategyManual:
			urls = g.cfg.Manual.URLs
		case StrategyPaths:
			urls = g.pathsCandidates(ctx, domain)
		case StrategyCrawling:
			urls = g.crawlingCandidates(page, domain)
		case StrategySitemap:
			urls, info = g.sitemapCandidates(ctx, domain)
		case StrategyRobots:
			urls, info = g.robotsCandidates(ctx, domain)
		case StrategyMetasearch:
			urls = g.metasearchCandidates(ctx, domain)
		default:
			log.Warnf("unknown login page strategy %s", strategy)
			continue
		}
		for _, u := range urls {
			normalized := Normalize(u)
			all = append(all, model.LoginPageCandidate{
				LoginPageCandidate: normalized,
				Strategy:           strategy,
				Priority:           ComputePriority(normalized, g.cfg.LoginPageURLRegexes),
				Info:               info,
			})
		}
	}
	return Order(Dedupe(all))
}

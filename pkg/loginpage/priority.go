// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"regexp"
	"sort"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// Discovery strategy names, in their default rank order.
const (
	StrategyHomepage   = "HOMEPAGE"
	StrategyManual     = "MANUAL"
	StrategyPaths      = "PATHS"
	StrategyCrawling   = "CRAWLING"
	StrategySitemap    = "SITEMAP"
	StrategyRobots     = "ROBOTS"
	StrategyMetasearch = "METASEARCH"
)

// strategyRank breaks priority ties: earlier strategies are considered
// more precise.
var strategyRank = map[string]int{
	StrategyManual:     0,
	StrategyHomepage:   1,
	StrategyPaths:      2,
	StrategyCrawling:   3,
	StrategySitemap:    4,
	StrategyRobots:     5,
	StrategyMetasearch: 6,
}

// ComputePriority evaluates the priority rules against a URL and
// returns the highest priority among the matching ones. Invalid
// regexes are skipped with a warning.
func ComputePriority(url string, rules []config.PriorityRule) model.LoginPagePriority {
	best := model.LoginPagePriority{}
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			log.Warnf("invalid login page priority regex %q: %v", rule.Regex, err)
			continue
		}
		if re.MatchString(url) && rule.Priority > best.Priority {
			best = model.LoginPagePriority{Regex: rule.Regex, Priority: rule.Priority}
		}
	}
	return best
}

// Dedupe removes candidates whose normalized URL was already seen,
// keeping the first occurrence (and thus its strategy and priority).
func Dedupe(candidates []model.LoginPageCandidate) []model.LoginPageCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]model.LoginPageCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := Normalize(c.LoginPageCandidate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Order sorts candidates by priority (descending), then strategy rank,
// then insertion order. The sort is stable so equal candidates keep
// their discovery order.
func Order(candidates []model.LoginPageCandidate) []model.LoginPageCandidate {
	out := make([]model.LoginPageCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Priority != out[j].Priority.Priority {
			return out[i].Priority.Priority > out[j].Priority.Priority
		}
		return strategyRank[out[i].Strategy] < strategyRank[out[j].Strategy]
	})
	return out
}

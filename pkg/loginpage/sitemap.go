// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"context"
	"encoding/xml"
	"regexp"

	"github.com/socsys/fidentikit/pkg/logger/log"
)

type sitemapIndex struct {
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type urlSet struct {
	URLs []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// sitemapCandidates walks the sitemap tree under bounded depth, sitemap
// and URL budgets, collecting URLs that look like login pages. The raw
// root sitemap travels back in the strategy info so it can be stored as
// an artifact.
func (g *Generator) sitemapCandidates(ctx context.Context, domain string) ([]string, map[string]interface{}) {
	cfg := g.cfg.Sitemap
	loginRe, err := regexp.Compile(cfg.LoginRegex)
	if err != nil {
		log.Warnf("invalid sitemap login regex %q: %v", cfg.LoginRegex, err)
		return nil, nil
	}
	state := &sitemapWalk{
		loginRe:     loginRe,
		maxSitemaps: cfg.GetMaxSitemaps(),
		maxURLs:     cfg.GetMaxURLs(),
	}
	root := "https://" + domain + "/sitemap.xml"
	rootBody := g.walkSitemap(ctx, state, root, cfg.GetMaxDepth())
	var info map[string]interface{}
	if len(rootBody) > 0 {
		info = map[string]interface{}{"sitemap": string(rootBody)}
	}
	return state.matches, info
}

type sitemapWalk struct {
	loginRe     *regexp.Regexp
	maxSitemaps int
	maxURLs     int
	sitemaps    int
	urls        int
	matches     []string
}

func (g *Generator) walkSitemap(ctx context.Context, state *sitemapWalk, url string, depth int) []byte {
	if depth < 0 || state.sitemaps >= state.maxSitemaps || state.urls >= state.maxURLs {
		return nil
	}
	state.sitemaps++
	resp, err := g.client.R().SetContext(ctx).Get(url)
	if err != nil || resp.StatusCode() != 200 {
		return nil
	}
	body := resp.Body()

	var index sitemapIndex
	if xml.Unmarshal(body, &index) == nil && len(index.Sitemaps) > 0 {
		for _, child := range index.Sitemaps {
			if child.Loc == "" {
				continue
			}
			g.walkSitemap(ctx, state, child.Loc, depth-1)
			if state.sitemaps >= state.maxSitemaps || state.urls >= state.maxURLs {
				break
			}
		}
		return body
	}

	var set urlSet
	if xml.Unmarshal(body, &set) == nil {
		for _, u := range set.URLs {
			if state.urls >= state.maxURLs {
				break
			}
			state.urls++
			if u.Loc != "" && state.loginRe.MatchString(u.Loc) {
				state.matches = append(state.matches, u.Loc)
			}
		}
	}
	return body
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/socsys/fidentikit/pkg/logger/log"
)

// metasearchResponse is the JSON answer of a SearXNG-style endpoint.
type metasearchResponse struct {
	Results []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"results"`
}

// metasearchCandidates queries the configured metasearch endpoint for
// "<search term> <registrable domain>" and keeps same-site results in
// engine order, paging until the result budget is met or a page comes
// back empty.
func (g *Generator) metasearchCandidates(ctx context.Context, domain string) []string {
	if g.meta.Endpoint == "" {
		return nil
	}
	term := g.cfg.Metasearch.SearchTerm
	if term == "" {
		term = "login"
	}
	want := g.cfg.Metasearch.GetSearchResultsNumber()
	query := fmt.Sprintf("%s %s", term, ETLDPlusOne(domain))
	var out []string
	for page := 1; len(out) < want; page++ {
		resp, err := g.client.R().SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":      query,
				"format": "json",
				"pageno": strconv.Itoa(page),
			}).
			Get(g.meta.Endpoint)
		if err != nil || resp.StatusCode() != 200 {
			if err != nil {
				log.Warnf("metasearch query failed: %v", err)
			}
			break
		}
		var decoded metasearchResponse
		if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
			log.Warnf("metasearch response decode failed: %v", err)
			break
		}
		if len(decoded.Results) == 0 {
			break
		}
		for _, r := range decoded.Results {
			if len(out) >= want {
				break
			}
			if SameSite(domain, r.URL) {
				out = append(out, r.URL)
			}
		}
	}
	return out
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/socsys/fidentikit/pkg/logger/log"
)

// pathsCandidates probes well-known login paths. Each host first gets a
// soft-404 sanity probe: a random path that still answers 200 means the
// site answers 200 for everything and probing is pointless there. The
// first path answering 200 wins per host.
func (g *Generator) pathsCandidates(ctx context.Context, domain string) []string {
	hosts := []string{domain}
	if g.cfg.Paths.UseSubdomains {
		etld1 := ETLDPlusOne(domain)
		for _, sub := range g.cfg.Paths.Subdomains {
			host := sub + "." + etld1
			if host != domain {
				hosts = append(hosts, host)
			}
		}
	}
	var out []string
	for _, host := range hosts {
		base := "https://" + host
		probe := fmt.Sprintf("%s/%s", base, uuid.NewString())
		if status, ok := g.headStatus(ctx, probe); ok && status == http.StatusOK {
			log.Debugf("host %s answers 200 for random paths, skipping path probing", host)
			continue
		}
		for _, path := range g.cfg.Paths.Paths {
			url := base + "/" + strings.TrimPrefix(path, "/")
			status, ok := g.headStatus(ctx, url)
			if ok && status == http.StatusOK {
				out = append(out, url)
				break
			}
		}
	}
	return out
}

// headStatus fetches a URL and reports the final status. GET rather
// than HEAD: plenty of sites answer HEAD with 405.
func (g *Generator) headStatus(ctx context.Context, url string) (int, bool) {
	resp, err := g.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, false
	}
	return resp.StatusCode(), true
}

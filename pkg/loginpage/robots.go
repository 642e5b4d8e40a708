// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"context"
	"regexp"
	"strings"

	"github.com/socsys/fidentikit/pkg/logger/log"
)

// robotsCandidates reads /robots.txt and lifts Allow/Disallow paths
// that look like login pages. Responses that are not plain text are
// ignored: some sites answer robots.txt with their HTML error page.
func (g *Generator) robotsCandidates(ctx context.Context, domain string) ([]string, map[string]interface{}) {
	loginRe, err := regexp.Compile(g.cfg.Robots.LoginRegex)
	if err != nil {
		log.Warnf("invalid robots login regex %q: %v", g.cfg.Robots.LoginRegex, err)
		return nil, nil
	}
	base := "https://" + domain
	resp, err := g.client.R().SetContext(ctx).Get(base + "/robots.txt")
	if err != nil || resp.StatusCode() != 200 {
		return nil, nil
	}
	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	if !strings.Contains(contentType, "text/plain") {
		return nil, nil
	}
	body := string(resp.Body())
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		var path string
		switch {
		case strings.HasPrefix(lower, "allow:"):
			path = strings.TrimSpace(line[len("allow:"):])
		case strings.HasPrefix(lower, "disallow:"):
			path = strings.TrimSpace(line[len("disallow:"):])
		default:
			continue
		}
		// Wildcard rules do not name a concrete page.
		if path == "" || path == "/" || strings.ContainsAny(path, "*$") {
			continue
		}
		if loginRe.MatchString(path) {
			out = append(out, base+path)
		}
	}
	var info map[string]interface{}
	if len(out) > 0 {
		info = map[string]interface{}{"robots": body}
	}
	return out, info
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// metadataProbe is one well-known endpoint check.
type metadataProbe struct {
	Name           string
	Path           string
	ExpectedStatus int
	ExpectedMIME   string
	JSON           bool
}

// wellKnownProbes is the full probe list run against the resolved
// origin. The webfinger path embeds the domain via %s.
var wellKnownProbes = []metadataProbe{
	{Name: "robots", Path: "/robots.txt", ExpectedStatus: 200, ExpectedMIME: "text/plain"},
	{Name: "security_txt", Path: "/.well-known/security.txt", ExpectedStatus: 200, ExpectedMIME: "text/plain"},
	{Name: "openid_configuration", Path: "/.well-known/openid-configuration", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "oauth_authorization_server", Path: "/.well-known/oauth-authorization-server", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "webfinger", Path: "/.well-known/webfinger?resource=acct:admin@%s", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "jwks", Path: "/.well-known/jwks.json", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "passkey_endpoints", Path: "/.well-known/passkey-endpoints", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "assetlinks", Path: "/.well-known/assetlinks.json", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "apple_app_site_association", Path: "/.well-known/apple-app-site-association", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "fido_trusted_apps", Path: "/.well-known/fido.trusted-apps.json", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "fido2_configuration", Path: "/.well-known/fido-configuration", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "uma2_configuration", Path: "/.well-known/uma2-configuration", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "browserid", Path: "/.well-known/browserid", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
	{Name: "web_identity", Path: "/.well-known/web-identity", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true},
}

// metadataBodyCap bounds how much of a probe body is kept inline.
const metadataBodyCap = 256 * 1024

// ProbeMetadata GETs every well-known endpoint of the origin. Each
// probe stands alone: a failure records available=false and a nil body,
// and the rest continue.
func ProbeMetadata(ctx context.Context, client *resty.Client, domain string) (map[string]bool, map[string]interface{}) {
	available := make(map[string]bool, len(wellKnownProbes))
	data := make(map[string]interface{}, len(wellKnownProbes))
	origin := "https://" + domain
	for _, probe := range wellKnownProbes {
		path := probe.Path
		if strings.Contains(path, "%s") {
			path = fmt.Sprintf(path, domain)
		}
		body, ok := runProbe(ctx, client, origin+path, probe)
		available[probe.Name] = ok
		data[probe.Name] = body
	}
	return available, data
}

func runProbe(ctx context.Context, client *resty.Client, url string, probe metadataProbe) (interface{}, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := client.R().SetContext(probeCtx).Get(url)
	if err != nil {
		return nil, false
	}
	if resp.StatusCode() != probe.ExpectedStatus {
		return nil, false
	}
	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	if probe.ExpectedMIME != "" && !strings.Contains(contentType, probe.ExpectedMIME) {
		// JSON endpoints are widely served with loose MIMEs; accept
		// when the body still parses.
		if !probe.JSON {
			return nil, false
		}
	}
	body := resp.Body()
	if len(body) > metadataBodyCap {
		body = body[:metadataBodyCap]
	}
	if probe.JSON {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, false
		}
		return parsed, true
	}
	return string(body), true
}

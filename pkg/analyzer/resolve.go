// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analyzer

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/model"
)

// Resolve checks reachability of a domain: https first, then http.
// Reachable means a final 2xx or 3xx status after redirects.
func Resolve(ctx context.Context, client *resty.Client, domain string) model.Resolved {
	var last model.Resolved
	for _, scheme := range []string{"https", "http"} {
		target := scheme + "://" + domain
		resp, err := client.R().SetContext(ctx).Get(target)
		if err != nil {
			last = model.Resolved{
				Reachable:   false,
				Domain:      domain,
				ErrorMsg:    err.Error(),
				ErrorReason: string(classifyResolveError(err)),
			}
			continue
		}
		finalURL := target
		if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
			finalURL = resp.RawResponse.Request.URL.String()
		}
		if resp.StatusCode() >= 200 && resp.StatusCode() < 400 {
			return model.Resolved{
				Reachable: true,
				Domain:    hostOf(finalURL, domain),
				URL:       finalURL,
			}
		}
		last = model.Resolved{
			Reachable:   false,
			Domain:      domain,
			URL:         finalURL,
			ErrorMsg:    resp.Status(),
			ErrorReason: string(browser.ReasonStatusCode),
			StatusCode:  resp.StatusCode(),
		}
	}
	return last
}

func classifyResolveError(err error) browser.Reason {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return browser.ReasonDNS
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return browser.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return browser.ReasonTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no route to host"):
		return browser.ReasonAddressUnreachable
	case strings.Contains(msg, "connection reset"):
		return browser.ReasonReset
	case strings.Contains(msg, "eof"):
		return browser.ReasonEmptyResponse
	default:
		return browser.ReasonOther
	}
}

func hostOf(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return fallback
	}
	return u.Hostname()
}

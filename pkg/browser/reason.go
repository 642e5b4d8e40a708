// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Reason is the typed cause of a navigation failure.
type Reason string

const (
	ReasonTimeout            Reason = "TIMEOUT"
	ReasonDNS                Reason = "DNS"
	ReasonReset              Reason = "RESET"
	ReasonPageCrash          Reason = "PAGE_CRASH"
	ReasonEmptyResponse      Reason = "EMPTY_RESPONSE"
	ReasonAddressUnreachable Reason = "ADDRESS_UNREACHABLE"
	ReasonStatusCode         Reason = "STATUS_CODE"
	ReasonOther              Reason = "OTHER"
)

// NavError carries the typed reason alongside the underlying error.
type NavError struct {
	Reason     Reason
	StatusCode int
	Err        error
}

func (e *NavError) Error() string {
	if e.Reason == ReasonStatusCode {
		return fmt.Sprintf("navigation failed: status code %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("navigation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("navigation failed (%s)", e.Reason)
}

func (e *NavError) Unwrap() error { return e.Err }

// ClassifyNavError maps a chromedp/net error onto a typed reason.
func ClassifyNavError(err error) *NavError {
	if err == nil {
		return nil
	}
	var nav *NavError
	if errors.As(err, &nav) {
		return nav
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timed_out") || strings.Contains(msg, "timeout"):
		return &NavError{Reason: ReasonTimeout, Err: err}
	case strings.Contains(msg, "name_not_resolved") || strings.Contains(msg, "dns"):
		return &NavError{Reason: ReasonDNS, Err: err}
	case strings.Contains(msg, "connection_reset"):
		return &NavError{Reason: ReasonReset, Err: err}
	case strings.Contains(msg, "page crashed") || strings.Contains(msg, "crashed"):
		return &NavError{Reason: ReasonPageCrash, Err: err}
	case strings.Contains(msg, "empty_response"):
		return &NavError{Reason: ReasonEmptyResponse, Err: err}
	case strings.Contains(msg, "address_unreachable") || strings.Contains(msg, "connection_refused"):
		return &NavError{Reason: ReasonAddressUnreachable, Err: err}
	default:
		return &NavError{Reason: ReasonOther, Err: err}
	}
}

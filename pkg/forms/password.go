// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package forms

import (
	"strings"

	"github.com/socsys/fidentikit/pkg/model"
)

var usernameTokens = []string{
	"username", "user name", "email", "e-mail", "user_id", "userid",
	"login", "account", "phone",
}

var submitTokens = []string{
	"sign in", "signin", "log in", "login", "submit", "continue", "next",
}

// DetectPassword applies the password-form rules to a page snapshot.
func DetectPassword(snap *Snapshot) model.PasswordDetection {
	det := model.PasswordDetection{
		Confidence:   model.ConfidenceNone,
		LoginPageURL: snap.URL,
	}
	for _, in := range snap.Inputs {
		if !in.Visible {
			continue
		}
		if in.Type == "password" {
			det.HasPassword = true
			det.Indicators = appendIndicator(det.Indicators, "password_input")
		}
		if isUsernameInput(in) {
			det.HasUsername = true
			det.Indicators = appendIndicator(det.Indicators, "username_input")
		}
	}
	for _, b := range snap.Buttons {
		if !b.Visible {
			continue
		}
		if b.Type == "submit" || matchesAny(b.Text, submitTokens) {
			det.HasSubmit = true
			det.Indicators = appendIndicator(det.Indicators, "submit_control")
			break
		}
	}

	loginURL := strings.Contains(snap.URL, "/login") || strings.Contains(snap.URL, "/signin")
	switch {
	case det.HasUsername && det.HasPassword && det.HasSubmit:
		det.Detected = true
		det.Confidence = model.ConfidenceHigh
	case det.HasUsername && det.HasPassword:
		det.Detected = true
		det.Confidence = model.ConfidenceMedium
	case det.HasPassword:
		det.Detected = true
		det.Confidence = model.ConfidenceMedium
	case det.HasUsername && (det.HasSubmit || loginURL):
		det.Detected = true
		det.Confidence = model.ConfidenceMedium
		if loginURL {
			det.Indicators = appendIndicator(det.Indicators, "login_url")
		}
	}
	return det
}

// MergeLastPass upgrades a password detection when a password-manager
// icon was found in any frame: the manager recognized a credential
// field even if the structural scan did not.
func MergeLastPass(det model.PasswordDetection, lastPassSeen bool) model.PasswordDetection {
	if !lastPassSeen {
		return det
	}
	det.LastPass = true
	det.Indicators = appendIndicator(det.Indicators, "lastpass_icon")
	if !det.Detected {
		det.Detected = true
		det.Confidence = model.ConfidenceMedium
	}
	return det
}

func isUsernameInput(in InputInfo) bool {
	if in.Type != "text" && in.Type != "email" && in.Type != "tel" {
		return false
	}
	if in.Type == "email" || in.Autocomplete == "username" || in.Autocomplete == "email" {
		return true
	}
	haystack := strings.Join([]string{in.Name, in.ID, in.Placeholder, in.AriaLabel, in.Label}, " ")
	return matchesAny(haystack, usernameTokens)
}

func matchesAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func appendIndicator(indicators []string, indicator string) []string {
	for _, existing := range indicators {
		if existing == indicator {
			return indicators
		}
	}
	return append(indicators, indicator)
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package forms

import (
	"strings"

	"github.com/socsys/fidentikit/pkg/model"
)

// strongMFAPhrases establish MFA context on their own.
var strongMFAPhrases = []string{
	"two-factor", "two factor", "two-step verification",
	"we sent a code to your", "use your authenticator app",
}

// mediumMFAPhrases need corroboration when the page also shows negative
// indicators.
var mediumMFAPhrases = []string{
	"enter the code", "enter code", "verification code", "security code",
	"one-time code", "one time code",
}

// negativeIndicators mark pages where code-like inputs usually mean
// something other than MFA.
var negativeIndicators = []string{
	"password", "sign up", "zip code", "credit card", "pin", "ssn",
}

// DetectMFA applies the verification-code rules to a page snapshot.
func DetectMFA(snap *Snapshot) model.MFADetection {
	det := model.MFADetection{
		Confidence:   model.ConfidenceNone,
		LoginPageURL: snap.URL,
	}
	text := snap.BodyText + " " + strings.ToLower(snap.Title)

	strongInput := hasStrongOTPInput(snap)
	strongText := matchesAny(text, strongMFAPhrases)
	mediumInput := hasMediumOTPInput(snap)
	mediumText := matchesAny(text, mediumMFAPhrases)
	segmented := hasSegmentedInputs(snap)
	negatives := matchesAny(text, negativeIndicators)

	if strongInput {
		det.Indicators = appendIndicator(det.Indicators, "otp_input")
	}
	if strongText {
		det.Indicators = appendIndicator(det.Indicators, "mfa_phrase")
	}
	if mediumInput {
		det.Indicators = appendIndicator(det.Indicators, "code_input")
	}
	if mediumText {
		det.Indicators = appendIndicator(det.Indicators, "code_phrase")
	}

	switch {
	case strongInput || strongText:
		det.Detected = true
		det.Confidence = model.ConfidenceHigh
		// Segmented inputs only count inside established MFA context.
		if segmented {
			det.Indicators = appendIndicator(det.Indicators, "segmented_inputs")
		}
	case mediumInput || mediumText:
		signals := 0
		if mediumInput {
			signals++
		}
		if mediumText {
			signals++
		}
		if !negatives || signals >= 2 {
			det.Detected = true
			det.Confidence = model.ConfidenceMedium
		}
	}
	if det.Detected {
		det.MFAType = classifyMFAType(text)
	}
	return det
}

func hasStrongOTPInput(snap *Snapshot) bool {
	for _, in := range snap.Inputs {
		if !in.Visible {
			continue
		}
		if in.Autocomplete == "one-time-code" || in.Name == "otp" {
			return true
		}
		labels := in.Label + " " + in.AriaLabel + " " + in.Placeholder
		if strings.Contains(labels, "verification code") {
			return true
		}
	}
	return false
}

func hasMediumOTPInput(snap *Snapshot) bool {
	for _, in := range snap.Inputs {
		if !in.Visible {
			continue
		}
		if in.Name == "code" || in.ID == "code" {
			return true
		}
		if in.MaxLength >= 4 && in.MaxLength <= 8 && strings.Contains(in.Placeholder, "code") {
			return true
		}
	}
	return false
}

// hasSegmentedInputs looks for the 4-to-8 single-character digit boxes
// pattern.
func hasSegmentedInputs(snap *Snapshot) bool {
	count := 0
	for _, in := range snap.Inputs {
		if in.Visible && in.MaxLength == 1 {
			count++
		}
	}
	return count >= 4 && count <= 8
}

// classifyMFAType maps context phrases onto the MFA channel.
func classifyMFAType(text string) string {
	switch {
	case strings.Contains(text, "authenticator app") || strings.Contains(text, "totp"):
		return model.MFATypeTOTP
	case strings.Contains(text, "sms") || strings.Contains(text, "text message") ||
		strings.Contains(text, "to your phone") || strings.Contains(text, "to your mobile"):
		return model.MFATypeSMS
	case strings.Contains(text, "email") || strings.Contains(text, "e-mail"):
		return model.MFATypeEmail
	case strings.Contains(text, "qr code") || strings.Contains(text, "scan the code"):
		return model.MFATypeQR
	default:
		return model.MFATypeCustom
	}
}

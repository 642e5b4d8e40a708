// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package forms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socsys/fidentikit/pkg/model"
)

func visibleInput(typ, name string) InputInfo {
	return InputInfo{Type: typ, Name: name, Visible: true}
}

func TestDetectPasswordFullForm(t *testing.T) {
	snap := &Snapshot{
		URL: "https://example.com/login",
		Inputs: []InputInfo{
			visibleInput("email", ""),
			visibleInput("password", "pass"),
		},
		Buttons: []ButtonInfo{{Text: "sign in", Type: "submit", Visible: true}},
	}
	det := DetectPassword(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.True(t, det.HasUsername)
	assert.True(t, det.HasPassword)
	assert.True(t, det.HasSubmit)
}

func TestDetectPasswordWithoutSubmitIsMedium(t *testing.T) {
	snap := &Snapshot{
		URL: "https://example.com/",
		Inputs: []InputInfo{
			visibleInput("text", "username"),
			visibleInput("password", "pass"),
		},
	}
	det := DetectPassword(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
}

func TestDetectPasswordOnlyPasswordField(t *testing.T) {
	snap := &Snapshot{
		URL:    "https://example.com/step2",
		Inputs: []InputInfo{visibleInput("password", "pass")},
	}
	det := DetectPassword(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
	assert.False(t, det.HasUsername)
}

func TestDetectPasswordUsernameOnlyNeedsCorroboration(t *testing.T) {
	// Username-first flow on a /login URL counts.
	snap := &Snapshot{
		URL:    "https://example.com/login",
		Inputs: []InputInfo{visibleInput("email", "")},
	}
	det := DetectPassword(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)

	// The same field on an arbitrary page does not.
	snap.URL = "https://example.com/newsletter"
	det = DetectPassword(snap)
	assert.False(t, det.Detected)
	assert.Equal(t, model.ConfidenceNone, det.Confidence)
}

func TestDetectPasswordIgnoresHiddenInputs(t *testing.T) {
	snap := &Snapshot{
		URL:    "https://example.com/login",
		Inputs: []InputInfo{{Type: "password", Visible: false}},
	}
	det := DetectPassword(snap)
	assert.False(t, det.Detected)
}

func TestMergeLastPass(t *testing.T) {
	det := model.PasswordDetection{Confidence: model.ConfidenceNone, LoginPageURL: "https://example.com/"}
	merged := MergeLastPass(det, true)
	assert.True(t, merged.Detected)
	assert.True(t, merged.LastPass)
	assert.Equal(t, model.ConfidenceMedium, merged.Confidence)

	// An existing HIGH result keeps its confidence.
	high := model.PasswordDetection{Detected: true, Confidence: model.ConfidenceHigh}
	merged = MergeLastPass(high, true)
	assert.Equal(t, model.ConfidenceHigh, merged.Confidence)
	assert.True(t, merged.LastPass)

	same := MergeLastPass(det, false)
	assert.False(t, same.Detected)
	assert.False(t, same.LastPass)
}

func TestDetectMFAStrongOTPInput(t *testing.T) {
	snap := &Snapshot{
		URL:    "https://example.com/2fa",
		Inputs: []InputInfo{{Type: "text", Autocomplete: "one-time-code", Visible: true}},
	}
	det := DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Contains(t, det.Indicators, "otp_input")
}

func TestDetectMFAStrongPhrase(t *testing.T) {
	snap := &Snapshot{
		URL:      "https://example.com/verify",
		BodyText: "we sent a code to your phone ending in 1234",
	}
	det := DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Equal(t, model.MFATypeSMS, det.MFAType)
}

func TestDetectMFAVerificationCodeSentToPhone(t *testing.T) {
	snap := &Snapshot{
		URL:      "https://2fa.example/verify",
		BodyText: strings.ToLower("Enter the verification code we sent to your phone"),
		Inputs:   []InputInfo{{Type: "text", Autocomplete: "one-time-code", Visible: true}},
	}
	det := DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Equal(t, model.MFATypeSMS, det.MFAType)
}

func TestDetectMFAMediumNeedsCorroborationWithNegatives(t *testing.T) {
	// A "code" input on a checkout page with credit card context: not MFA.
	snap := &Snapshot{
		URL:      "https://example.com/checkout",
		BodyText: "enter your credit card details",
		Inputs:   []InputInfo{visibleInput("text", "code")},
	}
	det := DetectMFA(snap)
	assert.False(t, det.Detected)

	// The same input with corroborating code wording: MFA at MEDIUM.
	snap.BodyText = "enter the code we sent you. credit card on file."
	det = DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
}

func TestDetectMFAMediumWithoutNegatives(t *testing.T) {
	snap := &Snapshot{
		URL:    "https://example.com/verify",
		Inputs: []InputInfo{visibleInput("text", "code")},
	}
	det := DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
}

func TestDetectMFASegmentedOnlyInStrongContext(t *testing.T) {
	segmented := []InputInfo{
		{Type: "text", MaxLength: 1, Visible: true},
		{Type: "text", MaxLength: 1, Visible: true},
		{Type: "text", MaxLength: 1, Visible: true},
		{Type: "text", MaxLength: 1, Visible: true},
		{Type: "text", MaxLength: 1, Visible: true},
		{Type: "text", MaxLength: 1, Visible: true},
	}
	// Without MFA context the boxes alone prove nothing.
	snap := &Snapshot{URL: "https://example.com/promo", Inputs: segmented}
	det := DetectMFA(snap)
	assert.False(t, det.Detected)

	snap.BodyText = "two-factor authentication: use your authenticator app"
	det = DetectMFA(snap)
	assert.True(t, det.Detected)
	assert.Contains(t, det.Indicators, "segmented_inputs")
	assert.Equal(t, model.MFATypeTOTP, det.MFAType)
}

func TestClassifyMFAType(t *testing.T) {
	assert.Equal(t, model.MFATypeTOTP, classifyMFAType("open your authenticator app"))
	assert.Equal(t, model.MFATypeSMS, classifyMFAType("we sent an sms"))
	assert.Equal(t, model.MFATypeSMS, classifyMFAType("enter the verification code we sent to your phone"))
	assert.Equal(t, model.MFATypeEmail, classifyMFAType("check your email inbox"))
	assert.Equal(t, model.MFATypeQR, classifyMFAType("scan the qr code"))
	assert.Equal(t, model.MFATypeCustom, classifyMFAType("verify yourself"))
}

func TestIsUsernameInput(t *testing.T) {
	assert.True(t, isUsernameInput(InputInfo{Type: "email"}))
	assert.True(t, isUsernameInput(InputInfo{Type: "text", Autocomplete: "username"}))
	assert.True(t, isUsernameInput(InputInfo{Type: "text", Placeholder: "enter your e-mail"}))
	assert.True(t, isUsernameInput(InputInfo{Type: "tel", Name: "phone"}))
	assert.False(t, isUsernameInput(InputInfo{Type: "text", Name: "search"}))
	assert.False(t, isUsernameInput(InputInfo{Type: "checkbox", Name: "username"}))
}

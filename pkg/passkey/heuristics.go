// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package passkey

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/socsys/fidentikit/pkg/model"
)

// passkeyKeywords drive the UI layer.
var passkeyKeywords = []string{
	"passkey", "security key", "webauthn", "fingerprint",
	"face id", "touch id", "biometric",
}

// ssoProviders filter third-party sign-in buttons out of the UI layer;
// "Sign in with Google" is not a passkey affordance.
var ssoProviders = []string{
	"with google", "with facebook", "with apple", "with microsoft",
	"with github", "with twitter", "with linkedin", "with amazon",
}

var (
	jsStrongCeremony   = regexp.MustCompile(`navigator\.credentials\.(create|get)\s*\(\s*\{[^}]{0,1000}publickey`)
	jsStrongCapability = regexp.MustCompile(`isuserverifyingplatformauthenticatoravailable|isconditionalmediationavailable`)
	jsWeak             = regexp.MustCompile(`webauthn|publickeycredential|credentials\.(create|get)`)
)

// jsLibraries are known WebAuthn client libraries; their presence alone
// is a strong signal.
var jsLibraries = []string{
	"@simplewebauthn", "webauthn-json", "startregistration(", "startauthentication(",
	"hanko-auth", "passwordless.id",
}

// enterpriseRules cover large providers whose passkey UI does not match
// the generic patterns.
var enterpriseRules = map[string][]string{
	"microsoft.com": {"windows hello", "sign in with windows hello or a security key"},
	"live.com":      {"windows hello", "face, fingerprint, pin"},
	"google.com":    {"use your passkey", "use your screen lock"},
	"apple.com":     {"sign in with a passkey", "icloud keychain"},
	"adobe.com":     {"sign in with passkey"},
	"bestbuy.com":   {"sign in with a passkey"},
}

// layerResult is one detection layer's verdict.
type layerResult struct {
	method     string
	confidence model.Confidence
	indicators []string
	element    *model.Element
}

// evaluateUI scans buttons, credential inputs and data attributes.
func evaluateUI(sig *Signals) *layerResult {
	var indicators []string
	var element *model.Element
	confidence := model.ConfidenceNone
	for i := range sig.Buttons {
		b := &sig.Buttons[i]
		if !b.Visible {
			continue
		}
		combined := b.Text + " " + b.Attrs
		if !containsAny(combined, passkeyKeywords) || containsAny(combined, ssoProviders) {
			continue
		}
		indicators = append(indicators, "ui_button:"+firstMatch(combined, passkeyKeywords))
		confidence = model.ConfidenceHigh
		if element == nil {
			el := b.Element
			element = &el
		}
	}
	for _, ci := range sig.CredentialInputs {
		indicators = append(indicators, "input:"+ci)
		confidence = model.MaxConfidence(confidence, model.ConfidenceHigh)
	}
	for _, da := range sig.DataAttributes {
		indicators = append(indicators, "attr:"+da)
		confidence = model.MaxConfidence(confidence, model.ConfidenceMedium)
	}
	if len(indicators) == 0 {
		return nil
	}
	return &layerResult{method: model.PasskeyMethodUI, confidence: confidence, indicators: indicators, element: element}
}

// evaluateJS scans inline script text.
func evaluateJS(scriptText string) *layerResult {
	if scriptText == "" {
		return nil
	}
	var indicators []string
	confidence := model.ConfidenceNone
	if jsStrongCeremony.MatchString(scriptText) {
		indicators = append(indicators, "js:webauthn_ceremony")
		confidence = model.ConfidenceHigh
	}
	if jsStrongCapability.MatchString(scriptText) {
		indicators = append(indicators, "js:capability_check")
		confidence = model.MaxConfidence(confidence, model.ConfidenceHigh)
	}
	for _, lib := range jsLibraries {
		if strings.Contains(scriptText, lib) {
			indicators = append(indicators, "js:library")
			confidence = model.MaxConfidence(confidence, model.ConfidenceHigh)
			break
		}
	}
	if len(indicators) == 0 && jsWeak.MatchString(scriptText) {
		indicators = append(indicators, "js:weak_reference")
		confidence = model.ConfidenceMedium
	}
	if len(indicators) == 0 {
		return nil
	}
	return &layerResult{method: model.PasskeyMethodJS, confidence: confidence, indicators: indicators}
}

// evaluateKeyword scans visible text; auth context on the page boosts
// the confidence.
func evaluateKeyword(sig *Signals) *layerResult {
	text := sig.BodyText + " " + sig.Title
	matched := firstMatch(text, passkeyKeywords)
	if matched == "" {
		return nil
	}
	confidence := model.ConfidenceLow
	if containsAny(text, []string{"sign in", "log in", "login", "account"}) {
		confidence = model.ConfidenceMedium
	}
	return &layerResult{
		method:     model.PasskeyMethodKeyword,
		confidence: confidence,
		indicators: []string{"text:" + matched},
	}
}

// evaluateEnterprise applies provider-specific patterns by registrable
// domain.
func evaluateEnterprise(sig *Signals) *layerResult {
	host := hostOf(sig.URL)
	if host == "" {
		return nil
	}
	for domain, phrases := range enterpriseRules {
		if host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		if phrase := firstMatch(sig.BodyText, phrases); phrase != "" {
			return &layerResult{
				method:     model.PasskeyMethodEnterprise,
				confidence: model.ConfidenceHigh,
				indicators: []string{"enterprise:" + phrase},
			}
		}
	}
	return nil
}

// Evaluate runs every heuristic layer over the signals and folds the
// verdicts into one detection record. The API gate is absolute: no
// WebAuthn API means not detected.
func Evaluate(sig *Signals) model.PasskeyDetection {
	det := model.PasskeyDetection{
		Confidence:           model.ConfidenceNone,
		WebauthnAPIAvailable: sig.APIAvailable,
		LoginPageURL:         sig.URL,
	}
	if !sig.APIAvailable {
		return det
	}
	layers := []*layerResult{
		evaluateEnterprise(sig),
		evaluateUI(sig),
		evaluateJS(sig.ScriptText),
		evaluateKeyword(sig),
	}
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		det.DetectionMethods = append(det.DetectionMethods, layer.method)
		det.Indicators = append(det.Indicators, layer.indicators...)
		det.Confidence = model.MaxConfidence(det.Confidence, layer.confidence)
		if det.Element == nil && layer.element != nil {
			det.Element = layer.element
			det.ElementInnerText = layer.element.InnerText
			det.ElementOuterHTML = layer.element.OuterHTML
		}
	}
	det.Detected = len(det.DetectionMethods) > 0 &&
		(det.Confidence == model.ConfidenceMedium || det.Confidence == model.ConfidenceHigh)
	return det
}

func containsAny(s string, tokens []string) bool {
	return firstMatch(s, tokens) != ""
}

func firstMatch(s string, tokens []string) string {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return t
		}
	}
	return ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

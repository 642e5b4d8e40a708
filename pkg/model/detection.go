// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

// Confidence levels shared by the authentication detectors.
type Confidence string

const (
	ConfidenceNone   Confidence = "NONE"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

var confidenceRank = map[Confidence]int{
	ConfidenceNone: 0, ConfidenceLow: 1, ConfidenceMedium: 2, ConfidenceHigh: 3,
}

// MaxConfidence returns the higher of two confidence levels.
func MaxConfidence(a, b Confidence) Confidence {
	if confidenceRank[b] > confidenceRank[a] {
		return b
	}
	return a
}

// IdP frame kinds: where the IdP flow runs.
const (
	FrameTopmost = "TOPMOST"
	FramePopup   = "POPUP"
	FrameIframe  = "IFRAME"
)

// Recognition strategies for IdP detection.
const (
	RecognitionKeyword = "KEYWORD"
	RecognitionLogo    = "LOGO"
	RecognitionRequest = "REQUEST"
)

// IntegrationCustom marks a hand-rolled OAuth flow (no SDK rule matched).
const IntegrationCustom = "CUSTOM"

// IdentityProviderDetection records one SSO affordance found on a login
// page candidate.
type IdentityProviderDetection struct {
	IdpName             string   `json:"idp_name" bson:"idp_name"`
	IdpIntegration      string   `json:"idp_integration" bson:"idp_integration"`
	IdpFrame            string   `json:"idp_frame,omitempty" bson:"idp_frame,omitempty"`
	LoginPageURL        string   `json:"login_page_url" bson:"login_page_url"`
	ElementCoordinates  *Element `json:"element_coordinates,omitempty" bson:"element_coordinates,omitempty"`
	ElementInnerText    string   `json:"element_inner_text,omitempty" bson:"element_inner_text,omitempty"`
	ElementOuterHTML    string   `json:"element_outer_html,omitempty" bson:"element_outer_html,omitempty"`
	ElementTree         []string `json:"element_tree,omitempty" bson:"element_tree,omitempty"`
	RecognitionStrategy string   `json:"recognition_strategy" bson:"recognition_strategy"`

	KeywordMatch        string  `json:"keyword_match,omitempty" bson:"keyword_match,omitempty"`
	KeywordValidity     string  `json:"keyword_validity,omitempty" bson:"keyword_validity,omitempty"` // HIGH or LOW
	LogoScore           float64 `json:"logo_score,omitempty" bson:"logo_score,omitempty"`
	LogoScale           float64 `json:"logo_scale,omitempty" bson:"logo_scale,omitempty"`
	LogoTemplate        string  `json:"logo_template,omitempty" bson:"logo_template,omitempty"`

	IdpLoginRequest string      `json:"idp_login_request,omitempty" bson:"idp_login_request,omitempty"`
	IdpScreenshot   interface{} `json:"idp_screenshot,omitempty" bson:"idp_screenshot,omitempty"`
	IdpHar          interface{} `json:"idp_har,omitempty" bson:"idp_har,omitempty"`
}

// Passkey detection methods (layers).
const (
	PasskeyMethodUI         = "UI"
	PasskeyMethodJS         = "JS"
	PasskeyMethodKeyword    = "KEYWORD"
	PasskeyMethodEnterprise = "ENTERPRISE"
)

// WebAuthnImplementation captures intercepted create/get options, the
// virtual authenticator's credentials and buffered CDP events.
type WebAuthnImplementation struct {
	Captured      bool                     `json:"captured" bson:"captured"`
	CreateOptions map[string]interface{}   `json:"create_options,omitempty" bson:"create_options,omitempty"`
	GetOptions    map[string]interface{}   `json:"get_options,omitempty" bson:"get_options,omitempty"`
	Credentials   []map[string]interface{} `json:"credentials,omitempty" bson:"credentials,omitempty"`
	CdpEvents     []map[string]interface{} `json:"cdp_events,omitempty" bson:"cdp_events,omitempty"`
}

// PasskeyDetection is the consolidated WebAuthn detection record.
// Invariant: Detected implies WebauthnAPIAvailable or confidence at least
// MEDIUM, and at least one detection method.
type PasskeyDetection struct {
	Detected             bool                    `json:"detected" bson:"detected"`
	DetectionMethods     []string                `json:"detection_methods,omitempty" bson:"detection_methods,omitempty"`
	Confidence           Confidence              `json:"confidence" bson:"confidence"`
	Indicators           []string                `json:"indicators,omitempty" bson:"indicators,omitempty"`
	WebauthnAPIAvailable bool                    `json:"webauthn_api_available" bson:"webauthn_api_available"`
	LoginPageURL         string                  `json:"login_page_url" bson:"login_page_url"`
	Element              *Element                `json:"element_coordinates,omitempty" bson:"element_coordinates,omitempty"`
	ElementInnerText     string                  `json:"element_inner_text,omitempty" bson:"element_inner_text,omitempty"`
	ElementOuterHTML     string                  `json:"element_outer_html,omitempty" bson:"element_outer_html,omitempty"`
	Implementation       *WebAuthnImplementation `json:"implementation,omitempty" bson:"implementation,omitempty"`
	Screenshot           interface{}             `json:"passkey_screenshot,omitempty" bson:"passkey_screenshot,omitempty"`
	Har                  interface{}             `json:"passkey_har,omitempty" bson:"passkey_har,omitempty"`
}

// MFA types classified from context phrases.
const (
	MFATypeTOTP   = "TOTP"
	MFATypeSMS    = "SMS"
	MFATypeEmail  = "EMAIL"
	MFATypeQR     = "QR"
	MFATypeCustom = "CUSTOM"
)

// MFADetection records a verification-code prompt.
type MFADetection struct {
	Detected     bool       `json:"detected" bson:"detected"`
	Confidence   Confidence `json:"confidence" bson:"confidence"`
	MFAType      string     `json:"mfa_type,omitempty" bson:"mfa_type,omitempty"`
	Indicators   []string   `json:"indicators,omitempty" bson:"indicators,omitempty"`
	LoginPageURL string     `json:"login_page_url" bson:"login_page_url"`
}

// PasswordDetection records a password/username form.
type PasswordDetection struct {
	Detected     bool       `json:"detected" bson:"detected"`
	Confidence   Confidence `json:"confidence" bson:"confidence"`
	HasUsername  bool       `json:"has_username" bson:"has_username"`
	HasPassword  bool       `json:"has_password" bson:"has_password"`
	HasSubmit    bool       `json:"has_submit" bson:"has_submit"`
	LastPass     bool       `json:"lastpass_icon,omitempty" bson:"lastpass_icon,omitempty"`
	Indicators   []string   `json:"indicators,omitempty" bson:"indicators,omitempty"`
	LoginPageURL string     `json:"login_page_url" bson:"login_page_url"`
}

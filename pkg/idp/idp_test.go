// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package idp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/model"
)

func compileRuleT(t *testing.T, spec RequestRuleSpec) *RequestRule {
	t.Helper()
	rule, err := compileRule(spec)
	require.NoError(t, err)
	return rule
}

func TestRequestRuleMatches(t *testing.T) {
	rule := compileRuleT(t, RequestRuleSpec{
		Domain: `accounts\.google\.com`,
		Path:   `^/o/oauth2`,
		Params: []struct {
			Name  string `yaml:"name"`
			Value string `yaml:"value"`
		}{
			{Name: "^client_id$", Value: ".+"},
			{Name: "^response_type$", Value: "code|token"},
		},
	})

	assert.True(t, rule.Matches("https://accounts.google.com/o/oauth2/v2/auth?client_id=abc&response_type=code"))
	assert.False(t, rule.Matches("https://accounts.google.com/o/oauth2/v2/auth?client_id=abc"), "missing param")
	assert.False(t, rule.Matches("https://accounts.google.com/signin?client_id=abc&response_type=code"), "wrong path")
	assert.False(t, rule.Matches("https://example.com/o/oauth2?client_id=abc&response_type=code"), "wrong domain")
	assert.False(t, rule.Matches("://not-a-url"))
}

func TestRequestRuleNilNeverMatches(t *testing.T) {
	var rule *RequestRule
	assert.False(t, rule.Matches("https://accounts.google.com/o/oauth2"))
}

func TestClassifyIntegration(t *testing.T) {
	provider := &Provider{
		Name: "GOOGLE",
		Sdks: []Sdk{
			{Name: "GOOGLE_ONE_TAP", Rule: compileRuleT(t, RequestRuleSpec{Path: `^/gsi/`})},
			{Name: "SIGN_IN_WITH_GOOGLE", Rule: compileRuleT(t, RequestRuleSpec{Path: `^/o/oauth2`})},
		},
	}

	assert.Equal(t, "N/A", classifyIntegration(provider, ""))
	assert.Equal(t, "GOOGLE_ONE_TAP",
		classifyIntegration(provider, "https://accounts.google.com/gsi/select"))
	assert.Equal(t, "SIGN_IN_WITH_GOOGLE",
		classifyIntegration(provider, "https://accounts.google.com/o/oauth2/v2/auth"))
	assert.Equal(t, model.IntegrationCustom,
		classifyIntegration(provider, "https://accounts.google.com/other"))
}

func TestRecognitionKind(t *testing.T) {
	assert.Equal(t, model.RecognitionKeyword, recognitionKind(StrategyKeywordCSS))
	assert.Equal(t, model.RecognitionKeyword, recognitionKind(StrategyKeywordXPath))
	assert.Equal(t, model.RecognitionKeyword, recognitionKind(StrategyKeywordAccessibility))
	assert.Equal(t, model.RecognitionLogo, recognitionKind(StrategyLogo))
}

func TestGoogleOAuthWithoutSdkRuleIsCustomIntegration(t *testing.T) {
	provider := &Provider{
		Name:     "GOOGLE",
		Keywords: []string{"google"},
		LoginRequestRule: compileRuleT(t, RequestRuleSpec{
			Domain: `accounts\.google\.com`,
			Path:   `^/o/oauth2`,
		}),
	}
	loginRequest := "https://accounts.google.com/o/oauth2/auth?client_id=X"
	require.True(t, provider.LoginRequestRule.Matches(loginRequest))
	assert.Equal(t, model.IntegrationCustom, classifyIntegration(provider, loginRequest))
	assert.Equal(t, model.RecognitionKeyword, recognitionKind(StrategyKeywordCSS))
}

func TestDetectionKeepsKeywordStrategyWhenRequestCaptured(t *testing.T) {
	// A captured OAuth request classifies the integration; the strategy
	// field still says how the element was recognized.
	provider := &Provider{
		Name: "GOOGLE",
		Sdks: []Sdk{
			{Name: "SIGN_IN_WITH_GOOGLE", Rule: compileRuleT(t, RequestRuleSpec{Path: `^/o/oauth2`})},
		},
	}
	loginRequest := "https://accounts.google.com/o/oauth2/v2/auth?client_id=abc"
	assert.Equal(t, model.RecognitionKeyword, recognitionKind(StrategyKeywordCSS))
	assert.Equal(t, "SIGN_IN_WITH_GOOGLE", classifyIntegration(provider, loginRequest))
}

func TestIsSocialLink(t *testing.T) {
	social := model.Element{
		OuterHTML: `<a href="https://facebook.com/acme" target="_blank" rel="noopener noreferrer"><svg></svg></a>`,
		InnerText: "",
	}
	assert.True(t, isSocialLink(social))

	ssoButton := model.Element{
		OuterHTML: `<a href="/auth/facebook" target="_blank" rel="noopener">Continue with Facebook</a>`,
		InnerText: "Continue with Facebook",
	}
	assert.False(t, isSocialLink(ssoButton), "sign-in wording overrides")

	sameTab := model.Element{
		OuterHTML: `<a href="https://facebook.com/acme">Facebook</a>`,
	}
	assert.False(t, isSocialLink(sameTab))

	button := model.Element{
		OuterHTML: `<button>Sign in with Facebook</button>`,
	}
	assert.False(t, isSocialLink(button))
}

func TestLoadRulesetAndGlobalSwap(t *testing.T) {
	dir := t.TempDir()
	spec := `
name: GOOGLE
keywords:
  - google
login_request_rule:
  domain: accounts\.google\.com
  path: ^/o/oauth2
sdks:
  - name: GOOGLE_ONE_TAP
    login_request_rule:
      path: ^/gsi/
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "google.yaml"), []byte(spec), 0o644))

	rs, err := LoadRuleset(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOGLE"}, rs.Providers())

	p, ok := rs.Provider("google")
	require.True(t, ok)
	assert.Equal(t, []string{"google"}, p.Keywords)
	require.Len(t, p.Sdks, 1)
	assert.True(t, p.LoginRequestRule.Matches("https://accounts.google.com/o/oauth2/auth"))

	SetGlobalRuleset(rs)
	assert.Same(t, rs, GetGlobalRuleset())

	require.NoError(t, ReloadGlobalRuleset(dir))
	assert.NotSame(t, rs, GetGlobalRuleset())
}

func TestLoadRulesetRejectsBadRegex(t *testing.T) {
	dir := t.TempDir()
	spec := `
name: BROKEN
login_request_rule:
  domain: "["
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(spec), 0o644))
	_, err := LoadRuleset(dir)
	assert.Error(t, err)
}

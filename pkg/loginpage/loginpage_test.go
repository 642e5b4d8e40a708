// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/model"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"https://Example.COM/Login":          "https://example.com/Login",
		"https://example.com:443/login":      "https://example.com/login",
		"http://example.com:80/login":        "http://example.com/login",
		"http://example.com:8080/login":      "http://example.com:8080/login",
		"https://example.com/login#fragment": "https://example.com/login",
		"https://example.com":                "https://example.com/",
		"https://example.com/login?next=/a":  "https://example.com/login?next=/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input: %s", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://Example.COM:443/Login#x",
		"http://sub.example.co.uk/signin?a=1",
		"not a url",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input: %s", in)
	}
}

func TestSameSite(t *testing.T) {
	assert.True(t, SameSite("example.com", "https://example.com/login"))
	assert.True(t, SameSite("www.example.com", "https://auth.example.com/login"))
	assert.True(t, SameSite("example.co.uk", "https://login.example.co.uk/"))
	assert.False(t, SameSite("example.co.uk", "https://example.org/login"))
	assert.False(t, SameSite("example.com", "https://evil-example.com/login"))
	assert.False(t, SameSite("example.com", "not a url"))
}

func TestComputePriority(t *testing.T) {
	rules := []config.PriorityRule{
		{Regex: `(?i)login`, Priority: 10},
		{Regex: `(?i)account`, Priority: 5},
		{Regex: `[invalid`, Priority: 100},
	}
	p := ComputePriority("https://example.com/account/login", rules)
	assert.Equal(t, 10, p.Priority)
	assert.Equal(t, `(?i)login`, p.Regex)

	p = ComputePriority("https://example.com/account", rules)
	assert.Equal(t, 5, p.Priority)

	p = ComputePriority("https://example.com/", rules)
	assert.Equal(t, 0, p.Priority)
	assert.Empty(t, p.Regex)
}

func candidate(url, strategy string, priority int) model.LoginPageCandidate {
	return model.LoginPageCandidate{
		LoginPageCandidate: url,
		Strategy:           strategy,
		Priority:           model.LoginPagePriority{Priority: priority},
	}
}

func TestDedupeKeepsFirstSeen(t *testing.T) {
	in := []model.LoginPageCandidate{
		candidate("https://example.com/login", StrategyHomepage, 10),
		candidate("https://EXAMPLE.com/login", StrategyPaths, 3),
		candidate("https://example.com/signin", StrategyPaths, 8),
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, StrategyHomepage, out[0].Strategy)
	assert.Equal(t, 10, out[0].Priority.Priority)
	assert.Equal(t, "https://example.com/signin", out[1].LoginPageCandidate)
}

func TestOrder(t *testing.T) {
	in := []model.LoginPageCandidate{
		candidate("https://example.com/a", StrategyMetasearch, 5),
		candidate("https://example.com/b", StrategyPaths, 10),
		candidate("https://example.com/c", StrategyHomepage, 5),
		candidate("https://example.com/d", StrategyPaths, 5),
		candidate("https://example.com/e", StrategyPaths, 5),
	}
	out := Order(in)
	urls := make([]string, 0, len(out))
	for _, c := range out {
		urls = append(urls, c.LoginPageCandidate)
	}
	// Priority first, then strategy rank, then insertion order.
	assert.Equal(t, []string{
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
		"https://example.com/e",
		"https://example.com/a",
	}, urls)
}

func TestGenerateManualOnly(t *testing.T) {
	cfg := config.LoginPageConfig{
		LoginPageURLRegexes:    []config.PriorityRule{{Regex: `(?i)login`, Priority: 10}},
		LoginPageStrategyScope: []string{StrategyManual},
		Manual: config.ManualStrategyConfig{
			URLs: []string{"https://Example.com/login", "https://example.com/login#top"},
		},
	}
	g := NewGenerator(cfg, config.MetasearchConfig{})
	out := g.Generate(t.Context(), "example.com", "", nil)
	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/login", out[0].LoginPageCandidate)
	assert.Equal(t, StrategyManual, out[0].Strategy)
	assert.Equal(t, 10, out[0].Priority.Priority)
}

func TestGenerateHomepageStrategy(t *testing.T) {
	cfg := config.LoginPageConfig{
		LoginPageStrategyScope: []string{StrategyHomepage},
	}
	g := NewGenerator(cfg, config.MetasearchConfig{})
	out := g.Generate(t.Context(), "example.com", "https://www.example.com/", nil)
	require.Len(t, out, 1)
	assert.Equal(t, StrategyHomepage, out[0].Strategy)

	out = g.Generate(t.Context(), "example.com", "", nil)
	assert.Empty(t, out)
}

func TestMetasearchQueryTermFirstWithRegistrableDomain(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"url": "https://example.com/login", "title": "Login"}]}`))
	}))
	defer srv.Close()

	cfg := config.LoginPageConfig{
		Metasearch: config.MetasearchStrategyConfig{SearchTerm: "login", SearchResultsNumber: 1},
	}
	g := NewGenerator(cfg, config.MetasearchConfig{Endpoint: srv.URL})
	out := g.metasearchCandidates(t.Context(), "www.example.com")
	assert.Equal(t, "login example.com", gotQuery)
	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/login", out[0])
}

func TestPopupLoginCandidate(t *testing.T) {
	// A sign-in click that opens the login form in a popup window.
	assert.True(t, popupLoginCandidate("example.com", "https://auth.example.com/login"))
	assert.True(t, popupLoginCandidate("www.example.com", "https://example.com/signin"))
	// OAuth provider popups and blank windows are not candidates.
	assert.False(t, popupLoginCandidate("example.com", "https://accounts.google.com/o/oauth2/auth"))
	assert.False(t, popupLoginCandidate("example.com", ""))
}

func TestMatchesKeyword(t *testing.T) {
	keywords := []string{"log in", "sign in"}
	assert.True(t, matchesKeyword("please log in here", keywords))
	assert.False(t, matchesKeyword("register now", keywords))
	assert.False(t, matchesKeyword("", keywords))
}

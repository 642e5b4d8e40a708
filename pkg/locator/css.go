// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package locator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/model"
)

// Keyword validity levels. High validity substitutes the provider name
// into full phrases and checks a restricted attribute set; low validity
// matches raw keywords across an extended attribute set and produces
// noisier candidates.
const (
	ValidityHigh = "HIGH"
	ValidityLow  = "LOW"
)

// highValidityAttrs are attributes trusted to describe the element
// itself.
var highValidityAttrs = []string{
	"title", "aria-label", "value", "id", "alt", "label", "name", "placeholder",
}

// lowValidityAttrs extend the search to markup that often merely links
// or styles.
var lowValidityAttrs = append(append([]string{}, highValidityAttrs...),
	"class", "action", "href", "data-action", "data-provider", "data-test",
)

// BuildCSSSelectors expands one keyword into case-insensitive
// substring attribute selectors.
func BuildCSSSelectors(keyword string, attrs []string) []string {
	escaped := strings.ReplaceAll(keyword, `"`, `\"`)
	out := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, fmt.Sprintf(`[%s*="%s" i]`, attr, escaped))
	}
	return out
}

// CSSKeywords resolves the keyword set for a validity level: high
// validity substitutes every provider keyword (display name included)
// into each configured phrase pattern, low validity uses the provider's
// raw keywords.
func CSSKeywords(patterns []string, providerName string, rawKeywords []string, validity string) []string {
	if validity == ValidityLow {
		return rawKeywords
	}
	names := make([]string, 0, len(rawKeywords)+1)
	seen := map[string]bool{}
	for _, n := range append([]string{providerName}, rawKeywords...) {
		n = strings.ToLower(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	var out []string
	emitted := map[string]bool{}
	for _, p := range patterns {
		if !strings.Contains(p, "%s") {
			if !emitted[p] {
				emitted[p] = true
				out = append(out, p)
			}
			continue
		}
		for _, n := range names {
			phrase := fmt.Sprintf(p, n)
			if !emitted[phrase] {
				emitted[phrase] = true
				out = append(out, phrase)
			}
		}
	}
	return out
}

// LocateCSS finds elements matching any keyword via attribute
// selectors. Elements with a zero box and excluded tags are dropped;
// results preserve selector order and are capped.
func LocateCSS(p *browser.Page, keywords []string, validity string) ([]model.Element, error) {
	attrs := highValidityAttrs
	if validity == ValidityLow {
		attrs = lowValidityAttrs
	}
	var selectors []string
	for _, kw := range keywords {
		selectors = append(selectors, BuildCSSSelectors(strings.ToLower(kw), attrs)...)
	}
	if len(selectors) == 0 {
		return nil, nil
	}
	selJSON, err := json.Marshal(selectors)
	if err != nil {
		return nil, err
	}
	exclJSON, _ := json.Marshal(excludedTags)
	script := fmt.Sprintf(`(() => {%s
  const selectors = %s;
  const excluded = %s;
  const out = [];
  const seen = new Set();
  for (const sel of selectors) {
    let nodes;
    try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
    for (const el of nodes) {
      if (excluded.includes(el.tagName.toLowerCase())) continue;
      if (seen.has(el)) continue;
      seen.add(el);
      const d = describe(el);
      if (d.width <= 0 || d.height <= 0) continue;
      out.push(d);
      if (out.length >= %d) return out;
    }
  }
  return out;
})()`, describeFn, selJSON, exclJSON, MaxElements)
	var elements []model.Element
	if err := p.Evaluate(script, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

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

const (
	xpathUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	xpathLower = "abcdefghijklmnopqrstuvwxyz"
)

// BuildXPath builds a case-insensitive text expression for one keyword.
// Exact mode requires the whole normalized text to equal the keyword;
// otherwise a substring match is enough. Matching runs on the element's
// own text nodes so container elements do not swallow their children's
// matches.
func BuildXPath(keyword string, exact bool) string {
	kw := strings.ReplaceAll(strings.ToLower(keyword), "'", "")
	translated := fmt.Sprintf("translate(normalize-space(text()), '%s', '%s')", xpathUpper, xpathLower)
	guard := "not(self::script or self::style or self::noscript or self::html or self::body or self::head)"
	if exact {
		return fmt.Sprintf("//*[%s][%s='%s']", guard, translated, kw)
	}
	return fmt.Sprintf("//*[%s][contains(%s, '%s')]", guard, translated, kw)
}

// LocateXPath evaluates keyword expressions against the document and
// returns the visible matches, capped, in expression order.
func LocateXPath(p *browser.Page, keywords []string, exact bool) ([]model.Element, error) {
	expressions := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		expressions = append(expressions, BuildXPath(kw, exact))
	}
	if len(expressions) == 0 {
		return nil, nil
	}
	exprJSON, err := json.Marshal(expressions)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`(() => {%s
  const expressions = %s;
  const out = [];
  const seen = new Set();
  for (const expr of expressions) {
    let result;
    try {
      result = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    } catch (e) { continue; }
    for (let i = 0; i < result.snapshotLength; i++) {
      const el = result.snapshotItem(i);
      if (!(el instanceof Element)) continue;
      if (seen.has(el)) continue;
      seen.add(el);
      const d = describe(el);
      if (d.width <= 0 || d.height <= 0) continue;
      out.push(d);
      if (out.length >= %d) return out;
    }
  }
  return out;
})()`, describeFn, exprJSON, MaxElements)
	var elements []model.Element
	if err := p.Evaluate(script, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

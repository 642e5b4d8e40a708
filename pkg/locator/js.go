// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package locator finds clickable page elements by keyword, XPath,
// accessibility name or logo appearance. Every locator returns elements
// in absolute page coordinates, visible ones only, capped.
package locator

// MaxElements bounds every locator's result set.
const MaxElements = 100

// describeFn serializes an element into the shape pkg/model.Element
// decodes. Shared prelude of the in-page locator scripts.
const describeFn = `
const describe = (el) => {
  const r = el.getBoundingClientRect();
  const tree = [];
  let cur = el;
  while (cur && cur.tagName) { tree.push(cur.tagName.toLowerCase()); cur = cur.parentElement; }
  return {
    x: r.x + window.scrollX,
    y: r.y + window.scrollY,
    width: r.width,
    height: r.height,
    inner_text: (el.innerText || '').slice(0, 512),
    outer_html: (el.outerHTML || '').slice(0, 4096),
    element_tree: tree.reverse(),
  };
};`

// excludedTags never carry a clickable affordance themselves.
var excludedTags = []string{"script", "html", "body", "head", "noscript", "style"}

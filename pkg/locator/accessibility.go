// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package locator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/model"
)

// interactiveRoles are the accessibility roles worth clicking.
var interactiveRoles = map[string]struct{}{
	"button": {}, "link": {}, "menuitem": {}, "tab": {}, "option": {},
	"checkbox": {}, "switch": {}, "generic": {}, "image": {},
}

// LocateAccessibility walks the accessibility tree and returns elements
// whose accessible name contains any keyword. Coordinates come from the
// DOM box model of the backing node; nodes without a box are skipped.
func LocateAccessibility(p *browser.Page, keywords []string) ([]model.Element, error) {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	var elements []model.Element
	err := chromedp.Run(p.Ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := accessibility.Enable().Do(ctx); err != nil {
			return err
		}
		nodes, err := accessibility.GetFullAXTree().Do(ctx)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if node.Ignored || node.BackendDOMNodeID == 0 {
				continue
			}
			role := axValueString(node.Role)
			if _, ok := interactiveRoles[role]; !ok {
				continue
			}
			name := strings.ToLower(axValueString(node.Name))
			if name == "" {
				continue
			}
			matched := false
			for _, kw := range lowered {
				if strings.Contains(name, kw) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			box, err := dom.GetBoxModel().WithBackendNodeID(node.BackendDOMNodeID).Do(ctx)
			if err != nil || box == nil || len(box.Content) < 8 {
				continue
			}
			el := boxToElement(box.Content)
			if !el.Visible() {
				continue
			}
			el.InnerText = axValueString(node.Name)
			elements = append(elements, el)
			if len(elements) >= MaxElements {
				return nil
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return elements, nil
}

// axValueString extracts the string payload of an AX value through its
// JSON form, keeping this independent of the generated field types.
func axValueString(v *accessibility.Value) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var decoded struct {
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ""
	}
	s, _ := decoded.Value.(string)
	return s
}

// boxToElement converts a content quad (4 corner points) into an
// axis-aligned element box.
func boxToElement(quad []float64) model.Element {
	minX, minY := quad[0], quad[1]
	maxX, maxY := quad[0], quad[1]
	for i := 0; i+1 < len(quad); i += 2 {
		if quad[i] < minX {
			minX = quad[i]
		}
		if quad[i] > maxX {
			maxX = quad[i]
		}
		if quad[i+1] < minY {
			minY = quad[i+1]
		}
		if quad[i+1] > maxY {
			maxY = quad[i+1]
		}
	}
	return model.Element{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

// Element is a located page element in absolute page coordinates.
type Element struct {
	X           float64  `json:"x" bson:"x"`
	Y           float64  `json:"y" bson:"y"`
	Width       float64  `json:"width" bson:"width"`
	Height      float64  `json:"height" bson:"height"`
	InnerText   string   `json:"inner_text,omitempty" bson:"inner_text,omitempty"`
	OuterHTML   string   `json:"outer_html,omitempty" bson:"outer_html,omitempty"`
	ElementTree []string `json:"element_tree,omitempty" bson:"element_tree,omitempty"`
	// Score is only populated by the logo locator (template match score).
	Score float64 `json:"score,omitempty" bson:"score,omitempty"`
	// Scale is only populated by the logo locator (matched template scale).
	Scale float64 `json:"scale,omitempty" bson:"scale,omitempty"`
}

// CenterX and CenterY give the click point for an element.
func (e Element) CenterX() float64 { return e.X + e.Width/2 }
func (e Element) CenterY() float64 { return e.Y + e.Height/2 }

// Visible reports whether the element occupies a non-zero box.
func (e Element) Visible() bool {
	return e.Width > 0 && e.Height > 0
}

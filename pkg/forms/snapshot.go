// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package forms detects password forms and MFA prompts. The detectors
// run on a structural snapshot of the page so the heuristics stay pure
// and testable.
package forms

import (
	"fmt"

	"github.com/socsys/fidentikit/pkg/browser"
)

// InputInfo is one visible-or-not input element.
type InputInfo struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	ID           string `json:"id"`
	Placeholder  string `json:"placeholder"`
	Autocomplete string `json:"autocomplete"`
	AriaLabel    string `json:"aria_label"`
	Label        string `json:"label"`
	MaxLength    int    `json:"max_length"`
	Visible      bool   `json:"visible"`
}

// ButtonInfo is one clickable control.
type ButtonInfo struct {
	Text    string `json:"text"`
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// Snapshot is the page structure the detectors reason over.
type Snapshot struct {
	URL      string       `json:"url"`
	Title    string       `json:"title"`
	BodyText string       `json:"body_text"`
	Inputs   []InputInfo  `json:"inputs"`
	Buttons  []ButtonInfo `json:"buttons"`
}

const snapshotScript = `(() => {
  const visible = (el) => {
    const r = el.getBoundingClientRect();
    if (r.width <= 0 || r.height <= 0) return false;
    const s = window.getComputedStyle(el);
    return s.visibility !== 'hidden' && s.display !== 'none';
  };
  const labelFor = (el) => {
    if (el.labels && el.labels.length) return el.labels[0].innerText || '';
    if (el.id) {
      const l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
      if (l) return l.innerText || '';
    }
    return '';
  };
  const inputs = [];
  for (const el of document.querySelectorAll('input, textarea')) {
    inputs.push({
      type: (el.getAttribute('type') || 'text').toLowerCase(),
      name: (el.getAttribute('name') || '').toLowerCase(),
      id: (el.getAttribute('id') || '').toLowerCase(),
      placeholder: (el.getAttribute('placeholder') || '').toLowerCase(),
      autocomplete: (el.getAttribute('autocomplete') || '').toLowerCase(),
      aria_label: (el.getAttribute('aria-label') || '').toLowerCase(),
      label: labelFor(el).toLowerCase(),
      max_length: parseInt(el.getAttribute('maxlength') || '0', 10) || 0,
      visible: visible(el),
    });
  }
  const buttons = [];
  for (const el of document.querySelectorAll('button, input[type="submit"], [role="button"]')) {
    buttons.push({
      text: ((el.innerText || el.value || el.getAttribute('aria-label') || '')).toLowerCase().slice(0, 256),
      type: (el.getAttribute('type') || '').toLowerCase(),
      visible: visible(el),
    });
  }
  return {
    url: location.href,
    title: document.title || '',
    body_text: (document.body ? document.body.innerText : '').toLowerCase().slice(0, 20000),
    inputs: inputs,
    buttons: buttons,
  };
})()`

// CollectSnapshot reads the page structure the detectors need.
func CollectSnapshot(p *browser.Page) (*Snapshot, error) {
	var snap Snapshot
	if err := p.Evaluate(snapshotScript, &snap); err != nil {
		return nil, fmt.Errorf("form snapshot failed: %w", err)
	}
	return &snap, nil
}

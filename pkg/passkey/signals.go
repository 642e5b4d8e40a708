// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package passkey detects WebAuthn/passkey support on login pages and
// optionally captures the implementation by driving a virtual
// authenticator.
package passkey

import (
	"fmt"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/model"
)

// UIButton is one clickable control considered by the UI layer.
type UIButton struct {
	Text    string        `json:"text"`
	Attrs   string        `json:"attrs"`
	Visible bool          `json:"visible"`
	Element model.Element `json:"element"`
}

// Signals is everything the heuristic layers reason over, collected in
// one page pass.
type Signals struct {
	URL              string     `json:"url"`
	APIAvailable     bool       `json:"api_available"`
	Buttons          []UIButton `json:"buttons"`
	CredentialInputs []string   `json:"credential_inputs"`
	DataAttributes   []string   `json:"data_attributes"`
	ScriptText       string     `json:"script_text"`
	BodyText         string     `json:"body_text"`
	Title            string     `json:"title"`
}

const signalsScript = `(() => {
  const visible = (el) => {
    const r = el.getBoundingClientRect();
    if (r.width <= 0 || r.height <= 0) return false;
    const s = window.getComputedStyle(el);
    return s.visibility !== 'hidden' && s.display !== 'none';
  };
  const describe = (el) => {
    const r = el.getBoundingClientRect();
    const tree = [];
    let cur = el;
    while (cur && cur.tagName) { tree.push(cur.tagName.toLowerCase()); cur = cur.parentElement; }
    return {
      x: r.x + window.scrollX, y: r.y + window.scrollY,
      width: r.width, height: r.height,
      inner_text: (el.innerText || '').slice(0, 512),
      outer_html: (el.outerHTML || '').slice(0, 4096),
      element_tree: tree.reverse(),
    };
  };
  const buttons = [];
  for (const el of document.querySelectorAll('button, a, [role="button"], input[type="submit"]')) {
    const attrs = [el.getAttribute('aria-label'), el.getAttribute('title'),
                   el.getAttribute('id'), el.getAttribute('class'), el.getAttribute('name')]
      .filter(Boolean).join(' ').toLowerCase();
    buttons.push({
      text: ((el.innerText || el.value || '')).toLowerCase().slice(0, 256),
      attrs: attrs.slice(0, 512),
      visible: visible(el),
      element: describe(el),
    });
  }
  const credentialInputs = [];
  for (const el of document.querySelectorAll('input')) {
    const ac = (el.getAttribute('autocomplete') || '').toLowerCase();
    if (ac.includes('webauthn')) credentialInputs.push('autocomplete_webauthn');
    if ((el.getAttribute('type') || '').toLowerCase() === 'publickey') credentialInputs.push('type_publickey');
  }
  const dataAttributes = [];
  if (document.querySelector('[data-webauthn]')) dataAttributes.push('data-webauthn');
  if (document.querySelector('[data-passkey]')) dataAttributes.push('data-passkey');
  let scriptText = '';
  for (const s of document.querySelectorAll('script:not([src])')) {
    scriptText += s.textContent + '\n';
    if (scriptText.length > 500000) break;
  }
  return {
    url: location.href,
    api_available: typeof window.PublicKeyCredential !== 'undefined' && window.isSecureContext === true,
    buttons: buttons,
    credential_inputs: credentialInputs,
    data_attributes: dataAttributes,
    script_text: scriptText.toLowerCase().slice(0, 500000),
    body_text: (document.body ? document.body.innerText : '').toLowerCase().slice(0, 20000),
    title: (document.title || '').toLowerCase(),
  };
})()`

// CollectSignals reads the page state for the heuristic layers.
func CollectSignals(p *browser.Page) (*Signals, error) {
	var sig Signals
	if err := p.Evaluate(signalsScript, &sig); err != nil {
		return nil, fmt.Errorf("passkey signal collection failed: %w", err)
	}
	return &sig, nil
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package forms

import (
	"fmt"

	"github.com/socsys/fidentikit/pkg/browser"
)

// LastPassIconBase64Prefix is the leading base64 of the icon the
// LastPass extension injects as a background-image on credential
// fields. Only the prefix is compared; the full payload varies with
// extension versions.
const LastPassIconBase64Prefix = "iVBORw0KGgoAAAANSUhEUgAAABAAAAAQCAYAAAAf8"

// lastPassScript walks the document and its same-origin frames looking
// for the injected icon.
const lastPassScript = `(() => {
  const prefix = %q;
  const scan = (doc) => {
    for (const el of doc.querySelectorAll('input')) {
      const bg = (doc.defaultView.getComputedStyle(el).backgroundImage || '');
      if (bg.includes('base64,' + prefix)) return true;
    }
    for (const frame of doc.querySelectorAll('iframe')) {
      try {
        if (frame.contentDocument && scan(frame.contentDocument)) return true;
      } catch (e) {}
    }
    return false;
  };
  return scan(document);
})()`

// DetectLastPassIcon reports whether the LastPass credential icon is
// present in the document or any reachable frame.
func DetectLastPassIcon(p *browser.Page) bool {
	var found bool
	if err := p.Evaluate(fmt.Sprintf(lastPassScript, LastPassIconBase64Prefix), &found); err != nil {
		return false
	}
	return found
}

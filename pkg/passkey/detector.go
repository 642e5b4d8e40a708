// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package passkey

import (
	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/locator"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// scanAttempts is how often the signal collection is retried with
// scrolling between rounds, surfacing lazily rendered UI.
const scanAttempts = 3

// revealPhrases label buttons that expose alternative sign-in methods.
var revealPhrases = []string{
	"try another way", "more options", "other options", "use another method",
	"more sign-in options",
}

// Detector runs the passkey layers against login page candidates.
type Detector struct {
	driver   *browser.Driver
	analysis *config.AnalysisConfig
}

func NewDetector(driver *browser.Driver, analysis *config.AnalysisConfig) *Detector {
	return &Detector{driver: driver, analysis: analysis}
}

// Detect scans one candidate page. Returns a not-detected record when
// the page is analyzable but shows nothing, nil when the page cannot be
// analyzed at all.
func (d *Detector) Detect(candidateURL string) (*model.PasskeyDetection, error) {
	page, err := d.driver.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()
	var har *browser.HARRecorder
	if d.analysis.Artifacts.StorePasskeyHar {
		har = page.RecordHAR()
	}
	if _, err := page.Navigate(candidateURL); err != nil {
		return nil, err
	}
	page.WaitForLoad()
	if !page.ContentAnalyzable() {
		return nil, nil
	}

	var det model.PasskeyDetection
	revealed := false
	for attempt := 0; attempt < scanAttempts; attempt++ {
		sig, err := CollectSignals(page)
		if err != nil {
			return nil, err
		}
		det = Evaluate(sig)
		if det.Detected || !det.WebauthnAPIAvailable {
			break
		}
		if !revealed {
			revealed = d.clickReveal(page)
		}
		if err := page.Evaluate("window.scrollBy(0, window.innerHeight); true", new(bool)); err == nil {
			page.Sleep(1)
		}
	}

	if det.Detected {
		det.Implementation = d.capture(candidateURL, det.Element)
	}
	if d.analysis.Artifacts.StorePasskeyScreenshot {
		if shot, err := page.ScreenshotEncoded(); err == nil {
			det.Screenshot = shot
		}
	}
	if har != nil {
		if archive, err := har.ArchiveEncoded(); err == nil {
			det.Har = archive
		}
	}
	return &det, nil
}

// clickReveal clicks one "Try another way"-style button, once per scan.
func (d *Detector) clickReveal(page *browser.Page) bool {
	elements, err := locator.LocateXPath(page, revealPhrases, false)
	if err != nil || len(elements) == 0 {
		return false
	}
	if err := page.Click(elements[0].CenterX(), elements[0].CenterY()); err != nil {
		return false
	}
	page.Sleep(1)
	return true
}

// fillUsernameScript types a probe address into a username field and
// fires the events frameworks listen for; some sites only start the
// conditional WebAuthn flow after identifying the user.
const fillUsernameScript = `(() => {
  const el = document.querySelector(
    'input[autocomplete*="username"], input[type="email"], input[name*="user"], input[name*="email"]');
  if (!el) return false;
  el.focus();
  el.value = 'probe@example.com';
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
})()`

// capture re-opens the candidate in an instrumented context and tries
// to trigger the WebAuthn ceremony: passive wait, then a button click,
// then a username fill, stopping at the first capture.
func (d *Detector) capture(candidateURL string, element *model.Element) *model.WebAuthnImplementation {
	page, err := d.driver.NewPage()
	if err != nil {
		log.Warnf("passkey capture page failed: %v", err)
		return nil
	}
	defer page.Close()
	session, err := page.InstrumentWebAuthn()
	if err != nil {
		log.Warnf("passkey instrumentation failed: %v", err)
		return nil
	}
	if _, err := page.Navigate(candidateURL); err != nil {
		return nil
	}
	page.WaitForLoad()

	// (a) passive: conditional-mediation flows fire on their own.
	page.Sleep(3)
	if impl := session.Capture(); impl.Captured {
		return impl
	}
	// (b) click the detected passkey affordance.
	if element != nil {
		if err := page.Click(element.CenterX(), element.CenterY()); err == nil {
			page.Sleep(3)
			if impl := session.Capture(); impl.Captured {
				return impl
			}
		}
	}
	// (c) identify a user first.
	var filled bool
	if err := page.Evaluate(fillUsernameScript, &filled); err == nil && filled {
		page.Sleep(3)
	}
	return session.Capture()
}

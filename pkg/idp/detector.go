// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package idp

import (
	"bytes"
	"image"
	"strings"
	"time"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/locator"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// popupWait bounds how long a click may take to open the provider
// popup.
const popupWait = 2 * time.Second

// Recognition strategy scope values.
const (
	StrategyKeywordCSS           = "KEYWORD-CSS"
	StrategyKeywordXPath         = "KEYWORD-XPATH"
	StrategyKeywordAccessibility = "KEYWORD-ACCESSIBILITY"
	StrategyLogo                 = "LOGO"
)

// Recognition modes.
const (
	ModeFast      = "FAST"
	ModeNormal    = "NORMAL"
	ModeExtensive = "EXTENSIVE"
)

// Detector scans login page candidates for provider SSO affordances.
type Detector struct {
	driver   *browser.Driver
	analysis *config.AnalysisConfig
	ruleset  *Ruleset
}

func NewDetector(driver *browser.Driver, analysis *config.AnalysisConfig, ruleset *Ruleset) *Detector {
	return &Detector{driver: driver, analysis: analysis, ruleset: ruleset}
}

// DetectAll runs provider recognition over the candidate list under the
// configured recognition mode: FAST locks onto the first candidate with
// a hit, NORMAL prunes barren candidates after the first provider pass,
// EXTENSIVE scans every pair.
func (d *Detector) DetectAll(candidates []model.LoginPageCandidate) []model.IdentityProviderDetection {
	providers := d.scopedProviders()
	mode := d.analysis.Recognition.GetRecognitionMode()
	active := append([]model.LoginPageCandidate{}, candidates...)
	hits := make(map[string]bool)
	var detections []model.IdentityProviderDetection
	for i, provider := range providers {
		for _, candidate := range active {
			det, err := d.DetectOne(candidate.LoginPageCandidate, provider)
			if err != nil {
				log.Warnf("idp detection failed for %s on %s: %v", provider.Name, candidate.LoginPageCandidate, err)
				continue
			}
			if det == nil {
				continue
			}
			detections = append(detections, *det)
			hits[candidate.LoginPageCandidate] = true
			if mode == ModeFast {
				active = []model.LoginPageCandidate{candidate}
			}
		}
		if mode == ModeNormal && i == 0 && len(hits) > 0 {
			var kept []model.LoginPageCandidate
			for _, c := range active {
				if hits[c.LoginPageCandidate] {
					kept = append(kept, c)
				}
			}
			active = kept
		}
	}
	return detections
}

func (d *Detector) scopedProviders() []*Provider {
	scope := d.analysis.Idp.IdpScope
	var out []*Provider
	if len(scope) == 0 {
		for _, name := range d.ruleset.Providers() {
			p, _ := d.ruleset.Provider(name)
			out = append(out, p)
		}
		return out
	}
	for _, name := range scope {
		p, ok := d.ruleset.Provider(name)
		if !ok {
			log.Warnf("identity provider %s not in ruleset, skipping", name)
			continue
		}
		out = append(out, p)
	}
	return out
}

// located couples an element with how it was recognized.
type located struct {
	element  model.Element
	strategy string
	keyword  string
	validity string
	logoName string
}

// DetectOne checks one candidate page for one provider in a fresh
// browser context. Returns nil when nothing was recognized.
func (d *Detector) DetectOne(candidateURL string, provider *Provider) (*model.IdentityProviderDetection, error) {
	page, err := d.driver.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()
	var har *browser.HARRecorder
	if d.analysis.Artifacts.StoreIdpHar {
		har = page.RecordHAR()
	}
	if _, err := page.Navigate(candidateURL); err != nil {
		return nil, err
	}
	page.WaitForLoad()
	if !page.ContentAnalyzable() {
		return nil, nil
	}

	var found []located
	var logoVerified bool
	for _, strategy := range d.analysis.Recognition.GetRecognitionStrategyScope() {
		switch strategy {
		case StrategyKeywordCSS, StrategyKeywordXPath, StrategyKeywordAccessibility:
			found = d.locateKeyword(page, provider, strategy)
		case StrategyLogo:
			found, logoVerified = d.locateLogo(page, provider)
		default:
			log.Warnf("unknown recognition strategy %s", strategy)
			continue
		}
		if len(found) > 0 {
			break
		}
	}
	if len(found) == 0 {
		return nil, nil
	}

	origin, _ := page.Location()
	budget := d.clickBudget(found[0].strategy)
	if len(found) > budget {
		found = found[:budget]
	}
	loginRequest, frame := d.clickAndObserve(page, provider, found, origin)

	// Logo hits below the acceptance bound only count when the click
	// produced a real provider login request.
	if found[0].strategy == StrategyLogo && !logoVerified && loginRequest == "" {
		return nil, nil
	}

	best := found[0]
	det := &model.IdentityProviderDetection{
		IdpName:             provider.Name,
		IdpIntegration:      classifyIntegration(provider, loginRequest),
		IdpFrame:            frame,
		LoginPageURL:        candidateURL,
		ElementCoordinates:  &best.element,
		ElementInnerText:    best.element.InnerText,
		ElementOuterHTML:    best.element.OuterHTML,
		ElementTree:         best.element.ElementTree,
		RecognitionStrategy: recognitionKind(best.strategy),
		KeywordMatch:        best.keyword,
		KeywordValidity:     best.validity,
		LogoScore:           best.element.Score,
		LogoScale:           best.element.Scale,
		LogoTemplate:        best.logoName,
		IdpLoginRequest:     loginRequest,
	}
	if d.analysis.Artifacts.StoreIdpScreenshot {
		if shot, err := page.ScreenshotEncoded(); err == nil {
			det.IdpScreenshot = shot
		}
	}
	if har != nil {
		if archive, err := har.ArchiveEncoded(); err == nil {
			det.IdpHar = archive
		}
	}
	return det, nil
}

// locateKeyword runs one keyword strategy, high validity first, low
// validity only when the high tier is empty, with the social-link
// filter applied to the hits.
func (d *Detector) locateKeyword(page *browser.Page, provider *Provider, strategy string) []located {
	patterns := d.analysis.KeywordRecognition.GetKeywords()
	for _, validity := range []string{locator.ValidityHigh, locator.ValidityLow} {
		keywords := locator.CSSKeywords(patterns, provider.Name, provider.Keywords, validity)
		if len(keywords) == 0 {
			continue
		}
		var elements []model.Element
		var err error
		switch strategy {
		case StrategyKeywordCSS:
			elements, err = locator.LocateCSS(page, keywords, validity)
		case StrategyKeywordXPath:
			elements, err = locator.LocateXPath(page, keywords, validity == locator.ValidityHigh)
		case StrategyKeywordAccessibility:
			elements, err = locator.LocateAccessibility(page, keywords)
		}
		if err != nil {
			log.Warnf("%s locate failed: %v", strategy, err)
			continue
		}
		var out []located
		for _, el := range elements {
			if isSocialLink(el) {
				continue
			}
			out = append(out, located{
				element:  el,
				strategy: strategy,
				keyword:  matchedKeyword(el, keywords),
				validity: validity,
			})
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// locateLogo template-matches every provider logo against the page
// screenshot. The bool reports whether any hit cleared the acceptance
// bound on score alone.
func (d *Detector) locateLogo(page *browser.Page, provider *Provider) ([]located, bool) {
	if len(provider.Logos) == 0 {
		return nil, false
	}
	png, err := page.Screenshot()
	if err != nil {
		return nil, false
	}
	shot, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, false
	}
	cfg := d.analysis.LogoRecognition
	var out []located
	verified := false
	for _, logo := range provider.Logos {
		for _, m := range locator.MatchTemplate(shot, logo.Image, cfg) {
			out = append(out, located{element: m.Element, strategy: StrategyLogo, logoName: logo.Name})
			if m.Score >= cfg.UpperBound {
				verified = true
			}
		}
	}
	return out, verified
}

func (d *Detector) clickBudget(strategy string) int {
	if strategy == StrategyLogo {
		return d.analysis.LogoRecognition.GetMaxElementsToClick()
	}
	return d.analysis.KeywordRecognition.GetMaxElementsToClick()
}

// clickAndObserve clicks located elements until a provider login
// request is captured. Each click arms a popup watcher first; popups
// are closed and the page restored afterwards.
func (d *Detector) clickAndObserve(page *browser.Page, provider *Provider, found []located, origin string) (string, string) {
	watcher := page.WatchRequests()
	for _, hit := range found {
		mark := time.Now()
		waitPopup := page.ExpectPopup(popupWait)
		if err := page.Click(hit.element.CenterX(), hit.element.CenterY()); err != nil {
			continue
		}
		popup := waitPopup()
		frame := model.FrameTopmost
		requests := watcher.Since(mark)
		if popup != nil {
			frame = model.FramePopup
			popupWatcher := popup.WatchRequests()
			popup.Sleep(1)
			requests = append(requests, popupWatcher.Requests()...)
			if loc, err := popup.Location(); err == nil && loc != "" {
				requests = append(requests, browser.ObservedRequest{URL: loc, Timestamp: time.Now()})
			}
			popup.Close()
		}
		var captured string
		for _, req := range requests {
			if provider.LoginRequestRule.Matches(req.URL) {
				captured = req.URL
				break
			}
		}
		if origin != "" {
			if loc, err := page.Location(); err == nil && loc != origin {
				if err := page.Restore(origin); err != nil {
					log.Warnf("failed to restore %s: %v", origin, err)
				}
			}
		}
		if captured != "" {
			return captured, frame
		}
	}
	return "", ""
}

// classifyIntegration maps a captured login request onto the first
// matching SDK rule, CUSTOM when none matches, N/A without a request.
func classifyIntegration(provider *Provider, loginRequest string) string {
	if loginRequest == "" {
		return "N/A"
	}
	for _, sdk := range provider.Sdks {
		if sdk.Rule.Matches(loginRequest) {
			return sdk.Name
		}
	}
	return model.IntegrationCustom
}

// recognitionKind reports how the element was located. The captured
// login request is carried separately in idp_login_request.
func recognitionKind(strategy string) string {
	if strategy == StrategyLogo {
		return model.RecognitionLogo
	}
	return model.RecognitionKeyword
}

func matchedKeyword(el model.Element, keywords []string) string {
	haystack := strings.ToLower(el.InnerText + " " + el.OuterHTML)
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

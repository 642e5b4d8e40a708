// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package loginpage

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/locator"
	"github.com/socsys/fidentikit/pkg/logger/log"
)

// crawlingCandidates inspects the loaded homepage two ways: anchors
// whose href or text looks like a login link, and keyword elements that
// navigate somewhere login-like when clicked. Only same-site targets
// are kept. The page ends up back on its original URL.
func (g *Generator) crawlingCandidates(page *browser.Page, domain string) []string {
	if page == nil {
		return nil
	}
	loginRe, err := regexp.Compile(g.cfg.Crawling.LoginRegex)
	if err != nil {
		log.Warnf("invalid crawling login regex %q: %v", g.cfg.Crawling.LoginRegex, err)
		return nil
	}
	out := g.anchorCandidates(page, domain, loginRe)
	out = append(out, g.clickCandidates(page, domain, loginRe)...)
	return out
}

func (g *Generator) anchorCandidates(page *browser.Page, domain string, loginRe *regexp.Regexp) []string {
	html, err := page.Content()
	if err != nil {
		return nil
	}
	base, err := page.Location()
	if err != nil || base == "" {
		return nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref).String()
		if !SameSite(domain, abs) {
			return
		}
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if loginRe.MatchString(abs) || matchesKeyword(text, g.cfg.Crawling.Keywords) {
			out = append(out, abs)
		}
	})
	return out
}

// popupWait bounds how long a click may take to open a login popup.
const popupWait = 2 * time.Second

// clickCandidates clicks up to the configured budget of keyword-matched
// elements and records any same-site navigation that lands on a
// login-like URL. Sites that open their sign-in form in a popup window
// contribute the popup's URL instead.
func (g *Generator) clickCandidates(page *browser.Page, domain string, loginRe *regexp.Regexp) []string {
	origin, err := page.Location()
	if err != nil || origin == "" {
		return nil
	}
	elements, err := locator.LocateXPath(page, g.cfg.Crawling.Keywords, false)
	if err != nil {
		log.Warnf("crawling click locate failed: %v", err)
		return nil
	}
	budget := g.cfg.Crawling.GetMaxElementsToClick()
	if len(elements) > budget {
		elements = elements[:budget]
	}
	var out []string
	for _, el := range elements {
		waitPopup := page.ExpectPopup(popupWait)
		if err := page.Click(el.CenterX(), el.CenterY()); err != nil {
			continue
		}
		if popup := waitPopup(); popup != nil {
			if loc, err := popup.Location(); err == nil && popupLoginCandidate(domain, loc) {
				out = append(out, loc)
			}
			popup.Close()
		}
		page.Sleep(2)
		loc, err := page.Location()
		if err == nil && loc != origin && SameSite(domain, loc) && loginRe.MatchString(loc) {
			out = append(out, loc)
		}
		if loc != origin {
			if err := page.Restore(origin); err != nil {
				log.Warnf("failed to restore %s after click: %v", origin, err)
				break
			}
		}
	}
	return out
}

// popupLoginCandidate reports whether a popup opened by a crawl click
// counts as a login page candidate. The click was already keyword
// gated, so any same-site popup qualifies; cross-site popups are the
// provider's business, not a login page of the scan target.
func popupLoginCandidate(domain, loc string) bool {
	return loc != "" && SameSite(domain, loc)
}

func matchesKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

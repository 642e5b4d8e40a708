// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package browser drives a Chromium instance over the DevTools protocol.
// A Driver owns one browser process on an ephemeral profile; every Page
// is an isolated tab created from it.
package browser

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
)

// Driver owns the browser process. The profile directory is created
// fresh per driver and removed on Close, so no state leaks between
// tasks.
type Driver struct {
	cfg         config.BrowserConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	profileDir  string
}

// NewDriver launches the browser. The parent context bounds the whole
// browser lifetime.
func NewDriver(parent context.Context, cfg config.BrowserConfig) (*Driver, error) {
	profileDir, err := os.MkdirTemp("", "fidentikit-profile-*")
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to create profile directory").WithError(err)
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.UserDataDir(profileDir),
		chromedp.WindowSize(cfg.GetWidth(), cfg.GetHeight()),
		chromedp.Flag("headless", cfg.GetHeadless()),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", cfg.Locale))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	return &Driver{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		profileDir:  profileDir,
	}, nil
}

// Close tears down the browser and its profile directory.
func (d *Driver) Close() {
	d.allocCancel()
	if d.profileDir != "" {
		if err := os.RemoveAll(d.profileDir); err != nil {
			log.Warnf("failed to remove profile directory %s: %v", d.profileDir, err)
		}
	}
}

// Config returns the browser configuration the driver was built with.
func (d *Driver) Config() config.BrowserConfig { return d.cfg }

// Page is one isolated tab. Network tracking is always on so load waits
// and request interception work without extra setup.
type Page struct {
	Ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	net    *networkTracker
}

// NewPage opens a tab and enables the network domain.
func (d *Driver) NewPage() (*Page, error) {
	ctx, cancel := chromedp.NewContext(d.allocCtx)
	p := &Page{Ctx: ctx, cancel: cancel, cfg: d.cfg}
	p.net = newNetworkTracker(ctx)
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		cancel()
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to open page").WithError(err)
	}
	return p, nil
}

// Close closes the tab.
func (p *Page) Close() { p.cancel() }

// NavResult is the outcome of a successful navigation.
type NavResult struct {
	FinalURL   string
	StatusCode int
}

// Navigate loads a URL under the configured navigation timeout and
// reports the post-redirect status. Status codes >= 400 surface as a
// typed NavError; TLS errors are tolerated by the launch flags.
func (p *Page) Navigate(url string) (*NavResult, error) {
	timeout := time.Duration(p.cfg.GetTimeoutNavigation() * float64(time.Second))
	ctx, cancel := context.WithTimeout(p.Ctx, timeout)
	defer cancel()
	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(url))
	if err != nil {
		return nil, ClassifyNavError(err)
	}
	res := &NavResult{FinalURL: url}
	if resp != nil {
		res.StatusCode = int(resp.Status)
		if resp.URL != "" {
			res.FinalURL = resp.URL
		}
	}
	if loc, err := p.Location(); err == nil && loc != "" {
		res.FinalURL = loc
	}
	if res.StatusCode >= 400 {
		return res, &NavError{Reason: ReasonStatusCode, StatusCode: res.StatusCode}
	}
	return res, nil
}

// WaitForLoad runs the post-navigation settle sequence: a fixed sleep
// after onload, then (when enabled) a bounded network-idle wait and a
// short tail sleep. Idle-wait expiry is not an error.
func (p *Page) WaitForLoad() {
	p.Sleep(p.cfg.GetSleepAfterOnload())
	if p.cfg.GetWaitForNetworkidle() {
		idleTimeout := time.Duration(p.cfg.GetTimeoutNetworkidle() * float64(time.Second))
		if !p.net.WaitIdle(p.Ctx, idleTimeout) {
			log.Debug("network idle wait expired")
		}
		p.Sleep(p.cfg.GetSleepAfterNetworkidle())
	}
}

// Sleep pauses for the given number of seconds, honoring page context
// cancellation.
func (p *Page) Sleep(seconds float64) {
	if seconds <= 0 {
		return
	}
	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-p.Ctx.Done():
	}
}

// Reload reloads the current document and settles.
func (p *Page) Reload() error {
	if err := chromedp.Run(p.Ctx, chromedp.Reload()); err != nil {
		return ClassifyNavError(err)
	}
	p.WaitForLoad()
	return nil
}

// SetAboutBlank parks the tab on about:blank.
func (p *Page) SetAboutBlank() error {
	return chromedp.Run(p.Ctx, chromedp.Navigate("about:blank"))
}

// Restore re-navigates to a URL after an interaction changed the page,
// going through about:blank so in-page state is dropped.
func (p *Page) Restore(url string) error {
	if err := p.SetAboutBlank(); err != nil {
		return err
	}
	if _, err := p.Navigate(url); err != nil {
		return err
	}
	p.WaitForLoad()
	return nil
}

// Location returns the current document URL.
func (p *Page) Location() (string, error) {
	var loc string
	err := chromedp.Run(p.Ctx, chromedp.Location(&loc))
	return loc, err
}

// Content returns the serialized document.
func (p *Page) Content() (string, error) {
	var html string
	err := chromedp.Run(p.Ctx, chromedp.Evaluate("document.documentElement ? document.documentElement.outerHTML : ''", &html))
	return html, err
}

// Title returns the document title.
func (p *Page) Title() (string, error) {
	var title string
	err := chromedp.Run(p.Ctx, chromedp.Title(&title))
	return title, err
}

// ContentAnalyzable reports whether the current document is worth
// analyzing: not about:blank and an HTML content type.
func (p *Page) ContentAnalyzable() bool {
	loc, err := p.Location()
	if err != nil || loc == "" || loc == "about:blank" {
		return false
	}
	var contentType string
	if err := chromedp.Run(p.Ctx, chromedp.Evaluate("document.contentType || ''", &contentType)); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(contentType), "html")
}

// Screenshot captures the viewport as PNG.
func (p *Page) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(p.Ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to capture screenshot").WithError(err)
	}
	return buf, nil
}

// ScreenshotEncoded captures the viewport and returns the compressed
// base64 form stored in result documents.
func (p *Page) ScreenshotEncoded() (string, error) {
	png, err := p.Screenshot()
	if err != nil {
		return "", err
	}
	return EncodeArtifact(png), nil
}

// Evaluate runs an expression in the page and decodes the result.
func (p *Page) Evaluate(expr string, res interface{}) error {
	return chromedp.Run(p.Ctx, chromedp.Evaluate(expr, res))
}

// Click dispatches a raw mouse click at page coordinates.
func (p *Page) Click(x, y float64) error {
	return chromedp.Run(p.Ctx, chromedp.MouseClickXY(x, y))
}

// AddInitScript installs a script evaluated before every document in
// this tab.
func (p *Page) AddInitScript(script string) error {
	return chromedp.Run(p.Ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
}

// ExpectPopup arms a popup watcher. It must be called before the click
// that may open the popup; the returned wait function blocks until a
// popup page appears or the timeout passes, returning nil on timeout.
func (p *Page) ExpectPopup(timeout time.Duration) func() *Page {
	ch := chromedp.WaitNewTarget(p.Ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.OpenerID != ""
	})
	return func() *Page {
		select {
		case id := <-ch:
			ctx, cancel := chromedp.NewContext(p.Ctx, chromedp.WithTargetID(id))
			popup := &Page{Ctx: ctx, cancel: cancel, cfg: p.cfg}
			popup.net = newNetworkTracker(ctx)
			if err := chromedp.Run(ctx, network.Enable()); err != nil {
				cancel()
				return nil
			}
			return popup
		case <-time.After(timeout):
			return nil
		case <-p.Ctx.Done():
			return nil
		}
	}
}

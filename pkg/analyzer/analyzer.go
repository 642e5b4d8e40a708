// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package analyzer runs the per-task pipeline: resolve, login page
// discovery, authentication analysis, identity provider detection and
// metadata probing, assembled into one result with per-stage timings.
package analyzer

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/forms"
	"github.com/socsys/fidentikit/pkg/idp"
	"github.com/socsys/fidentikit/pkg/loginpage"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/metrics"
	"github.com/socsys/fidentikit/pkg/model"
	"github.com/socsys/fidentikit/pkg/passkey"
)

// Orchestrator executes one task end to end. It is purely sequential:
// no state survives between Run calls.
type Orchestrator struct {
	analyzerName string
	analysis     *config.AnalysisConfig
	client       *resty.Client
}

// New builds an orchestrator for one analyzer kind.
func New(analyzerName string, analysis *config.AnalysisConfig) *Orchestrator {
	if analysis == nil {
		analysis = config.DefaultAnalysisConfig()
	}
	client := resty.New().
		SetTimeout(time.Duration(analysis.Browser.GetTimeoutNavigation() * float64(time.Second))).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &Orchestrator{analyzerName: analyzerName, analysis: analysis, client: client}
}

// Run executes the pipeline for one domain. Stage failures degrade the
// result; only a completely unreachable domain short-circuits.
func (o *Orchestrator) Run(ctx context.Context, domain string) *model.TaskResult {
	result := &model.TaskResult{Timings: map[string]float64{}}
	totalStart := time.Now()
	defer func() {
		result.Timings["total_duration_seconds"] = time.Since(totalStart).Seconds()
	}()

	o.stage(result, "resolve", func() {
		result.Resolved = Resolve(ctx, o.client, domain)
	})
	if !result.Resolved.Reachable {
		return result
	}

	driver, err := browser.NewDriver(ctx, o.analysis.Browser)
	if err != nil {
		log.Warnf("browser launch failed: %v", err)
		result.Error = err.Error()
		return result
	}
	defer driver.Close()

	var homepage *browser.Page
	if homepage, err = driver.NewPage(); err == nil {
		defer homepage.Close()
		if _, err := homepage.Navigate(result.Resolved.URL); err != nil {
			log.Warnf("homepage load failed: %v", err)
		} else {
			homepage.WaitForLoad()
		}
	}

	o.stage(result, "login_page_detection", func() {
		gen := loginpage.NewGenerator(o.analysis.LoginPage, o.analysis.Metasearch)
		result.LoginPageCandidates = gen.Generate(ctx, domain, result.Resolved.URL, homepage)
	})

	switch o.analyzerName {
	case model.AnalyzerPasskey:
		o.stage(result, "passkey_analysis", func() {
			o.runPasskey(driver, result)
		})
	case model.AnalyzerLoginTrace:
		o.stage(result, "login_trace", func() {
			o.runLoginTrace(driver, result)
		})
	case model.AnalyzerWildcardReceiver:
		o.stage(result, "wildcard_receiver", func() {
			o.runWildcardReceiver(driver, result)
		})
	default: // landscape
		o.stage(result, "authentication_analysis", func() {
			o.runAuthentication(driver, result)
		})
		o.stage(result, "passkey_analysis", func() {
			o.runPasskey(driver, result)
		})
		o.stage(result, "idp_detection", func() {
			o.runIdp(driver, result)
		})
	}

	o.stage(result, "metadata", func() {
		result.MetadataAvailable, result.MetadataData = ProbeMetadata(ctx, o.client, result.Resolved.Domain)
	})
	return result
}

func (o *Orchestrator) stage(result *model.TaskResult, name string, fn func()) {
	start := time.Now()
	fn()
	seconds := time.Since(start).Seconds()
	result.Timings[name+"_duration_seconds"] = seconds
	metrics.StageDuration.WithLabelValues(name).Observe(seconds)
}

// runAuthentication walks the candidates on one shared page and runs
// the structural password and MFA detectors plus the LastPass frame
// scan on each.
func (o *Orchestrator) runAuthentication(driver *browser.Driver, result *model.TaskResult) {
	page, err := driver.NewPage()
	if err != nil {
		log.Warnf("authentication analysis page failed: %v", err)
		return
	}
	defer page.Close()
	mechanisms := &model.AuthenticationMechanisms{
		Passkey:  []model.PasskeyDetection{},
		MFA:      []model.MFADetection{},
		Password: []model.PasswordDetection{},
	}
	for i := range result.LoginPageCandidates {
		candidate := &result.LoginPageCandidates[i]
		nav, err := page.Navigate(candidate.LoginPageCandidate)
		if err != nil {
			candidate.Resolved = resolvedFromNavError(candidate.LoginPageCandidate, err)
			continue
		}
		page.WaitForLoad()
		candidate.Resolved = &model.Resolved{
			Reachable:  true,
			URL:        nav.FinalURL,
			StatusCode: nav.StatusCode,
		}
		if !page.ContentAnalyzable() {
			continue
		}
		if o.analysis.Artifacts.StoreLoginPageCandidateScreenshot {
			if shot, err := page.ScreenshotEncoded(); err == nil {
				candidate.Screenshot = shot
			}
		}
		snap, err := forms.CollectSnapshot(page)
		if err != nil {
			log.Warnf("form snapshot failed on %s: %v", candidate.LoginPageCandidate, err)
			continue
		}
		password := forms.DetectPassword(snap)
		password = forms.MergeLastPass(password, forms.DetectLastPassIcon(page))
		password.LoginPageURL = candidate.LoginPageCandidate
		mechanisms.Password = append(mechanisms.Password, password)

		mfa := forms.DetectMFA(snap)
		mfa.LoginPageURL = candidate.LoginPageCandidate
		mechanisms.MFA = append(mechanisms.MFA, mfa)
	}
	result.AuthenticationMechanisms = mechanisms
}

// runPasskey scans every reachable candidate with the passkey detector.
func (o *Orchestrator) runPasskey(driver *browser.Driver, result *model.TaskResult) {
	detector := passkey.NewDetector(driver, o.analysis)
	if result.AuthenticationMechanisms == nil {
		result.AuthenticationMechanisms = &model.AuthenticationMechanisms{}
	}
	for _, candidate := range result.LoginPageCandidates {
		if candidate.Resolved != nil && !candidate.Resolved.Reachable {
			continue
		}
		det, err := detector.Detect(candidate.LoginPageCandidate)
		if err != nil {
			log.Warnf("passkey detection failed on %s: %v", candidate.LoginPageCandidate, err)
			continue
		}
		if det == nil {
			continue
		}
		det.LoginPageURL = candidate.LoginPageCandidate
		result.AuthenticationMechanisms.Passkey = append(result.AuthenticationMechanisms.Passkey, *det)
	}
}

// runIdp runs provider recognition over the reachable candidates.
func (o *Orchestrator) runIdp(driver *browser.Driver, result *model.TaskResult) {
	ruleset := idp.GetGlobalRuleset()
	if ruleset == nil {
		var err error
		if ruleset, err = idp.LoadRuleset(o.analysis.Idp.RulesetPath); err != nil {
			log.Warnf("no identity provider ruleset available: %v", err)
			return
		}
	}
	detector := idp.NewDetector(driver, o.analysis, ruleset)
	var reachable []model.LoginPageCandidate
	for _, c := range result.LoginPageCandidates {
		if c.Resolved == nil || c.Resolved.Reachable {
			reachable = append(reachable, c)
		}
	}
	result.IdentityProviders = detector.DetectAll(reachable)
}

func resolvedFromNavError(url string, err error) *model.Resolved {
	nav := browser.ClassifyNavError(err)
	res := &model.Resolved{
		Reachable:   false,
		URL:         url,
		ErrorMsg:    err.Error(),
		ErrorReason: string(nav.Reason),
	}
	if nav.Reason == browser.ReasonStatusCode {
		res.StatusCode = nav.StatusCode
	}
	return res
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analyzer

import (
	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/idp"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// storageStateScript serializes client-side storage after a login page
// finished loading.
const storageStateScript = `(() => {
  const dump = (store) => {
    const out = {};
    try {
      for (let i = 0; i < store.length; i++) {
        const k = store.key(i);
        out[k] = (store.getItem(k) || '').slice(0, 4096);
      }
    } catch (e) {}
    return out;
  };
  return JSON.stringify({
    local_storage: dump(window.localStorage),
    session_storage: dump(window.sessionStorage),
    cookies: document.cookie,
  });
})()`

// runLoginTrace records the full network trace and client storage state
// of every candidate load.
func (o *Orchestrator) runLoginTrace(driver *browser.Driver, result *model.TaskResult) {
	for i := range result.LoginPageCandidates {
		candidate := &result.LoginPageCandidates[i]
		page, err := driver.NewPage()
		if err != nil {
			log.Warnf("login trace page failed: %v", err)
			return
		}
		har := page.RecordHAR()
		nav, err := page.Navigate(candidate.LoginPageCandidate)
		if err != nil {
			candidate.Resolved = resolvedFromNavError(candidate.LoginPageCandidate, err)
			page.Close()
			continue
		}
		page.WaitForLoad()
		candidate.Resolved = &model.Resolved{Reachable: true, URL: nav.FinalURL, StatusCode: nav.StatusCode}

		info := map[string]interface{}{}
		if archive, err := har.ArchiveEncoded(); err == nil {
			info["login_trace_har"] = archive
		}
		var storageState string
		if err := page.Evaluate(storageStateScript, &storageState); err == nil && storageState != "" {
			info["login_trace_storage_state"] = storageState
		}
		if shot, err := page.ScreenshotEncoded(); err == nil {
			candidate.Screenshot = shot
		}
		if len(info) > 0 {
			candidate.Info = info
		}
		page.Close()
	}
}

// runWildcardReceiver loads each candidate and matches the traffic it
// generates on its own against every provider's passive login-request
// rule; no clicking is involved.
func (o *Orchestrator) runWildcardReceiver(driver *browser.Driver, result *model.TaskResult) {
	ruleset := idp.GetGlobalRuleset()
	if ruleset == nil {
		var err error
		if ruleset, err = idp.LoadRuleset(o.analysis.Idp.RulesetPath); err != nil {
			log.Warnf("no identity provider ruleset available: %v", err)
			return
		}
	}
	for i := range result.LoginPageCandidates {
		candidate := &result.LoginPageCandidates[i]
		page, err := driver.NewPage()
		if err != nil {
			log.Warnf("wildcard receiver page failed: %v", err)
			return
		}
		watcher := page.WatchRequests()
		nav, err := page.Navigate(candidate.LoginPageCandidate)
		if err != nil {
			candidate.Resolved = resolvedFromNavError(candidate.LoginPageCandidate, err)
			page.Close()
			continue
		}
		page.WaitForLoad()
		candidate.Resolved = &model.Resolved{Reachable: true, URL: nav.FinalURL, StatusCode: nav.StatusCode}
		result.IdentityProviders = append(result.IdentityProviders,
			o.passiveDetections(ruleset, candidate.LoginPageCandidate, watcher.Requests())...)
		page.Close()
	}
}

func (o *Orchestrator) passiveDetections(ruleset *idp.Ruleset, candidateURL string, requests []browser.ObservedRequest) []model.IdentityProviderDetection {
	var out []model.IdentityProviderDetection
	for _, name := range ruleset.Providers() {
		provider, _ := ruleset.Provider(name)
		rule := provider.PassiveLoginRequestRule
		if rule == nil {
			rule = provider.LoginRequestRule
		}
		for _, req := range requests {
			if !rule.Matches(req.URL) {
				continue
			}
			integration := model.IntegrationCustom
			for _, sdk := range provider.Sdks {
				if sdk.Rule.Matches(req.URL) {
					integration = sdk.Name
					break
				}
			}
			out = append(out, model.IdentityProviderDetection{
				IdpName:             provider.Name,
				IdpIntegration:      integration,
				IdpFrame:            model.FrameIframe,
				LoginPageURL:        candidateURL,
				RecognitionStrategy: model.RecognitionRequest,
				IdpLoginRequest:     req.URL,
			})
			break
		}
	}
	return out
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package idp recognizes single sign-on affordances for known identity
// providers on login page candidates.
package idp

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v2"

	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
)

// RequestRuleSpec matches one OAuth-style login request: every present
// regex must match, and every listed parameter must be present with a
// matching value.
type RequestRuleSpec struct {
	Domain string `yaml:"domain"`
	Path   string `yaml:"path"`
	Params []struct {
		Name  string `yaml:"name"`
		Value string `yaml:"value"`
	} `yaml:"params"`
}

// SdkSpec is a named integration variant of a provider.
type SdkSpec struct {
	Name             string          `yaml:"name"`
	LoginRequestRule RequestRuleSpec `yaml:"login_request_rule"`
}

// ProviderSpec is one provider's file in the ruleset directory.
type ProviderSpec struct {
	Name                        string           `yaml:"name"`
	Keywords                    []string         `yaml:"keywords"`
	LogoDir                     string           `yaml:"logo_dir"`
	LoginRequestRule            RequestRuleSpec  `yaml:"login_request_rule"`
	PassiveLoginRequestRule     *RequestRuleSpec `yaml:"passive_login_request_rule"`
	LoginResponseRule           *RequestRuleSpec `yaml:"login_response_rule"`
	LoginResponseOriginatorRule *RequestRuleSpec `yaml:"login_response_originator_rule"`
	Sdks                        []SdkSpec        `yaml:"sdks"`
}

// RequestRule is the compiled form of RequestRuleSpec.
type RequestRule struct {
	Domain *regexp.Regexp
	Path   *regexp.Regexp
	Params []paramRule
}

type paramRule struct {
	Name  *regexp.Regexp
	Value *regexp.Regexp
}

// Matches applies the rule to a raw request URL.
func (r *RequestRule) Matches(raw string) bool {
	if r == nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if r.Domain != nil && !r.Domain.MatchString(u.Hostname()) {
		return false
	}
	if r.Path != nil && !r.Path.MatchString(u.Path) {
		return false
	}
	if len(r.Params) > 0 {
		query := u.Query()
		for _, p := range r.Params {
			found := false
			for name, values := range query {
				if p.Name != nil && !p.Name.MatchString(name) {
					continue
				}
				if p.Value == nil {
					found = true
					break
				}
				for _, v := range values {
					if p.Value.MatchString(v) {
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// Sdk is a compiled SDK integration rule.
type Sdk struct {
	Name string
	Rule *RequestRule
}

// Provider is the compiled, ready-to-match form of one identity
// provider.
type Provider struct {
	Name                    string
	Keywords                []string
	Logos                   []Logo
	LoginRequestRule        *RequestRule
	PassiveLoginRequestRule *RequestRule
	Sdks                    []Sdk
}

// Logo is one decoded template image.
type Logo struct {
	Name  string
	Image image.Image
}

// Ruleset is the process-wide provider registry, read-only after load.
type Ruleset struct {
	providers map[string]*Provider
	order     []string
}

// Providers returns provider names in load order.
func (rs *Ruleset) Providers() []string { return rs.order }

// Provider looks up a provider by name.
func (rs *Ruleset) Provider(name string) (*Provider, bool) {
	p, ok := rs.providers[strings.ToUpper(name)]
	return p, ok
}

func compileRule(spec RequestRuleSpec) (*RequestRule, error) {
	if spec.Domain == "" && spec.Path == "" && len(spec.Params) == 0 {
		return nil, nil
	}
	rule := &RequestRule{}
	var err error
	if spec.Domain != "" {
		if rule.Domain, err = regexp.Compile(spec.Domain); err != nil {
			return nil, err
		}
	}
	if spec.Path != "" {
		if rule.Path, err = regexp.Compile(spec.Path); err != nil {
			return nil, err
		}
	}
	for _, p := range spec.Params {
		var pr paramRule
		if p.Name != "" {
			if pr.Name, err = regexp.Compile(p.Name); err != nil {
				return nil, err
			}
		}
		if p.Value != "" {
			if pr.Value, err = regexp.Compile(p.Value); err != nil {
				return nil, err
			}
		}
		rule.Params = append(rule.Params, pr)
	}
	return rule, nil
}

// LoadRuleset reads every provider file (*.yaml) under dir, compiles
// the regexes once and decodes the logo templates.
func LoadRuleset(dir string) (*Ruleset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
			WithMessagef("failed to read ruleset directory %s", dir).WithError(err)
	}
	rs := &Ruleset{providers: make(map[string]*Provider)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var spec ProviderSpec
		if err := yaml.Unmarshal(raw, &spec); err != nil {
			return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
				WithMessagef("invalid provider spec %s", path).WithError(err)
		}
		provider, err := compileProvider(dir, spec)
		if err != nil {
			return nil, errors.NewError().WithCode(errors.CodeInvalidArgument).
				WithMessagef("failed to compile provider %s", spec.Name).WithError(err)
		}
		name := strings.ToUpper(provider.Name)
		if _, dup := rs.providers[name]; !dup {
			rs.order = append(rs.order, name)
		}
		rs.providers[name] = provider
	}
	log.Infof("loaded identity provider ruleset from %s (%d providers)", dir, len(rs.order))
	return rs, nil
}

func compileProvider(dir string, spec ProviderSpec) (*Provider, error) {
	p := &Provider{Name: spec.Name, Keywords: spec.Keywords}
	var err error
	if p.LoginRequestRule, err = compileRule(spec.LoginRequestRule); err != nil {
		return nil, err
	}
	if spec.PassiveLoginRequestRule != nil {
		if p.PassiveLoginRequestRule, err = compileRule(*spec.PassiveLoginRequestRule); err != nil {
			return nil, err
		}
	}
	for _, sdk := range spec.Sdks {
		rule, err := compileRule(sdk.LoginRequestRule)
		if err != nil {
			return nil, err
		}
		p.Sdks = append(p.Sdks, Sdk{Name: sdk.Name, Rule: rule})
	}
	if spec.LogoDir != "" {
		logoDir := filepath.Join(dir, spec.LogoDir)
		logos, err := loadLogos(logoDir)
		if err != nil {
			log.Warnf("failed to load logos for %s from %s: %v", spec.Name, logoDir, err)
		}
		p.Logos = logos
	}
	return p, nil
}

func loadLogos(dir string) ([]Logo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var logos []Logo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			log.Warnf("failed to decode logo %s: %v", entry.Name(), err)
			continue
		}
		logos = append(logos, Logo{Name: entry.Name(), Image: img})
	}
	return logos, nil
}

// globalRuleset is the worker-wide ruleset, swapped atomically on
// reload.
var globalRuleset atomic.Pointer[Ruleset]

// SetGlobalRuleset replaces the process-wide ruleset.
func SetGlobalRuleset(rs *Ruleset) { globalRuleset.Store(rs) }

// GetGlobalRuleset returns the current ruleset, nil before boot.
func GetGlobalRuleset() *Ruleset { return globalRuleset.Load() }

// ReloadGlobalRuleset loads dir and swaps the registry in one step;
// detectors running against the old ruleset finish on it.
func ReloadGlobalRuleset(dir string) error {
	rs, err := LoadRuleset(dir)
	if err != nil {
		return err
	}
	SetGlobalRuleset(rs)
	return nil
}

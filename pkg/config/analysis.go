// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

// AnalysisConfig is the analyzer-specific configuration block carried by
// every task. The dispatcher copies it into the task document; the worker
// decodes it back out, so every field carries both json (wire) and yaml
// (file) tags.
type AnalysisConfig struct {
	Browser            BrowserConfig            `json:"browser_config" yaml:"browser"`
	LoginPage          LoginPageConfig          `json:"login_page_config" yaml:"login_page"`
	Idp                IdpConfig                `json:"idp_config" yaml:"idp"`
	Recognition        RecognitionConfig        `json:"recognition_config" yaml:"recognition"`
	KeywordRecognition KeywordRecognitionConfig `json:"keyword_recognition_config" yaml:"keyword_recognition"`
	LogoRecognition    LogoRecognitionConfig    `json:"logo_recognition_config" yaml:"logo_recognition"`
	Artifacts          ArtifactsConfig          `json:"artifacts_config" yaml:"artifacts"`
	Metasearch         MetasearchConfig         `json:"metasearch_config" yaml:"metasearch"`
}

type BrowserConfig struct {
	Name                 string   `json:"name" yaml:"name"` // CHROMIUM, FIREFOX, WEBKIT
	Headless             *bool    `json:"headless" yaml:"headless"`
	Width                int      `json:"width" yaml:"width"`
	Height               int      `json:"height" yaml:"height"`
	Locale               string   `json:"locale" yaml:"locale"`
	UserAgent            string   `json:"user_agent" yaml:"user_agent"`
	Extensions           []string `json:"extensions" yaml:"extensions"`
	Scripts              []string `json:"scripts" yaml:"scripts"`
	TimeoutDefault       float64  `json:"timeout_default" yaml:"timeout_default"`               // seconds
	TimeoutNavigation    float64  `json:"timeout_navigation" yaml:"timeout_navigation"`         // seconds
	SleepAfterOnload     float64  `json:"sleep_after_onload" yaml:"sleep_after_onload"`         // seconds
	WaitForNetworkidle   *bool    `json:"wait_for_networkidle" yaml:"wait_for_networkidle"`
	TimeoutNetworkidle   float64  `json:"timeout_networkidle" yaml:"timeout_networkidle"`       // seconds
	SleepAfterNetworkidle float64 `json:"sleep_after_networkidle" yaml:"sleep_after_networkidle"` // seconds
}

func (c BrowserConfig) GetName() string {
	if c.Name == "" {
		return "CHROMIUM"
	}
	return c.Name
}

func (c BrowserConfig) GetHeadless() bool {
	if c.Headless == nil {
		return true
	}
	return *c.Headless
}

func (c BrowserConfig) GetWidth() int {
	if c.Width <= 0 {
		return 1280
	}
	return c.Width
}

func (c BrowserConfig) GetHeight() int {
	if c.Height <= 0 {
		return 800
	}
	return c.Height
}

func (c BrowserConfig) GetTimeoutNavigation() float64 {
	if c.TimeoutNavigation <= 0 {
		return 30
	}
	return c.TimeoutNavigation
}

func (c BrowserConfig) GetSleepAfterOnload() float64 {
	if c.SleepAfterOnload <= 0 {
		return 5
	}
	return c.SleepAfterOnload
}

func (c BrowserConfig) GetWaitForNetworkidle() bool {
	if c.WaitForNetworkidle == nil {
		return true
	}
	return *c.WaitForNetworkidle
}

func (c BrowserConfig) GetTimeoutNetworkidle() float64 {
	if c.TimeoutNetworkidle <= 0 {
		return 10
	}
	return c.TimeoutNetworkidle
}

func (c BrowserConfig) GetSleepAfterNetworkidle() float64 {
	if c.SleepAfterNetworkidle <= 0 {
		return 2
	}
	return c.SleepAfterNetworkidle
}

// PriorityRule scores candidate URLs: the highest priority among matching
// rules wins.
type PriorityRule struct {
	Regex    string `json:"regex" yaml:"regex"`
	Priority int    `json:"priority" yaml:"priority"`
}

type LoginPageConfig struct {
	LoginPageURLRegexes    []PriorityRule          `json:"login_page_url_regexes" yaml:"login_page_url_regexes"`
	LoginPageStrategyScope []string                `json:"login_page_strategy_scope" yaml:"login_page_strategy_scope"`
	Paths                  PathsStrategyConfig     `json:"paths_strategy_config" yaml:"paths_strategy_config"`
	Crawling               CrawlingStrategyConfig  `json:"crawling_strategy_config" yaml:"crawling_strategy_config"`
	Sitemap                SitemapStrategyConfig   `json:"sitemap_strategy_config" yaml:"sitemap_strategy_config"`
	Robots                 RobotsStrategyConfig    `json:"robots_strategy_config" yaml:"robots_strategy_config"`
	Metasearch             MetasearchStrategyConfig `json:"metasearch_strategy_config" yaml:"metasearch_strategy_config"`
	Manual                 ManualStrategyConfig    `json:"manual_strategy_config" yaml:"manual_strategy_config"`
}

type PathsStrategyConfig struct {
	Paths         []string `json:"paths" yaml:"paths"`
	UseSubdomains bool     `json:"use_subdomains" yaml:"use_subdomains"`
	Subdomains    []string `json:"subdomains" yaml:"subdomains"`
}

type CrawlingStrategyConfig struct {
	LoginRegex        string   `json:"login_regex" yaml:"login_regex"`
	Keywords          []string `json:"keywords" yaml:"keywords"`
	MaxElementsToClick int     `json:"max_elements_to_click" yaml:"max_elements_to_click"`
}

func (c CrawlingStrategyConfig) GetMaxElementsToClick() int {
	if c.MaxElementsToClick <= 0 {
		return 5
	}
	return c.MaxElementsToClick
}

type SitemapStrategyConfig struct {
	LoginRegex   string `json:"login_regex" yaml:"login_regex"`
	MaxDepth     int    `json:"max_depth" yaml:"max_depth"`
	MaxSitemaps  int    `json:"max_sitemaps" yaml:"max_sitemaps"`
	MaxURLs      int    `json:"max_urls" yaml:"max_urls"`
}

func (c SitemapStrategyConfig) GetMaxDepth() int {
	if c.MaxDepth <= 0 {
		return 2
	}
	return c.MaxDepth
}

func (c SitemapStrategyConfig) GetMaxSitemaps() int {
	if c.MaxSitemaps <= 0 {
		return 10
	}
	return c.MaxSitemaps
}

func (c SitemapStrategyConfig) GetMaxURLs() int {
	if c.MaxURLs <= 0 {
		return 5000
	}
	return c.MaxURLs
}

type RobotsStrategyConfig struct {
	LoginRegex string `json:"login_regex" yaml:"login_regex"`
}

type MetasearchStrategyConfig struct {
	SearchTerm          string `json:"search_term" yaml:"search_term"`
	SearchResultsNumber int    `json:"search_results_number" yaml:"search_results_number"`
}

func (c MetasearchStrategyConfig) GetSearchResultsNumber() int {
	if c.SearchResultsNumber <= 0 {
		return 10
	}
	return c.SearchResultsNumber
}

type ManualStrategyConfig struct {
	URLs []string `json:"urls" yaml:"urls"`
}

type IdpConfig struct {
	IdpScope []string `json:"idp_scope" yaml:"idp_scope"`
	// RulesetPath points at the IdP ruleset directory loaded at worker boot.
	RulesetPath string `json:"ruleset_path" yaml:"ruleset_path"`
}

type RecognitionConfig struct {
	RecognitionMode          string   `json:"recognition_mode" yaml:"recognition_mode"` // FAST, NORMAL, EXTENSIVE
	RecognitionStrategyScope []string `json:"recognition_strategy_scope" yaml:"recognition_strategy_scope"`
}

func (c RecognitionConfig) GetRecognitionMode() string {
	if c.RecognitionMode == "" {
		return "NORMAL"
	}
	return c.RecognitionMode
}

func (c RecognitionConfig) GetRecognitionStrategyScope() []string {
	if len(c.RecognitionStrategyScope) == 0 {
		return []string{"KEYWORD-CSS", "KEYWORD-XPATH", "LOGO"}
	}
	return c.RecognitionStrategyScope
}

type KeywordRecognitionConfig struct {
	Keywords           []string `json:"keywords" yaml:"keywords"`
	Xpath              []string `json:"xpath" yaml:"xpath"`
	MaxElementsToClick int      `json:"max_elements_to_click" yaml:"max_elements_to_click"`
}

func (c KeywordRecognitionConfig) GetKeywords() []string {
	if len(c.Keywords) == 0 {
		return []string{
			"sign in with %s", "log in with %s", "login with %s",
			"continue with %s", "sign up with %s", "connect with %s",
		}
	}
	return c.Keywords
}

func (c KeywordRecognitionConfig) GetMaxElementsToClick() int {
	if c.MaxElementsToClick <= 0 {
		return 3
	}
	return c.MaxElementsToClick
}

type LogoRecognitionConfig struct {
	LogoSize           int     `json:"logo_size" yaml:"logo_size"`
	MaxElementsToClick int     `json:"max_elements_to_click" yaml:"max_elements_to_click"`
	MaxMatching        float64 `json:"max_matching" yaml:"max_matching"`
	UpperBound         float64 `json:"upper_bound" yaml:"upper_bound"`
	LowerBound         float64 `json:"lower_bound" yaml:"lower_bound"`
	ScaleUpperBound    float64 `json:"scale_upper_bound" yaml:"scale_upper_bound"`
	ScaleLowerBound    float64 `json:"scale_lower_bound" yaml:"scale_lower_bound"`
	ScaleMethod        string  `json:"scale_method" yaml:"scale_method"` // scale_template, scale_screenshot
	ScaleSpace         string  `json:"scale_space" yaml:"scale_space"`   // linspace, geomspace
	ScaleOrder         string  `json:"scale_order" yaml:"scale_order"`   // ascending, descending
	MatchIntensity     int     `json:"match_intensity" yaml:"match_intensity"`
	MatchAlgorithm     string  `json:"match_algorithm" yaml:"match_algorithm"` // ccoeff_normed, sqdiff_normed
}

func (c LogoRecognitionConfig) GetMaxElementsToClick() int {
	if c.MaxElementsToClick <= 0 {
		return 3
	}
	return c.MaxElementsToClick
}

type ArtifactsConfig struct {
	StoreIdpScreenshot                bool `json:"store_idp_screenshot" yaml:"store_idp_screenshot"`
	StoreIdpHar                       bool `json:"store_idp_har" yaml:"store_idp_har"`
	StoreSsoButtonDetectionScreenshot bool `json:"store_sso_button_detection_screenshot" yaml:"store_sso_button_detection_screenshot"`
	StoreLoginPageCandidateScreenshot bool `json:"store_login_page_candidate_screenshot" yaml:"store_login_page_candidate_screenshot"`
	StoreSitemap                      bool `json:"store_sitemap" yaml:"store_sitemap"`
	StoreRobots                       bool `json:"store_robots" yaml:"store_robots"`
	StorePasskeyScreenshot            bool `json:"store_passkey_screenshot" yaml:"store_passkey_screenshot"`
	StorePasskeyHar                   bool `json:"store_passkey_har" yaml:"store_passkey_har"`
}

type MetasearchConfig struct {
	Endpoint string  `json:"endpoint" yaml:"endpoint"`
	PageSize int     `json:"page_size" yaml:"page_size"`
	Timeout  float64 `json:"timeout" yaml:"timeout"` // seconds
}

func (c MetasearchConfig) GetPageSize() int {
	if c.PageSize <= 0 {
		return 10
	}
	return c.PageSize
}

func (c MetasearchConfig) GetTimeout() float64 {
	if c.Timeout <= 0 {
		return 10
	}
	return c.Timeout
}

// DefaultAnalysisConfig returns the analyzer configuration used when the
// config file does not carry an analysis block.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		LoginPage: LoginPageConfig{
			LoginPageURLRegexes: []PriorityRule{
				{Regex: `(?i)(login|log-in|signin|sign-in|sign_in|auth|sso|account)`, Priority: 10},
				{Regex: `(?i)(register|signup|sign-up)`, Priority: 5},
			},
			LoginPageStrategyScope: []string{"HOMEPAGE", "PATHS", "CRAWLING"},
			Paths: PathsStrategyConfig{
				Paths: []string{"login", "signin", "sign-in", "account/login", "auth/login", "users/sign_in"},
			},
			Crawling: CrawlingStrategyConfig{
				LoginRegex: `(?i)(login|log-in|signin|sign-in|sign_in|auth|account)`,
				Keywords:   []string{"log in", "login", "sign in", "signin", "my account"},
			},
			Sitemap: SitemapStrategyConfig{
				LoginRegex: `(?i)(login|signin|sign-in|auth)`,
			},
			Robots: RobotsStrategyConfig{
				LoginRegex: `(?i)(login|signin|sign-in|auth)`,
			},
			Metasearch: MetasearchStrategyConfig{SearchTerm: "login"},
		},
		Idp: IdpConfig{
			IdpScope:    []string{"GOOGLE", "FACEBOOK", "APPLE", "MICROSOFT", "GITHUB", "TWITTER_X", "LINKEDIN"},
			RulesetPath: "rules",
		},
		LogoRecognition: LogoRecognitionConfig{
			MaxMatching:     0.95,
			UpperBound:      0.80,
			LowerBound:      0.50,
			ScaleUpperBound: 1.5,
			ScaleLowerBound: 0.25,
			ScaleMethod:     "scale_template",
			ScaleSpace:      "linspace",
			ScaleOrder:      "descending",
			MatchIntensity:  9,
			MatchAlgorithm:  "ccoeff_normed",
		},
	}
}

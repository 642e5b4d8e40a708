// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package locator

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/config"
)

func TestBuildCSSSelectors(t *testing.T) {
	selectors := BuildCSSSelectors("sign in with google", []string{"title", "aria-label"})
	assert.Equal(t, []string{
		`[title*="sign in with google" i]`,
		`[aria-label*="sign in with google" i]`,
	}, selectors)
}

func TestBuildCSSSelectorsEscapesQuotes(t *testing.T) {
	selectors := BuildCSSSelectors(`say "hi"`, []string{"title"})
	assert.Equal(t, `[title*="say \"hi\"" i]`, selectors[0])
}

func TestCSSKeywordsHighValiditySubstitutesProvider(t *testing.T) {
	patterns := []string{"sign in with %s", "continue with %s"}
	keywords := CSSKeywords(patterns, "Google", []string{"google"}, ValidityHigh)
	assert.Equal(t, []string{"sign in with google", "continue with google"}, keywords)
}

func TestCSSKeywordsHighValidityCrossesAllKeywords(t *testing.T) {
	// Providers with aliases get every alias substituted into every
	// phrase, so "Continue with FB" style buttons are reachable at high
	// validity.
	patterns := []string{"sign in with %s", "continue with %s"}
	keywords := CSSKeywords(patterns, "Facebook", []string{"facebook", "fb"}, ValidityHigh)
	assert.Equal(t, []string{
		"sign in with facebook", "sign in with fb",
		"continue with facebook", "continue with fb",
	}, keywords)
}

func TestCSSKeywordsHighValidityKeepsLiteralPatterns(t *testing.T) {
	keywords := CSSKeywords([]string{"single sign-on", "log in with %s"}, "Okta", []string{"okta"}, ValidityHigh)
	assert.Equal(t, []string{"single sign-on", "log in with okta"}, keywords)
}

func TestCSSKeywordsLowValidityUsesRawKeywords(t *testing.T) {
	keywords := CSSKeywords([]string{"sign in with %s"}, "Google", []string{"google", "gplus"}, ValidityLow)
	assert.Equal(t, []string{"google", "gplus"}, keywords)
}

func TestBuildXPathContainsAndExact(t *testing.T) {
	contains := BuildXPath("Sign In", false)
	assert.Contains(t, contains, "contains(")
	assert.Contains(t, contains, "'sign in'")
	assert.Contains(t, contains, "not(self::script")

	exact := BuildXPath("Sign In", true)
	assert.NotContains(t, exact, "contains(")
	assert.Contains(t, exact, "='sign in'")
}

func TestBuildXPathStripsSingleQuotes(t *testing.T) {
	expr := BuildXPath("don't", false)
	assert.Contains(t, expr, "'dont'")
}

func TestMatchScales(t *testing.T) {
	cfg := config.LogoRecognitionConfig{
		ScaleLowerBound: 0.5,
		ScaleUpperBound: 1.5,
		ScaleSpace:      SpaceLinear,
		ScaleOrder:      OrderAscending,
		MatchIntensity:  3,
	}
	scales := matchScales(cfg)
	require.Len(t, scales, 3)
	assert.InDelta(t, 0.5, scales[0], 1e-9)
	assert.InDelta(t, 1.0, scales[1], 1e-9)
	assert.InDelta(t, 1.5, scales[2], 1e-9)

	cfg.ScaleOrder = OrderDescending
	scales = matchScales(cfg)
	assert.InDelta(t, 1.5, scales[0], 1e-9)

	// The floor protects against degenerate templates.
	cfg.ScaleLowerBound = 0.0001
	scales = matchScales(cfg)
	assert.GreaterOrEqual(t, scales[len(scales)-1], minScale)
}

func TestMatchScalesGeometric(t *testing.T) {
	cfg := config.LogoRecognitionConfig{
		ScaleLowerBound: 0.25,
		ScaleUpperBound: 1.0,
		ScaleSpace:      SpaceGeometric,
		ScaleOrder:      OrderAscending,
		MatchIntensity:  3,
	}
	scales := matchScales(cfg)
	require.Len(t, scales, 3)
	assert.InDelta(t, 0.25, scales[0], 1e-9)
	assert.InDelta(t, 0.5, scales[1], 1e-9)
	assert.InDelta(t, 1.0, scales[2], 1e-9)
}

// synthetic scene: a white canvas with one dark square.
func syntheticScene(squareX, squareY, squareSize int) image.Image {
	img := image.NewGray(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := squareY; y < squareY+squareSize; y++ {
		for x := squareX; x < squareX+squareSize; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	return img
}

func darkSquareTemplate(size int) image.Image {
	tmpl := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(255)
			if x > 0 && y > 0 && x < size-1 && y < size-1 {
				v = 20
			}
			tmpl.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return tmpl
}

func TestMatchTemplateFindsSquare(t *testing.T) {
	scene := syntheticScene(40, 30, 16)
	tmpl := darkSquareTemplate(18)

	cfg := config.LogoRecognitionConfig{
		MaxMatching:     0.99,
		UpperBound:      0.80,
		LowerBound:      0.50,
		ScaleUpperBound: 1.0,
		ScaleLowerBound: 1.0,
		ScaleMethod:     ScaleTemplate,
		ScaleSpace:      SpaceLinear,
		ScaleOrder:      OrderDescending,
		MatchIntensity:  1,
		MatchAlgorithm:  AlgoCcoeff,
	}
	matches := MatchTemplate(scene, tmpl, cfg)
	require.NotEmpty(t, matches)
	best := matches[0]
	assert.Greater(t, best.Score, 0.8)
	assert.InDelta(t, 39, best.Element.X, 3)
	assert.InDelta(t, 29, best.Element.Y, 3)
}

func TestMatchTemplateSqdiff(t *testing.T) {
	scene := syntheticScene(20, 20, 16)
	tmpl := darkSquareTemplate(18)

	cfg := config.LogoRecognitionConfig{
		LowerBound:      0.5,
		ScaleUpperBound: 1.0,
		ScaleLowerBound: 1.0,
		ScaleMethod:     ScaleTemplate,
		MatchIntensity:  1,
		MatchAlgorithm:  AlgoSqdiff,
	}
	matches := MatchTemplate(scene, tmpl, cfg)
	require.NotEmpty(t, matches)
	assert.Greater(t, matches[0].Score, 0.8)
}

func TestMatchTemplateNoMatchBelowLowerBound(t *testing.T) {
	// Uniform white scene, dark-edged template: correlation is undefined
	// on the flat scene so nothing should clear the bound.
	scene := syntheticScene(0, 0, 0)
	tmpl := darkSquareTemplate(18)

	cfg := config.LogoRecognitionConfig{
		LowerBound:      0.9,
		ScaleUpperBound: 1.0,
		ScaleLowerBound: 1.0,
		ScaleMethod:     ScaleTemplate,
		MatchIntensity:  1,
		MatchAlgorithm:  AlgoCcoeff,
	}
	matches := MatchTemplate(scene, tmpl, cfg)
	assert.Empty(t, matches)
}

func TestMatchTemplateOversizedTemplate(t *testing.T) {
	scene := syntheticScene(10, 10, 8)
	tmpl := darkSquareTemplate(100) // does not fit at scale 2

	cfg := config.LogoRecognitionConfig{
		LowerBound:      0.5,
		ScaleUpperBound: 2.0,
		ScaleLowerBound: 2.0,
		ScaleMethod:     ScaleTemplate,
		MatchIntensity:  1,
	}
	matches := MatchTemplate(scene, tmpl, cfg)
	assert.Empty(t, matches)
}

// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package locator

import (
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/model"
)

// minScale is the hard floor for template scaling; below it the
// template degenerates to noise.
const minScale = 0.05

// Scale method, space and order values accepted by the logo matcher.
const (
	ScaleTemplate   = "scale_template"
	ScaleScreenshot = "scale_screenshot"
	SpaceLinear     = "linspace"
	SpaceGeometric  = "geomspace"
	OrderAscending  = "ascending"
	OrderDescending = "descending"
	AlgoCcoeff      = "ccoeff_normed"
	AlgoSqdiff      = "sqdiff_normed"
)

// Match is one template hit in screenshot coordinates.
type Match struct {
	Element model.Element
	Score   float64
	Scale   float64
}

// MatchTemplate runs multi-scale template matching of a logo template
// against a page screenshot. Scores are normalized to [0,1] with higher
// always better (the squared-difference algorithm is inverted so both
// algorithms share the bound semantics). Matches below the lower bound
// are dropped; reaching max_matching stops the scale sweep early.
// The result is sorted by score, best first.
func MatchTemplate(screenshot, template image.Image, cfg config.LogoRecognitionConfig) []Match {
	if screenshot == nil || template == nil {
		return nil
	}
	shot := toGray(screenshot)
	tmpl := toGray(template)
	if shot.Bounds().Dx() == 0 || shot.Bounds().Dy() == 0 ||
		tmpl.Bounds().Dx() == 0 || tmpl.Bounds().Dy() == 0 {
		return nil
	}
	var matches []Match
	for _, scale := range matchScales(cfg) {
		var m *Match
		if cfg.ScaleMethod == ScaleScreenshot {
			m = matchAtScreenshotScale(shot, tmpl, scale, cfg.MatchAlgorithm)
		} else {
			m = matchAtTemplateScale(shot, tmpl, scale, cfg.MatchAlgorithm)
		}
		if m == nil || m.Score < cfg.LowerBound {
			continue
		}
		matches = append(matches, *m)
		if cfg.MaxMatching > 0 && m.Score >= cfg.MaxMatching {
			break
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// matchScales builds the scale sweep from the configured bounds, space,
// order and intensity. The lower bound is clamped to minScale.
func matchScales(cfg config.LogoRecognitionConfig) []float64 {
	lo := cfg.ScaleLowerBound
	if lo < minScale {
		lo = minScale
	}
	hi := cfg.ScaleUpperBound
	if hi < lo {
		hi = lo
	}
	n := cfg.MatchIntensity
	if n <= 0 {
		n = 9
	}
	scales := make([]float64, 0, n)
	if n == 1 || hi == lo {
		scales = append(scales, lo)
	} else if cfg.ScaleSpace == SpaceGeometric {
		ratio := math.Pow(hi/lo, 1/float64(n-1))
		s := lo
		for i := 0; i < n; i++ {
			scales = append(scales, s)
			s *= ratio
		}
	} else {
		step := (hi - lo) / float64(n-1)
		for i := 0; i < n; i++ {
			scales = append(scales, lo+step*float64(i))
		}
	}
	if cfg.ScaleOrder != OrderAscending {
		for i, j := 0, len(scales)-1; i < j; i, j = i+1, j-1 {
			scales[i], scales[j] = scales[j], scales[i]
		}
	}
	return scales
}

func matchAtTemplateScale(shot, tmpl *image.Gray, scale float64, algo string) *Match {
	scaled := resizeGray(tmpl, scale)
	if scaled == nil {
		return nil
	}
	x, y, score := bestMatch(shot, scaled, algo)
	if score < 0 {
		return nil
	}
	return &Match{
		Element: model.Element{
			X:      float64(x),
			Y:      float64(y),
			Width:  float64(scaled.Bounds().Dx()),
			Height: float64(scaled.Bounds().Dy()),
			Score:  score,
			Scale:  scale,
		},
		Score: score,
		Scale: scale,
	}
}

func matchAtScreenshotScale(shot, tmpl *image.Gray, scale float64, algo string) *Match {
	scaled := resizeGray(shot, scale)
	if scaled == nil {
		return nil
	}
	x, y, score := bestMatch(scaled, tmpl, algo)
	if score < 0 {
		return nil
	}
	// Map the hit back into unscaled screenshot coordinates.
	return &Match{
		Element: model.Element{
			X:      float64(x) / scale,
			Y:      float64(y) / scale,
			Width:  float64(tmpl.Bounds().Dx()) / scale,
			Height: float64(tmpl.Bounds().Dy()) / scale,
			Score:  score,
			Scale:  scale,
		},
		Score: score,
		Scale: scale,
	}
}

// bestMatch slides the template over the image, coarse two-pixel steps
// first and a one-pixel refinement around the coarse winner. Returns
// -1 score when the template does not fit.
func bestMatch(img, tmpl *image.Gray, algo string) (int, int, float64) {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	if tw > iw || th > ih || tw == 0 || th == 0 {
		return 0, 0, -1
	}
	bestX, bestY, bestScore := 0, 0, -1.0
	for y := 0; y <= ih-th; y += 2 {
		for x := 0; x <= iw-tw; x += 2 {
			score := scoreAt(img, tmpl, x, y, algo)
			if score > bestScore {
				bestX, bestY, bestScore = x, y, score
			}
		}
	}
	for y := bestY - 1; y <= bestY+1; y++ {
		for x := bestX - 1; x <= bestX+1; x++ {
			if x < 0 || y < 0 || x > iw-tw || y > ih-th {
				continue
			}
			score := scoreAt(img, tmpl, x, y, algo)
			if score > bestScore {
				bestX, bestY, bestScore = x, y, score
			}
		}
	}
	return bestX, bestY, bestScore
}

func scoreAt(img, tmpl *image.Gray, ox, oy int, algo string) float64 {
	if algo == AlgoSqdiff {
		return 1 - sqdiffNormed(img, tmpl, ox, oy)
	}
	return ccoeffNormed(img, tmpl, ox, oy)
}

// ccoeffNormed is zero-mean normalized cross-correlation, rescaled from
// [-1,1] to [0,1].
func ccoeffNormed(img, tmpl *image.Gray, ox, oy int) float64 {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	n := float64(tw * th)
	var sumI, sumT float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			sumI += float64(grayAt(img, ox+x, oy+y))
			sumT += float64(grayAt(tmpl, x, y))
		}
	}
	meanI, meanT := sumI/n, sumT/n
	var num, varI, varT float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			di := float64(grayAt(img, ox+x, oy+y)) - meanI
			dt := float64(grayAt(tmpl, x, y)) - meanT
			num += di * dt
			varI += di * di
			varT += dt * dt
		}
	}
	denom := math.Sqrt(varI * varT)
	if denom == 0 {
		if varI == 0 && varT == 0 {
			return 1
		}
		return 0
	}
	return (num/denom + 1) / 2
}

// sqdiffNormed is normalized squared difference in [0,1], lower better.
func sqdiffNormed(img, tmpl *image.Gray, ox, oy int) float64 {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	var diff, sumI2, sumT2 float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			i := float64(grayAt(img, ox+x, oy+y))
			t := float64(grayAt(tmpl, x, y))
			d := i - t
			diff += d * d
			sumI2 += i * i
			sumT2 += t * t
		}
	}
	denom := math.Sqrt(sumI2 * sumT2)
	if denom == 0 {
		if diff == 0 {
			return 0
		}
		return 1
	}
	v := diff / denom
	if v > 1 {
		v = 1
	}
	return v
}

func grayAt(img *image.Gray, x, y int) uint8 {
	b := img.Bounds()
	return img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), src, b.Min, xdraw.Src)
	return out
}

func resizeGray(src *image.Gray, scale float64) *image.Gray {
	if scale <= 0 {
		return nil
	}
	w := int(math.Round(float64(src.Bounds().Dx()) * scale))
	h := int(math.Round(float64(src.Bounds().Dy()) * scale))
	if w < 1 || h < 1 {
		return nil
	}
	if w == src.Bounds().Dx() && h == src.Bounds().Dy() {
		return src
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return out
}

package preprocess

import (
	"image"
	"math"
)

/**
 * Binarization helpers for CAPTCHA and timestamp glyph images.
 *
 * Three methods are computed per image (global Otsu, adaptive mean, fixed)
 * and the winner is picked by foreground-pixel ratio: any method whose
 * ratio lands in [0.10, 0.40] wins in priority order, otherwise the method
 * closest to the 0.25 target is used. This guards against all-black or
 * all-white outputs from any single method on a pathological input.
 */

const (
	foregroundRatioMin    = 0.10
	foregroundRatioMax    = 0.40
	foregroundRatioTarget = 0.25

	fixedThresholdLevel = 140
)

// toGray converts any decoded image into 8-bit grayscale.
func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, src.At(x, y))
		}
	}
	return gray
}

// otsuLevel computes the global Otsu threshold for a grayscale image.
func otsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	total := 0
	bounds := g.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i := 0; i < 256; i++ {
		sum += float64(i) * float64(hist[i])
	}

	var sumB, wB float64
	best, bestVar := 128, -1.0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	// The dark class is [0, best]; thresholding is strict-below, so shift
	// by one to keep the boundary value in the foreground.
	if best < 255 {
		best++
	}
	return uint8(best)
}

// applyThreshold binarizes to pure black/white at the given level.
// Pixels below the level become foreground (black).
func applyThreshold(g *image.Gray, level uint8) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if g.GrayAt(x, y).Y < level {
				out.Pix[out.PixOffset(x, y)] = 0
			} else {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// adaptiveThreshold binarizes against a local mean computed over a
// window x window neighbourhood, offset by c. Window must be odd.
func adaptiveThreshold(g *image.Gray, window int, c int) *image.Gray {
	if window%2 == 0 {
		window++
	}
	half := window / 2
	bounds := g.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum, count := 0, 0
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
						continue
					}
					sum += int(g.GrayAt(nx, ny).Y)
					count++
				}
			}
			mean := sum / count
			if int(g.GrayAt(x, y).Y) < mean-c {
				out.Pix[out.PixOffset(x, y)] = 0
			} else {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// foregroundRatio returns the share of black pixels in a binarized image.
func foregroundRatio(g *image.Gray) float64 {
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	black := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if g.GrayAt(x, y).Y < 128 {
				black++
			}
		}
	}
	return float64(black) / float64(total)
}

// ChooseByRatio picks the index of the binarization whose foreground ratio
// falls inside the accepted band, in priority order; when none qualify it
// returns the index closest to the target ratio.
func ChooseByRatio(ratios []float64) int {
	for i, r := range ratios {
		if r >= foregroundRatioMin && r <= foregroundRatioMax {
			return i
		}
	}
	best, bestDist := 0, math.Inf(1)
	for i, r := range ratios {
		if d := math.Abs(r - foregroundRatioTarget); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// selectBinarization runs Otsu, adaptive and fixed thresholding and picks
// the output with the healthiest foreground ratio.
func selectBinarization(g *image.Gray) *image.Gray {
	candidates := []*image.Gray{
		applyThreshold(g, otsuLevel(g)),
		adaptiveThreshold(g, 11, 2),
		applyThreshold(g, fixedThresholdLevel),
	}
	ratios := make([]float64, len(candidates))
	for i, c := range candidates {
		ratios[i] = foregroundRatio(c)
	}
	return candidates[ChooseByRatio(ratios)]
}

/**
 * Image enhancement strategies for OCR.
 *
 * Each strategy is a pure bytes -> bytes transform. Strategies never fail:
 * when the input cannot be decoded the original bytes are returned
 * unmodified so downstream recognition can still make a best-effort pass.
 */

package preprocess

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// Strategy is one named enhancement path tried against an OCR backend.
type Strategy struct {
	Name  string
	Apply func(data []byte) []byte
}

// CaptchaStrategies returns the enhancement paths for 4-letter CAPTCHA
// images, in priority order.
func CaptchaStrategies() []Strategy {
	return []Strategy{
		{Name: "captcha-scale3x-contrast-band", Apply: captchaScaleContrastBand},
		{Name: "captcha-scale3x-fixed128", Apply: captchaScaleFixed},
		{Name: "captcha-scale2x-otsu", Apply: captchaModerateOtsu},
	}
}

// TimestampStrategies returns the enhancement paths for the small
// image-rendered HH:MM glyph strings, in priority order.
func TimestampStrategies() []Strategy {
	return []Strategy{
		{Name: "time-scale4x-sharpen-adaptive", Apply: timeScaleSharpenAdaptive},
		{Name: "time-scale4x-otsu", Apply: timeScaleOtsu},
	}
}

// captchaScaleContrastBand: grayscale, 3x Lanczos upscale, contrast boost,
// then ratio-band binarization across Otsu/adaptive/fixed.
func captchaScaleContrastBand(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	img = imaging.Grayscale(img)
	img = imaging.Resize(img, img.Bounds().Dx()*3, img.Bounds().Dy()*3, imaging.Lanczos)
	img = imaging.AdjustContrast(img, 50)
	binary := selectBinarization(toGray(img))
	return encodePNG(binary, data)
}

// captchaScaleFixed mirrors the simple path: grayscale, 3x upscale,
// contrast boost, fixed threshold at 128, light blur to knock out
// single-pixel noise.
func captchaScaleFixed(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	img = imaging.Grayscale(img)
	img = imaging.Resize(img, img.Bounds().Dx()*3, img.Bounds().Dy()*3, imaging.Lanczos)
	img = imaging.AdjustContrast(img, 60)
	img = imaging.Blur(img, 0.6)
	binary := applyThreshold(toGray(img), 128)
	return encodePNG(binary, data)
}

// captchaModerateOtsu: a gentler 2x path for CAPTCHAs that the aggressive
// variants over-thicken.
func captchaModerateOtsu(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	img = imaging.Grayscale(img)
	img = imaging.Resize(img, img.Bounds().Dx()*2, img.Bounds().Dy()*2, imaging.Lanczos)
	gray := toGray(img)
	binary := applyThreshold(gray, otsuLevel(gray))
	return encodePNG(binary, data)
}

// timeScaleSharpenAdaptive: 4x upscale, sharpen, contrast boost, adaptive
// threshold. Timestamp glyphs are smaller than CAPTCHA letters and need
// the larger scale factor.
func timeScaleSharpenAdaptive(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	img = imaging.Grayscale(img)
	img = imaging.Resize(img, img.Bounds().Dx()*4, img.Bounds().Dy()*4, imaging.Lanczos)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustContrast(img, 30)
	binary := adaptiveThreshold(toGray(img), 11, 2)
	return encodePNG(binary, data)
}

// timeScaleOtsu: fallback timestamp path with a global threshold.
func timeScaleOtsu(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	img = imaging.Grayscale(img)
	img = imaging.Resize(img, img.Bounds().Dx()*4, img.Bounds().Dy()*4, imaging.Lanczos)
	gray := toGray(img)
	binary := applyThreshold(gray, otsuLevel(gray))
	return encodePNG(binary, data)
}

// encodePNG re-encodes the processed image, falling back to the original
// bytes if encoding fails.
func encodePNG(img *image.Gray, original []byte) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return original
	}
	return buf.Bytes()
}

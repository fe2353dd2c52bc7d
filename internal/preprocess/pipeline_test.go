package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(230)
			if (x+y)%3 == 0 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestStrategiesProduceDecodableOutput(t *testing.T) {
	original := testPNG(t, 24, 12)

	all := append(CaptchaStrategies(), TimestampStrategies()...)
	for _, strategy := range all {
		t.Run(strategy.Name, func(t *testing.T) {
			out := strategy.Apply(original)
			if len(out) == 0 {
				t.Fatal("strategy returned empty output")
			}
			if _, err := imaging.Decode(bytes.NewReader(out)); err != nil {
				t.Fatalf("strategy output is not a decodable image: %v", err)
			}
		})
	}
}

// Corrupt input must pass through untouched so a backend can still take a
// best-effort pass at the raw bytes.
func TestStrategiesPassThroughUndecodableInput(t *testing.T) {
	garbage := []byte("not an image at all")

	all := append(CaptchaStrategies(), TimestampStrategies()...)
	for _, strategy := range all {
		t.Run(strategy.Name, func(t *testing.T) {
			out := strategy.Apply(garbage)
			if !bytes.Equal(out, garbage) {
				t.Error("strategy modified undecodable input")
			}
		})
	}
}

func TestStrategyNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	all := append(CaptchaStrategies(), TimestampStrategies()...)
	for _, strategy := range all {
		if strategy.Name == "" {
			t.Error("strategy with empty name")
		}
		if seen[strategy.Name] {
			t.Errorf("duplicate strategy name %q", strategy.Name)
		}
		seen[strategy.Name] = true
	}
}

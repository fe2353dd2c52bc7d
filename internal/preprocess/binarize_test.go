package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestChooseByRatio(t *testing.T) {
	testCases := []struct {
		name   string
		ratios []float64
		want   int
	}{
		{name: "first in band wins", ratios: []float64{0.05, 0.25, 0.5}, want: 1},
		{name: "priority among in-band", ratios: []float64{0.15, 0.3, 0.25}, want: 0},
		{name: "none in band picks closest to target", ratios: []float64{0.05, 0.08, 0.45}, want: 1},
		{name: "band edges included", ratios: []float64{0.10, 0.40}, want: 0},
		{name: "all black falls back", ratios: []float64{1.0, 0.95, 0.9}, want: 2},
		{name: "all white falls back", ratios: []float64{0.0, 0.01, 0.02}, want: 2},
		{name: "single candidate", ratios: []float64{0.9}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChooseByRatio(tc.ratios); got != tc.want {
				t.Errorf("ChooseByRatio(%v) = %d, want %d", tc.ratios, got, tc.want)
			}
		})
	}
}

func TestApplyThreshold(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	for x, v := range []uint8{0, 100, 140, 255} {
		g.SetGray(x, 0, color.Gray{Y: v})
	}

	out := applyThreshold(g, 140)
	want := []uint8{0, 0, 255, 255}
	for x, w := range want {
		if got := out.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestOtsuLevelSeparatesBimodalImage(t *testing.T) {
	// Left half dark (value 40), right half light (value 200). Otsu must
	// land between the modes.
	g := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(40)
			if x >= 10 {
				v = 200
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}

	level := otsuLevel(g)
	if level <= 40 || level >= 200 {
		t.Errorf("otsuLevel = %d, want strictly between 40 and 200", level)
	}

	out := applyThreshold(g, level)
	if r := foregroundRatio(out); r != 0.5 {
		t.Errorf("foregroundRatio after Otsu = %v, want 0.5", r)
	}
}

func TestForegroundRatio(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	g.SetGray(0, 0, color.Gray{Y: 0})
	g.SetGray(1, 0, color.Gray{Y: 255})
	g.SetGray(2, 0, color.Gray{Y: 255})
	g.SetGray(3, 0, color.Gray{Y: 255})

	if r := foregroundRatio(g); r != 0.25 {
		t.Errorf("foregroundRatio = %v, want 0.25", r)
	}
}

func TestSelectBinarizationNeverEmpty(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			g.SetGray(x, y, color.Gray{Y: uint8(x * 32)})
		}
	}

	out := selectBinarization(g)
	if out == nil {
		t.Fatal("selectBinarization returned nil")
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := out.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want pure black or white", x, y, v)
			}
		}
	}
}

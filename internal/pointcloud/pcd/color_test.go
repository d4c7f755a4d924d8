package pcd

import (
	"math"
	"testing"
)

func TestSRGBToLinearEndpoints(t *testing.T) {
	if got := SRGBToLinear(0); got != 0 {
		t.Errorf("SRGBToLinear(0) = %v, want 0", got)
	}
	if got := SRGBToLinear(255); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("SRGBToLinear(255) = %v, want 1", got)
	}
}

func TestSRGBToLinearPiecewise(t *testing.T) {
	// Below the 0.04045 knee the curve is linear (c/12.92).
	low := SRGBToLinear(10)
	want := float32((10.0 / 255.0) / 12.92)
	if math.Abs(float64(low-want)) > 1e-6 {
		t.Errorf("SRGBToLinear(10) = %v, want %v", low, want)
	}

	// Mid-grey 128 should be darker in linear space than 128/255.
	mid := SRGBToLinear(128)
	if mid >= 128.0/255.0 {
		t.Errorf("SRGBToLinear(128) = %v, should be below %v", mid, 128.0/255.0)
	}

	// Monotonic over the whole channel range.
	prev := SRGBToLinear(0)
	for c := uint32(1); c <= 255; c++ {
		cur := SRGBToLinear(c)
		if cur <= prev {
			t.Fatalf("SRGBToLinear not strictly increasing at %d: %v <= %v", c, cur, prev)
		}
		prev = cur
	}
}

func TestHeightColorRamp(t *testing.T) {
	cases := []struct {
		t       float32
		r, g, b float32
	}{
		{0, 0, 0, 1}, // bottom: blue
		{0.25, 0, 0.5, 0.5},
		{0.5, 0, 1, 0}, // middle: green
		{0.75, 0.5, 0.5, 0},
		{1, 1, 0, 0},  // top: red
		{-2, 0, 0, 1}, // clamped low
		{2, 1, 0, 0},  // clamped high
	}
	for _, tc := range cases {
		r, g, b := HeightColor(tc.t)
		if math.Abs(float64(r-tc.r)) > 1e-6 || math.Abs(float64(g-tc.g)) > 1e-6 || math.Abs(float64(b-tc.b)) > 1e-6 {
			t.Errorf("HeightColor(%v) = (%v, %v, %v), want (%v, %v, %v)", tc.t, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}

func TestZStats(t *testing.T) {
	var s zStats
	if s.normalize(5) != 0 {
		t.Error("empty extent should normalize to 0")
	}

	s.observe(2)
	if s.normalize(2) != 0 {
		t.Error("single-value extent is degenerate and should normalize to 0")
	}

	s.observe(-1)
	s.observe(5)
	if s.minZ != -1 || s.maxZ != 5 {
		t.Fatalf("extent = [%v, %v], want [-1, 5]", s.minZ, s.maxZ)
	}
	if got := s.normalize(2); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("normalize(2) = %v, want 0.5", got)
	}
	if s.normalize(-10) != 0 || s.normalize(100) != 1 {
		t.Error("normalize should clamp outside the observed extent")
	}
}

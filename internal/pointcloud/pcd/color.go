package pcd

import "math"

// SRGBToLinear converts one 8-bit sRGB channel (0-255) to linear space using
// the standard piecewise transfer function.
func SRGBToLinear(c8 uint32) float32 {
	cs := float64(c8) / 255
	if cs <= 0.04045 {
		return float32(cs / 12.92)
	}
	return float32(math.Pow((cs+0.055)/1.055, 2.4))
}

// HeightColor maps a normalized height t in [0,1] onto the blue→green→red
// ramp: the lower half interpolates blue to green, the upper half green to
// red.
func HeightColor(t float32) (r, g, b float32) {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	if t < 0.5 {
		s := 2 * t
		return 0, s, 1 - s
	}
	s := 2 * (t - 0.5)
	return s, 1 - s, 0
}

// zStats accumulates the running Z extent across the whole stream. It is
// threaded explicitly through the decode so ramp state never lives in a
// package variable.
type zStats struct {
	minZ, maxZ float32
	seen       bool
}

func (s *zStats) observe(z float32) {
	if !s.seen {
		s.minZ, s.maxZ = z, z
		s.seen = true
		return
	}
	if z < s.minZ {
		s.minZ = z
	}
	if z > s.maxZ {
		s.maxZ = z
	}
}

// normalize returns clamp((z-minZ)/(maxZ-minZ)) against the extent seen so
// far, or 0 while the extent is empty or degenerate.
func (s *zStats) normalize(z float32) float32 {
	if !s.seen || s.maxZ <= s.minZ {
		return 0
	}
	t := (z - s.minZ) / (s.maxZ - s.minZ)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

package lodgrid

import (
	"math"

	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/pcd"
)

// levelPointCount returns the sample size for a chunk of p points at the
// given level: min(p, max(10, floor(p*0.5^level))). It is non-increasing in
// level.
func levelPointCount(p, level int) int {
	target := int(math.Floor(float64(p) * math.Pow(0.5, float64(level))))
	if target < 10 {
		target = 10
	}
	if target > p {
		target = p
	}
	return target
}

// sampleIndices selects target indices out of total using uniform stride
// sampling, idx = floor(i*total/target). Deterministic: identical inputs
// always produce identical output.
func sampleIndices(total, target int) []int {
	idxs := make([]int, target)
	for i := 0; i < target; i++ {
		idxs[i] = i * total / target
	}
	return idxs
}

// levelPointSize shrinks the visual point size as detail drops:
// base * max(0.5, 1 - level*0.15).
func levelPointSize(base float32, level int) float32 {
	f := 1 - float32(level)*0.15
	if f < 0.5 {
		f = 0.5
	}
	return base * f
}

// buildLevels constructs the chunk's complete LOD ladder. Every level is
// built eagerly, and every attribute buffer of a level reuses the same
// sample indices so positions, colors and intensity stay aligned.
func buildLevels(ch *Chunk, cloud *pcd.Cloud, pointIdxs []int, cfg Config, minZ, maxZ float32) {
	p := len(pointIdxs)
	hasColor := cloud.HasColor()
	hasIntensity := cloud.HasIntensity()

	for level := 0; level <= cfg.MaxLODLevel; level++ {
		target := levelPointCount(p, level)
		sel := sampleIndices(p, target)

		lv := &Level{
			Count:     target,
			PointSize: levelPointSize(cfg.BasePointSize, level),
			Positions: make([]float32, 0, target*3),
		}
		for _, si := range sel {
			pi := pointIdxs[si]
			lv.Positions = append(lv.Positions,
				cloud.Positions[3*pi], cloud.Positions[3*pi+1], cloud.Positions[3*pi+2])
		}
		if hasColor {
			lv.OrigColors = make([]float32, 0, target*3)
			for _, si := range sel {
				pi := pointIdxs[si]
				lv.OrigColors = append(lv.OrigColors,
					cloud.Colors[3*pi], cloud.Colors[3*pi+1], cloud.Colors[3*pi+2])
			}
		}
		if hasIntensity {
			lv.Intensity = make([]float32, 0, target)
			for _, si := range sel {
				lv.Intensity = append(lv.Intensity, cloud.Intensity[pointIdxs[si]])
			}
		}

		// Initial display colors use the height ramp, matching the chunks
		// streamed out during ingestion.
		lv.Colors = rampColors(lv.Positions, minZ, maxZ)

		ch.Levels = append(ch.Levels, lv)
	}
}

// rampColors synthesizes height-ramp colors for an xyz-interleaved position
// buffer against the given Z extent.
func rampColors(positions []float32, minZ, maxZ float32) []float32 {
	out := make([]float32, 0, len(positions))
	span := maxZ - minZ
	for i := 2; i < len(positions); i += 3 {
		t := float32(0)
		if span > 0 {
			t = (positions[i] - minZ) / span
		}
		r, g, b := pcd.HeightColor(t)
		out = append(out, r, g, b)
	}
	return out
}

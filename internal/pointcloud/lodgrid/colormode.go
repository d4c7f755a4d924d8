package lodgrid

import (
	"github.com/banshee-data/pointcloud.viewer/internal/monitoring"
)

// SetColorMode re-colors every built level in place without rebuilding
// geometry. "rgb" restores the stored original colors, "intensity" maps the
// stored scalar to greyscale, and "height" recomputes the ramp from the
// ingestion-time global Z extent so the result matches the chunks streamed
// out during parsing. Levels lacking the data a mode needs keep their
// current colors.
func (g *Grid) SetColorMode(mode ColorMode) {
	switch mode {
	case ColorHeight, ColorRGB, ColorIntensity:
	default:
		monitoring.Warnf("lodgrid: unknown color mode %q; keeping %q", mode, g.colorMode)
		return
	}
	g.colorMode = mode

	for _, ch := range g.Chunks {
		for _, lv := range ch.Levels {
			switch mode {
			case ColorRGB:
				if lv.OrigColors != nil {
					copy(lv.Colors, lv.OrigColors)
				}
			case ColorIntensity:
				if lv.Intensity != nil {
					for i, v := range lv.Intensity {
						lv.Colors[3*i] = v
						lv.Colors[3*i+1] = v
						lv.Colors[3*i+2] = v
					}
				}
			case ColorHeight:
				ramp := rampColors(lv.Positions, g.MinZ, g.MaxZ)
				copy(lv.Colors, ramp)
			}
		}
	}
}

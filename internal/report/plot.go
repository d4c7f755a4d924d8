package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/lodgrid"
)

// SaveChunkPlot writes a top-down scatter of chunk centers to an image file
// (format from the extension: .png, .svg, .pdf). Marker radius tracks chunk
// occupancy so dense regions stand out at a glance.
func SaveChunkPlot(path string, grid *lodgrid.Grid) error {
	if len(grid.Chunks) == 0 {
		return fmt.Errorf("chunk plot: grid has no chunks")
	}

	pts := make(plotter.XYs, 0, len(grid.Chunks))
	maxCount := 1
	for _, ch := range grid.Chunks {
		pts = append(pts, plotter.XY{X: float64(ch.Center.X), Y: float64(ch.Center.Y)})
		if ch.PointCount > maxCount {
			maxCount = ch.PointCount
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Chunk occupancy (%d chunks, cell %.2f)", len(grid.Chunks), grid.CellSize)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("chunk plot: %w", err)
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		frac := float64(grid.Chunks[i].PointCount) / float64(maxCount)
		return draw.GlyphStyle{
			Color:  color.RGBA{R: 49, G: 104, B: 142, A: 255},
			Radius: vg.Points(1 + 4*frac),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("chunk plot: %w", err)
	}
	return nil
}

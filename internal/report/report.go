// Package report renders offline diagnostics for a loaded point cloud: an
// ECharts HTML report, a top-down chunk occupancy plot, and summary
// statistics over the chunk population.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/lodgrid"
)

// OccupancySummary describes the distribution of points across chunks.
type OccupancySummary struct {
	Chunks        int
	TotalPoints   int
	DroppedCells  int
	DroppedPoints int
	Mean          float64
	StdDev        float64
	P50           float64
	P95           float64
}

// SummarizeOccupancy computes per-chunk occupancy statistics for a built grid.
func SummarizeOccupancy(grid *lodgrid.Grid) OccupancySummary {
	s := OccupancySummary{
		Chunks:        len(grid.Chunks),
		TotalPoints:   grid.TotalPoints,
		DroppedCells:  grid.DroppedCells,
		DroppedPoints: grid.DroppedPoints,
	}
	if len(grid.Chunks) == 0 {
		return s
	}
	counts := make([]float64, len(grid.Chunks))
	for i, ch := range grid.Chunks {
		counts[i] = float64(ch.PointCount)
	}
	sort.Float64s(counts)
	s.Mean = stat.Mean(counts, nil)
	s.StdDev = stat.StdDev(counts, nil)
	s.P50 = stat.Quantile(0.5, stat.Empirical, counts, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, counts, nil)
	return s
}

// WriteLODReport renders an HTML report for the grid: the per-level LOD
// ladder capacity and a top-down scatter of chunk occupancy.
func WriteLODReport(w io.Writer, grid *lodgrid.Grid) error {
	page := components.NewPage()
	page.PageTitle = "Point Cloud LOD Report"
	page.AddCharts(levelBar(grid), occupancyScatter(grid))
	return page.Render(w)
}

// levelBar charts the total point capacity of each LOD level across all
// chunks, i.e. how many points would render if every chunk sat at that level.
func levelBar(grid *lodgrid.Grid) *charts.Bar {
	levels := grid.Config.MaxLODLevel + 1
	totals := make([]int, levels)
	for _, ch := range grid.Chunks {
		for i, lv := range ch.Levels {
			totals[i] += lv.Count
		}
	}

	labels := make([]string, levels)
	data := make([]opts.BarData, levels)
	for i := 0; i < levels; i++ {
		labels[i] = fmt.Sprintf("L%d", i)
		data[i] = opts.BarData{Value: totals[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "LOD ladder capacity",
			Subtitle: fmt.Sprintf("chunks=%d points=%d", len(grid.Chunks), grid.TotalPoints),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "level"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(labels).AddSeries("points", data)
	return bar
}

// occupancyScatter charts chunk centers on the XY plane, colored by how many
// points each chunk owns.
func occupancyScatter(grid *lodgrid.Grid) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(grid.Chunks))
	maxCount := 1
	for _, ch := range grid.Chunks {
		if ch.PointCount > maxCount {
			maxCount = ch.PointCount
		}
		data = append(data, opts.ScatterData{
			Value: []interface{}{ch.Center.X, ch.Center.Y, ch.PointCount},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Chunk occupancy (top-down)",
			Subtitle: fmt.Sprintf("cell size %.2f", grid.CellSize),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("chunks", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

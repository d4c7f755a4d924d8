// Command pcview loads a PCD point cloud file through the streaming decoder
// and LOD pipeline, reports what it built, and optionally renders diagnostics
// or records the run in a history database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cogentcore.org/core/math32"

	"github.com/banshee-data/pointcloud.viewer/internal/config"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/lodgrid"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/pcd"
	"github.com/banshee-data/pointcloud.viewer/internal/report"
	storage "github.com/banshee-data/pointcloud.viewer/internal/storage/sqlite"
	"github.com/banshee-data/pointcloud.viewer/internal/version"
)

var (
	filePath    = flag.String("file", "", "Path to the PCD file to load (required)")
	configPath  = flag.String("config", "", "Path to a viewer tuning JSON file (default: compiled-in defaults)")
	colorMode   = flag.String("color", "height", "Color mode: height, rgb or intensity")
	reportPath  = flag.String("report", "", "Write an HTML LOD report to this path")
	plotPath    = flag.String("plot", "", "Write a chunk occupancy plot image to this path")
	dbPath      = flag.String("db", "", "Record this run in the load-run history database at this path")
	orbitTicks  = flag.Int("orbit", 0, "Simulate N camera ticks orbiting the cloud and log visibility stats")
	disableLOD  = flag.Bool("disable-lod", false, "Force level 0 on all visible chunks during the orbit")
	timeout     = flag.Duration("timeout", 0, "Abort the load after this duration (0 = no limit)")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// formatWithCommas formats a number with thousands separators.
func formatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("pcview %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(); err != nil {
		log.Fatalf("pcview: %v", err)
	}
}

func run() error {
	data, err := os.ReadFile(*filePath)
	if err != nil {
		return err
	}
	log.Printf("loaded %s bytes from %s", formatWithCommas(int64(len(data))), *filePath)

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return err
		}
	}
	opts := pointcloud.OptionsFromTuning(tuning)
	opts.OnProgress = logProgress()
	opts.OnChunk = func(ch *pcd.Chunk) {
		log.Printf("chunk %d ready: %s points", ch.Index, formatWithCommas(int64(ch.Count)))
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	res, err := pointcloud.Load(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", *filePath, err)
	}

	grid := res.Grid
	grid.SetColorMode(lodgrid.ColorMode(*colorMode))

	log.Printf("run %s: %s points in %d chunks (cell size %.2f) in %v, %d warnings",
		res.RunID, formatWithCommas(int64(res.Cloud.Count)), len(grid.Chunks),
		grid.CellSize, res.Duration.Round(time.Millisecond), res.Warnings)

	occ := report.SummarizeOccupancy(grid)
	log.Printf("occupancy: mean=%.0f stddev=%.0f p50=%.0f p95=%.0f (dropped %d cells / %d points)",
		occ.Mean, occ.StdDev, occ.P50, occ.P95, occ.DroppedCells, occ.DroppedPoints)

	if *orbitTicks > 0 {
		orbit(grid, *orbitTicks)
	}

	if *reportPath != "" {
		f, err := os.Create(*reportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.WriteLODReport(f, grid); err != nil {
			return err
		}
		log.Printf("wrote LOD report to %s", *reportPath)
	}

	if *plotPath != "" {
		if err := report.SaveChunkPlot(*plotPath, grid); err != nil {
			return err
		}
		log.Printf("wrote chunk plot to %s", *plotPath)
	}

	if *dbPath != "" {
		if err := recordRun(res); err != nil {
			return err
		}
		log.Printf("recorded run %s in %s", res.RunID, *dbPath)
	}
	return nil
}

func logProgress() func(pcd.Progress) {
	lastPct := -10.0
	return func(p pcd.Progress) {
		// Log at most every 10%, plus stage transitions at 0 and 100.
		if p.Percent < lastPct+10 && p.Percent != 0 && p.Percent != 100 {
			return
		}
		lastPct = p.Percent
		log.Printf("%s: %.0f%% (%s points, %d chunks)",
			p.Stage, p.Percent, formatWithCommas(int64(p.PointsProcessed)), p.ChunksEmitted)
	}
}

// orbit drives the LOD selector through ticks camera positions circling the
// cloud, logging the visibility stats the renderer would act on.
func orbit(grid *lodgrid.Grid, ticks int) {
	grid.SetLODEnabled(!*disableLOD)

	center := grid.Bounds.Center()
	radius := grid.Bounds.Size().Length()
	if radius == 0 {
		radius = 1
	}

	for i := 0; i < ticks; i++ {
		angle := float32(i) / float32(ticks) * 2 * math32.Pi
		eye := math32.Vec3(
			center.X+radius*math32.Cos(angle),
			center.Y+radius*math32.Sin(angle),
			center.Z+radius*0.5,
		)
		cam := lodgrid.NewCameraState(eye, center, math32.Vec3(0, 0, 1), 60, 16.0/9, 0.1, grid.Config.RenderDistance*2)
		stats := grid.Update(cam)
		log.Printf("tick %d: %d visible chunks, %s visible points, %d culled, levels=%v",
			i, stats.VisibleChunks, formatWithCommas(int64(stats.VisiblePoints)), stats.CulledChunks, stats.LevelCounts)
	}
}

func recordRun(res *pointcloud.LoadResult) error {
	store, err := storage.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.InsertLoadRun(&storage.LoadRun{
		RunID:            res.RunID.String(),
		FilePath:         *filePath,
		Encoding:         string(res.Cloud.Header.Data),
		PointCount:       int64(res.Cloud.Count),
		StreamChunks:     res.StreamChunks,
		LODChunks:        len(res.Grid.Chunks),
		DroppedCells:     res.Grid.DroppedCells,
		Warnings:         res.Warnings,
		DurationMillis:   res.Duration.Milliseconds(),
		CreatedUnixNanos: time.Now().UnixNano(),
	})
}

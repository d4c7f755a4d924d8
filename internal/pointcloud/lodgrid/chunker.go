package lodgrid

import (
	"sort"

	"cogentcore.org/core/math32"

	"github.com/banshee-data/pointcloud.viewer/internal/monitoring"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/pcd"
)

// cellKey addresses one cell of the uniform grid.
type cellKey struct {
	X, Y, Z int32
}

// BuildGrid partitions the realized point cloud into a uniform 3D grid and
// eagerly builds the full LOD ladder for every surviving cell. It runs once,
// after ingestion completes; there is no incremental rebuild.
func BuildGrid(cloud *pcd.Cloud, cfg Config) *Grid {
	cfg.Clamp()

	g := &Grid{
		Config:    cfg,
		Bounds:    math32.B3Empty(),
		MinZ:      cloud.MinZ,
		MaxZ:      cloud.MaxZ,
		colorMode: ColorHeight,
	}
	n := cloud.Count
	if n == 0 {
		return g
	}

	for i := 0; i < n; i++ {
		g.Bounds.ExpandByPoint(math32.Vec3(
			cloud.Positions[3*i], cloud.Positions[3*i+1], cloud.Positions[3*i+2]))
	}

	cell := cfg.ChunkSize
	if cfg.AutoChunkSize {
		cell = autoCellSize(g.Bounds, n, cfg)
	}
	g.CellSize = cell

	cells := make(map[cellKey][]int)
	min := g.Bounds.Min
	for i := 0; i < n; i++ {
		k := cellKey{
			X: int32(math32.Floor((cloud.Positions[3*i] - min.X) / cell)),
			Y: int32(math32.Floor((cloud.Positions[3*i+1] - min.Y) / cell)),
			Z: int32(math32.Floor((cloud.Positions[3*i+2] - min.Z) / cell)),
		}
		cells[k] = append(cells[k], i)
	}

	// Deterministic chunk order regardless of map iteration.
	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	for _, k := range keys {
		idxs := cells[k]
		if len(idxs) < minCellPoints {
			g.DroppedCells++
			g.DroppedPoints += len(idxs)
			continue
		}
		lo := math32.Vec3(
			min.X+float32(k.X)*cell,
			min.Y+float32(k.Y)*cell,
			min.Z+float32(k.Z)*cell,
		)
		bounds := math32.Box3{Min: lo, Max: lo.Add(math32.Vec3(cell, cell, cell))}
		ch := &Chunk{
			Bounds:       bounds,
			Center:       bounds.Center(),
			PointCount:   len(idxs),
			CurrentLevel: Hidden,
			pendingLevel: Hidden,
		}
		buildLevels(ch, cloud, idxs, cfg, g.MinZ, g.MaxZ)
		g.Chunks = append(g.Chunks, ch)
		g.TotalPoints += len(idxs)
	}

	if g.DroppedCells > 0 {
		monitoring.Logf("lodgrid: dropped %d cells with fewer than %d points (%d points excluded from the LOD view)",
			g.DroppedCells, minCellPoints, g.DroppedPoints)
	}
	monitoring.Logf("lodgrid: built %d chunks (cell size %.2f, %d points, %d levels each)",
		len(g.Chunks), cell, g.TotalPoints, cfg.MaxLODLevel+1)
	return g
}

// autoCellSize derives the grid cell edge from the cloud's density so a cell
// holds roughly TargetPointsPerChunk points, clamped to the configured range.
func autoCellSize(bounds math32.Box3, points int, cfg Config) float32 {
	size := bounds.Size()
	volume := size.X * size.Y * size.Z

	cell := cfg.MaxChunkSize
	if volume > 0 {
		density := float32(points) / volume
		cell = math32.Cbrt(float32(cfg.TargetPointsPerChunk) / density)
	}
	if cell < cfg.MinChunkSize {
		cell = cfg.MinChunkSize
	}
	if cell > cfg.MaxChunkSize {
		cell = cfg.MaxChunkSize
	}
	return cell
}

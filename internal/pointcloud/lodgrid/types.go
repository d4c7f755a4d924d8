package lodgrid

import (
	"cogentcore.org/core/math32"
)

// Hidden marks a chunk with no visible LOD level.
const Hidden = -1

// minCellPoints is the minimum occupancy for a grid cell to become a chunk;
// sparser cells are dropped from the LOD view entirely.
const minCellPoints = 5

// Level is one rung of a chunk's LOD ladder: a uniformly sub-sampled copy of
// the chunk's points with display attributes. Every attribute slice was
// built from the same sample indices, so they stay parallel.
type Level struct {
	Count      int
	Positions  []float32 // xyz interleaved
	Colors     []float32 // active display colors; rewritten by SetColorMode
	OrigColors []float32 // linear true colors; nil when the source had none
	Intensity  []float32 // normalized 0-1; nil when the source had none
	PointSize  float32   // visual point size for this level
}

// Chunk groups the points of one occupied grid cell. Its bounding box is the
// grid cell boundary, deliberately not tightened to the contained points, so
// culling stays stable as levels swap.
type Chunk struct {
	Bounds       math32.Box3
	Center       math32.Vector3
	PointCount   int
	Levels       []*Level
	CurrentLevel int // Hidden, or an index into Levels

	// hysteresis bookkeeping
	pendingLevel int
	stableTicks  int
}

// CameraState is the per-tick camera input to Grid.Update.
type CameraState struct {
	Position       math32.Vector3
	ViewProjection math32.Matrix4
}

// FrameStats summarizes chunk visibility after one selector tick. It is
// recomputed from scratch every tick.
type FrameStats struct {
	VisibleChunks int
	VisiblePoints int
	CulledChunks  int
	LevelCounts   []int // visible chunk count per level, indexed by level
}

// ColorMode selects how level display colors are derived.
type ColorMode string

const (
	ColorHeight    ColorMode = "height"
	ColorRGB       ColorMode = "rgb"
	ColorIntensity ColorMode = "intensity"
)

// Grid is the chunked LOD structure built once after ingestion completes.
// It is single-threaded by contract: callers must not drive Update against a
// grid that is still being built, and ingestion never mutates a built grid.
type Grid struct {
	Config   Config
	Chunks   []*Chunk
	Bounds   math32.Box3
	CellSize float32

	// Ingestion-time Z extent, reused when re-coloring in height mode so the
	// ramp matches the streaming chunks emitted during parsing.
	MinZ, MaxZ float32

	TotalPoints   int // points owned by surviving chunks
	DroppedCells  int // cells below minCellPoints
	DroppedPoints int // points excluded with those cells

	colorMode   ColorMode
	lodDisabled bool
	stats       FrameStats

	// selection throttle state
	haveLastEval   bool
	lastEvalPos    math32.Vector3
	ticksSinceEval int

	disposed bool
}

// ColorMode returns the active color mode.
func (g *Grid) ColorMode() ColorMode { return g.colorMode }

// SetLODEnabled toggles the global LOD switch. While disabled, every chunk
// that passes culling renders at level 0 (full detail).
func (g *Grid) SetLODEnabled(enabled bool) { g.lodDisabled = !enabled }

// LODEnabled reports whether distance-based level selection is active.
func (g *Grid) LODEnabled() bool { return !g.lodDisabled }

// Stats returns the visibility stats from the most recent Update tick.
func (g *Grid) Stats() FrameStats { return g.stats }

// Dispose releases every level buffer of every chunk and clears the chunk
// list. The grid is empty but safe to call Update on afterwards. Idempotent.
func (g *Grid) Dispose() {
	if g.disposed {
		return
	}
	for _, ch := range g.Chunks {
		for _, lv := range ch.Levels {
			lv.Positions = nil
			lv.Colors = nil
			lv.OrigColors = nil
			lv.Intensity = nil
			lv.Count = 0
		}
		ch.Levels = nil
		ch.CurrentLevel = Hidden
	}
	g.Chunks = nil
	g.TotalPoints = 0
	g.stats = FrameStats{}
	g.disposed = true
}

package lodgrid

import (
	"github.com/banshee-data/pointcloud.viewer/internal/config"
	"github.com/banshee-data/pointcloud.viewer/internal/monitoring"
)

// Config provides the tuning parameters for the LOD stage. Out-of-range
// values are clamped by Clamp with a logged warning rather than rejected.
type Config struct {
	MaxLODLevel             int     // LOD ladder depth, 0-6 (default: 4)
	TargetPointsPerChunk    int     // auto chunk sizing target, >=1000 (default: 30000)
	RenderDistance          float32 // chunks farther than this are hidden (default: 1000)
	LODCurve                float32 // distance-to-level exponent, 0.1-1.0 (default: 0.4)
	CameraMovementThreshold float32 // camera movement that forces re-evaluation (default: 1.0)
	UpdateInterval          int     // ticks between forced re-evaluations (default: 2)
	AutoChunkSize           bool    // derive cell size from density (default: true)
	ChunkSize               float32 // explicit cell size when auto is off (default: 10)
	MinChunkSize            float32 // auto cell size lower clamp (default: 5)
	MaxChunkSize            float32 // auto cell size upper clamp (default: 50)
	BasePointSize           float32 // level-0 point size (default: 2)
}

// DefaultConfig returns the stock LOD configuration.
func DefaultConfig() Config {
	return Config{
		MaxLODLevel:             4,
		TargetPointsPerChunk:    30000,
		RenderDistance:          1000,
		LODCurve:                0.4,
		CameraMovementThreshold: 1.0,
		UpdateInterval:          2,
		AutoChunkSize:           true,
		ChunkSize:               10,
		MinChunkSize:            5,
		MaxChunkSize:            50,
		BasePointSize:           2,
	}
}

// ConfigFromTuning builds a Config from a loaded TuningConfig. Use this in
// binaries where the TuningConfig is already loaded.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		MaxLODLevel:             cfg.GetMaxLODLevel(),
		TargetPointsPerChunk:    cfg.GetTargetPointsPerChunk(),
		RenderDistance:          float32(cfg.GetRenderDistance()),
		LODCurve:                float32(cfg.GetLODCurve()),
		CameraMovementThreshold: float32(cfg.GetCameraMovementThreshold()),
		UpdateInterval:          cfg.GetUpdateIntervalTicks(),
		AutoChunkSize:           cfg.GetAutoChunkSize(),
		ChunkSize:               float32(cfg.GetChunkSize()),
		MinChunkSize:            float32(cfg.GetMinChunkSize()),
		MaxChunkSize:            float32(cfg.GetMaxChunkSize()),
		BasePointSize:           float32(cfg.GetBasePointSize()),
	}
}

// Clamp forces every parameter into its valid range, logging a warning for
// each adjustment. It never fails: a misconfigured viewer degrades fidelity,
// it does not refuse to load.
func (c *Config) Clamp() {
	if c.MaxLODLevel < 0 || c.MaxLODLevel > 6 {
		clamped := clampInt(c.MaxLODLevel, 0, 6)
		monitoring.Warnf("lodgrid: MaxLODLevel %d out of range [0, 6]; clamped to %d", c.MaxLODLevel, clamped)
		c.MaxLODLevel = clamped
	}
	if c.TargetPointsPerChunk < 1000 {
		monitoring.Warnf("lodgrid: TargetPointsPerChunk %d below minimum 1000; clamped", c.TargetPointsPerChunk)
		c.TargetPointsPerChunk = 1000
	}
	if c.RenderDistance <= 0 {
		monitoring.Warnf("lodgrid: RenderDistance %v must be positive; reset to 1000", c.RenderDistance)
		c.RenderDistance = 1000
	}
	if c.LODCurve < 0.1 || c.LODCurve > 1.0 {
		clamped := clampFloat(c.LODCurve, 0.1, 1.0)
		monitoring.Warnf("lodgrid: LODCurve %v out of range [0.1, 1.0]; clamped to %v", c.LODCurve, clamped)
		c.LODCurve = clamped
	}
	if c.CameraMovementThreshold < 0 {
		monitoring.Warnf("lodgrid: CameraMovementThreshold %v must be non-negative; reset to 1", c.CameraMovementThreshold)
		c.CameraMovementThreshold = 1
	}
	if c.UpdateInterval < 1 {
		monitoring.Warnf("lodgrid: UpdateInterval %d must be at least 1 tick; clamped", c.UpdateInterval)
		c.UpdateInterval = 1
	}
	if c.ChunkSize <= 0 {
		monitoring.Warnf("lodgrid: ChunkSize %v must be positive; reset to 10", c.ChunkSize)
		c.ChunkSize = 10
	}
	if c.MinChunkSize <= 0 {
		monitoring.Warnf("lodgrid: MinChunkSize %v must be positive; reset to 5", c.MinChunkSize)
		c.MinChunkSize = 5
	}
	if c.MaxChunkSize < c.MinChunkSize {
		monitoring.Warnf("lodgrid: MaxChunkSize %v below MinChunkSize %v; raised to match", c.MaxChunkSize, c.MinChunkSize)
		c.MaxChunkSize = c.MinChunkSize
	}
	if c.BasePointSize <= 0 {
		monitoring.Warnf("lodgrid: BasePointSize %v must be positive; reset to 2", c.BasePointSize)
		c.BasePointSize = 2
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package lodgrid

import (
	"testing"

	"github.com/banshee-data/pointcloud.viewer/internal/config"
)

func TestDefaultConfigIsStable(t *testing.T) {
	cfg := DefaultConfig()
	clamped := cfg
	clamped.Clamp()

	if cfg != clamped {
		t.Errorf("defaults must survive Clamp unchanged:\n before %+v\n after  %+v", cfg, clamped)
	}
}

func TestConfigClamp(t *testing.T) {
	cfg := Config{
		MaxLODLevel:             9,
		TargetPointsPerChunk:    50,
		RenderDistance:          -1,
		LODCurve:                3,
		CameraMovementThreshold: -2,
		UpdateInterval:          0,
		ChunkSize:               0,
		MinChunkSize:            -5,
		MaxChunkSize:            1,
		BasePointSize:           0,
	}
	cfg.Clamp()

	if cfg.MaxLODLevel != 6 {
		t.Errorf("MaxLODLevel = %d, want 6", cfg.MaxLODLevel)
	}
	if cfg.TargetPointsPerChunk != 1000 {
		t.Errorf("TargetPointsPerChunk = %d, want 1000", cfg.TargetPointsPerChunk)
	}
	if cfg.RenderDistance != 1000 {
		t.Errorf("RenderDistance = %v, want 1000", cfg.RenderDistance)
	}
	if cfg.LODCurve != 1.0 {
		t.Errorf("LODCurve = %v, want 1.0", cfg.LODCurve)
	}
	if cfg.CameraMovementThreshold != 1 {
		t.Errorf("CameraMovementThreshold = %v, want 1", cfg.CameraMovementThreshold)
	}
	if cfg.UpdateInterval != 1 {
		t.Errorf("UpdateInterval = %d, want 1", cfg.UpdateInterval)
	}
	if cfg.ChunkSize != 10 {
		t.Errorf("ChunkSize = %v, want 10", cfg.ChunkSize)
	}
	if cfg.MinChunkSize != 5 {
		t.Errorf("MinChunkSize = %v, want 5", cfg.MinChunkSize)
	}
	if cfg.MaxChunkSize != cfg.MinChunkSize {
		t.Errorf("MaxChunkSize = %v, want raised to MinChunkSize %v", cfg.MaxChunkSize, cfg.MinChunkSize)
	}
	if cfg.BasePointSize != 2 {
		t.Errorf("BasePointSize = %v, want 2", cfg.BasePointSize)
	}
}

func TestConfigClampLowLODCurve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LODCurve = 0.01
	cfg.Clamp()
	if cfg.LODCurve != 0.1 {
		t.Errorf("LODCurve = %v, want clamped to 0.1", cfg.LODCurve)
	}
}

func TestConfigFromTuningDefaults(t *testing.T) {
	// An empty tuning config yields the compiled-in defaults, which must
	// match DefaultConfig exactly.
	got := ConfigFromTuning(config.EmptyTuningConfig())
	if got != DefaultConfig() {
		t.Errorf("ConfigFromTuning(empty) = %+v, want %+v", got, DefaultConfig())
	}
}

func TestConfigFromTuningOverrides(t *testing.T) {
	level := 2
	dist := 250.0
	tc := config.EmptyTuningConfig()
	tc.MaxLODLevel = &level
	tc.RenderDistance = &dist

	got := ConfigFromTuning(tc)
	if got.MaxLODLevel != 2 {
		t.Errorf("MaxLODLevel = %d, want 2", got.MaxLODLevel)
	}
	if got.RenderDistance != 250 {
		t.Errorf("RenderDistance = %v, want 250", got.RenderDistance)
	}
	// Untouched fields keep their defaults.
	if got.LODCurve != DefaultConfig().LODCurve {
		t.Errorf("LODCurve = %v, want default %v", got.LODCurve, DefaultConfig().LODCurve)
	}
}

// Package config loads and validates viewer tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/viewer.defaults.json"

// TuningConfig represents the root configuration for viewer tuning
// parameters. All fields are pointers so a partial JSON file only overrides
// the values it names; the Get* accessors supply compiled-in defaults for
// everything else.
type TuningConfig struct {
	// Decoder params
	WindowBytes     *int `json:"window_bytes,omitempty"`      // streaming window size
	ChunkEmitPoints *int `json:"chunk_emit_points,omitempty"` // points per emitted chunk

	// LOD params
	MaxLODLevel             *int     `json:"max_lod_level,omitempty"`
	TargetPointsPerChunk    *int     `json:"target_points_per_chunk,omitempty"`
	RenderDistance          *float64 `json:"render_distance,omitempty"`
	LODCurve                *float64 `json:"lod_curve,omitempty"`
	CameraMovementThreshold *float64 `json:"camera_movement_threshold,omitempty"`
	UpdateIntervalTicks     *int     `json:"update_interval_ticks,omitempty"`
	AutoChunkSize           *bool    `json:"auto_chunk_size,omitempty"`
	ChunkSize               *float64 `json:"chunk_size,omitempty"`
	MinChunkSize            *float64 `json:"min_chunk_size,omitempty"`
	MaxChunkSize            *float64 `json:"max_chunk_size,omitempty"`
	BasePointSize           *float64 `json:"base_point_size,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical viewer defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/pointcloud/pcd/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are structurally valid.
// Range clamping of LOD values is handled downstream (lodgrid.Config.Clamp)
// so a slightly out-of-range file still loads with a warning; Validate only
// rejects values that can never be clamped into something sensible.
func (c *TuningConfig) Validate() error {
	if c.WindowBytes != nil && *c.WindowBytes <= 0 {
		return fmt.Errorf("window_bytes must be positive, got %d", *c.WindowBytes)
	}
	if c.ChunkEmitPoints != nil && *c.ChunkEmitPoints <= 0 {
		return fmt.Errorf("chunk_emit_points must be positive, got %d", *c.ChunkEmitPoints)
	}
	if c.RenderDistance != nil && *c.RenderDistance <= 0 {
		return fmt.Errorf("render_distance must be positive, got %f", *c.RenderDistance)
	}
	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %f", *c.ChunkSize)
	}
	if c.MinChunkSize != nil && c.MaxChunkSize != nil && *c.MinChunkSize > *c.MaxChunkSize {
		return fmt.Errorf("min_chunk_size %f exceeds max_chunk_size %f", *c.MinChunkSize, *c.MaxChunkSize)
	}
	if c.BasePointSize != nil && *c.BasePointSize <= 0 {
		return fmt.Errorf("base_point_size must be positive, got %f", *c.BasePointSize)
	}
	return nil
}

// GetWindowBytes returns the window_bytes value or the default.
func (c *TuningConfig) GetWindowBytes() int {
	if c.WindowBytes == nil {
		return 1 << 20 // 1 MiB
	}
	return *c.WindowBytes
}

// GetChunkEmitPoints returns the chunk_emit_points value or the default.
func (c *TuningConfig) GetChunkEmitPoints() int {
	if c.ChunkEmitPoints == nil {
		return 50000
	}
	return *c.ChunkEmitPoints
}

// GetMaxLODLevel returns the max_lod_level value or the default.
func (c *TuningConfig) GetMaxLODLevel() int {
	if c.MaxLODLevel == nil {
		return 4
	}
	return *c.MaxLODLevel
}

// GetTargetPointsPerChunk returns the target_points_per_chunk value or the default.
func (c *TuningConfig) GetTargetPointsPerChunk() int {
	if c.TargetPointsPerChunk == nil {
		return 30000
	}
	return *c.TargetPointsPerChunk
}

// GetRenderDistance returns the render_distance value or the default.
func (c *TuningConfig) GetRenderDistance() float64 {
	if c.RenderDistance == nil {
		return 1000
	}
	return *c.RenderDistance
}

// GetLODCurve returns the lod_curve value or the default.
func (c *TuningConfig) GetLODCurve() float64 {
	if c.LODCurve == nil {
		return 0.4
	}
	return *c.LODCurve
}

// GetCameraMovementThreshold returns the camera_movement_threshold value or the default.
func (c *TuningConfig) GetCameraMovementThreshold() float64 {
	if c.CameraMovementThreshold == nil {
		return 1.0
	}
	return *c.CameraMovementThreshold
}

// GetUpdateIntervalTicks returns the update_interval_ticks value or the default.
func (c *TuningConfig) GetUpdateIntervalTicks() int {
	if c.UpdateIntervalTicks == nil {
		return 2
	}
	return *c.UpdateIntervalTicks
}

// GetAutoChunkSize returns the auto_chunk_size value or the default.
func (c *TuningConfig) GetAutoChunkSize() bool {
	if c.AutoChunkSize == nil {
		return true
	}
	return *c.AutoChunkSize
}

// GetChunkSize returns the chunk_size value or the default.
func (c *TuningConfig) GetChunkSize() float64 {
	if c.ChunkSize == nil {
		return 10
	}
	return *c.ChunkSize
}

// GetMinChunkSize returns the min_chunk_size value or the default.
func (c *TuningConfig) GetMinChunkSize() float64 {
	if c.MinChunkSize == nil {
		return 5
	}
	return *c.MinChunkSize
}

// GetMaxChunkSize returns the max_chunk_size value or the default.
func (c *TuningConfig) GetMaxChunkSize() float64 {
	if c.MaxChunkSize == nil {
		return 50
	}
	return *c.MaxChunkSize
}

// GetBasePointSize returns the base_point_size value or the default.
func (c *TuningConfig) GetBasePointSize() float64 {
	if c.BasePointSize == nil {
		return 2.0
	}
	return *c.BasePointSize
}

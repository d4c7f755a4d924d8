// Package pointcloud wires the streaming PCD decoder and the chunked LOD
// grid into a single load pipeline with progress and chunk callbacks. The
// pipeline is a pure in-process transform: one in-memory byte buffer in,
// renderable structure out.
package pointcloud

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pointcloud.viewer/internal/config"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/lodgrid"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/pcd"
)

// Options configures one load. Zero values select the defaults.
type Options struct {
	WindowBytes int // decoder window size; default 1 MiB
	ChunkPoints int // points per streamed chunk; default 50000

	LOD lodgrid.Config // zero value is replaced by lodgrid.DefaultConfig

	// OnProgress receives staged progress events: loading once at the start,
	// parsing during the streaming decode, optimizing around grid build.
	OnProgress func(pcd.Progress)

	// OnChunk fires once per emitted chunk during ingestion so partial
	// results can render before the LOD structure exists.
	OnChunk func(*pcd.Chunk)
}

// OptionsFromTuning builds Options from a loaded tuning config.
func OptionsFromTuning(cfg *config.TuningConfig) Options {
	return Options{
		WindowBytes: cfg.GetWindowBytes(),
		ChunkPoints: cfg.GetChunkEmitPoints(),
		LOD:         lodgrid.ConfigFromTuning(cfg),
	}
}

// LoadResult is the outcome of a completed load.
type LoadResult struct {
	RunID        uuid.UUID
	Cloud        *pcd.Cloud
	Grid         *lodgrid.Grid
	StreamChunks int // chunks emitted during ingestion
	Duration     time.Duration
	Warnings     int
}

// Load ingests a complete point cloud file held in data: header parse,
// streaming decode with incremental chunk emission, then one-shot LOD grid
// construction. ctx is checked between decoder windows, so an in-flight
// load can be cancelled at window granularity.
//
// Fatal format and decompression errors abort the load; unparsable records
// and clamped config values only degrade fidelity and are reported through
// LoadResult.Warnings.
func Load(ctx context.Context, data []byte, opts Options) (*LoadResult, error) {
	start := time.Now()
	runID := uuid.New()

	report := func(p pcd.Progress) {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}
	report(pcd.Progress{Stage: pcd.StageLoading, Percent: 0})

	if opts.LOD == (lodgrid.Config{}) {
		opts.LOD = lodgrid.DefaultConfig()
	}

	dec, err := pcd.NewDecoder(data, pcd.DecoderConfig{
		WindowBytes: opts.WindowBytes,
		ChunkPoints: opts.ChunkPoints,
		OnChunk:     opts.OnChunk,
		OnProgress:  opts.OnProgress,
	})
	if err != nil {
		return nil, err
	}
	cloud, err := dec.Run(ctx)
	if err != nil {
		return nil, err
	}

	report(pcd.Progress{
		Stage:           pcd.StageOptimizing,
		Percent:         100,
		PointsProcessed: cloud.Count,
		ChunksEmitted:   dec.ChunksEmitted(),
	})
	grid := lodgrid.BuildGrid(cloud, opts.LOD)

	return &LoadResult{
		RunID:        runID,
		Cloud:        cloud,
		Grid:         grid,
		StreamChunks: dec.ChunksEmitted(),
		Duration:     time.Since(start),
		Warnings:     cloud.Warnings,
	}, nil
}

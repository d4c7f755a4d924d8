package pointcloud

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointcloud.viewer/internal/config"
	"github.com/banshee-data/pointcloud.viewer/internal/pointcloud/pcd"
	"github.com/banshee-data/pointcloud.viewer/internal/testutil"
)

func asciiFile(points int) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH %d\nHEIGHT 1\nPOINTS %d\nDATA ascii\n", points, points)
	for i := 0; i < points; i++ {
		fmt.Fprintf(&sb, "%d %d %d\n", i%10, (i/10)%10, i)
	}
	return []byte(sb.String())
}

func TestLoadEndToEnd(t *testing.T) {
	testutil.CaptureLogs(t)
	var stages []pcd.Stage
	var chunkPoints int

	res, err := Load(context.Background(), asciiFile(500), Options{
		ChunkPoints: 200,
		OnProgress:  func(p pcd.Progress) { stages = append(stages, p.Stage) },
		OnChunk:     func(ch *pcd.Chunk) { chunkPoints += ch.Count },
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, 500, res.Cloud.Count)
	assert.Equal(t, 3, res.StreamChunks)
	assert.Equal(t, 500, chunkPoints, "chunk counts must sum to the cloud total")
	assert.Zero(t, res.Warnings)
	require.NotNil(t, res.Grid)
	assert.Equal(t, 500, res.Grid.TotalPoints+res.Grid.DroppedPoints)

	// Stage order: loading first, optimizing last, parsing in between.
	require.GreaterOrEqual(t, len(stages), 3)
	assert.Equal(t, pcd.StageLoading, stages[0])
	assert.Equal(t, pcd.StageOptimizing, stages[len(stages)-1])
	assert.Contains(t, stages, pcd.StageParsing)
}

func TestLoadDefaultLODConfig(t *testing.T) {
	res, err := Load(context.Background(), asciiFile(50), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Grid.Config.MaxLODLevel, "zero Options.LOD should fall back to the defaults")
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, asciiFile(100), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(context.Background(), []byte("not a point cloud"), Options{})
	require.Error(t, err)

	var formatErr *pcd.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestOptionsFromTuning(t *testing.T) {
	opts := OptionsFromTuning(config.EmptyTuningConfig())

	assert.Equal(t, 1<<20, opts.WindowBytes)
	assert.Equal(t, 50000, opts.ChunkPoints)
	assert.Equal(t, 4, opts.LOD.MaxLODLevel)
	assert.Equal(t, float32(1000), opts.LOD.RenderDistance)
}

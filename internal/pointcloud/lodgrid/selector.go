package lodgrid

import (
	"math"

	"cogentcore.org/core/math32"
)

// stableTicksToApply is how many consecutive evaluation cycles a one-level
// change must persist before it is applied; it lands on the cycle after
// that. Larger jumps bypass the delay entirely.
const stableTicksToApply = 3

// Update runs one selector tick: frustum culling, distance-based level
// selection with hysteresis, and visibility bookkeeping. Selection is
// throttled — it only re-evaluates when the camera has moved more than
// CameraMovementThreshold since the last evaluation or UpdateInterval ticks
// have elapsed — but stats are recomputed from scratch on every tick.
//
// Update runs on the host's frame loop thread; it must never be driven
// concurrently with grid construction.
func (g *Grid) Update(cam CameraState) FrameStats {
	if !g.disposed {
		g.ticksSinceEval++
		moved := !g.haveLastEval ||
			cam.Position.Sub(g.lastEvalPos).Length() > g.Config.CameraMovementThreshold
		if moved || g.ticksSinceEval >= g.Config.UpdateInterval {
			g.evaluate(cam)
			g.haveLastEval = true
			g.lastEvalPos = cam.Position
			g.ticksSinceEval = 0
		}
	}
	return g.recomputeStats()
}

// evaluate performs the full selection pass over all chunks.
func (g *Grid) evaluate(cam CameraState) {
	vp := cam.ViewProjection
	frustum := math32.NewFrustumFromMatrix(&vp)

	for _, ch := range g.Chunks {
		if !frustum.IntersectsBox(ch.Bounds) {
			ch.hide()
			continue
		}
		dist := cam.Position.Sub(ch.Center).Length()
		if dist > g.Config.RenderDistance {
			ch.hide()
			continue
		}
		if g.lodDisabled {
			// Forced full detail bypasses hysteresis.
			ch.CurrentLevel = 0
			ch.pendingLevel = 0
			ch.stableTicks = 0
			continue
		}
		ch.applyTarget(g.levelForDistance(dist))
	}
}

// levelForDistance maps camera distance onto a LOD level:
// clamp(floor((min(1, d/renderDistance))^lodCurve * maxLODLevel)).
func (g *Grid) levelForDistance(dist float32) int {
	norm := dist / g.Config.RenderDistance
	if norm > 1 {
		norm = 1
	}
	level := int(math.Floor(
		math.Pow(float64(norm), float64(g.Config.LODCurve)) * float64(g.Config.MaxLODLevel)))
	if level < 0 {
		level = 0
	}
	if level > g.Config.MaxLODLevel {
		level = g.Config.MaxLODLevel
	}
	return level
}

func (ch *Chunk) hide() {
	ch.CurrentLevel = Hidden
	ch.pendingLevel = Hidden
	ch.stableTicks = 0
}

// applyTarget applies the hysteresis rule: a one-level change must hold for
// stableTicksToApply consecutive evaluation cycles and lands on the next
// one; larger jumps (and transitions out of hidden) apply immediately and
// reset the counter.
func (ch *Chunk) applyTarget(target int) {
	if n := len(ch.Levels); target >= n {
		target = n - 1
	}

	cur := ch.CurrentLevel
	if cur == Hidden {
		ch.CurrentLevel = target
		ch.pendingLevel = target
		ch.stableTicks = 0
		return
	}
	if target == cur {
		ch.pendingLevel = target
		ch.stableTicks = 0
		return
	}

	diff := target - cur
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		ch.CurrentLevel = target
		ch.pendingLevel = target
		ch.stableTicks = 0
		return
	}

	if ch.pendingLevel == target {
		ch.stableTicks++
	} else {
		ch.pendingLevel = target
		ch.stableTicks = 1
	}
	if ch.stableTicks > stableTicksToApply {
		ch.CurrentLevel = target
		ch.stableTicks = 0
	}
}

// recomputeStats rebuilds the visibility stats from scratch.
func (g *Grid) recomputeStats() FrameStats {
	s := FrameStats{LevelCounts: make([]int, g.Config.MaxLODLevel+1)}
	for _, ch := range g.Chunks {
		if ch.CurrentLevel == Hidden {
			s.CulledChunks++
			continue
		}
		lv := ch.Levels[ch.CurrentLevel]
		s.VisibleChunks++
		s.VisiblePoints += lv.Count
		s.LevelCounts[ch.CurrentLevel]++
	}
	g.stats = s
	return s
}

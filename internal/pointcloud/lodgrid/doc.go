// Package lodgrid partitions a fully decoded point cloud into a uniform 3D
// grid of chunks, builds a ladder of progressively down-sampled levels for
// each chunk, and selects the visible level per chunk on every camera tick
// with frustum culling, distance-based selection and hysteresis.
package lodgrid

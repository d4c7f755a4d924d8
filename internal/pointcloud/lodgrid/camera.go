package lodgrid

import (
	"cogentcore.org/core/math32"
)

// NewCameraState builds the Update input for a perspective camera at eye
// looking toward target. fovDeg is the vertical field of view in degrees.
// Hosts with their own renderer will already have a view-projection matrix
// and can fill CameraState directly; this helper serves tools and tests.
func NewCameraState(eye, target, up math32.Vector3, fovDeg, aspect, near, far float32) CameraState {
	f := target.Sub(eye)
	f = f.MulScalar(1 / f.Length())
	s := f.Cross(up)
	s = s.MulScalar(1 / s.Length())
	u := s.Cross(f)

	var view math32.Matrix4
	view.Set(
		s.X, s.Y, s.Z, -s.Dot(eye),
		u.X, u.Y, u.Z, -u.Dot(eye),
		-f.X, -f.Y, -f.Z, f.Dot(eye),
		0, 0, 0, 1,
	)

	var proj math32.Matrix4
	proj.SetPerspective(fovDeg, aspect, near, far)

	var vp math32.Matrix4
	vp.MulMatrices(&proj, &view)
	return CameraState{Position: eye, ViewProjection: vp}
}

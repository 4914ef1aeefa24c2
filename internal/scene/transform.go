package scene

import "cgf-scene-loader/internal/mathutil"

// Transform is a node's local transform in the node convention.
type Transform struct {
	Translation mathutil.Vec3
	Rotation    mathutil.Mat3
	Scale       mathutil.Vec3
}

// NodeTransform decomposes a stored node matrix. Node matrices carry scale
// where a standard decomposition finds translation and the reverse, so the
// two outputs are reassigned.
func NodeTransform(m mathutil.Mat4) Transform {
	scale, rot, trans := mathutil.Decompose(m)
	return Transform{
		Translation: scale,
		Rotation:    rot,
		Scale:       trans,
	}
}

// FromMatrix decomposes m without the node reassignment. It is the inverse
// of Matrix.
func FromMatrix(m mathutil.Mat4) Transform {
	scale, rot, trans := mathutil.Decompose(m)
	return Transform{Translation: trans, Rotation: rot, Scale: scale}
}

// Matrix recomposes T · R · S.
func (t Transform) Matrix() mathutil.Mat4 {
	return mathutil.Compose(t.Scale, t.Rotation, t.Translation)
}

// Quat returns the rotation as a unit quaternion.
func (t Transform) Quat() mathutil.Quat {
	return mathutil.Mat3ToQuat(t.Rotation)
}

// ApproxEqual reports whether all components differ by at most eps.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return t.Translation.ApproxEqual(o.Translation, eps) &&
		t.Scale.ApproxEqual(o.Scale, eps) &&
		t.Rotation.ApproxEqual(o.Rotation, eps)
}

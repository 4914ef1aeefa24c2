package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major, column-vector convention
// (translation in m[3], m[7], m[11]). Used for node and bone transforms.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// Upper3 returns the upper-left 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[c*4+r] = m[r*4+c]
		}
	}
	return t
}

// Inverse returns the inverse of an affine matrix. The bottom row is assumed
// to be (0, 0, 0, 1); a singular 3×3 block inverts to identity.
func (m Mat4) Inverse() Mat4 {
	inv := m.Upper3().Inverse()
	t := inv.MulVec3(m.Translation()).Scale(-1)
	return FromMat3Translation(inv, t)
}

// Decompose splits an affine matrix into scale, rotation and translation so
// that m = T · R · S. A negative determinant is folded into the X scale.
// Zero-length basis columns leave the matching rotation column zero.
func Decompose(m Mat4) (scale Vec3, rot Mat3, trans Vec3) {
	upper := m.Upper3()
	for c := 0; c < 3; c++ {
		scale[c] = upper.Col(c).Len()
	}
	// Mirrored basis: x · (y × z) < 0.
	if upper.Col(0).Dot(upper.Col(1).Cross(upper.Col(2))) < 0 {
		scale[0] = -scale[0]
	}
	for c := 0; c < 3; c++ {
		col := upper.Col(c)
		if math.Abs(scale[c]) > 1e-12 {
			col = col.Scale(1 / scale[c])
		} else {
			col = Vec3{}
		}
		rot = rot.SetCol(c, col)
	}
	return scale, rot, m.Translation()
}

// Compose builds T · R · S.
func Compose(scale Vec3, rot Mat3, trans Vec3) Mat4 {
	rs := Mat3Mul(rot, Mat3Diag(scale[0], scale[1], scale[2]))
	return FromMat3Translation(rs, trans)
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	return m.ApproxEqual(Mat4Identity(), 1e-8)
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := 0; i < 16; i++ {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

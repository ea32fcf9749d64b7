package math3d

import "math"

// Quat is a rotation quaternion (x, y, z, w), w being the scalar part.
// Matches the glTF component ordering so keyframe data maps directly.
type Quat struct {
	X, Y, Z, W float64
}

// Q creates a new Quat.
func Q(x, y, z, w float64) Quat {
	return Quat{x, y, z, w}
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatAxisAngle builds a quaternion rotating angle radians around axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{
		axis.X * s,
		axis.Y * s,
		axis.Z * s,
		math.Cos(angle / 2),
	}
}

// Dot returns the quaternion dot product.
func (q Quat) Dot(r Quat) float64 {
	return q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W
}

// Len returns the quaternion magnitude.
func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize returns the unit quaternion. The identity is returned for a
// zero quaternion so degenerate keyframe data never produces NaNs.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Negate returns the quaternion with all components negated. It
// represents the same rotation.
func (q Quat) Negate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, -q.W}
}

// Mul returns the composed rotation q * r (r applied first).
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Slerp returns the spherical linear interpolation between q and r by t.
// The shorter arc is always taken, and nearly-parallel quaternions fall
// back to normalized lerp to avoid division by a vanishing sine.
func (q Quat) Slerp(r Quat, t float64) Quat {
	d := q.Dot(r)
	if d < 0 {
		r = r.Negate()
		d = -d
	}

	if d > 0.9995 {
		return Quat{
			q.X + (r.X-q.X)*t,
			q.Y + (r.Y-q.Y)*t,
			q.Z + (r.Z-q.Z)*t,
			q.W + (r.W-q.W)*t,
		}.Normalize()
	}

	theta := math.Acos(d)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta

	return Quat{
		q.X*wa + r.X*wb,
		q.Y*wa + r.Y*wb,
		q.Z*wa + r.Z*wb,
		q.W*wa + r.W*wb,
	}
}

// Mat4 converts the quaternion to a rotation matrix. The quaternion is
// assumed normalized.
func (q Quat) Mat4() Mat4 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// RotateVec3 rotates v by the quaternion.
func (q Quat) RotateVec3(v Vec3) Vec3 {
	u := V3(q.X, q.Y, q.Z)
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

package core

import "math"

// Frame is an orthonormal basis (S, T, N) used to move directions between
// world space and a local space where N is the +Z axis.
type Frame struct {
	S, T, N Vec3
}

// NewFrame builds a frame around the given normal. The normal is normalized.
func NewFrame(normal Vec3) Frame {
	n := normal.Normalize()

	// Pick a helper axis that is not nearly parallel to n
	var helper Vec3
	if math.Abs(n.X) > 0.1 {
		helper = NewVec3(0, 1, 0)
	} else {
		helper = NewVec3(1, 0, 0)
	}

	s := helper.Cross(n).Normalize()
	t := n.Cross(s)
	return Frame{S: s, T: t, N: n}
}

// ToWorld maps a local direction into world space
func (f Frame) ToWorld(v Vec3) Vec3 {
	return f.S.Multiply(v.X).Add(f.T.Multiply(v.Y)).Add(f.N.Multiply(v.Z))
}

// ToLocal maps a world direction into the frame's local space
func (f Frame) ToLocal(v Vec3) Vec3 {
	return NewVec3(v.Dot(f.S), v.Dot(f.T), v.Dot(f.N))
}

package landmark

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/jafar-slam/ahp/quatmath"
)

// FrameSize is the number of scalars a Frame occupies in a state vector:
// translation (3) followed by orientation quaternion (4, w first).
const FrameSize = 7

// unitQuaternionTol bounds how far a frame quaternion may drift off unit
// norm before the frame is rejected as invalid.
const unitQuaternionTol = 1e-8

// Frame is a rigid-body pose: a translation T and a unit orientation
// quaternion Q. It represents the robot or sensor pose at observation time,
// or a landmark's anchor pose. The filter/map owns frame storage; a Frame
// value here is a snapshot of 7 scalars of its joint state vector.
type Frame struct {
	T r3.Vector
	Q quat.Number
}

// NewFrame builds a Frame from a translation and an orientation quaternion,
// rejecting non-unit quaternions.
func NewFrame(t r3.Vector, q quat.Number) (Frame, error) {
	if !quatmath.AlmostUnit(q, unitQuaternionTol) {
		return Frame{}, errors.Wrapf(ErrInvalidState, "frame quaternion must be unit norm, got norm %f", quatmath.Norm(q))
	}
	return Frame{T: t, Q: q}, nil
}

// NewIdentityFrame returns the frame with zero translation and identity
// orientation; transforms through it are no-ops.
func NewIdentityFrame() Frame {
	return Frame{Q: quat.Number{Real: 1}}
}

// FrameFromSlice builds a Frame from a 7-scalar state vector view laid out
// as [tx ty tz qw qx qy qz]. The slice is read, never retained.
func FrameFromSlice(x []float64) (Frame, error) {
	if len(x) != FrameSize {
		return Frame{}, errors.Wrapf(ErrShapeMismatch, "frame state must have %d scalars, got %d", FrameSize, len(x))
	}
	return NewFrame(
		r3.Vector{X: x[0], Y: x[1], Z: x[2]},
		quat.Number{Real: x[3], Imag: x[4], Jmag: x[5], Kmag: x[6]},
	)
}

// ToSlice returns the frame's 7 scalars as [tx ty tz qw qx qy qz].
func (f Frame) ToSlice() []float64 {
	return []float64{f.T.X, f.T.Y, f.T.Z, f.Q.Real, f.Q.Imag, f.Q.Jmag, f.Q.Kmag}
}

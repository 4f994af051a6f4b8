// Package quatmath provides quaternion rotation utilities and their exact
// first-order derivatives, used to linearize rigid-body transforms for
// covariance propagation.
//
// Quaternions follow the gonum convention quat.Number{Real, Imag, Jmag, Kmag},
// i.e. w + xi + yj + zk, and are expected to be unit-norm wherever they encode
// an orientation. Jacobians with respect to a quaternion differentiate the
// four raw components directly, in the order (w, x, y, z).
package quatmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Rotate rotates vector v by unit quaternion q, returning R(q) * v.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

// RotateInv rotates vector v by the conjugate of unit quaternion q,
// returning R(q)' * v. For a unit q this is the inverse rotation.
func RotateInv(q quat.Number, v r3.Vector) r3.Vector {
	return Rotate(quat.Conj(q), v)
}

// RotationMatrix returns the 3x3 rotation matrix of unit quaternion q.
func RotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		w*w + x*x - y*y - z*z, 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), w*w - x*x + y*y - z*z, 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), w*w - x*x - y*y + z*z,
	})
}

// RotateJacobianQ writes into dst (3x4) the derivative of R(q)*v with respect
// to the quaternion components (w, x, y, z). dst must be non-nil and already
// sized 3x4; the derivative with respect to v is RotationMatrix(q).
func RotateJacobianQ(q quat.Number, v r3.Vector, dst *mat.Dense) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	a, b, c := v.X, v.Y, v.Z

	// Differentiating the rotation matrix entries collapses to four shared
	// terms; see the columns of d(Rv)/dq written out entrywise.
	s0 := 2 * (w*a - z*b + y*c)
	s1 := 2 * (x*a + y*b + z*c)
	s2 := 2 * (-y*a + x*b + w*c)
	s3 := 2 * (-z*a - w*b + x*c)

	dst.SetRow(0, []float64{s0, s1, s2, s3})
	dst.SetRow(1, []float64{-s3, -s2, s1, s0})
	dst.SetRow(2, []float64{s2, -s3, -s0, s1})
}

// RotateInvJacobianQ writes into dst (3x4) the derivative of R(q)' * v with
// respect to the quaternion components (w, x, y, z). dst must be non-nil and
// already sized 3x4; the derivative with respect to v is RotationMatrix(q)
// transposed.
func RotateInvJacobianQ(q quat.Number, v r3.Vector, dst *mat.Dense) {
	// R(q)'v = R(conj q)v, and d(conj q)/dq = diag(1, -1, -1, -1), so the
	// imaginary columns of the conjugate Jacobian flip sign.
	RotateJacobianQ(quat.Conj(q), v, dst)
	for i := 0; i < 3; i++ {
		dst.Set(i, 1, -dst.At(i, 1))
		dst.Set(i, 2, -dst.At(i, 2))
		dst.Set(i, 3, -dst.At(i, 3))
	}
}

// Norm returns the Euclidean norm of q over its four components.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize scales q to unit norm. A zero quaternion normalizes to identity.
func Normalize(q quat.Number) quat.Number {
	n := Norm(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Number{Real: q.Real / n, Imag: q.Imag / n, Jmag: q.Jmag / n, Kmag: q.Kmag / n}
}

// AlmostUnit returns whether the norm of q is within eps of 1.
func AlmostUnit(q quat.Number, eps float64) bool {
	return math.Abs(Norm(q)-1) <= eps
}

// QuaternionAlmostEqual tests a quaternion for near-equality with another,
// accounting for the double cover (q and -q encode the same rotation).
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	aMinusB := quat.Number{
		Real: a.Real - b.Real, Imag: a.Imag - b.Imag, Jmag: a.Jmag - b.Jmag, Kmag: a.Kmag - b.Kmag,
	}
	aPlusB := quat.Number{
		Real: a.Real + b.Real, Imag: a.Imag + b.Imag, Jmag: a.Jmag + b.Jmag, Kmag: a.Kmag + b.Kmag,
	}
	return Norm(aMinusB) < tol || Norm(aPlusB) < tol
}

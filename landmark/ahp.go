// Package landmark implements the anchored homogeneous point (AHP) landmark
// parametrization for EKF visual/range SLAM, after Sola et al., PAMI 2010.
//
// An AHP value encodes a 3D point as an anchor P0, a direction M (not
// necessarily unit length), and an inverse depth Rho, with metric point
// P0 + M/Rho. The representation stays numerically well behaved for
// landmarks at large or unknown depth: Rho = 0 is a point at infinity, a
// pure bearing with no resolved range. The package supplies the nonlinear
// transforms between the global map frame, a sensor frame, and the metric
// Euclidean frame, together with their exact Jacobians, so an enclosing
// filter can propagate covariance through them. All transforms are pure:
// they never retain or mutate their inputs.
package landmark

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/jafar-slam/ahp/quatmath"
)

// AHPSize is the number of scalars an AHP landmark occupies in the joint
// state vector: anchor (3), direction (3), inverse depth (1). The map layer
// uses this when allocating or relocating state and covariance blocks.
const AHPSize = 7

// degenerateNormTol is the norm floor below which a direction vector is
// treated as degenerate. Far below any physical direction norm, above
// accumulated rounding noise.
const degenerateNormTol = 1e-12

// AHP is an anchored homogeneous point: the metric point is P0 + M/Rho when
// Rho > 0, and M is a pure direction from P0 when Rho = 0.
type AHP struct {
	P0  r3.Vector
	M   r3.Vector
	Rho float64
}

// Validate checks the representation invariant: Rho must be non-negative,
// and a zero direction is only meaningful for an uninitialized landmark at
// infinity (Rho = 0).
func (a AHP) Validate() error {
	if a.Rho < 0 {
		return newNegativeRhoError(a.Rho)
	}
	if a.M.Norm() <= degenerateNormTol && a.Rho > 0 {
		return errors.Wrap(ErrInvalidState, "zero direction with positive inverse depth")
	}
	return nil
}

// AHPFromSlice builds an AHP value from a 7-scalar state vector view laid
// out as [p0x p0y p0z mx my mz rho]. The slice is read, never retained.
func AHPFromSlice(x []float64) (AHP, error) {
	if len(x) != AHPSize {
		return AHP{}, errors.Wrapf(ErrShapeMismatch, "AHP state must have %d scalars, got %d", AHPSize, len(x))
	}
	a := AHP{
		P0:  r3.Vector{X: x[0], Y: x[1], Z: x[2]},
		M:   r3.Vector{X: x[3], Y: x[4], Z: x[5]},
		Rho: x[6],
	}
	if err := a.Validate(); err != nil {
		return AHP{}, err
	}
	return a, nil
}

// ToSlice returns the AHP's 7 scalars as [p0x p0y p0z mx my mz rho].
func (a AHP) ToSlice() []float64 {
	return []float64{a.P0.X, a.P0.Y, a.P0.Z, a.M.X, a.M.Y, a.M.Z, a.Rho}
}

// AlmostEqual reports whether two AHP values agree component-wise within tol.
func (a AHP) AlmostEqual(b AHP, tol float64) bool {
	return a.P0.Sub(b.P0).Norm() <= tol &&
		a.M.Sub(b.M).Norm() <= tol &&
		math.Abs(a.Rho-b.Rho) <= tol
}

// FromFrame converts an AHP point expressed in frame f into the global
// frame: the anchor and direction rotate and translate with f while the
// inverse depth is frame invariant. Works for Rho = 0, where it degrades to
// a pure direction transform.
func FromFrame(f Frame, a AHP) (AHP, error) {
	if a.Rho < 0 {
		return AHP{}, newNegativeRhoError(a.Rho)
	}
	return AHP{
		P0:  quatmath.Rotate(f.Q, a.P0).Add(f.T),
		M:   quatmath.Rotate(f.Q, a.M),
		Rho: a.Rho,
	}, nil
}

// ToFrame converts a global-frame AHP point into frame f; the exact inverse
// of FromFrame.
func ToFrame(f Frame, a AHP) (AHP, error) {
	if a.Rho < 0 {
		return AHP{}, newNegativeRhoError(a.Rho)
	}
	return AHP{
		P0:  quatmath.RotateInv(f.Q, a.P0.Sub(f.T)),
		M:   quatmath.RotateInv(f.Q, a.M),
		Rho: a.Rho,
	}, nil
}

// ToEuclidean reparametrizes the AHP into a metric 3D point P0 + M/Rho.
// Rho must be strictly positive: a point at infinity has no Euclidean
// counterpart and yields ErrInvalidState rather than a non-finite result.
func ToEuclidean(a AHP) (r3.Vector, error) {
	if a.Rho < 0 {
		return r3.Vector{}, newNegativeRhoError(a.Rho)
	}
	if a.Rho == 0 {
		return r3.Vector{}, errors.Wrap(ErrInvalidState, "cannot reparametrize a point at infinity (rho = 0) to Euclidean")
	}
	return a.P0.Add(a.M.Mul(1 / a.Rho)), nil
}

// ToBearingOnlyFrame brings the landmark into sensor frame s as a direction
// only, computing R(q)' * (M - (T - P0)*Rho). The result points from the
// sensor toward the landmark; range information is discarded, which is what
// bearing-only observation models (e.g. camera pixel rays) consume.
// A near-zero result means the landmark sits at the sensor origin and fails
// with ErrDegenerateGeometry.
func ToBearingOnlyFrame(s Frame, a AHP) (r3.Vector, error) {
	v, _, err := ToBearingOnlyFrameInvDist(s, a)
	return v, err
}

// ToBearingOnlyFrameInvDist is ToBearingOnlyFrame recovering also the
// inverse distance from sensor to landmark, Rho/|v|. The direction itself
// carries no scale, but the recovered inverse distance lets a bearing-only
// observation still contribute a soft range constraint to the filter.
func ToBearingOnlyFrameInvDist(s Frame, a AHP) (r3.Vector, float64, error) {
	if err := a.Validate(); err != nil {
		return r3.Vector{}, 0, err
	}
	d := a.M.Sub(s.T.Sub(a.P0).Mul(a.Rho))
	v := quatmath.RotateInv(s.Q, d)
	n := v.Norm()
	if n <= degenerateNormTol {
		return r3.Vector{}, 0, errors.Wrap(ErrDegenerateGeometry, "projected direction has near-zero norm")
	}
	return v, a.Rho / n, nil
}

// FromBearingOnlyFrame retro-projects a bearing-only observation into a new
// AHP landmark anchored at the sensor position: (T, R(q)*v, rhoPrior*|v|).
// v is the observed director vector in the sensor frame and must be
// non-zero; rhoPrior is an inverse-distance prior, 0 initializing a point
// at infinity when no depth information is available. Inverse of
// ToBearingOnlyFrame up to the scale of v.
func FromBearingOnlyFrame(s Frame, v r3.Vector, rhoPrior float64) (AHP, error) {
	n := v.Norm()
	if n <= degenerateNormTol {
		return AHP{}, errors.Wrap(ErrInvalidState, "observed direction has near-zero norm")
	}
	if rhoPrior < 0 {
		return AHP{}, newNegativeRhoError(rhoPrior)
	}
	return AHP{
		P0:  s.T,
		M:   quatmath.Rotate(s.Q, v),
		Rho: rhoPrior * n,
	}, nil
}

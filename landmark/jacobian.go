package landmark

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/jafar-slam/ahp/quatmath"
)

// Jacobian conventions: frames are differentiated over their 7 raw scalars
// [tx ty tz qw qx qy qz] (no minimal orientation error state), AHP values
// over [p0 m rho]. Every function here evaluates its value and all Jacobian
// blocks at the same operating point, zeroes the caller's buffers before
// writing, and validates buffer shapes up front.

func checkShape(name string, m *mat.Dense, rows, cols int) error {
	if m == nil {
		return errors.Wrapf(ErrShapeMismatch, "%s buffer is nil, need %dx%d", name, rows, cols)
	}
	gotRows, gotCols := m.Dims()
	if gotRows != rows || gotCols != cols {
		return newShapeMismatchError(name, rows, cols, gotRows, gotCols)
	}
	return nil
}

func copyBlock(dst *mat.Dense, src mat.Matrix, row, col int) {
	rows, cols := src.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(row+i, col+j, src.At(i, j))
		}
	}
}

func setVectorCol(dst *mat.Dense, col int, v r3.Vector, row int) {
	dst.Set(row, col, v.X)
	dst.Set(row+1, col, v.Y)
	dst.Set(row+2, col, v.Z)
}

// FromFrameWithJacobians is FromFrame also writing the derivatives of the
// global AHP with respect to the frame (jFrame, 7x7) and with respect to
// the input AHP (jAHP, 7x7).
func FromFrameWithJacobians(f Frame, a AHP, jFrame, jAHP *mat.Dense) (AHP, error) {
	if err := checkShape("jFrame", jFrame, AHPSize, FrameSize); err != nil {
		return AHP{}, err
	}
	if err := checkShape("jAHP", jAHP, AHPSize, AHPSize); err != nil {
		return AHP{}, err
	}
	out, err := FromFrame(f, a)
	if err != nil {
		return AHP{}, err
	}

	r := quatmath.RotationMatrix(f.Q)
	rotJac := mat.NewDense(3, 4, nil)

	jFrame.Zero()
	jFrame.Set(0, 0, 1)
	jFrame.Set(1, 1, 1)
	jFrame.Set(2, 2, 1)
	quatmath.RotateJacobianQ(f.Q, a.P0, rotJac)
	copyBlock(jFrame, rotJac, 0, 3)
	quatmath.RotateJacobianQ(f.Q, a.M, rotJac)
	copyBlock(jFrame, rotJac, 3, 3)

	jAHP.Zero()
	copyBlock(jAHP, r, 0, 0)
	copyBlock(jAHP, r, 3, 3)
	jAHP.Set(6, 6, 1)

	return out, nil
}

// ToFrameWithJacobians is ToFrame also writing the derivatives of the
// frame-local AHP with respect to the frame (jFrame, 7x7) and with respect
// to the global AHP (jAHP, 7x7).
func ToFrameWithJacobians(f Frame, a AHP, jFrame, jAHP *mat.Dense) (AHP, error) {
	if err := checkShape("jFrame", jFrame, AHPSize, FrameSize); err != nil {
		return AHP{}, err
	}
	if err := checkShape("jAHP", jAHP, AHPSize, AHPSize); err != nil {
		return AHP{}, err
	}
	out, err := ToFrame(f, a)
	if err != nil {
		return AHP{}, err
	}

	var rt mat.Dense
	rt.CloneFrom(quatmath.RotationMatrix(f.Q).T())
	rotJac := mat.NewDense(3, 4, nil)

	jFrame.Zero()
	var negRt mat.Dense
	negRt.Scale(-1, &rt)
	copyBlock(jFrame, &negRt, 0, 0)
	quatmath.RotateInvJacobianQ(f.Q, a.P0.Sub(f.T), rotJac)
	copyBlock(jFrame, rotJac, 0, 3)
	quatmath.RotateInvJacobianQ(f.Q, a.M, rotJac)
	copyBlock(jFrame, rotJac, 3, 3)

	jAHP.Zero()
	copyBlock(jAHP, &rt, 0, 0)
	copyBlock(jAHP, &rt, 3, 3)
	jAHP.Set(6, 6, 1)

	return out, nil
}

// ToEuclideanWithJacobian is ToEuclidean also writing the 3x7 derivative of
// the metric point with respect to the AHP scalars: [I | I/rho | -m/rho^2].
func ToEuclideanWithJacobian(a AHP, jAHP *mat.Dense) (r3.Vector, error) {
	if err := checkShape("jAHP", jAHP, 3, AHPSize); err != nil {
		return r3.Vector{}, err
	}
	p, err := ToEuclidean(a)
	if err != nil {
		return r3.Vector{}, err
	}

	jAHP.Zero()
	invRho := 1 / a.Rho
	for i := 0; i < 3; i++ {
		jAHP.Set(i, i, 1)
		jAHP.Set(i, i+3, invRho)
	}
	setVectorCol(jAHP, 6, a.M.Mul(-invRho*invRho), 0)

	return p, nil
}

// ToBearingOnlyFrameWithJacobians is ToBearingOnlyFrameInvDist also writing
// the derivatives of the sensor-frame direction with respect to the sensor
// frame (jFrame, 3x7) and the global AHP (jAHP, 3x7).
func ToBearingOnlyFrameWithJacobians(s Frame, a AHP, jFrame, jAHP *mat.Dense) (r3.Vector, float64, error) {
	if err := checkShape("jFrame", jFrame, 3, FrameSize); err != nil {
		return r3.Vector{}, 0, err
	}
	if err := checkShape("jAHP", jAHP, 3, AHPSize); err != nil {
		return r3.Vector{}, 0, err
	}
	v, invDist, err := ToBearingOnlyFrameInvDist(s, a)
	if err != nil {
		return r3.Vector{}, 0, err
	}

	var rt mat.Dense
	rt.CloneFrom(quatmath.RotationMatrix(s.Q).T())
	d := a.M.Sub(s.T.Sub(a.P0).Mul(a.Rho))
	rotJac := mat.NewDense(3, 4, nil)
	quatmath.RotateInvJacobianQ(s.Q, d, rotJac)

	// v = R(q)' * (m - (t - p0)*rho)
	jFrame.Zero()
	var block mat.Dense
	block.Scale(-a.Rho, &rt)
	copyBlock(jFrame, &block, 0, 0)
	copyBlock(jFrame, rotJac, 0, 3)

	jAHP.Zero()
	block.Scale(a.Rho, &rt)
	copyBlock(jAHP, &block, 0, 0)
	copyBlock(jAHP, &rt, 0, 3)
	setVectorCol(jAHP, 6, quatmath.RotateInv(s.Q, a.P0.Sub(s.T)), 0)

	return v, invDist, nil
}

// FromBearingOnlyFrameWithJacobians is FromBearingOnlyFrame also writing
// the derivatives of the new AHP with respect to the sensor frame (jFrame,
// 7x7), the observed direction (jV, 7x3), and the inverse-depth prior
// (jRho, 7x1). The filter uses these to inflate the new landmark's initial
// covariance from observation and prior uncertainty.
func FromBearingOnlyFrameWithJacobians(
	s Frame, v r3.Vector, rhoPrior float64, jFrame, jV, jRho *mat.Dense,
) (AHP, error) {
	if err := checkShape("jFrame", jFrame, AHPSize, FrameSize); err != nil {
		return AHP{}, err
	}
	if err := checkShape("jV", jV, AHPSize, 3); err != nil {
		return AHP{}, err
	}
	if err := checkShape("jRho", jRho, AHPSize, 1); err != nil {
		return AHP{}, err
	}
	out, err := FromBearingOnlyFrame(s, v, rhoPrior)
	if err != nil {
		return AHP{}, err
	}

	n := v.Norm()
	rotJac := mat.NewDense(3, 4, nil)
	quatmath.RotateJacobianQ(s.Q, v, rotJac)

	// ahp = [t; R(q)*v; rhoPrior*|v|]
	jFrame.Zero()
	jFrame.Set(0, 0, 1)
	jFrame.Set(1, 1, 1)
	jFrame.Set(2, 2, 1)
	copyBlock(jFrame, rotJac, 3, 3)

	jV.Zero()
	copyBlock(jV, quatmath.RotationMatrix(s.Q), 3, 0)
	scaled := v.Mul(rhoPrior / n)
	jV.Set(6, 0, scaled.X)
	jV.Set(6, 1, scaled.Y)
	jV.Set(6, 2, scaled.Z)

	jRho.Zero()
	jRho.Set(6, 0, n)

	return out, nil
}

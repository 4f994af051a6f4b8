package landmark

import "github.com/pkg/errors"

// Sentinel errors returned by the transform core. Callers match them with
// errors.Is; wrapped messages carry the offending values.
var (
	// ErrInvalidState means a precondition on the landmark or observation
	// state was violated, e.g. a negative inverse depth or a zero direction
	// where one is required.
	ErrInvalidState = errors.New("invalid landmark state")

	// ErrDegenerateGeometry means the inputs are geometrically valid in
	// isolation but place the computation at an ill-conditioned point, e.g.
	// a landmark at the sensor origin during projection.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrShapeMismatch means a caller-provided Jacobian buffer does not have
	// the fixed shape the requested operation writes.
	ErrShapeMismatch = errors.New("jacobian shape mismatch")
)

func newShapeMismatchError(name string, wantRows, wantCols, gotRows, gotCols int) error {
	return errors.Wrapf(ErrShapeMismatch, "%s must be %dx%d, got %dx%d", name, wantRows, wantCols, gotRows, gotCols)
}

func newNegativeRhoError(rho float64) error {
	return errors.Wrapf(ErrInvalidState, "inverse depth must be non-negative, got %f", rho)
}

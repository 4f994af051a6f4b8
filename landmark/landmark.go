package landmark

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Tag identifies a landmark parametrization variant. The set is closed:
// map-layer code dispatches on the tag rather than downcasting.
type Tag uint8

// The supported parametrization variants.
const (
	TagAHP Tag = iota + 1
	TagEuclidean
)

func (t Tag) String() string {
	switch t {
	case TagAHP:
		return "ahp"
	case TagEuclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// Parametrization is the capability surface common to all landmark
// parametrizations: how many scalars of the joint state vector the landmark
// occupies, and how to read it as a metric point.
type Parametrization interface {
	Tag() Tag
	Size() int
	ToEuclidean() (r3.Vector, error)
}

// AHPLandmark binds the AHP transform core to a slice of the map-owned
// joint state vector, exposing the transforms as instance methods on the
// viewed state. It holds only the view; promotion, demotion, and disposal
// policy live in the map layer.
type AHPLandmark struct {
	view   StateView
	logger golog.Logger
}

// NewAHPLandmark wraps a 7-scalar state view. A nil logger falls back to
// the global logger.
func NewAHPLandmark(view StateView, logger golog.Logger) (*AHPLandmark, error) {
	if view.Len() != AHPSize {
		return nil, errors.Wrapf(ErrShapeMismatch, "AHP landmark needs a %d-scalar state view, got %d", AHPSize, view.Len())
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &AHPLandmark{view: view, logger: logger}, nil
}

// Tag returns TagAHP.
func (l *AHPLandmark) Tag() Tag { return TagAHP }

// Size returns the number of scalars this landmark occupies in the joint
// state vector.
func (l *AHPLandmark) Size() int { return AHPSize }

// State reads the current AHP value out of the shared state vector,
// validating the representation invariant.
func (l *AHPLandmark) State() (AHP, error) {
	return AHPFromSlice(l.view.Raw())
}

// SetState validates a and writes it through the view into the shared
// state vector.
func (l *AHPLandmark) SetState(a AHP) error {
	if err := a.Validate(); err != nil {
		return err
	}
	copy(l.view.Raw(), a.ToSlice())
	return nil
}

// InitFromObservation initializes the landmark state from a first
// bearing-only observation: sensor frame s, observed director vector v,
// and inverse-depth prior rhoPrior (0 for a point at infinity).
func (l *AHPLandmark) InitFromObservation(s Frame, v r3.Vector, rhoPrior float64) error {
	a, err := FromBearingOnlyFrame(s, v, rhoPrior)
	if err != nil {
		return err
	}
	if err := l.SetState(a); err != nil {
		return err
	}
	l.logger.Debugw("initialized AHP landmark", "offset", l.view.Offset(), "rho", a.Rho)
	return nil
}

// FromFrame treats the viewed state as expressed in frame f and returns it
// in the global frame.
func (l *AHPLandmark) FromFrame(f Frame) (AHP, error) {
	a, err := l.State()
	if err != nil {
		return AHP{}, err
	}
	return FromFrame(f, a)
}

// FromFrameWithJacobians is FromFrame also filling jFrame (7x7) and
// jAHP (7x7).
func (l *AHPLandmark) FromFrameWithJacobians(f Frame, jFrame, jAHP *mat.Dense) (AHP, error) {
	a, err := l.State()
	if err != nil {
		return AHP{}, err
	}
	return FromFrameWithJacobians(f, a, jFrame, jAHP)
}

// ToFrame treats the viewed state as global and returns it expressed in
// frame f.
func (l *AHPLandmark) ToFrame(f Frame) (AHP, error) {
	a, err := l.State()
	if err != nil {
		return AHP{}, err
	}
	return ToFrame(f, a)
}

// ToFrameWithJacobians is ToFrame also filling jFrame (7x7) and jAHP (7x7).
func (l *AHPLandmark) ToFrameWithJacobians(f Frame, jFrame, jAHP *mat.Dense) (AHP, error) {
	a, err := l.State()
	if err != nil {
		return AHP{}, err
	}
	return ToFrameWithJacobians(f, a, jFrame, jAHP)
}

// ToEuclidean reparametrizes the viewed state to a metric point; the map
// calls this when rho uncertainty is small enough to promote the landmark
// to a Euclidean parametrization.
func (l *AHPLandmark) ToEuclidean() (r3.Vector, error) {
	a, err := l.State()
	if err != nil {
		return r3.Vector{}, err
	}
	return ToEuclidean(a)
}

// ToEuclideanWithJacobian is ToEuclidean also filling the 3x7 jAHP block.
func (l *AHPLandmark) ToEuclideanWithJacobian(jAHP *mat.Dense) (r3.Vector, error) {
	a, err := l.State()
	if err != nil {
		return r3.Vector{}, err
	}
	return ToEuclideanWithJacobian(a, jAHP)
}

// ToBearingOnlyFrame projects the viewed state into sensor frame s as a
// direction.
func (l *AHPLandmark) ToBearingOnlyFrame(s Frame) (r3.Vector, error) {
	a, err := l.State()
	if err != nil {
		return r3.Vector{}, err
	}
	return ToBearingOnlyFrame(s, a)
}

// ToBearingOnlyFrameInvDist projects the viewed state into sensor frame s,
// recovering also the inverse sensor-to-landmark distance.
func (l *AHPLandmark) ToBearingOnlyFrameInvDist(s Frame) (r3.Vector, float64, error) {
	a, err := l.State()
	if err != nil {
		return r3.Vector{}, 0, err
	}
	return ToBearingOnlyFrameInvDist(s, a)
}

// ToBearingOnlyFrameWithJacobians is ToBearingOnlyFrameInvDist also filling
// jFrame (3x7) and jAHP (3x7).
func (l *AHPLandmark) ToBearingOnlyFrameWithJacobians(s Frame, jFrame, jAHP *mat.Dense) (r3.Vector, float64, error) {
	a, err := l.State()
	if err != nil {
		return r3.Vector{}, 0, err
	}
	return ToBearingOnlyFrameWithJacobians(s, a, jFrame, jAHP)
}

// EuclideanSize is the number of scalars a Euclidean landmark occupies in
// the joint state vector.
const EuclideanSize = 3

// EuclideanLandmark is the plain 3-vector member of the closed
// parametrization set, the promotion target for an AHP landmark whose
// inverse depth has converged.
type EuclideanLandmark struct {
	view StateView
}

// NewEuclideanLandmark wraps a 3-scalar state view.
func NewEuclideanLandmark(view StateView) (*EuclideanLandmark, error) {
	if view.Len() != EuclideanSize {
		return nil, errors.Wrapf(ErrShapeMismatch, "Euclidean landmark needs a %d-scalar state view, got %d", EuclideanSize, view.Len())
	}
	return &EuclideanLandmark{view: view}, nil
}

// Tag returns TagEuclidean.
func (l *EuclideanLandmark) Tag() Tag { return TagEuclidean }

// Size returns the number of scalars this landmark occupies in the joint
// state vector.
func (l *EuclideanLandmark) Size() int { return EuclideanSize }

// ToEuclidean returns the viewed point; the parametrization is already
// metric.
func (l *EuclideanLandmark) ToEuclidean() (r3.Vector, error) {
	return l.Point(), nil
}

// Point reads the current point out of the shared state vector.
func (l *EuclideanLandmark) Point() r3.Vector {
	x := l.view.Raw()
	return r3.Vector{X: x[0], Y: x[1], Z: x[2]}
}

// SetPoint writes p through the view into the shared state vector.
func (l *EuclideanLandmark) SetPoint(p r3.Vector) {
	x := l.view.Raw()
	x[0], x[1], x[2] = p.X, p.Y, p.Z
}

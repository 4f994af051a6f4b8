package landmark

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestStateView(t *testing.T) {
	joint := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	view, err := NewStateView(joint, 2, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, view.Len(), test.ShouldEqual, 3)
	test.That(t, view.Offset(), test.ShouldEqual, 2)
	test.That(t, view.Raw(), test.ShouldResemble, []float64{2, 3, 4})

	// writes through the view land in the owner's storage
	view.Raw()[0] = 42
	test.That(t, joint[2], test.ShouldEqual, 42.0)

	_, err = NewStateView(joint, 8, 7)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
	_, err = NewStateView(joint, -1, 3)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}

func TestAHPLandmarkWrapsJointState(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// a joint state vector with a robot pose followed by one AHP landmark
	joint := make([]float64, FrameSize+AHPSize)
	copy(joint, NewIdentityFrame().ToSlice())

	view, err := NewStateView(joint, FrameSize, AHPSize)
	test.That(t, err, test.ShouldBeNil)
	lm, err := NewAHPLandmark(view, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lm.Size(), test.ShouldEqual, AHPSize)
	test.That(t, lm.Tag(), test.ShouldEqual, TagAHP)

	a := AHP{P0: r3.Vector{Z: 1}, M: r3.Vector{Z: 1}, Rho: 0.5}
	test.That(t, lm.SetState(a), test.ShouldBeNil)
	// the write went through the view into the joint vector
	test.That(t, joint[FrameSize+2], test.ShouldEqual, 1.0)
	test.That(t, joint[FrameSize+6], test.ShouldEqual, 0.5)

	got, err := lm.State()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, a)

	// a filter update mutating the joint vector is visible immediately
	joint[FrameSize+6] = 0.25
	p, err := lm.ToEuclidean()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Z, test.ShouldAlmostEqual, 5)

	_, err = NewAHPLandmark(StateView{}, logger)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}

func TestAHPLandmarkTransforms(t *testing.T) {
	logger := golog.NewTestLogger(t)
	joint := make([]float64, AHPSize)
	view, err := NewStateView(joint, 0, AHPSize)
	test.That(t, err, test.ShouldBeNil)
	lm, err := NewAHPLandmark(view, logger)
	test.That(t, err, test.ShouldBeNil)

	a := AHP{M: r3.Vector{Z: 1}, Rho: 0.5}
	test.That(t, lm.SetState(a), test.ShouldBeNil)

	f := NewIdentityFrame()
	global, err := lm.FromFrame(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, global.AlmostEqual(a, 1e-12), test.ShouldBeTrue)

	local, err := lm.ToFrame(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, local.AlmostEqual(a, 1e-12), test.ShouldBeTrue)

	v, invDist, err := lm.ToBearingOnlyFrameInvDist(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.Z, test.ShouldAlmostEqual, 1)
	test.That(t, invDist, test.ShouldAlmostEqual, 0.5)

	// instance Jacobian variants agree with package-level ones
	jFrame := mat.NewDense(AHPSize, FrameSize, nil)
	jAHP := mat.NewDense(AHPSize, AHPSize, nil)
	_, err = lm.FromFrameWithJacobians(f, jFrame, jAHP)
	test.That(t, err, test.ShouldBeNil)
	wantFrame := mat.NewDense(AHPSize, FrameSize, nil)
	wantAHP := mat.NewDense(AHPSize, AHPSize, nil)
	_, err = FromFrameWithJacobians(f, a, wantFrame, wantAHP)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(jFrame, wantFrame), test.ShouldBeTrue)
	test.That(t, mat.Equal(jAHP, wantAHP), test.ShouldBeTrue)

	jEuc := mat.NewDense(3, AHPSize, nil)
	p, err := lm.ToEuclideanWithJacobian(jEuc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Z, test.ShouldAlmostEqual, 2)

	jBFrame := mat.NewDense(3, FrameSize, nil)
	jBAHP := mat.NewDense(3, AHPSize, nil)
	_, _, err = lm.ToBearingOnlyFrameWithJacobians(f, jBFrame, jBAHP)
	test.That(t, err, test.ShouldBeNil)

	jTFrame := mat.NewDense(AHPSize, FrameSize, nil)
	jTAHP := mat.NewDense(AHPSize, AHPSize, nil)
	_, err = lm.ToFrameWithJacobians(f, jTFrame, jTAHP)
	test.That(t, err, test.ShouldBeNil)
}

func TestInitFromObservation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	joint := make([]float64, AHPSize)
	view, err := NewStateView(joint, 0, AHPSize)
	test.That(t, err, test.ShouldBeNil)
	lm, err := NewAHPLandmark(view, logger)
	test.That(t, err, test.ShouldBeNil)

	s := Frame{T: r3.Vector{X: 1, Y: 2, Z: 3}, Q: NewIdentityFrame().Q}
	v := r3.Vector{Z: 2}
	test.That(t, lm.InitFromObservation(s, v, 0.1), test.ShouldBeNil)

	a, err := lm.State()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.P0, test.ShouldResemble, s.T)
	test.That(t, a.M, test.ShouldResemble, v)
	test.That(t, a.Rho, test.ShouldAlmostEqual, 0.2)

	// zero observed direction rejected, state untouched
	err = lm.InitFromObservation(s, r3.Vector{}, 0.1)
	test.That(t, errors.Is(err, ErrInvalidState), test.ShouldBeTrue)
	after, err := lm.State()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, after, test.ShouldResemble, a)
}

func TestParametrizationSet(t *testing.T) {
	logger := golog.NewTestLogger(t)
	joint := make([]float64, AHPSize+EuclideanSize)

	ahpView, err := NewStateView(joint, 0, AHPSize)
	test.That(t, err, test.ShouldBeNil)
	ahpLm, err := NewAHPLandmark(ahpView, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ahpLm.SetState(AHP{P0: r3.Vector{X: 1}, M: r3.Vector{Z: 2}, Rho: 0.5}), test.ShouldBeNil)

	eucView, err := NewStateView(joint, AHPSize, EuclideanSize)
	test.That(t, err, test.ShouldBeNil)
	eucLm, err := NewEuclideanLandmark(eucView)
	test.That(t, err, test.ShouldBeNil)

	// promote: reparametrize the AHP landmark into the Euclidean slot
	p, err := ahpLm.ToEuclidean()
	test.That(t, err, test.ShouldBeNil)
	eucLm.SetPoint(p)

	// dispatch over the closed variant set
	landmarks := []Parametrization{ahpLm, eucLm}
	total := 0
	for _, lm := range landmarks {
		total += lm.Size()
		got, err := lm.ToEuclidean()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.X, test.ShouldAlmostEqual, 1)
		test.That(t, got.Z, test.ShouldAlmostEqual, 4)
		switch lm.Tag() {
		case TagAHP:
			test.That(t, lm.Size(), test.ShouldEqual, 7)
		case TagEuclidean:
			test.That(t, lm.Size(), test.ShouldEqual, 3)
		}
	}
	test.That(t, total, test.ShouldEqual, AHPSize+EuclideanSize)

	test.That(t, TagAHP.String(), test.ShouldEqual, "ahp")
	test.That(t, TagEuclidean.String(), test.ShouldEqual, "euclidean")
	test.That(t, Tag(99).String(), test.ShouldEqual, "unknown")

	_, err = NewEuclideanLandmark(ahpView)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}

package landmark

import "github.com/pkg/errors"

// StateView is an offset-and-length handle into a contiguous joint state
// vector owned by the map/filter layer. It never copies: reads and writes
// go straight to the shared storage, so the landmark state a filter update
// mutates is the state a subsequent transform sees. The owner is
// responsible for any locking needed around concurrent access and for
// keeping the backing slice alive for the landmark's residency in the map.
type StateView struct {
	x      []float64
	offset int
	length int
}

// NewStateView builds a view over x[offset:offset+length]. The bounds must
// fall inside x.
func NewStateView(x []float64, offset, length int) (StateView, error) {
	if offset < 0 || length < 0 || offset+length > len(x) {
		return StateView{}, errors.Wrapf(ErrShapeMismatch,
			"state view [%d:%d) out of bounds for state vector of length %d", offset, offset+length, len(x))
	}
	return StateView{x: x, offset: offset, length: length}, nil
}

// Len returns the number of scalars the view spans.
func (v StateView) Len() int { return v.length }

// Offset returns the view's start index in the joint state vector, for the
// map's covariance-block bookkeeping.
func (v StateView) Offset() int { return v.offset }

// Raw returns the viewed slice, aliasing the owner's storage. The capacity
// is clipped so appends cannot clobber neighboring state.
func (v StateView) Raw() []float64 {
	return v.x[v.offset : v.offset+v.length : v.offset+v.length]
}

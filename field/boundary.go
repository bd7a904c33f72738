package field

import (
	"fmt"
	"strings"
)

// BCType is the kind of boundary condition applied on one side of a Field.
type BCType int

const (
	None BCType = iota
	Dirichlet
	Neumann
	Outflow
	Periodic
	// Extrapolate fills guard values by linear extrapolation from the
	// interior. Level-set fields use it.
	Extrapolate
	EndBCType
)

var bcNames = map[BCType]string{
	None:        "none",
	Dirichlet:   "dirichlet",
	Neumann:     "neumann",
	Outflow:     "outflow",
	Periodic:    "periodic",
	Extrapolate: "extrapolate",
}

func (t BCType) String() string {
	if name, ok := bcNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BCType(%d)", int(t))
}

// ParseBCType converts a case-insensitive name into a BCType. "projection"
// is accepted as an alias of "extrapolate".
func ParseBCType(name string) (BCType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "projection" {
		return Extrapolate, nil
	}
	for t, s := range bcNames {
		if s == name {
			return t, nil
		}
	}
	return None, fmt.Errorf("%w: '%s'", ErrUnknownBC, name)
}

// Side is one of the four domain edges.
type Side int

const (
	XLow Side = iota
	XHigh
	YLow
	YHigh
	NumSides
)

var sideNames = [NumSides]string{"XLow", "XHigh", "YLow", "YHigh"}

func (s Side) String() string { return sideNames[s] }

// Axis returns 0 for the x sides and 1 for the y sides.
func (s Side) Axis() int { return int(s) / 2 }

// Opposite returns the side across the domain.
func (s Side) Opposite() Side { return s ^ 1 }

// High returns true for XHigh and YHigh.
func (s Side) High() bool { return s%2 == 1 }

// Boundary is the condition on one side of a Field. The Type is fixed when
// the Field is registered. Value and Profile may change between steps.
type Boundary struct {
	Type  BCType
	Value float64
	// Profile, if non-nil, overrides Value pointwise. It is indexed along
	// the side, by j for the x sides and by i for the y sides.
	Profile []float64
}

// At returns the boundary value at position k along the side.
func (b *Boundary) At(k int) float64 {
	if b.Profile != nil {
		return b.Profile[k]
	}
	return b.Value
}

// BoundarySet holds the four side conditions of a Field in the order
// [XLow, XHigh, YLow, YHigh].
type BoundarySet [NumSides]Boundary

// Uniform returns a BoundarySet with the same type and value on every side.
func Uniform(t BCType, val float64) BoundarySet {
	bs := BoundarySet{}
	for i := range bs {
		bs[i] = Boundary{Type: t, Value: val}
	}
	return bs
}

// Types returns a BoundarySet with the given types and zero values.
func Types(xlo, xhi, ylo, yhi BCType) BoundarySet {
	return BoundarySet{{Type: xlo}, {Type: xhi}, {Type: ylo}, {Type: yhi}}
}

// Has returns true if any side has the given type.
func (bs *BoundarySet) Has(t BCType) bool {
	for i := range bs {
		if bs[i].Type == t {
			return true
		}
	}
	return false
}

// PeriodicX returns true if the x axis wraps around.
func (bs *BoundarySet) PeriodicX() bool { return bs[XLow].Type == Periodic }

// PeriodicY returns true if the y axis wraps around.
func (bs *BoundarySet) PeriodicY() bool { return bs[YLow].Type == Periodic }

// Check returns an error if periodic sides are not paired.
func (bs *BoundarySet) Check() error {
	for _, s := range []Side{XLow, YLow} {
		lo, hi := bs[s].Type == Periodic, bs[s.Opposite()].Type == Periodic
		if lo != hi {
			return fmt.Errorf(
				"%w: %s is periodic but %s is not",
				ErrUnpairedPeriodic, sideName(lo, s), sideName(lo, s.Opposite()),
			)
		}
	}
	return nil
}

func sideName(first bool, s Side) Side {
	if first {
		return s
	}
	return s.Opposite()
}

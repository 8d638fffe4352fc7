package propagation

import (
	"errors"
	"fmt"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

var (
	ErrMissingSignal   = errors.New("unit input has no signal")
	ErrUnknownUnitType = errors.New("unknown unit type")
)

// Combine computes the output of a unit of type t fed by a and b.
func Combine(t model.UnitType, a, b model.UnitOutput) model.UnitOutput {
	out, _ := combine(t, a, b)
	return out
}

// combine returns a non-nil error only for conditions that indicate an
// inconsistent wiring; the returned output is usable either way.
func combine(t model.UnitType, a, b model.UnitOutput) (model.UnitOutput, error) {
	if !a.HasSignal || !b.HasSignal {
		return model.NoSignal(), ErrMissingSignal
	}
	if !a.Valid || !b.Valid {
		return model.InvalidOutput(), nil
	}

	var poly model.Polynomial
	switch t {
	case model.Adder:
		poly = make(model.Polynomial, 0, len(a.Poly)+len(b.Poly))
		poly = append(poly, a.Poly...)
		poly = append(poly, b.Poly...)
	case model.Multiplier:
		poly = make(model.Polynomial, 0, len(a.Poly)*len(b.Poly))
		for _, p := range a.Poly {
			for _, q := range b.Poly {
				poly = append(poly, p+q)
			}
		}
	case model.Divider:
		// Only monomial divisors keep the result a polynomial.
		if len(b.Poly) != 1 {
			return model.InvalidOutput(), nil
		}
		divisor := b.Poly[0]
		poly = make(model.Polynomial, 0, len(a.Poly))
		for _, p := range a.Poly {
			poly = append(poly, p-divisor)
		}
	default:
		return model.InvalidOutput(), fmt.Errorf("%w: %d", ErrUnknownUnitType, int(t))
	}

	poly.Canonicalize()
	// Repeated exponents would need a coefficient, e.g. x^2 + x^2 = 2x^2.
	if !poly.IsValid() {
		return model.InvalidOutput(), nil
	}
	return model.ValidOutput(poly), nil
}

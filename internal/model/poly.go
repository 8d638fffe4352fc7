package model

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Polynomial is a multiset of exponents of x with implicit unit coefficients.
type Polynomial []int

// Canonicalize sorts exponents in descending order in place.
func (p Polynomial) Canonicalize() Polynomial {
	sort.Sort(sort.Reverse(sort.IntSlice(p)))
	return p
}

// Canonical returns a sorted copy of p.
func (p Polynomial) Canonical() Polynomial {
	return append(Polynomial(nil), p...).Canonicalize()
}

// IsValid reports whether a canonical polynomial has strictly descending,
// strictly positive exponents.
func (p Polynomial) IsValid() bool {
	if len(p) == 0 {
		return false
	}
	for i := 1; i < len(p); i++ {
		if p[i-1] <= p[i] {
			return false
		}
	}
	return p[len(p)-1] > 0
}

func (p Polynomial) Equal(other Polynomial) bool {
	return slices.Equal(p, other)
}

func (p Polynomial) Contains(exponent int) bool {
	return slices.Contains(p, exponent)
}

// String renders p as a sum of powers, e.g. "x^7 + x^3".
func (p Polynomial) String() string {
	if len(p) == 0 {
		return "0"
	}
	terms := make([]string, len(p))
	for i, e := range p {
		if e == 1 {
			terms[i] = "x"
			continue
		}
		terms[i] = "x^" + strconv.Itoa(e)
	}
	return strings.Join(terms, " + ")
}

// X is the polynomial emitted by the sentinel.
func X() Polynomial {
	return Polynomial{1}
}

// UnitOutput is the tri-state signal at a unit output.
type UnitOutput struct {
	// HasSignal is true once both inputs carry a signal.
	HasSignal bool
	// Valid is false for signals the model cannot represent, e.g. 2x^2.
	Valid bool
	Poly  Polynomial
}

func NoSignal() UnitOutput {
	return UnitOutput{}
}

func InvalidOutput() UnitOutput {
	return UnitOutput{HasSignal: true}
}

func ValidOutput(p Polynomial) UnitOutput {
	return UnitOutput{HasSignal: true, Valid: true, Poly: p}
}

// IsValid reports a present and valid signal.
func (o UnitOutput) IsValid() bool {
	return o.HasSignal && o.Valid
}

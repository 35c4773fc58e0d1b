package polynomial

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Point is an (x, y) pair for interpolation.
type Point struct {
	X field.Element
	Y field.Element
}

// Zerofier returns the monic polynomial that vanishes exactly on the given
// points: prod_i (x - xs[i]).
func Zerofier(xs []field.Element) Polynomial {
	// build up coefficient-by-coefficient instead of repeated Mul calls;
	// the accumulator stays one longer than the number of roots consumed
	acc := make([]field.Element, 1, len(xs)+1)
	acc[0] = field.One
	for _, x := range xs {
		acc = append(acc, field.Zero)
		for k := len(acc) - 1; k >= 1; k-- {
			acc[k] = acc[k-1].Sub(acc[k].Mul(x))
		}
		acc[0] = acc[0].Mul(x.Neg())
	}
	return New(acc)
}

// Interpolate returns the unique polynomial of degree < len(points)
// passing through every supplied point. It fails with ErrInterpolation
// when the point set is empty or two points share an x-coordinate.
//
// The construction is classical Lagrange interpolation in O(n^2): the
// zerofier of all x-coordinates is computed once, each basis numerator is
// recovered by dividing out one linear factor, and the bases are summed
// with weights y_i / basis_i(x_i).
func Interpolate(points []Point) (Polynomial, error) {
	if len(points) == 0 {
		return Zero(), fmt.Errorf("%w: empty point set", ErrInterpolation)
	}

	xs := make([]field.Element, len(points))
	seen := make(map[uint64]struct{}, len(points))
	for i, pt := range points {
		if _, dup := seen[pt.X.Uint64()]; dup {
			return Zero(), fmt.Errorf("%w: duplicate x-coordinate %v", ErrInterpolation, pt.X)
		}
		seen[pt.X.Uint64()] = struct{}{}
		xs[i] = pt.X
	}

	zerofier := Zerofier(xs).Coefficients()

	result := Zero()
	for _, pt := range points {
		numerator := divideOutLinear(zerofier, pt.X)
		basis := New(numerator)

		denominator := basis.Evaluate(pt.X)
		invDenominator, err := denominator.Inverse()
		if err != nil {
			// distinct x-coordinates guarantee a nonzero denominator
			panic("polynomial: vanishing Lagrange denominator")
		}

		result = result.Add(basis.ScalarMul(pt.Y.Mul(invDenominator)))
	}
	return result, nil
}

// divideOutLinear returns z / (x - root) for a polynomial z known to have
// root as a zero, by synthetic division. The input slice is not modified.
func divideOutLinear(z []field.Element, root field.Element) []field.Element {
	if len(z) < 2 {
		return nil
	}
	quotient := make([]field.Element, len(z)-1)
	quotient[len(quotient)-1] = z[len(z)-1]
	for k := len(quotient) - 2; k >= 0; k-- {
		quotient[k] = z[k+1].Add(root.Mul(quotient[k+1]))
	}
	return quotient
}

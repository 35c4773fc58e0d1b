// Package polynomial implements dense univariate polynomials over the
// Vybium base field.
//
// Polynomials are stored as coefficient vectors in canonical form: the
// coefficient of x^i lives at index i and the highest-index coefficient is
// nonzero. The zero polynomial is the empty vector and reports degree -1.
// Polynomials are immutable values; operations return new polynomials.
package polynomial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/internal/vybium-crypto/mathutil"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/ntt"
)

var (
	// ErrDivisionByZeroPolynomial is returned when dividing by the zero
	// polynomial.
	ErrDivisionByZeroPolynomial = errors.New("polynomial: division by zero polynomial")

	// ErrInterpolation is returned for duplicate x-coordinates or an
	// empty point set.
	ErrInterpolation = errors.New("polynomial: interpolation not possible")

	// ErrDomainTooSmall is returned when evaluating over a domain with
	// fewer points than the polynomial has coefficients.
	ErrDomainTooSmall = errors.New("polynomial: domain smaller than coefficient count")
)

// nttThreshold is the combined operand length at and above which Mul
// switches from schoolbook convolution to the NTT path. Below roughly 128
// coefficients the O(n^2) convolution wins on constant factors.
const nttThreshold = 128

// Polynomial is a dense polynomial over the base field.
type Polynomial struct {
	coefficients []field.Element
}

// New builds a polynomial from the coefficient of x^0 upward. The slice is
// copied and trailing zero coefficients are stripped.
func New(coefficients []field.Element) Polynomial {
	end := len(coefficients)
	for end > 0 && coefficients[end-1].IsZero() {
		end--
	}
	trimmed := make([]field.Element, end)
	copy(trimmed, coefficients[:end])
	return Polynomial{coefficients: trimmed}
}

// NewFromUint64 builds a polynomial from uint64 coefficients, each reduced
// modulo the field prime.
func NewFromUint64(coefficients []uint64) Polynomial {
	elems := make([]field.Element, len(coefficients))
	for i, c := range coefficients {
		elems[i] = field.New(c)
	}
	return New(elems)
}

// Zero returns the zero polynomial.
func Zero() Polynomial {
	return Polynomial{}
}

// Constant returns the degree-zero polynomial with the given value.
func Constant(c field.Element) Polynomial {
	return New([]field.Element{c})
}

// X returns the monomial x.
func X() Polynomial {
	return New([]field.Element{field.Zero, field.One})
}

// Degree returns the highest index with a nonzero coefficient, or -1 for
// the zero polynomial.
func (p Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// IsZero reports whether p is the zero polynomial.
func (p Polynomial) IsZero() bool {
	return len(p.coefficients) == 0
}

// Coefficient returns the coefficient of x^degree; indices outside the
// stored range are zero.
func (p Polynomial) Coefficient(degree int) field.Element {
	if degree < 0 || degree >= len(p.coefficients) {
		return field.Zero
	}
	return p.coefficients[degree]
}

// Coefficients returns a copy of the canonical coefficient vector.
func (p Polynomial) Coefficients() []field.Element {
	out := make([]field.Element, len(p.coefficients))
	copy(out, p.coefficients)
	return out
}

// LeadingCoefficient returns the coefficient of the highest-degree term,
// or zero for the zero polynomial.
func (p Polynomial) LeadingCoefficient() field.Element {
	if p.IsZero() {
		return field.Zero
	}
	return p.coefficients[len(p.coefficients)-1]
}

// Equal reports whether p and other have identical canonical coefficients.
func (p Polynomial) Equal(other Polynomial) bool {
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := range p.coefficients {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Add returns p + other.
func (p Polynomial) Add(other Polynomial) Polynomial {
	longest := len(p.coefficients)
	if len(other.coefficients) > longest {
		longest = len(other.coefficients)
	}
	sum := make([]field.Element, longest)
	for i := range sum {
		sum[i] = p.Coefficient(i).Add(other.Coefficient(i))
	}
	return New(sum)
}

// Sub returns p - other.
func (p Polynomial) Sub(other Polynomial) Polynomial {
	longest := len(p.coefficients)
	if len(other.coefficients) > longest {
		longest = len(other.coefficients)
	}
	diff := make([]field.Element, longest)
	for i := range diff {
		diff[i] = p.Coefficient(i).Sub(other.Coefficient(i))
	}
	return New(diff)
}

// Neg returns -p.
func (p Polynomial) Neg() Polynomial {
	neg := make([]field.Element, len(p.coefficients))
	for i, c := range p.coefficients {
		neg[i] = c.Neg()
	}
	return Polynomial{coefficients: neg}
}

// ScalarMul returns p scaled by a field element.
func (p Polynomial) ScalarMul(scalar field.Element) Polynomial {
	scaled := make([]field.Element, len(p.coefficients))
	for i, c := range p.coefficients {
		scaled[i] = c.Mul(scalar)
	}
	return New(scaled)
}

// Mul returns p * other. Small products use schoolbook convolution; once
// the operands together hold nttThreshold coefficients or more the product
// is computed through the NTT in O(n log n). Both paths produce identical
// results.
func (p Polynomial) Mul(other Polynomial) Polynomial {
	if p.IsZero() || other.IsZero() {
		return Zero()
	}
	if len(p.coefficients)+len(other.coefficients) < nttThreshold {
		return p.mulSchoolbook(other)
	}
	return p.mulNTT(other)
}

func (p Polynomial) mulSchoolbook(other Polynomial) Polynomial {
	product := make([]field.Element, p.Degree()+other.Degree()+1)
	for i, a := range p.coefficients {
		if a.IsZero() {
			continue
		}
		for j, b := range other.coefficients {
			product[i+j] = product[i+j].Add(a.Mul(b))
		}
	}
	return New(product)
}

// mulNTT pads both operands to the next power of two holding the product,
// transforms, multiplies pointwise and transforms back.
func (p Polynomial) mulNTT(other Polynomial) Polynomial {
	productLen := p.Degree() + other.Degree() + 1
	n := uint64(mathutil.NextPowerOfTwo(productLen))

	d, err := ntt.NewDomain(n)
	if err != nil {
		// product length below 2^32 always has a valid domain
		panic("polynomial: ntt multiplication domain: " + err.Error())
	}

	lhs := make([]field.Element, n)
	copy(lhs, p.coefficients)
	rhs := make([]field.Element, n)
	copy(rhs, other.coefficients)

	lhsEval, err := d.Forward(lhs)
	if err != nil {
		panic("polynomial: ntt multiplication: " + err.Error())
	}
	rhsEval, err := d.Forward(rhs)
	if err != nil {
		panic("polynomial: ntt multiplication: " + err.Error())
	}

	for i := range lhsEval {
		lhsEval[i] = lhsEval[i].Mul(rhsEval[i])
	}

	product, err := d.Inverse(lhsEval)
	if err != nil {
		panic("polynomial: ntt multiplication: " + err.Error())
	}
	return New(product)
}

// Divide returns the quotient and remainder of polynomial long division,
// with deg(remainder) < deg(divisor) on success. Dividing by the zero
// polynomial fails with ErrDivisionByZeroPolynomial.
func (p Polynomial) Divide(divisor Polynomial) (quotient, remainder Polynomial, err error) {
	if divisor.IsZero() {
		return Zero(), Zero(), ErrDivisionByZeroPolynomial
	}
	if p.Degree() < divisor.Degree() {
		return Zero(), p, nil
	}

	leadInv, err := divisor.LeadingCoefficient().Inverse()
	if err != nil {
		// canonical form guarantees a nonzero leading coefficient
		panic("polynomial: zero leading coefficient in canonical form")
	}

	rem := make([]field.Element, len(p.coefficients))
	copy(rem, p.coefficients)
	quot := make([]field.Element, p.Degree()-divisor.Degree()+1)

	for i := len(quot) - 1; i >= 0; i-- {
		c := rem[i+divisor.Degree()].Mul(leadInv)
		if c.IsZero() {
			continue
		}
		quot[i] = c
		for j, dc := range divisor.coefficients {
			rem[i+j] = rem[i+j].Sub(c.Mul(dc))
		}
	}

	return New(quot), New(rem[:divisor.Degree()]), nil
}

// Derivative returns the formal derivative of p.
func (p Polynomial) Derivative() Polynomial {
	if p.Degree() < 1 {
		return Zero()
	}
	deriv := make([]field.Element, p.Degree())
	for i := 1; i < len(p.coefficients); i++ {
		deriv[i-1] = p.coefficients[i].Mul(field.New(uint64(i)))
	}
	return New(deriv)
}

// Evaluate returns p(x), computed by Horner's method.
func (p Polynomial) Evaluate(x field.Element) field.Element {
	result := field.Zero
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// BatchEvaluate returns p(x) for every supplied point, in order.
func (p Polynomial) BatchEvaluate(xs []field.Element) []field.Element {
	out := make([]field.Element, len(xs))
	for i, x := range xs {
		out[i] = p.Evaluate(x)
	}
	return out
}

// EvaluateOverDomain returns p evaluated at every point of the domain in
// canonical order, i.e. the forward NTT of the padded coefficient vector.
// Fails with ErrDomainTooSmall when p has more coefficients than the
// domain has points.
func (p Polynomial) EvaluateOverDomain(d *ntt.Domain) ([]field.Element, error) {
	if uint64(len(p.coefficients)) > d.Size {
		return nil, fmt.Errorf("%w: %d coefficients, %d points", ErrDomainTooSmall, len(p.coefficients), d.Size)
	}
	padded := make([]field.Element, d.Size)
	copy(padded, p.coefficients)
	return d.Forward(padded)
}

// InterpolateOverDomain returns the unique polynomial of degree < n taking
// the given values over the domain's points, i.e. the inverse NTT.
func InterpolateOverDomain(d *ntt.Domain, values []field.Element) (Polynomial, error) {
	coeffs, err := d.Inverse(values)
	if err != nil {
		return Zero(), err
	}
	return New(coeffs), nil
}

// String renders the polynomial with the highest-degree term first.
func (p Polynomial) String() string {
	if p.IsZero() {
		return "0"
	}

	var terms []string
	for i := p.Degree(); i >= 0; i-- {
		coeff := p.coefficients[i]
		if coeff.IsZero() {
			continue
		}

		var term string
		switch {
		case i == 0:
			term = coeff.String()
		case i == 1 && coeff.IsOne():
			term = "x"
		case i == 1:
			term = coeff.String() + "x"
		case coeff.IsOne():
			term = fmt.Sprintf("x^%d", i)
		default:
			term = fmt.Sprintf("%sx^%d", coeff.String(), i)
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, " + ")
}

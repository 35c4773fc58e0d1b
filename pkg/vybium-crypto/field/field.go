// Package field implements arithmetic in the prime field GF(p) for
// p = 2^64 - 2^32 + 1, the base field of the Vybium STARKs stack.
//
// Elements are stored in canonical form, i.e. as a uint64 strictly below
// the modulus. Every operation returns a canonical element; multiplication
// uses a 128-bit intermediate and the fast reduction identity
// 2^64 ≡ 2^32 - 1 (mod p).
package field

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// Modulus is the field prime p = 2^64 - 2^32 + 1.
const Modulus uint64 = 0xFFFFFFFF00000001

// GeneratorValue is the smallest generator of the multiplicative group.
const GeneratorValue uint64 = 7

// epsilon is 2^64 mod p = 2^32 - 1, the constant behind the fast reduction.
const epsilon uint64 = 0xFFFFFFFF

var (
	// ErrDivisionByZero is returned when inverting or dividing by zero.
	ErrDivisionByZero = errors.New("field: division by zero")

	// ErrValueOutOfRange is returned by NewCanonical for values >= Modulus.
	ErrValueOutOfRange = errors.New("field: value out of range")

	// ErrNoRootOfUnity is returned when no primitive n-th root of unity
	// exists, i.e. when n does not divide p-1.
	ErrNoRootOfUnity = errors.New("field: no primitive root of unity for order")
)

// Element is an element of GF(p) in canonical form.
//
// Elements are immutable values: arithmetic methods return new elements
// and never modify the receiver. The zero value of the type is the field's
// additive identity.
type Element struct {
	value uint64
}

var (
	// Zero is the additive identity.
	Zero = Element{0}

	// One is the multiplicative identity.
	One = Element{1}

	// Generator generates the full multiplicative group of order p-1.
	Generator = Element{GeneratorValue}
)

// New returns the element congruent to v modulo p. Values at or above the
// modulus are reduced; use NewCanonical to reject them instead.
func New(v uint64) Element {
	if v >= Modulus {
		v -= Modulus
	}
	return Element{v}
}

// NewCanonical returns the element with value v, or ErrValueOutOfRange if
// v is not already in [0, p).
func NewCanonical(v uint64) (Element, error) {
	if v >= Modulus {
		return Zero, fmt.Errorf("%w: %d >= %d", ErrValueOutOfRange, v, Modulus)
	}
	return Element{v}, nil
}

// NewElementFromInt64 returns the element congruent to v modulo p,
// mapping negative values to their additive inverses.
func NewElementFromInt64(v int64) Element {
	if v >= 0 {
		return New(uint64(v))
	}
	return New(uint64(-v)).Neg()
}

// NewFromBigInt returns the element congruent to v modulo p.
func NewFromBigInt(v *big.Int) Element {
	r := new(big.Int).Mod(v, modulusBig)
	return Element{r.Uint64()}
}

var modulusBig = new(big.Int).SetUint64(Modulus)

// Uint64 returns the canonical representative in [0, p).
func (e Element) Uint64() uint64 {
	return e.value
}

// Big returns the canonical representative as a big.Int.
func (e Element) Big() *big.Int {
	return new(big.Int).SetUint64(e.value)
}

// Bytes returns the canonical representative as 8 little-endian bytes.
func (e Element) Bytes() []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], e.value)
	return b[:]
}

// FromBytes interprets 8 little-endian bytes as an integer and reduces it
// modulo p.
func FromBytes(b []byte) Element {
	return New(binary.LittleEndian.Uint64(b))
}

// String returns the decimal representation of the canonical value.
func (e Element) String() string {
	return fmt.Sprintf("%d", e.value)
}

// Add returns e + other.
func (e Element) Add(other Element) Element {
	sum, carry := bits.Add64(e.value, other.value, 0)
	if carry == 1 || sum >= Modulus {
		sum -= Modulus
	}
	return Element{sum}
}

// Sub returns e - other.
func (e Element) Sub(other Element) Element {
	diff, borrow := bits.Sub64(e.value, other.value, 0)
	if borrow == 1 {
		diff += Modulus
	}
	return Element{diff}
}

// Neg returns -e.
func (e Element) Neg() Element {
	if e.value == 0 {
		return Zero
	}
	return Element{Modulus - e.value}
}

// Mul returns e * other.
func (e Element) Mul(other Element) Element {
	hi, lo := bits.Mul64(e.value, other.value)
	return Element{reduce128(hi, lo)}
}

// Square returns e * e.
func (e Element) Square() Element {
	return e.Mul(e)
}

// Double returns e + e.
func (e Element) Double() Element {
	return e.Add(e)
}

// reduce128 reduces hi*2^64 + lo modulo p.
//
// With 2^64 ≡ 2^32 - 1 and 2^96 ≡ -1 (mod p), splitting hi into 32-bit
// halves gives hi*2^64 + lo ≡ lo - hiHi + hiLo*(2^32 - 1).
func reduce128(hi, lo uint64) uint64 {
	hiHi := hi >> 32
	hiLo := hi & epsilon

	t0, borrow := bits.Sub64(lo, hiHi, 0)
	if borrow == 1 {
		t0 -= epsilon
	}
	t1 := hiLo * epsilon
	res, carry := bits.Add64(t0, t1, 0)
	if carry == 1 {
		res += epsilon
	}
	if res >= Modulus {
		res -= Modulus
	}
	return res
}

// Inverse returns the multiplicative inverse of e, computed as e^(p-2)
// by Fermat's little theorem. This is the ground-truth inversion; the
// extended Euclidean algorithm serves as the cross-check in the test
// suite. Returns ErrDivisionByZero for the zero element.
func (e Element) Inverse() (Element, error) {
	if e.value == 0 {
		return Zero, ErrDivisionByZero
	}
	return e.ModPowU64(Modulus - 2), nil
}

// Div returns e / other, or ErrDivisionByZero when other is zero.
func (e Element) Div(other Element) (Element, error) {
	inv, err := other.Inverse()
	if err != nil {
		return Zero, err
	}
	return e.Mul(inv), nil
}

// ModPowU64 returns e raised to the given exponent.
func (e Element) ModPowU64(exponent uint64) Element {
	result := One
	base := e
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
		exponent >>= 1
	}
	return result
}

// ModPow returns e raised to an arbitrary non-negative big.Int exponent.
func (e Element) ModPow(exponent *big.Int) Element {
	if exponent.Sign() < 0 {
		panic("field: negative exponent")
	}
	result := One
	base := e
	for i := 0; i < exponent.BitLen(); i++ {
		if exponent.Bit(i) == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
	}
	return result
}

// ModPowElement returns e raised to the canonical value of the exponent
// element.
func (e Element) ModPowElement(exponent Element) Element {
	return e.ModPowU64(exponent.value)
}

// Equal reports whether two elements have the same canonical value.
func (e Element) Equal(other Element) bool {
	return e.value == other.value
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.value == 0
}

// IsOne reports whether e is the multiplicative identity.
func (e Element) IsOne() bool {
	return e.value == 1
}

// Random returns a uniformly random field element, drawn from crypto/rand
// by rejection sampling.
func Random() (Element, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return Zero, fmt.Errorf("field: sampling randomness: %w", err)
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v < Modulus {
			return Element{v}, nil
		}
	}
}

// RandomNonZero returns a uniformly random element of the multiplicative
// group, i.e. a random element that is guaranteed not to be zero. Useful
// for generator searches and random linear combinations.
func RandomNonZero() (Element, error) {
	for {
		e, err := Random()
		if err != nil {
			return Zero, err
		}
		if !e.IsZero() {
			return e, nil
		}
	}
}

// PrimitiveRootOfUnity returns an element of exact multiplicative order n.
// Such an element exists if and only if n divides p-1; otherwise
// ErrNoRootOfUnity is returned. The result is deterministic: it is always
// Generator^((p-1)/n).
func PrimitiveRootOfUnity(n uint64) (Element, error) {
	if n == 0 || (Modulus-1)%n != 0 {
		return Zero, fmt.Errorf("%w: %d", ErrNoRootOfUnity, n)
	}
	return Generator.ModPowU64((Modulus - 1) / n), nil
}

package hash

import (
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Fixed public parameters of the Rescue-Prime instantiation over the
// Vybium base field. These are security parameters of the scheme, not
// runtime configuration; changing any of them produces digests that are
// incompatible with every other deployment.
const (
	// StateWidth is the permutation width m in field elements.
	StateWidth = 16

	// Capacity is the number of state elements never exposed to input
	// or output.
	Capacity = 6

	// Rate is the number of state elements absorbed or squeezed per
	// permutation call.
	Rate = StateWidth - Capacity

	// DigestLength is the digest size in field elements.
	DigestLength = 5

	// NumRounds is the fixed round count of the published instance.
	NumRounds = 8

	// Alpha is the forward S-box exponent; the inverse S-box exponent
	// is derived as Alpha^-1 mod p-1.
	Alpha = 7

	// securityLevel enters the round-constant derivation seed.
	securityLevel = 160
)

// params holds the derived permutation parameters: the inverse S-box
// exponent, the 2*m*N round constants and the m-by-m MDS matrix.
type params struct {
	alphaInv       uint64
	roundConstants []field.Element // 2 * StateWidth * NumRounds entries
	mds            [][]field.Element
}

var (
	schemeParams *params
	paramsOnce   sync.Once
)

// parameters derives the scheme constants on first use. Derivation is
// deterministic, so every process computes identical tables.
func parameters() *params {
	paramsOnce.Do(func() {
		schemeParams = &params{
			alphaInv:       deriveAlphaInv(),
			roundConstants: deriveRoundConstants(),
			mds:            deriveMDSMatrix(),
		}
	})
	return schemeParams
}

// deriveAlphaInv computes Alpha^-1 mod p-1, the exponent of the inverse
// S-box x -> x^(1/Alpha).
func deriveAlphaInv() uint64 {
	order := new(big.Int).SetUint64(field.Modulus - 1)
	inv := new(big.Int).ModInverse(big.NewInt(Alpha), order)
	if inv == nil {
		// gcd(Alpha, p-1) = 1 for the published parameters
		panic("hash: S-box exponent is not invertible mod p-1")
	}
	return inv.Uint64()
}

// deriveRoundConstants expands the scheme's seed string through SHAKE256
// into the 2*m*N round constants, following the published Rescue-Prime
// derivation: each constant is read as a little-endian integer of
// ceil(64/8)+1 = 9 bytes and reduced modulo p.
func deriveRoundConstants() []field.Element {
	const bytesPerConstant = 9
	numConstants := 2 * StateWidth * NumRounds

	seed := fmt.Sprintf("Rescue-XLIX(%d,%d,%d,%d)", field.Modulus, StateWidth, Capacity, securityLevel)
	shake := sha3.NewShake256()
	shake.Write([]byte(seed))

	buf := make([]byte, bytesPerConstant*numConstants)
	if _, err := shake.Read(buf); err != nil {
		panic("hash: SHAKE256 read: " + err.Error())
	}

	modulus := new(big.Int).SetUint64(field.Modulus)
	constants := make([]field.Element, numConstants)
	acc := new(big.Int)
	for i := range constants {
		chunk := buf[i*bytesPerConstant : (i+1)*bytesPerConstant]
		// little-endian: reverse into big.Int byte order
		reversed := make([]byte, bytesPerConstant)
		for k, b := range chunk {
			reversed[bytesPerConstant-1-k] = b
		}
		acc.SetBytes(reversed)
		acc.Mod(acc, modulus)
		constants[i] = field.New(acc.Uint64())
	}
	return constants
}

// deriveMDSMatrix builds the MDS matrix from the published construction:
// take the m-by-2m Vandermonde matrix V[i][j] = g^(i*j) over the field
// generator g, reduce it to row echelon form [I | R], and return R
// transposed.
func deriveMDSMatrix() [][]field.Element {
	const rows = StateWidth
	const cols = 2 * StateWidth

	v := make([][]field.Element, rows)
	for i := range v {
		v[i] = make([]field.Element, cols)
		base := field.Generator.ModPowU64(uint64(i))
		entry := field.One
		for j := range v[i] {
			v[i][j] = entry
			entry = entry.Mul(base)
		}
	}

	reducedRowEchelon(v)

	mds := make([][]field.Element, rows)
	for i := range mds {
		mds[i] = make([]field.Element, rows)
		for j := range mds[i] {
			mds[i][j] = v[j][rows+i]
		}
	}
	return mds
}

// reducedRowEchelon performs in-place Gauss-Jordan elimination over the
// field. The Vandermonde rows are linearly independent, so the pivot in
// every row is found in the leading square block.
func reducedRowEchelon(m [][]field.Element) {
	rows := len(m)
	cols := len(m[0])

	pivotRow := 0
	for col := 0; col < cols && pivotRow < rows; col++ {
		target := -1
		for r := pivotRow; r < rows; r++ {
			if !m[r][col].IsZero() {
				target = r
				break
			}
		}
		if target < 0 {
			continue
		}
		m[pivotRow], m[target] = m[target], m[pivotRow]

		pivotInv, err := m[pivotRow][col].Inverse()
		if err != nil {
			panic("hash: zero pivot after nonzero check")
		}
		for j := col; j < cols; j++ {
			m[pivotRow][j] = m[pivotRow][j].Mul(pivotInv)
		}

		for r := 0; r < rows; r++ {
			if r == pivotRow || m[r][col].IsZero() {
				continue
			}
			factor := m[r][col]
			for j := col; j < cols; j++ {
				m[r][j] = m[r][j].Sub(factor.Mul(m[pivotRow][j]))
			}
		}
		pivotRow++
	}
}

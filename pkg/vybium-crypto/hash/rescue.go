// Package hash implements the Rescue-Prime permutation over the Vybium
// base field and the sponge construction built on it.
//
// The permutation runs NumRounds rounds on a StateWidth-wide state of
// field elements. Each round applies a forward half (S-box x^Alpha, MDS
// mix, round constants) followed by a backward half (inverse S-box
// x^(1/Alpha), MDS mix, round constants), per the published round
// structure. The sponge splits the state into Rate and Capacity, absorbs
// input with a pad-one-then-zeros rule for domain separation, and
// squeezes Rate elements per permutation call.
package hash

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ErrConfiguration is returned when a caller requests parameters outside
// the scheme's fixed published constants, such as a non-positive squeeze
// length.
var ErrConfiguration = errors.New("hash: invalid configuration")

// State is the permutation state.
type State [StateWidth]field.Element

// Permutation applies the Rescue-Prime permutation to the state in place.
// Exposed so that test vectors can exercise the permutation directly.
func Permutation(state *State) {
	p := parameters()

	for round := 0; round < NumRounds; round++ {
		// forward half-round
		for i := range state {
			state[i] = state[i].ModPowU64(Alpha)
		}
		applyMDS(state, p.mds)
		for i := range state {
			state[i] = state[i].Add(p.roundConstants[round*2*StateWidth+i])
		}

		// backward half-round
		for i := range state {
			state[i] = state[i].ModPowU64(p.alphaInv)
		}
		applyMDS(state, p.mds)
		for i := range state {
			state[i] = state[i].Add(p.roundConstants[round*2*StateWidth+StateWidth+i])
		}
	}
}

// applyMDS multiplies the state vector by the MDS matrix.
func applyMDS(state *State, mds [][]field.Element) {
	var mixed State
	for i := 0; i < StateWidth; i++ {
		acc := field.Zero
		row := mds[i]
		for j := 0; j < StateWidth; j++ {
			acc = acc.Add(row[j].Mul(state[j]))
		}
		mixed[i] = acc
	}
	*state = mixed
}

// HashVarlen absorbs a variable-length input and returns its digest.
//
// The input is padded with a single 1 element followed by zeros up to a
// multiple of Rate, so no two distinct inputs absorb identically. The
// digest is the first DigestLength state elements after the final
// permutation.
func HashVarlen(input []field.Element) Digest {
	var state State
	absorb(&state, input)

	var d Digest
	copy(d[:], state[:DigestLength])
	return d
}

// Squeeze absorbs the input like HashVarlen and then squeezes outLen
// field elements, applying the permutation between Rate-sized reads.
// Fails with ErrConfiguration when outLen is not positive.
func Squeeze(input []field.Element, outLen int) ([]field.Element, error) {
	if outLen <= 0 {
		return nil, fmt.Errorf("%w: output length %d", ErrConfiguration, outLen)
	}

	var state State
	absorb(&state, input)

	out := make([]field.Element, 0, outLen)
	for {
		take := outLen - len(out)
		if take > Rate {
			take = Rate
		}
		out = append(out, state[:take]...)
		if len(out) == outLen {
			return out, nil
		}
		Permutation(&state)
	}
}

// absorb pads the input and adds it into the rate portion of the state,
// permuting after every full block.
func absorb(state *State, input []field.Element) {
	padded := make([]field.Element, len(input), len(input)+Rate)
	copy(padded, input)
	padded = append(padded, field.One)
	for len(padded)%Rate != 0 {
		padded = append(padded, field.Zero)
	}

	for block := 0; block < len(padded); block += Rate {
		for j := 0; j < Rate; j++ {
			state[j] = state[j].Add(padded[block+j])
		}
		Permutation(state)
	}
}

// Compress is the fixed-length two-to-one compression used by Merkle
// trees: both digests fill one rate block exactly, the first capacity
// element is set to 1 as the fixed-length domain tag, and a single
// permutation produces the output digest. Inputs of fixed length take
// this path instead of the variable-length padding rule.
func Compress(left, right Digest) Digest {
	var state State
	copy(state[:DigestLength], left[:])
	copy(state[DigestLength:2*DigestLength], right[:])
	state[Rate] = field.One

	Permutation(&state)

	var d Digest
	copy(d[:], state[:DigestLength])
	return d
}

// Hasher is the stateless Rescue-Prime hasher. It satisfies the Merkle
// tree's compression capability.
type Hasher struct{}

// Compress applies the two-to-one compression.
func (Hasher) Compress(left, right Digest) Digest {
	return Compress(left, right)
}

// HashVarlen hashes a variable-length input.
func (Hasher) HashVarlen(input []field.Element) Digest {
	return HashVarlen(input)
}

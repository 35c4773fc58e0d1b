package hash

import (
	"encoding/hex"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// DigestBytes is the byte length of a serialized digest.
const DigestBytes = DigestLength * 8

// Digest is a hash output of DigestLength field elements.
type Digest [DigestLength]field.Element

// NewDigest builds a digest from exactly DigestLength elements.
func NewDigest(elements []field.Element) (Digest, error) {
	var d Digest
	if len(elements) != DigestLength {
		return d, fmt.Errorf("%w: digest needs %d elements, got %d", ErrConfiguration, DigestLength, len(elements))
	}
	copy(d[:], elements)
	return d, nil
}

// Elements returns the digest as a slice of field elements.
func (d Digest) Elements() []field.Element {
	out := make([]field.Element, DigestLength)
	copy(out, d[:])
	return out
}

// Equal reports whether two digests are identical.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// Bytes returns the digest as DigestBytes little-endian bytes.
func (d Digest) Bytes() []byte {
	out := make([]byte, 0, DigestBytes)
	for _, e := range d {
		out = append(out, e.Bytes()...)
	}
	return out
}

// DigestFromBytes parses the serialization produced by Bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestBytes {
		return d, fmt.Errorf("%w: digest needs %d bytes, got %d", ErrConfiguration, DigestBytes, len(b))
	}
	for i := range d {
		d[i] = field.FromBytes(b[i*8 : (i+1)*8])
	}
	return d, nil
}

// String returns the digest as a hex string.
func (d Digest) String() string {
	return hex.EncodeToString(d.Bytes())
}

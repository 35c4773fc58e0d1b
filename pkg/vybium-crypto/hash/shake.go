package hash

import (
	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ShakeHasher is a SHAKE256-based two-to-one compressor. It produces
// digests in the same field-element format as the Rescue-Prime hasher and
// satisfies the same compression capability, for callers that want a
// conventional collision-resistant hash instead of an algebraic one.
type ShakeHasher struct{}

// Compress hashes the concatenation of both digest serializations with
// SHAKE256 and reads the output back as a digest, each word reduced into
// the field.
func (ShakeHasher) Compress(left, right Digest) Digest {
	shake := sha3.NewShake256()
	shake.Write(left.Bytes())
	shake.Write(right.Bytes())

	buf := make([]byte, DigestBytes)
	if _, err := shake.Read(buf); err != nil {
		panic("hash: SHAKE256 read: " + err.Error())
	}

	var d Digest
	for i := range d {
		d[i] = field.FromBytes(buf[i*8 : (i+1)*8])
	}
	return d
}

package tablestore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// DomainCache persists NTT twiddle tables keyed by domain size. It
// implements the ntt package's TwiddleStore interface, letting processes
// skip the root-power computation for domains they have built before.
type DomainCache struct {
	store *Store
}

// NewDomainCache returns a twiddle cache backed by the given store.
func NewDomainCache(s *Store) *DomainCache {
	return &DomainCache{store: s}
}

func twiddleKey(n uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte("ntt/twiddles/"), n)
}

// LoadTwiddles returns the stored forward twiddle table for size n, or
// found == false when none was saved.
func (c *DomainCache) LoadTwiddles(n uint64) ([]field.Element, bool, error) {
	data, err := c.store.get(twiddleKey(n))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(data)%8 != 0 {
		return nil, false, fmt.Errorf("tablestore: malformed twiddle record for size %d", n)
	}

	twiddles := make([]field.Element, len(data)/8)
	for i := range twiddles {
		twiddles[i] = field.FromBytes(data[i*8 : (i+1)*8])
	}
	return twiddles, true, nil
}

// SaveTwiddles stores the forward twiddle table for size n.
func (c *DomainCache) SaveTwiddles(n uint64, twiddles []field.Element) error {
	data := make([]byte, 0, 8*len(twiddles))
	for _, t := range twiddles {
		data = append(data, t.Bytes()...)
	}
	return c.store.put(twiddleKey(n), data)
}

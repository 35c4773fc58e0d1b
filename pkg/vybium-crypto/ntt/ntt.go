// Package ntt implements the number-theoretic transform over the Vybium
// base field: the finite-field analogue of the FFT, evaluating a
// polynomial at all powers of a primitive root of unity in O(n log n).
//
// Transforms run over power-of-two evaluation domains. Domains carry
// precomputed twiddle factors and bit-reversal tables; they are cached
// process-wide by size, with concurrent lookups served lock-free and at
// most one goroutine computing the tables for a missing size.
package ntt

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"resenje.org/singleflight"

	"github.com/vybium/vybium-crypto/internal/vybium-crypto/mathutil"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ErrDomainSize is returned when a transform length is not a power of two,
// when no primitive root of unity of the requested order exists, or when
// the input length does not match the domain.
var ErrDomainSize = errors.New("ntt: invalid domain size")

// parallelThreshold is the transform size at and above which butterfly
// stages fan out across a bounded worker pool. Below it the
// synchronization overhead dominates the arithmetic.
const parallelThreshold = 1 << 12

// Domain is a power-of-two evaluation domain: a size n together with a
// primitive n-th root of unity and the tables the transform needs.
// A Domain is immutable after construction and safe for concurrent use.
type Domain struct {
	// Size is the domain size n.
	Size uint64

	// Root is a primitive n-th root of unity.
	Root field.Element

	twiddles    []field.Element // Root^j for j in [0, n/2)
	invTwiddles []field.Element // Root^-j for j in [0, n/2)
	rev         []int           // bit-reversal permutation on [0, n)
	sizeInv     field.Element   // n^-1 in the field
}

var (
	domains     sync.Map // uint64 -> *Domain
	domainGroup singleflight.Group
)

// NewDomain returns the cached domain of the given size, computing and
// caching it on first use. The canonical root Generator^((p-1)/n) is used,
// so identical sizes always yield identical domains. Concurrent callers
// for the same missing size share one computation.
func NewDomain(n uint64) (*Domain, error) {
	if cached, ok := domains.Load(n); ok {
		return cached.(*Domain), nil
	}

	v, _, err := domainGroup.Do(context.Background(), strconv.FormatUint(n, 10),
		func(_ context.Context) (interface{}, error) {
			root, err := canonicalRoot(n)
			if err != nil {
				return nil, err
			}
			d := newDomain(n, root)
			domains.Store(n, d)
			return d, nil
		})
	if err != nil {
		return nil, err
	}
	return v.(*Domain), nil
}

// NewDomainWithRoot builds a domain of size n over a caller-supplied
// primitive n-th root of unity. The result is not cached: non-canonical
// roots are the caller's responsibility to reuse.
func NewDomainWithRoot(n uint64, root field.Element) (*Domain, error) {
	if err := checkRoot(n, root); err != nil {
		return nil, err
	}
	return newDomain(n, root), nil
}

// TwiddleStore persists computed twiddle tables across processes. It is
// implemented by tablestore.DomainCache.
type TwiddleStore interface {
	// LoadTwiddles returns the stored forward twiddle table for size n,
	// or found == false when the store has no entry.
	LoadTwiddles(n uint64) (twiddles []field.Element, found bool, err error)

	// SaveTwiddles stores the forward twiddle table for size n.
	SaveTwiddles(n uint64, twiddles []field.Element) error
}

// NewDomainWithStore is NewDomain backed by a persistent twiddle store:
// tables are loaded from the store when present and written back after
// computation otherwise. Store failures are not fatal; the domain is then
// computed as if no store were given.
func NewDomainWithStore(n uint64, store TwiddleStore) (*Domain, error) {
	if cached, ok := domains.Load(n); ok {
		return cached.(*Domain), nil
	}
	root, err := canonicalRoot(n)
	if err != nil {
		return nil, err
	}

	if twiddles, found, err := store.LoadTwiddles(n); err == nil && found && len(twiddles) == int(n/2) {
		d := restoreDomain(n, root, twiddles)
		domains.Store(n, d)
		return d, nil
	}

	d, err := NewDomain(n)
	if err != nil {
		return nil, err
	}
	_ = store.SaveTwiddles(n, d.twiddles)
	return d, nil
}

func canonicalRoot(n uint64) (field.Element, error) {
	if !mathutil.IsPowerOfTwoUint64(n) {
		return field.Zero, fmt.Errorf("%w: %d is not a power of two", ErrDomainSize, n)
	}
	root, err := field.PrimitiveRootOfUnity(n)
	if err != nil {
		return field.Zero, fmt.Errorf("%w: no primitive root of order %d", ErrDomainSize, n)
	}
	return root, nil
}

func checkRoot(n uint64, root field.Element) error {
	if !mathutil.IsPowerOfTwoUint64(n) {
		return fmt.Errorf("%w: %d is not a power of two", ErrDomainSize, n)
	}
	if !root.ModPowU64(n).IsOne() {
		return fmt.Errorf("%w: root has order not dividing %d", ErrDomainSize, n)
	}
	if n > 1 && root.ModPowU64(n/2).IsOne() {
		return fmt.Errorf("%w: root of order %d is not primitive", ErrDomainSize, n)
	}
	return nil
}

func newDomain(n uint64, root field.Element) *Domain {
	half := int(n / 2)
	twiddles := make([]field.Element, half)
	w := field.One
	for j := 0; j < half; j++ {
		twiddles[j] = w
		w = w.Mul(root)
	}
	return restoreDomain(n, root, twiddles)
}

// restoreDomain derives the remaining tables (inverse twiddles,
// bit-reversal permutation, 1/n) from the forward twiddle table.
func restoreDomain(n uint64, root field.Element, twiddles []field.Element) *Domain {
	half := int(n / 2)

	invRoot := root.ModPowU64(n - 1) // root^-1
	invTwiddles := make([]field.Element, half)
	w := field.One
	for j := 0; j < half; j++ {
		invTwiddles[j] = w
		w = w.Mul(invRoot)
	}

	logN := mathutil.Log2(int(n))
	rev := make([]int, n)
	for i := range rev {
		rev[i] = mathutil.ReverseBits(i, logN)
	}

	sizeInv, err := field.New(n).Inverse()
	if err != nil {
		// n is a nonzero power of two below the modulus
		panic("ntt: domain size has no inverse: " + err.Error())
	}

	return &Domain{
		Size:        n,
		Root:        root,
		twiddles:    twiddles,
		invTwiddles: invTwiddles,
		rev:         rev,
		sizeInv:     sizeInv,
	}
}

// Twiddles returns a copy of the forward twiddle table Root^j, j < n/2.
func (d *Domain) Twiddles() []field.Element {
	out := make([]field.Element, len(d.twiddles))
	copy(out, d.twiddles)
	return out
}

// Elements returns all n domain points Root^i in order.
func (d *Domain) Elements() []field.Element {
	out := make([]field.Element, d.Size)
	w := field.One
	for i := range out {
		out[i] = w
		w = w.Mul(d.Root)
	}
	return out
}

// Forward evaluates the polynomial with the given coefficients at every
// domain point, returning values[i] = poly(Root^i). The input is not
// modified. Fails with ErrDomainSize when len(values) != Size.
func (d *Domain) Forward(values []field.Element) ([]field.Element, error) {
	if uint64(len(values)) != d.Size {
		return nil, fmt.Errorf("%w: got %d values for domain of size %d", ErrDomainSize, len(values), d.Size)
	}
	return d.transform(values, d.twiddles), nil
}

// Inverse interpolates: given evaluations at every domain point, it
// returns the coefficients of the unique polynomial of degree < n taking
// those values. Inverse(Forward(v)) == v for every valid v.
func (d *Domain) Inverse(values []field.Element) ([]field.Element, error) {
	if uint64(len(values)) != d.Size {
		return nil, fmt.Errorf("%w: got %d values for domain of size %d", ErrDomainSize, len(values), d.Size)
	}
	out := d.transform(values, d.invTwiddles)
	for i := range out {
		out[i] = out[i].Mul(d.sizeInv)
	}
	return out, nil
}

// transform runs the iterative Cooley-Tukey butterfly network:
// bit-reversal copy, then log2(n) levels of butterflies. Levels are
// strictly sequential; the butterflies within one level write disjoint
// index pairs and fan out across a bounded worker pool for large domains.
func (d *Domain) transform(values, twiddles []field.Element) []field.Element {
	n := int(d.Size)
	out := make([]field.Element, n)
	for i, r := range d.rev {
		out[i] = values[r]
	}

	for length := 2; length <= n; length <<= 1 {
		d.stage(out, twiddles, length)
	}
	return out
}

func (d *Domain) stage(out, twiddles []field.Element, length int) {
	n := int(d.Size)
	half := length >> 1
	step := n / length

	butterflies := func(from, to int) {
		for k := from; k < to; k++ {
			block := k / half
			j := k - block*half
			i0 := block*length + j
			i1 := i0 + half

			w := twiddles[j*step]
			hi := out[i1].Mul(w)
			lo := out[i0]
			out[i0] = lo.Add(hi)
			out[i1] = lo.Sub(hi)
		}
	}

	pairs := n / 2
	if n < parallelThreshold {
		butterflies(0, pairs)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (pairs + workers - 1) / workers
	var g errgroup.Group
	for from := 0; from < pairs; from += chunk {
		from, to := from, from+chunk
		if to > pairs {
			to = pairs
		}
		g.Go(func() error {
			butterflies(from, to)
			return nil
		})
	}
	// the workers cannot fail; Wait is the fork-join barrier per level
	_ = g.Wait()
}

// Transform computes the forward NTT of values over the caller-supplied
// primitive root of unity. It fails with ErrDomainSize when len(values)
// is not a power of two or root is not a primitive root of that order.
func Transform(values []field.Element, root field.Element) ([]field.Element, error) {
	d, err := domainFor(values, root)
	if err != nil {
		return nil, err
	}
	return d.Forward(values)
}

// InverseTransform computes the inverse NTT of values over the
// caller-supplied primitive root of unity (the same root passed to
// Transform, not its inverse).
func InverseTransform(values []field.Element, root field.Element) ([]field.Element, error) {
	d, err := domainFor(values, root)
	if err != nil {
		return nil, err
	}
	return d.Inverse(values)
}

// domainFor reuses the cached canonical domain when the supplied root is
// the canonical one, and builds a one-off domain otherwise.
func domainFor(values []field.Element, root field.Element) (*Domain, error) {
	n := uint64(len(values))
	canonical, err := canonicalRoot(n)
	if err != nil {
		return nil, err
	}
	if root.Equal(canonical) {
		return NewDomain(n)
	}
	return NewDomainWithRoot(n, root)
}

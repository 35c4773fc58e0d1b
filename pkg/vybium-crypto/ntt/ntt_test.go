package ntt

import (
	"errors"
	"sync"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func randomVector(t *testing.T, n int) []field.Element {
	t.Helper()
	v := make([]field.Element, n)
	for i := range v {
		e, err := field.Random()
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		v[i] = e
	}
	return v
}

// naiveEvaluate computes poly(x) by Horner's rule, the O(n^2) oracle for
// the transform.
func naiveEvaluate(coeffs []field.Element, x field.Element) field.Element {
	result := field.Zero
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(coeffs[i])
	}
	return result
}

func TestForwardMatchesNaiveEvaluation(t *testing.T) {
	for _, n := range []uint64{1, 2, 4, 8, 16} {
		d, err := NewDomain(n)
		if err != nil {
			t.Fatalf("NewDomain(%d): %v", n, err)
		}
		coeffs := randomVector(t, int(n))
		got, err := d.Forward(coeffs)
		if err != nil {
			t.Fatalf("Forward: %v", err)
		}
		x := field.One
		for i := uint64(0); i < n; i++ {
			want := naiveEvaluate(coeffs, x)
			if !got[i].Equal(want) {
				t.Errorf("n=%d: transform[%d] = %v, want %v", n, i, got[i], want)
			}
			x = x.Mul(d.Root)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []uint64{1, 2, 64, 1 << 10, 1 << 13} { // 1<<13 exercises the parallel path
		d, err := NewDomain(n)
		if err != nil {
			t.Fatalf("NewDomain(%d): %v", n, err)
		}
		v := randomVector(t, int(n))
		fwd, err := d.Forward(v)
		if err != nil {
			t.Fatalf("Forward: %v", err)
		}
		back, err := d.Inverse(fwd)
		if err != nil {
			t.Fatalf("Inverse: %v", err)
		}
		for i := range v {
			if !back[i].Equal(v[i]) {
				t.Fatalf("n=%d: round trip mismatch at %d: %v != %v", n, i, back[i], v[i])
			}
		}
	}
}

func TestDomainSizeErrors(t *testing.T) {
	for _, n := range []uint64{0, 3, 5, 6, 1000} {
		if _, err := NewDomain(n); !errors.Is(err, ErrDomainSize) {
			t.Errorf("NewDomain(%d) = %v, want ErrDomainSize", n, err)
		}
	}

	// 2^33 is a power of two but exceeds the two-adicity of p-1
	if _, err := NewDomain(1 << 33); !errors.Is(err, ErrDomainSize) {
		t.Error("NewDomain(2^33) should fail: no root of unity of that order")
	}

	// mismatched input length
	d, err := NewDomain(8)
	if err != nil {
		t.Fatalf("NewDomain(8): %v", err)
	}
	if _, err := d.Forward(make([]field.Element, 4)); !errors.Is(err, ErrDomainSize) {
		t.Error("Forward with wrong length should fail with ErrDomainSize")
	}
	if _, err := d.Inverse(make([]field.Element, 4)); !errors.Is(err, ErrDomainSize) {
		t.Error("Inverse with wrong length should fail with ErrDomainSize")
	}
}

func TestTransformRejectsBadRoot(t *testing.T) {
	v := make([]field.Element, 8)

	// order 4, not 8
	root4, err := field.PrimitiveRootOfUnity(4)
	if err != nil {
		t.Fatalf("PrimitiveRootOfUnity(4): %v", err)
	}
	if _, err := Transform(v, root4); !errors.Is(err, ErrDomainSize) {
		t.Errorf("Transform with root of wrong order = %v, want ErrDomainSize", err)
	}

	if _, err := Transform(make([]field.Element, 3), field.One); !errors.Is(err, ErrDomainSize) {
		t.Errorf("Transform with n=3 = %v, want ErrDomainSize", err)
	}
}

// TestNonCanonicalRoot runs the round trip over root^3, which has order n
// for power-of-two n but is not the cached canonical root.
func TestNonCanonicalRoot(t *testing.T) {
	const n = 16
	canonical, err := field.PrimitiveRootOfUnity(n)
	if err != nil {
		t.Fatalf("PrimitiveRootOfUnity: %v", err)
	}
	root := canonical.Mul(canonical).Mul(canonical)

	v := randomVector(t, n)
	fwd, err := Transform(v, root)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	back, err := InverseTransform(fwd, root)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	for i := range v {
		if !back[i].Equal(v[i]) {
			t.Fatalf("round trip mismatch at %d", i)
		}
	}

	// evaluations over a different primitive root differ from canonical
	canonicalFwd, err := Transform(v, canonical)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	same := true
	for i := range fwd {
		if !fwd[i].Equal(canonicalFwd[i]) {
			same = false
		}
	}
	if same {
		t.Error("expected different evaluation orders for different primitive roots")
	}
}

// TestConcurrentDomainConstruction hammers the cache from many goroutines
// and checks every caller observes the same domain instance.
func TestConcurrentDomainConstruction(t *testing.T) {
	const n = 1 << 11
	const goroutines = 32

	results := make([]*Domain, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			d, err := NewDomain(n)
			if err != nil {
				t.Errorf("NewDomain: %v", err)
				return
			}
			results[g] = d
		}(g)
	}
	wg.Wait()

	for g := 1; g < goroutines; g++ {
		if results[g] != results[0] {
			t.Fatal("concurrent callers received distinct domain instances")
		}
	}
}

func TestDomainElements(t *testing.T) {
	d, err := NewDomain(4)
	if err != nil {
		t.Fatalf("NewDomain(4): %v", err)
	}
	elems := d.Elements()
	if len(elems) != 4 {
		t.Fatalf("got %d elements, want 4", len(elems))
	}
	if !elems[0].IsOne() {
		t.Error("first domain element should be 1")
	}
	// root^2 must be the primitive square root of unity, i.e. -1
	if !elems[2].Equal(field.Zero.Sub(field.One)) {
		t.Errorf("root^2 = %v, want p-1", elems[2])
	}
}

func BenchmarkForward(b *testing.B) {
	for _, n := range []uint64{1 << 10, 1 << 16} {
		d, err := NewDomain(n)
		if err != nil {
			b.Fatalf("NewDomain: %v", err)
		}
		v := make([]field.Element, n)
		for i := range v {
			v[i] = field.New(uint64(i) * 0x9E3779B97F4A7C15)
		}
		b.Run(fmtSize(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := d.Forward(v); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func fmtSize(n uint64) string {
	switch {
	case n >= 1<<20:
		return "1M"
	case n >= 1<<16:
		return "64k"
	default:
		return "1k"
	}
}

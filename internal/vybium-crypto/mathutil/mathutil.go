// Package mathutil provides small integer helpers shared by the
// polynomial, NTT and Merkle packages.
package mathutil

// IsPowerOfTwo checks if a number is a power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// IsPowerOfTwoUint64 checks if a number is a power of 2.
func IsPowerOfTwoUint64(n uint64) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 computes the base-2 logarithm of a power of 2. It returns -1 when
// n is not a power of 2.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}

	result := 0
	for n > 1 {
		n >>= 1
		result++
	}
	return result
}

// NextPowerOfTwo returns the smallest power of 2 >= n.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	if IsPowerOfTwo(n) {
		return n
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// ReverseBits returns i with its lowest numBits bits reversed.
func ReverseBits(i, numBits int) int {
	result := 0
	for b := 0; b < numBits; b++ {
		result = (result << 1) | (i & 1)
		i >>= 1
	}
	return result
}

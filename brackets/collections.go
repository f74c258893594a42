package brackets

import "fmt"

func isPowerOfTwo(n int) bool {
	return n >= 1 && n&(n-1) == 0
}

// largestPowerOfTwoAtMost returns the largest power of two <= n, or 0 for n < 1.
func largestPowerOfTwoAtMost(n int) int {
	if n < 1 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// createGroups splits elements into consecutive groups of size.
func createGroups[T any](elements []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("group size must be positive, got %d", size)
	}
	if len(elements)%size != 0 {
		return nil, fmt.Errorf("number of elements (%d) must be divisible by %d", len(elements), size)
	}
	groups := make([][]T, 0, len(elements)/size)
	for i := 0; i < len(elements); i += size {
		group := make([]T, size)
		copy(group, elements[i:i+size])
		groups = append(groups, group)
	}
	return groups, nil
}

// groupByIndex transposes arrays: the i-th result holds the i-th element of
// every input array, for i < length.
func groupByIndex[T any](arrays [][]T, length int) ([][]T, error) {
	byIndex := make([][]T, 0, length)
	for i := 0; i < length; i++ {
		entries := make([]T, 0, len(arrays))
		for n, array := range arrays {
			if i >= len(array) {
				return nil, fmt.Errorf("array %d has %d elements, index %d requested", n, len(array), i)
			}
			entries = append(entries, array[i])
		}
		byIndex = append(byIndex, entries)
	}
	return byIndex, nil
}

func flatten[T any](nested [][]T) []T {
	var out []T
	for _, inner := range nested {
		out = append(out, inner...)
	}
	return out
}

// rotateLeft moves the first element to the end.
func rotateLeft[T any](s []T) []T {
	if len(s) < 2 {
		return s
	}
	out := make([]T, 0, len(s))
	out = append(out, s[1:]...)
	return append(out, s[0])
}

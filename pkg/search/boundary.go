// Package search locates the boundaries of a run of equal elements in a
// sorted slice.
//
// The slice must be sorted non-decreasingly under the comparator that is
// passed in. Elements that compare equal to the key are expected to form one
// contiguous run, which may be empty or span the whole slice. Both searches
// take O(log n) comparisons.
package search

// FirstIndexOf returns the smallest index i with cmp(s[i], key) == 0.
// The boolean is false when no element matches.
func FirstIndexOf[E, K any](s []E, key K, cmp func(E, K) int) (int, bool) {
	if len(s) == 0 {
		return -1, false
	}

	low, high := 0, len(s)-1
	mid := low + (high-low)/2
	c := cmp(s[mid], key)

	for low < high {
		switch {
		case c == 0:
			high = mid
		case c < 0:
			low = mid + 1
		default:
			high = mid - 1
		}
		// after a miss high may sit one below low; mid then lands on low
		mid = low + (high-low)/2
		c = cmp(s[mid], key)
	}

	if c != 0 {
		return -1, false
	}
	return mid, true
}

// LastIndexOf returns the largest index i with cmp(s[i], key) == 0.
// The boolean is false when no element matches.
func LastIndexOf[E, K any](s []E, key K, cmp func(E, K) int) (int, bool) {
	found := -1
	low, high := 0, len(s)-1

	for low <= high {
		mid := low + (high-low)/2
		c := cmp(s[mid], key)
		switch {
		case c < 0:
			low = mid + 1
		case c > 0:
			high = mid - 1
		default:
			found = mid
			low = mid + 1
		}
	}

	return found, found >= 0
}

// Range returns the first and last index of the run matching key.
func Range[E, K any](s []E, key K, cmp func(E, K) int) (first, last int, ok bool) {
	first, ok = FirstIndexOf(s, key, cmp)
	if !ok {
		return -1, -1, false
	}
	last, ok = LastIndexOf(s, key, cmp)
	if !ok {
		return -1, -1, false
	}
	return first, last, true
}

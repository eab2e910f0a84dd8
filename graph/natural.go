package graph

import (
	"sort"
	"strings"
)

// NaturalLess reports whether a orders before b in natural order: runs of
// digits compare by numeric value, other runs compare as plain strings, and a
// digit run orders before a non-digit run. "z2" < "z11".
func NaturalLess(a, b string) bool {
	return naturalCompare(a, b) < 0
}

// SortNatural sorts ids in place in natural order.
func SortNatural(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return naturalCompare(ids[i], ids[j]) < 0
	})
}

// sortedKeys returns the keys of a set in natural order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	SortNatural(keys)
	return keys
}

func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		aDigit, bDigit := isDigit(a[i]), isDigit(b[j])
		switch {
		case aDigit && bDigit:
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			ra := strings.TrimLeft(a[si:i], "0")
			rb := strings.TrimLeft(b[sj:j], "0")
			if len(ra) != len(rb) {
				if len(ra) < len(rb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(ra, rb); c != 0 {
				return c
			}
		case aDigit:
			return -1
		case bDigit:
			return 1
		default:
			si, sj := i, j
			for i < len(a) && !isDigit(a[i]) {
				i++
			}
			for j < len(b) && !isDigit(b[j]) {
				j++
			}
			if c := strings.Compare(a[si:i], b[sj:j]); c != 0 {
				return c
			}
		}
	}

	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	// equal by value, e.g. "R01" and "R1"
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

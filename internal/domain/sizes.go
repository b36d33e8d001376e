package domain

import (
	"sort"
	"strconv"
	"strings"
)

// sizeRank orders letter sizes. Lookups are case-insensitive.
var sizeRank = map[string]int{
	"XXS":  0,
	"XS":   1,
	"S":    2,
	"M":    3,
	"L":    4,
	"XL":   5,
	"XXL":  6,
	"XXXL": 7,
	"2XL":  8,
	"3XL":  9,
	"4XL":  10,
	"5XL":  11,
}

// SplitSizes splits a compound size field on commas, trims every piece,
// drops empty pieces and removes duplicates, keeping first-seen order.
func SplitSizes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// FirstSizeToken returns the first discrete size of a compound size field.
func FirstSizeToken(raw string) string {
	sizes := SplitSizes(raw)
	if len(sizes) == 0 {
		return ""
	}
	return sizes[0]
}

// sizeClass buckets a size token: ranked letter sizes first, then
// integers, then everything else.
func sizeClass(s string) (class int, rank int, num int) {
	if r, ok := sizeRank[strings.ToUpper(s)]; ok {
		return 0, r, 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return 1, 0, n
	}
	return 2, 0, 0
}

// lessSize reports whether size a sorts before size b.
func lessSize(a, b string) bool {
	ca, ra, na := sizeClass(a)
	cb, rb, nb := sizeClass(b)
	if ca != cb {
		return ca < cb
	}
	switch ca {
	case 0:
		if ra != rb {
			return ra < rb
		}
	case 1:
		if na != nb {
			return na < nb
		}
	}
	return a < b
}

// SortSizes returns a sorted copy of sizes: rank-table sizes in rank
// order, then integer sizes numerically, then the rest lexicographically.
func SortSizes(sizes []string) []string {
	out := make([]string, len(sizes))
	copy(out, sizes)
	sort.SliceStable(out, func(i, j int) bool {
		return lessSize(out[i], out[j])
	})
	return out
}

package stringslices

import "strings"

func ContainsIgnoreCase(a []string, s string) bool {
	for _, v := range a {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// IntersectCount reports how many distinct members of b appear in a,
// comparing case-insensitively.
func IntersectCount(a, b []string) int {
	m := make(map[string]struct{}, len(a))
	for _, s := range a {
		m[strings.ToLower(s)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(b))
	n := 0
	for _, s := range b {
		s = strings.ToLower(s)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := m[s]; ok {
			n++
		}
	}

	return n
}

package utils

import "strings"

// Dedup removes duplicate entries, trimming trailing slashes so endpoint
// URLs that differ only in a trailing "/" collapse to one.
func Dedup(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range in {
		e = strings.TrimRight(e, "/")
		if e == "" {
			continue
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// SplitList splits a comma-separated env value into trimmed, deduped items.
func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Dedup(parts)
}

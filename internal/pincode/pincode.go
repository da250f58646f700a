// Package pincode normalises postal-code identifiers so the same code read
// from YAML, CSV, XLSX or a database compares equal.
package pincode

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Normalize folds full-width digits to ASCII and strips whitespace, so
// " ５６０ ０６４" and "560064" are the same code. An all-blank input yields "".
func Normalize(code string) string {
	folded := width.Fold.String(code)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// Compare orders codes numerically when both are all digits and
// lexically otherwise. Numeric codes sort before non-numeric ones.
func Compare(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := cmp.Compare(len(ta), len(tb)); c != 0 {
			return c
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(a, b)
}

// Sort sorts codes in place by Compare.
func Sort(codes []string) {
	slices.SortFunc(codes, Compare)
}

// Unique normalises codes and drops blanks and repeats, keeping first
// occurrence order.
func Unique(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := Normalize(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

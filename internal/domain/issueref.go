package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// issueRefPattern matches a human-facing issue reference: 1-4 machine
// initials, a dash or space separator, and a decimal issue number.
// "AFM-101" and "afm 101" both match.
var issueRefPattern = regexp.MustCompile(`^([A-Za-z]{1,4})[- ](\d+)$`)

// IssueRef is a parsed issue reference. Initials keep the caller's casing;
// matching against machines is case-insensitive.
type IssueRef struct {
	Initials string
	Number   int
}

// ParseIssueRef parses a trimmed query string as an issue reference.
// Returns false when the string does not match the reference shape or the
// number does not fit in an int.
func ParseIssueRef(s string) (IssueRef, bool) {
	m := issueRefPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return IssueRef{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return IssueRef{}, false
	}
	return IssueRef{Initials: m[1], Number: n}, true
}

// ParseIssueNumber parses a trimmed query consisting of digits only.
// This is the numeric fallback for searches like "101" that carry no
// machine prefix.
func ParseIssueNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

package utils

import (
	"strconv"
)

// Count formats n with thousands separators, e.g. "65,536".
func Count(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// OrDash returns s, or "—" if s is empty.
func OrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// Plural returns "1 subnet" or "3 subnets".
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

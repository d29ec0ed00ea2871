package utils

import (
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{256, "256"},
		{1024, "1,024"},
		{65536, "65,536"},
		{100000, "100,000"},
		{4294967296, "4,294,967,296"},
	}

	for _, tt := range tests {
		got := Count(tt.n)
		if got != tt.want {
			t.Errorf("Count(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if got := OrDash(""); got != "—" {
		t.Errorf("OrDash(\"\") = %q, want —", got)
	}
	if got := OrDash("us-east-1a"); got != "us-east-1a" {
		t.Errorf("OrDash = %q, want us-east-1a", got)
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 subnets"},
		{1, "1 subnet"},
		{4, "4 subnets"},
	}

	for _, tt := range tests {
		if got := Plural(tt.n, "subnet"); got != tt.want {
			t.Errorf("Plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

package fieldpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJoin(t *testing.T) {
	cases := []struct {
		parent, name, want string
	}{
		{"", "email", "email"},
		{"address", "city", "address.city"},
		{"a.b", "c", "a.b.c"},
	}
	for _, tc := range cases {
		if got := Join(tc.parent, tc.name); got != tc.want {
			t.Fatalf("Join(%q, %q) = %q, want %q", tc.parent, tc.name, got, tc.want)
		}
	}
}

func TestSplit(t *testing.T) {
	if got := Split(""); got != nil {
		t.Fatalf("expected nil segments for empty path, got %v", got)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, Split("a.b.c")); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestParentAndBase(t *testing.T) {
	if got := Parent("address.city"); got != "address" {
		t.Fatalf("Parent = %q", got)
	}
	if got := Parent("email"); got != "" {
		t.Fatalf("Parent of root path = %q", got)
	}
	if got := Base("a.b.city"); got != "city" {
		t.Fatalf("Base = %q", got)
	}
	if got := Base("email"); got != "email" {
		t.Fatalf("Base of root path = %q", got)
	}
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"email":   true,
		"":        false,
		"  ":      false,
		"a.b":     false,
		"first_1": true,
	} {
		if got := ValidName(name); got != want {
			t.Fatalf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

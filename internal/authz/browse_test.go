package authz

import "testing"

func TestBrowsePermitted(t *testing.T) {
	cases := []struct {
		name     string
		allowed  []string
		identity string
		group    string
		want     bool
	}{
		{"direct identity match", []string{"alice"}, "alice", "", true},
		{"group match", []string{"eng"}, "alice", "eng", true},
		{"wildcard", []string{"*"}, "anyone", "", true},
		{"no match", []string{"bob", "sales"}, "alice", "eng", false},
		{"empty allowed set denies", nil, "alice", "eng", false},
		{"empty group never matches", []string{""}, "alice", "", false},
		{"identity does not match group slot", []string{"eng"}, "eng-server", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BrowsePermitted(tc.allowed, tc.identity, tc.group); got != tc.want {
				t.Errorf("BrowsePermitted(%v, %q, %q) = %v, want %v",
					tc.allowed, tc.identity, tc.group, got, tc.want)
			}
		})
	}
}

// Adding the wildcard to any allowed set can only widen access, never narrow it.
func TestBrowsePermitted_WildcardIsMonotonic(t *testing.T) {
	sets := [][]string{nil, {"bob"}, {"eng"}, {"alice", "sales"}}
	for _, allowed := range sets {
		before := BrowsePermitted(allowed, "alice", "eng")
		after := BrowsePermitted(append(append([]string{}, allowed...), Wildcard), "alice", "eng")
		if before && !after {
			t.Errorf("wildcard narrowed access for set %v", allowed)
		}
		if !after {
			t.Errorf("wildcard set %v must permit everything", allowed)
		}
	}
}

package watchtree

import "testing"

func TestIgnorePolicyMatch(t *testing.T) {
	p := ignorePolicy{".git", "node_modules"}

	cases := []struct {
		path string
		want bool
	}{
		{"/w/.git", true},
		{"/w/a/b/node_modules", true},
		{"/w/node_modules_old", false},
		{"/w/src", false},
		{"/w/.gitignore", false},
	}
	for _, c := range cases {
		if got := p.match(c.path); got != c.want {
			t.Errorf("match(%q) = %v; want %v", c.path, got, c.want)
		}
	}
}

func TestIgnorePolicyEmpty(t *testing.T) {
	var p ignorePolicy
	if p.match("/w/anything") {
		t.Fatalf("empty policy must never match")
	}
}

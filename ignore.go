package watchtree

import "path/filepath"

// ignorePolicy is an ordered set of directory basenames that must
// never be watched. It is immutable for the lifetime of the observer.
type ignorePolicy []string

// match reports whether path's basename is in the policy, by exact
// string equality — not a glob, not a path match.
func (p ignorePolicy) match(path string) bool {
	base := filepath.Base(path)
	for _, name := range p {
		if base == name {
			return true
		}
	}
	return false
}

package watchtree

import (
	"os"
	"strings"
)

// watchCache maps a kernel watch descriptor to the absolute directory
// path it watches. It is confined to the watcher goroutine and
// therefore needs no locking.
//
// Invariants: keys are unique and correspond to live kernel watches;
// no two entries share a path; every non-ignored directory under the
// root has exactly one entry, unless the cache is inconsistent.
type watchCache struct {
	byWd map[int32]string
}

func newWatchCache() *watchCache {
	return &watchCache{byWd: make(map[int32]string)}
}

// insert records a newly registered watch. Precondition: wd is not
// already present.
func (c *watchCache) insert(wd int32, path string) {
	c.byWd[wd] = path
}

// erase removes wd's entry, if any. No-op if absent.
func (c *watchCache) erase(wd int32) {
	delete(c.byWd, wd)
}

// lookup returns the path registered for wd, and whether it was found.
func (c *watchCache) lookup(wd int32) (string, bool) {
	p, ok := c.byWd[wd]
	return p, ok
}

// findByPath performs a linear search for the wd registered under
// path. Used only where the cache is small enough that the cost is
// negligible (a single directory's watch descriptor, on delete).
func (c *watchCache) findByPath(path string) (int32, bool) {
	for wd, p := range c.byWd {
		if p == path {
			return wd, true
		}
	}
	return 0, false
}

// hasPathPrefix reports whether prefix is a component-wise prefix of
// path: either path equals prefix, or path continues past prefix with
// a path separator. A plain strings.HasPrefix would wrongly treat
// "/w/foo" as a prefix of "/w/foobar".
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == os.PathSeparator
}

// zapSubtree removes every cache entry whose path has prefix as a
// component-wise prefix, calling rm for each one's watch descriptor.
// It returns the number of entries removed; if rm returns an error for
// any entry the cache is left with that entry still removed (the
// caller treats the returned error as cache inconsistency and
// reinitializes).
func (c *watchCache) zapSubtree(prefix string, rm func(wd int32) error) (int, error) {
	n := 0
	for wd, path := range c.byWd {
		if hasPathPrefix(path, prefix) {
			delete(c.byWd, wd)
			n++
			if err := rm(wd); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// rewritePrefix replaces oldPrefix with newPrefix on every cache entry
// whose path has oldPrefix as a component-wise prefix. It performs no
// kernel interaction: the kernel watch follows the inode across a
// rename, only our bookkeeping needs to move.
//
// rewritePrefix(A, B) followed by rewritePrefix(B, A) is an exact
// inverse, because the match is always against the current path and
// the replacement is a pure string substitution of the matched prefix.
func (c *watchCache) rewritePrefix(oldPrefix, newPrefix string) {
	for wd, path := range c.byWd {
		if hasPathPrefix(path, oldPrefix) {
			c.byWd[wd] = newPrefix + path[len(oldPrefix):]
		}
	}
}

// clear empties the cache, used during reinitialization.
func (c *watchCache) clear() {
	c.byWd = make(map[int32]string)
}

// len reports the number of live entries.
func (c *watchCache) len() int {
	return len(c.byWd)
}

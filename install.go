package watchtree

import (
	"fmt"
	"os"
	"path/filepath"
)

// installTree registers watches on path and, unless path is ignored,
// every non-ignored descendant directory, using an explicit worklist
// rather than a recursing iterator: a recursive walk would
// descend into an ignored directory before the ignore filter had a
// chance to exclude it.
//
// isRoot controls whether the self-delete/self-move bits are added to
// the installed mask; it applies only to the very first directory
// registered by this call.
func (w *Watcher) installTree(path string, isRoot bool) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	if w.ignore.match(path) {
		return nil
	}

	worklist := []string{path}
	first := true
	for len(worklist) > 0 {
		dir := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if err := w.addWatchDir(dir, isRoot && first); err != nil {
			if first {
				return err
			}
			w.logf("failed to watch directory %s: %v", dir, err)
			continue
		}
		first = false

		entries, err := os.ReadDir(dir)
		if err != nil {
			w.logf("failed to list directory %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			child := filepath.Join(dir, entry.Name())
			if w.ignore.match(child) {
				continue
			}
			worklist = append(worklist, child)
		}
	}
	return nil
}

// addWatchDir registers a single directory with the kernel and records
// it in the cache.
func (w *Watcher) addWatchDir(path string, isRoot bool) error {
	mask := uint32(installMask)
	if isRoot {
		mask |= rootExtraMask
	}
	wd, err := w.k.addWatch(path, mask)
	if err != nil {
		return err
	}
	w.cache.insert(wd, path)
	return nil
}

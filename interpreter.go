package watchtree

import (
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// step runs one iteration of the event interpreter: it drains
// the kernel source until at least one Raw Event is queued or a stop
// has been requested, then processes the queue front to back. It
// returns done=true once the root has become unwatchable (clean
// shutdown), and a non-nil error only for a kernel read failure or a
// failed reinitialization.
func (w *Watcher) step() (done bool, err error) {
	for w.queue.empty() && !w.stopped.Load() {
		events, stopped, err := w.k.drain()
		if err != nil {
			return false, err
		}
		for _, e := range events {
			w.queue.push(e)
		}
		if stopped && len(events) == 0 {
			return false, nil
		}
	}
	for !w.queue.empty() {
		ev := w.queue.pop()
		selfStop, err := w.process(ev)
		if err != nil {
			return false, err
		}
		if selfStop {
			return true, nil
		}
	}
	return false, nil
}

// process interprets a single raw event.
func (w *Watcher) process(ev rawEvent) (selfStop bool, err error) {
	if ev.is(unix.IN_DELETE_SELF) || ev.is(unix.IN_MOVE_SELF) {
		w.emit(NothingToWatch, "", "")
		return true, nil
	}
	if ev.is(unix.IN_Q_OVERFLOW) {
		w.logf("queue overflow occurred")
		if err := w.reinitialize(); err != nil {
			return false, err
		}
		return false, nil
	}

	dirPath, ok := w.cache.lookup(ev.wd)
	if !ok {
		if err := w.reinitialize(); err != nil {
			return false, err
		}
		return false, nil
	}

	fullPath := dirPath
	if ev.name != "" {
		fullPath = filepath.Join(dirPath, ev.name)
	}

	if ev.isDir() {
		return false, w.processDirEvent(ev, dirPath, fullPath)
	}
	return false, w.processFileEvent(ev, dirPath, fullPath)
}

// processDirEvent interprets a raw event known to target a directory.
func (w *Watcher) processDirEvent(ev rawEvent, dirPath, fullPath string) error {
	switch {
	case ev.is(unix.IN_DELETE):
		if wd, ok := w.cache.findByPath(fullPath); ok {
			w.cache.erase(wd)
			w.emit(DeletedDirectory, fullPath, "")
		}
		return nil

	case ev.is(unix.IN_CREATE) || ev.is(unix.IN_MOVED_TO):
		w.emit(CreatedDirectory, fullPath, "")
		if err := w.installTree(fullPath, false); err != nil {
			w.logf("failed to watch new directory %s: %v", fullPath, err)
		}
		return nil

	case ev.is(unix.IN_MOVED_FROM):
		return w.moveFromDir(ev, dirPath, fullPath)
	}
	return nil
}

// moveFromDir pairs a directory IN_MOVED_FROM with the adjacent
// IN_MOVED_TO sharing its cookie, if any.
func (w *Watcher) moveFromDir(ev rawEvent, dirPath, fullPath string) error {
	if w.queue.empty() {
		return w.moveDirOut(fullPath)
	}
	next := w.queue.front()
	if !(next.is(unix.IN_MOVED_TO) && next.cookie == ev.cookie) {
		return w.moveDirOut(fullPath)
	}
	w.queue.pop()

	nextDirPath, ok := w.cache.lookup(next.wd)
	if !ok {
		return w.reinitialize()
	}
	nextFullPath := filepath.Join(nextDirPath, next.name)

	if dirPath == nextDirPath {
		w.emit(RenamedDirectory, fullPath, nextFullPath)
	} else {
		w.emit(MovedDirectory, fullPath, nextFullPath)
	}
	w.cache.rewritePrefix(fullPath, nextFullPath)
	return nil
}

func (w *Watcher) moveDirOut(fullPath string) error {
	w.emit(MovedOutOfWatch, fullPath, "")
	if _, err := w.cache.zapSubtree(fullPath, w.k.removeWatch); err != nil {
		return w.reinitialize()
	}
	return nil
}

// processFileEvent interprets a raw event known to target a file.
func (w *Watcher) processFileEvent(ev rawEvent, dirPath, fullPath string) error {
	switch {
	case ev.is(unix.IN_CREATE) || ev.is(unix.IN_MOVED_TO):
		w.emit(CreatedFile, fullPath, "")
	case ev.is(unix.IN_DELETE):
		w.emit(DeletedFile, fullPath, "")
	case ev.is(unix.IN_MODIFY):
		w.emit(ModifiedFile, fullPath, "")
	case ev.is(unix.IN_MOVED_FROM):
		return w.moveFromFile(ev, dirPath, fullPath)
	}
	return nil
}

// moveFromFile pairs a file IN_MOVED_FROM with the adjacent
// IN_MOVED_TO sharing its cookie, if any. Unlike moveFromDir there is
// no cache to rewrite: files are not registered in the Watch Cache.
func (w *Watcher) moveFromFile(ev rawEvent, dirPath, fullPath string) error {
	if w.queue.empty() {
		w.emit(MovedFileOutOfWatch, fullPath, "")
		return nil
	}
	next := w.queue.front()
	if !(next.is(unix.IN_MOVED_TO) && next.cookie == ev.cookie) {
		w.emit(MovedFileOutOfWatch, fullPath, "")
		return nil
	}
	w.queue.pop()

	nextDirPath, ok := w.cache.lookup(next.wd)
	if !ok {
		return w.reinitialize()
	}
	nextFullPath := filepath.Join(nextDirPath, next.name)

	if dirPath == nextDirPath {
		w.emit(RenamedFile, fullPath, nextFullPath)
	} else {
		w.emit(MovedFile, fullPath, nextFullPath)
	}
	return nil
}

func (w *Watcher) emit(kind Kind, path, newPath string) {
	if w.sink == nil {
		return
	}
	w.sink.Emit(Event{Kind: kind, Path: path, NewPath: newPath, Time: time.Now()})
}

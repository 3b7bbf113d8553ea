package watchtree

import (
	"log"
	"sync/atomic"
)

// Watcher owns the kernel descriptors, the watch cache and the event
// queue, and exposes Start, Run and Stop to its caller.
//
// A Watcher is used by exactly one goroutine at a time for Run; Stop
// may be called concurrently with Run from any other goroutine.
type Watcher struct {
	root   string
	ignore ignorePolicy
	sink   Sink
	logger *log.Logger

	// newKernel is overridden in tests to inject a fake kernel instead
	// of talking to a real inotify instance.
	newKernel func() (kernel, error)

	k       kernel
	cache   *watchCache
	queue   eventQueue
	stopped atomic.Bool
}

// New builds a Watcher for root, ignoring any descendant directory
// whose basename appears in ignore. sink receives every emitted Event.
// A nil logger falls back to log.Default().
func New(root string, ignore []string, sink Sink, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		root:      root,
		ignore:    ignorePolicy(ignore),
		sink:      sink,
		logger:    logger,
		newKernel: func() (kernel, error) { return newInotifyKernel() },
		cache:     newWatchCache(),
	}
}

func (w *Watcher) logf(format string, args ...interface{}) {
	w.logger.Printf(format, args...)
}

// Start constructs the kernel notification channel, the wakeup object,
// and the readiness multiplexer, then performs the initial recursive
// watch installation on root. Any failure here is fatal and
// returned as an *InitError.
func (w *Watcher) Start() error {
	k, err := w.newKernel()
	if err != nil {
		return initError("new kernel", err)
	}
	w.k = k
	if err := w.installTree(w.root, true); err != nil {
		w.k.close()
		return initError("watch root", err)
	}
	return nil
}

// Run enters the event loop, calling step repeatedly until Stop is
// called or the root becomes unwatchable. It returns nil on clean
// shutdown and a non-nil error only for a kernel read failure or a
// failed reinitialization — the only two failure categories propagated
// to the caller.
func (w *Watcher) Run() error {
	defer w.shutdown()
	for !w.stopped.Load() {
		stop, err := w.step()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Stop requests a clean shutdown. It is idempotent and may be called
// from any goroutine. After Stop returns, Run may still process events
// already dequeued, but will not begin a new blocking wait.
func (w *Watcher) Stop() {
	if w.stopped.CompareAndSwap(false, true) {
		w.k.signalStop()
	}
}

// shutdown releases all three kernel descriptors. Always called
// exactly once, from a deferred call in Run.
func (w *Watcher) shutdown() {
	w.k.close()
}

// reinitialize performs the full teardown-and-reconstruction sequence:
// it best-effort removes every cached watch (kernel errors here are
// tolerated — the descriptor may already be gone), tears down and
// rebuilds the three kernel descriptors, re-watches the root, and
// empties the queue and buffer.
func (w *Watcher) reinitialize() error {
	w.logf("cache reached inconsistent state; reinitializing (%v)", stacktrace(32))
	for wd := range w.cache.byWd {
		_ = w.k.removeWatch(wd)
	}
	w.cache.clear()
	w.k.close()

	k, err := w.newKernel()
	if err != nil {
		return initError("reinitialize kernel", err)
	}
	w.k = k
	w.queue.reset()

	if err := w.installTree(w.root, true); err != nil {
		w.logf("failed to reinitialize: %v", err)
		return initError("rewatch root", err)
	}
	w.logf("cache reached inconsistent state; recovered")
	return nil
}

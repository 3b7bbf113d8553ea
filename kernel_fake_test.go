package watchtree

import (
	"errors"
	"sync"
)

// fakeKernel stands in for a real inotify+epoll+eventfd kernel in
// tests: it records every addWatch/removeWatch call and lets the test
// script feed synthetic raw event batches for drain to return.
type fakeKernel struct {
	mu      sync.Mutex
	nextWd  int32
	paths   map[int32]string
	masks   map[int32]uint32
	removed []int32
	failAdd map[string]error

	batches [][]rawEvent
	stopCh  chan struct{}
	closed  bool
}

var errFakeAddWatch = errors.New("fakeKernel: addWatch failed")

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		paths:   make(map[int32]string),
		masks:   make(map[int32]uint32),
		failAdd: make(map[string]error),
		stopCh:  make(chan struct{}),
	}
}

func (f *fakeKernel) addWatch(path string, mask uint32) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failAdd[path]; ok {
		return 0, err
	}
	f.nextWd++
	wd := f.nextWd
	f.paths[wd] = path
	f.masks[wd] = mask
	return wd, nil
}

func (f *fakeKernel) removeWatch(wd int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.paths[wd]; !ok {
		return errors.New("fakeKernel: unknown watch descriptor")
	}
	delete(f.paths, wd)
	delete(f.masks, wd)
	f.removed = append(f.removed, wd)
	return nil
}

// push queues a batch of raw events to be returned by the next drain
// call. Batches are returned in the order pushed.
func (f *fakeKernel) push(events ...rawEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, events)
}

func (f *fakeKernel) drain() ([]rawEvent, bool, error) {
	f.mu.Lock()
	if len(f.batches) > 0 {
		b := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return b, false, nil
	}
	f.mu.Unlock()
	<-f.stopCh
	return nil, true, nil
}

func (f *fakeKernel) signalStop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
}

func (f *fakeKernel) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// wdFor returns the watch descriptor registered for path, for test
// assertions that need to synthesize a rawEvent against it.
func (f *fakeKernel) wdFor(path string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for wd, p := range f.paths {
		if p == path {
			return wd
		}
	}
	return 0
}

// collectSink records every emitted Event for assertions.
type collectSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *collectSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// newTestWatcher builds a Watcher wired to a fresh fakeKernel without
// going through Start, so tests can drive installTree/step/process
// directly against a controlled fake.
func newTestWatcher(root string, ignore []string, sink Sink) (*Watcher, *fakeKernel) {
	fk := newFakeKernel()
	w := New(root, ignore, sink, nil)
	w.newKernel = func() (kernel, error) { return fk, nil }
	w.k = fk
	return w, fk
}

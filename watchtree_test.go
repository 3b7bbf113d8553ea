package watchtree

import (
	"testing"
	"time"
)

func TestStartInstallsRootAndRun(t *testing.T) {
	root := mkTree(t, "a")
	sink := &collectSink{}
	fk := newFakeKernel()
	w := New(root, nil, sink, nil)
	w.newKernel = func() (kernel, error) { return fk, nil }

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if w.cache.len() != 2 {
		t.Fatalf("cache len = %d; want 2 (root, a)", w.cache.len())
	}

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	w.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	if !fk.closed {
		t.Fatalf("kernel should be closed after Run returns")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	root := mkTree(t)
	fk := newFakeKernel()
	w := New(root, nil, nil, nil)
	w.newKernel = func() (kernel, error) { return fk, nil }

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop() // must not panic on a double close of the wakeup signal
}

func TestStartFailsWhenRootWatchCannotBeInstalled(t *testing.T) {
	root := mkTree(t)
	fk := newFakeKernel()
	fk.failAdd[root] = errFakeAddWatch

	w := New(root, nil, nil, nil)
	w.newKernel = func() (kernel, error) { return fk, nil }

	if err := w.Start(); err == nil {
		t.Fatalf("Start should fail when the root watch itself cannot be installed")
	} else if _, ok := err.(*InitError); !ok {
		t.Fatalf("Start error = %T; want *InitError", err)
	}
}

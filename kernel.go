package watchtree

import (
	"bytes"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxNameLen bounds the name component of a single inotify record for
// the purpose of sizing the read buffer (Linux's NAME_MAX).
const maxNameLen = 255

// maxRecordSize is the largest a single packed inotify record can be:
// fixed header plus a null-padded name.
const maxRecordSize = unix.SizeofInotifyEvent + maxNameLen + 1

// bufferRecords is how many maximum-size records the event buffer is
// sized to hold; a single drain of the kernel source typically empties
// it well before this limit is reached.
const bufferRecords = 4096

const eventBufferSize = bufferRecords * maxRecordSize

// kernel is the notification source the watcher reads from: an
// inotify source, multiplexed against a one-shot wakeup object via
// epoll. It is implemented by inotifyKernel for real use, and by a
// fake in tests so the Interpreter and Lifecycle Controller can be
// exercised without a real kernel.
type kernel interface {
	// addWatch registers path with the given inotify mask, returning
	// its watch descriptor.
	addWatch(path string, mask uint32) (int32, error)
	// removeWatch deregisters wd. Errors are tolerated by callers during
	// best-effort teardown.
	removeWatch(wd int32) error
	// drain blocks until the inotify source has data or the wakeup
	// object fires, then returns the raw events read (if any) and
	// whether the wakeup fired. It never blocks if stop was already
	// signaled and not yet drained.
	drain() (events []rawEvent, stopped bool, err error)
	// signalStop interrupts the in-progress call to drain, or the next
	// one if none is in progress. Calling it again before that drain
	// has no further effect.
	signalStop()
	// close releases all kernel resources. Must not fail from the
	// caller's perspective: errors are swallowed internally.
	close()
}

// inotifyKernel owns three descriptors: an inotify instance, an
// eventfd-backed wakeup, and an epoll instance multiplexing
// the two. It is confined to the watcher goroutine except for
// signalStop, which the controller goroutine calls to cancel a blocking
// drain.
type inotifyKernel struct {
	inotifyFd int
	eventFd   int
	epollFd   int
	buf       []byte
}

func newInotifyKernel() (*inotifyKernel, error) {
	inotifyFd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("inotify_init1", err)
	}
	eventFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(inotifyFd)
		return nil, os.NewSyscallError("eventfd", err)
	}
	epollFd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(inotifyFd)
		unix.Close(eventFd)
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	k := &inotifyKernel{inotifyFd: inotifyFd, eventFd: eventFd, epollFd: epollFd}
	for _, fd := range []int{inotifyFd, eventFd} {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epollFd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			k.close()
			return nil, os.NewSyscallError("epoll_ctl", err)
		}
	}
	k.buf = make([]byte, eventBufferSize)
	return k, nil
}

func (k *inotifyKernel) addWatch(path string, mask uint32) (int32, error) {
	wd, err := unix.InotifyAddWatch(k.inotifyFd, path, mask)
	if err != nil {
		return 0, os.NewSyscallError("inotify_add_watch", err)
	}
	return int32(wd), nil
}

func (k *inotifyKernel) removeWatch(wd int32) error {
	if _, err := unix.InotifyRmWatch(k.inotifyFd, uint32(wd)); err != nil {
		return os.NewSyscallError("inotify_rm_watch", err)
	}
	return nil
}

func (k *inotifyKernel) signalStop() {
	var one uint64 = 1
	b := (*[8]byte)(unsafe.Pointer(&one))[:]
	_, _ = unix.Write(k.eventFd, b)
}

func (k *inotifyKernel) drain() ([]rawEvent, bool, error) {
	events := make([]unix.EpollEvent, 2)
	for {
		n, err := unix.EpollWait(k.epollFd, events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, false, os.NewSyscallError("epoll_wait", err)
		}
		stopped := false
		readable := false
		for i := 0; i < n; i++ {
			switch int(events[i].Fd) {
			case k.eventFd:
				stopped = true
			case k.inotifyFd:
				readable = true
			}
		}
		if stopped {
			var buf [8]byte
			_, _ = unix.Read(k.eventFd, buf[:])
		}
		if !readable {
			return nil, stopped, nil
		}
		n64, err := unix.Read(k.inotifyFd, k.buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				return nil, stopped, nil
			}
			return nil, stopped, os.NewSyscallError("read", err)
		}
		return parseEvents(k.buf[:n64]), stopped, nil
	}
}

func (k *inotifyKernel) close() {
	_ = unix.EpollCtl(k.epollFd, unix.EPOLL_CTL_DEL, k.inotifyFd, nil)
	_ = unix.EpollCtl(k.epollFd, unix.EPOLL_CTL_DEL, k.eventFd, nil)
	unix.Close(k.inotifyFd)
	unix.Close(k.eventFd)
	unix.Close(k.epollFd)
}

// parseEvents walks a buffer of packed inotify records, producing one
// rawEvent per record. Records whose mask carries IN_IGNORED are
// dropped: the kernel has itself torn down that watch, and the cache's
// own removal logic would double-process it otherwise.
func parseEvents(buf []byte) []rawEvent {
	var out []rawEvent
	for pos := 0; pos+unix.SizeofInotifyEvent <= len(buf); {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[pos]))
		pos += unix.SizeofInotifyEvent
		var name string
		if raw.Len > 0 {
			end := pos + int(raw.Len)
			if end > len(buf) {
				break
			}
			name = string(bytes.TrimRight(buf[pos:end], "\x00"))
			pos = end
		}
		if raw.Mask&unix.IN_IGNORED != 0 {
			continue
		}
		out = append(out, rawEvent{
			wd:     raw.Wd,
			mask:   raw.Mask,
			cookie: raw.Cookie,
			name:   name,
		})
	}
	return out
}

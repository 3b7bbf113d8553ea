package watchtree

import "golang.org/x/sys/unix"

// rawEvent is an immutable record of a single kernel inotify
// notification, parsed out of the event buffer. It is consumed exactly
// once by the Interpreter and never mutated.
type rawEvent struct {
	wd     int32
	mask   uint32
	cookie uint32
	name   string
}

func (e rawEvent) isDir() bool        { return e.mask&unix.IN_ISDIR != 0 }
func (e rawEvent) is(bit uint32) bool { return e.mask&bit != 0 }

// installMask is the event set registered on every watched directory:
// creation, deletion, any move, modification, and don't-follow-symlinks.
const installMask = unix.IN_CREATE | unix.IN_DELETE | unix.IN_MOVE |
	unix.IN_MODIFY | unix.IN_DONT_FOLLOW

// rootExtraMask is ORed into installMask for the root directory only,
// so that self-delete/self-move notifications fire once instead of once
// per descendant.
const rootExtraMask = unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// eventQueue is a first-in-first-out queue of rawEvents awaiting
// interpretation. Order matches kernel delivery order, which is what
// makes cookie-adjacency pairing correct.
type eventQueue struct {
	items []rawEvent
}

func (q *eventQueue) push(e rawEvent) {
	q.items = append(q.items, e)
}

func (q *eventQueue) empty() bool {
	return len(q.items) == 0
}

// front peeks at the queue head without removing it. Only valid when
// !empty().
func (q *eventQueue) front() rawEvent {
	return q.items[0]
}

// pop removes and returns the queue head. Only valid when !empty().
func (q *eventQueue) pop() rawEvent {
	e := q.items[0]
	q.items = q.items[1:]
	return e
}

// reset clears the queue, used during reinitialization.
func (q *eventQueue) reset() {
	q.items = q.items[:0]
}

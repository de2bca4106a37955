// Package history records the output of a child process as an ordered,
// append-only sequence of chunks.
//
// A [Buffer] is owned by exactly one writer (the stream pump for its
// channel). Everything else receives the read-only [View] interface, which
// exposes snapshots and an append notification, never mutable access.
package history

import (
	"strings"
	"sync"
)

// View is the read-only surface of a Buffer handed to waiters and callers.
type View interface {
	// Name identifies the channel, e.g. "stdout" or "stderr".
	Name() string

	// Len returns the number of chunks recorded so far.
	Len() int

	// Last returns the most recently appended chunk.
	// The boolean is false when nothing has been recorded.
	Last() (string, bool)

	// Since returns a copy of the chunks at index i and later.
	Since(i int) []string

	// Snapshot returns a copy of every recorded chunk in arrival order.
	Snapshot() []string

	// Text returns all chunks concatenated.
	Text() string

	// Subscribe registers for append notifications. The returned channel
	// receives a signal after one or more appends; signals coalesce, so a
	// subscriber must re-read with Since. length is the buffer length at the
	// instant of registration. cancel must be called to unregister.
	Subscribe() (notify <-chan struct{}, length int, cancel func())
}

// Appender is implemented by anything chunks can be recorded into.
type Appender interface {
	Append(chunk string)
}

// Buffer is an unbounded, append-only history of output chunks.
//
// # How It Works
//
// Chunks are stored in a slice in arrival order. Every Append signals all
// current subscribers through a one-slot channel, so a slow subscriber
// never blocks the writer; it simply finds several new chunks on its next
// read.
//
//	Append "a":   [a]        notify(s1, s2)
//	Append "b":   [a, b]     notify(s1, s2)  (s1 still has a pending signal: coalesced)
//	s1 Since(0):  [a, b]
//
// # Thread Safety
//
// All methods are safe for concurrent use. Buffer uses a sync.RWMutex:
//   - Append, Write and Subscribe acquire exclusive locks
//   - Len, Last, Since, Snapshot and Text acquire shared locks
//
// # Interface Compatibility
//
// Buffer implements io.Writer; each Write call records one chunk.
type Buffer struct {
	name   string
	chunks []string
	subs   map[uint64]chan struct{}
	nextID uint64
	mu     sync.RWMutex
}

var (
	_ View     = (*Buffer)(nil)
	_ Appender = (*Buffer)(nil)
)

// NewBuffer creates an empty buffer for the named channel.
func NewBuffer(name string) *Buffer {
	return &Buffer{
		name: name,
		subs: make(map[uint64]chan struct{}),
	}
}

// Name returns the channel name given to NewBuffer.
func (b *Buffer) Name() string {
	return b.name
}

// Append records chunk at the end of the history and notifies subscribers.
// Append never fails.
func (b *Buffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, chunk)

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; the subscriber will see this chunk too.
		}
	}
}

// Write records p as a single chunk, implementing io.Writer.
//
// Write always succeeds and returns len(p), nil.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.Append(string(p))
	return len(p), nil
}

// Len returns the number of recorded chunks.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.chunks)
}

// Last returns the most recently appended chunk, or false when empty.
func (b *Buffer) Last() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.chunks) == 0 {
		return "", false
	}
	return b.chunks[len(b.chunks)-1], true
}

// Since returns a copy of chunks[i:]. Out of range indexes are clamped.
func (b *Buffer) Since(i int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i < 0 {
		i = 0
	}
	if i >= len(b.chunks) {
		return nil
	}
	return append([]string(nil), b.chunks[i:]...)
}

// Snapshot returns a copy of all chunks in arrival order.
func (b *Buffer) Snapshot() []string {
	return b.Since(0)
}

// Text returns the concatenation of all chunks.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return strings.Join(b.chunks, "")
}

// Subscribe registers an append listener. See View.Subscribe.
func (b *Buffer) Subscribe() (<-chan struct{}, int, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}

	return ch, len(b.chunks), cancel
}

// Subscribers returns the number of registered listeners.
func (b *Buffer) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

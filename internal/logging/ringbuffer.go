package logging

import (
	"os"
	"sync"
)

// RingBuffer keeps the last N bytes written to it. It is safe for concurrent
// writers and never returns an error from Write.
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	next  int
	ready bool // data has wrapped at least once
}

// NewRingBuffer returns a buffer holding at most size bytes.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1 << 20
	}
	return &RingBuffer{data: make([]byte, size)}
}

func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	capacity := len(rb.data)
	if n >= capacity {
		copy(rb.data, p[n-capacity:])
		rb.next = 0
		rb.ready = true
		return n, nil
	}

	first := copy(rb.data[rb.next:], p)
	if first < n {
		copy(rb.data, p[first:])
		rb.ready = true
	}
	rb.next = (rb.next + n) % capacity
	if rb.next == 0 && n > 0 {
		rb.ready = true
	}
	return n, nil
}

// Bytes returns a copy of the contents, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.ready {
		return append([]byte(nil), rb.data[:rb.next]...)
	}
	out := make([]byte, 0, len(rb.data))
	out = append(out, rb.data[rb.next:]...)
	return append(out, rb.data[:rb.next]...)
}

// DumpToFile writes Bytes to path.
func (rb *RingBuffer) DumpToFile(path string) error {
	return os.WriteFile(path, rb.Bytes(), 0o600)
}

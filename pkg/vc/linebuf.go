package vc

// LineCapacity is the size of the line buffer including the
// terminator slot.
const LineCapacity = 16

// LineAssembler collects printable bytes into lines.
// Bytes beyond LineCapacity-1 are dropped without notice and the
// truncated line is still dispatched on the terminator. A line that
// never sees its terminator is never dispatched.
type LineAssembler struct {
	Terminator byte

	buf [LineCapacity - 1]byte
	n   int
}

// NewLineAssembler creates a LineAssembler.
func NewLineAssembler(terminator byte) *LineAssembler {
	return &LineAssembler{Terminator: terminator}
}

// Feed consumes one byte. It returns the completed line and true when
// b is the terminator. The returned slice is only valid until the next
// call to Feed.
func (a *LineAssembler) Feed(b byte) ([]byte, bool) {
	switch {
	case b >= 0x20 && b < 0x80:
		a.push(b)
	case b == a.Terminator:
		line := a.buf[:a.n]
		a.Reset()
		return line, true
	}
	return nil, false
}

// Len returns the number of buffered bytes.
func (a *LineAssembler) Len() int {
	return a.n
}

// IsFull indicates further printable bytes will be dropped.
func (a *LineAssembler) IsFull() bool {
	return a.n >= len(a.buf)
}

// Reset discards the buffered bytes.
func (a *LineAssembler) Reset() {
	a.n = 0
}

func (a *LineAssembler) push(b byte) {
	if a.IsFull() {
		return
	}
	a.buf[a.n] = b
	a.n++
}

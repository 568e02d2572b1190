package codegen

import "bytes"

// OutputBuffer accumulates rendered output for one file at a time.
type OutputBuffer struct {
	buf bytes.Buffer
}

// Write appends p. It never fails.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// Len returns the number of pending bytes.
func (b *OutputBuffer) Len() int {
	return b.buf.Len()
}

// TakeAndClear returns the pending bytes and empties the buffer, so the same
// output can never be written twice or leak into the next file.
func (b *OutputBuffer) TakeAndClear() []byte {
	out := bytes.Clone(b.buf.Bytes())
	b.buf.Reset()
	return out
}

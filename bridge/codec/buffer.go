package codec

import "fmt"

// outputBuffer serializes sections into a pre-allocated byte slice. The
// cursor never moves past the end of the slice.
type outputBuffer struct {
	b   []byte
	off int
}

func newOutputBuffer(b []byte) *outputBuffer {
	return &outputBuffer{b: b}
}

// PutRawBytes copies in at the cursor and advances it. It matches
// amqpvalue.EmitFunc so it can be handed to the value layer directly.
func (e *outputBuffer) PutRawBytes(in []byte) error {
	if len(in) > len(e.b)-e.off {
		return fmt.Errorf("write of %d bytes at offset %d overflows %d byte buffer",
			len(in), e.off, len(e.b))
	}
	copy(e.b[e.off:], in)
	e.off += len(in)
	return nil
}

// Len returns the number of bytes written so far.
func (e *outputBuffer) Len() int {
	return e.off
}

// Bytes returns the full buffer once every byte has been written.
func (e *outputBuffer) Bytes() ([]byte, error) {
	if e.off != len(e.b) {
		return nil, fmt.Errorf("wrote %d of %d bytes", e.off, len(e.b))
	}
	return e.b, nil
}

package packet

import (
	"encoding/binary"
	"math"
)

// maxBlockLen is the largest body a [len H] block can carry.
const maxBlockLen = math.MaxUint16

// Writer builds a packet body. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteC(1)
		return
	}
	w.WriteC(0)
}

func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteD(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) WriteDU(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteF(v float32) {
	w.WriteDU(math.Float32bits(v))
}

// WriteF3 writes three float32 fields.
func (w *Writer) WriteF3(x, y, z float32) {
	w.WriteF(x)
	w.WriteF(y)
	w.WriteF(z)
}

// WriteS writes a NUL-terminated string in the client charset.
func (w *Writer) WriteS(s string) {
	w.buf = append(w.buf, encodeString(s)...)
	w.buf = append(w.buf, 0)
}

// WriteBlock writes b as a [len H][bytes] block. Bodies longer than a
// block can describe are truncated.
func (w *Writer) WriteBlock(b []byte) {
	if len(b) > maxBlockLen {
		b = b[:maxBlockLen]
	}
	w.WriteH(uint16(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the body written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

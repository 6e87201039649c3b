package packet

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBody reports a read past the end of a packet body.
var ErrShortBody = errors.New("packet body too short")

// Reader decodes little-endian fields from a packet body. A read past the
// end yields a zero value and marks the reader failed; handlers check Err
// once after decoding instead of after every field.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(body []byte) *Reader {
	return &Reader{data: body}
}

// take returns the next n bytes, or nil and a sticky failure when fewer
// remain.
func (r *Reader) take(n int) []byte {
	if r.short || n < 0 || r.off+n > len(r.data) {
		r.short = true
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Err returns ErrShortBody if any read ran past the end of the body.
func (r *Reader) Err() error {
	if r.short {
		return ErrShortBody
	}
	return nil
}

func (r *Reader) ReadC() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) ReadBool() bool {
	return r.ReadC() != 0
}

func (r *Reader) ReadH() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) ReadD() int32 {
	return int32(r.ReadDU())
}

func (r *Reader) ReadDU() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// ReadF reads an IEEE-754 float32.
func (r *Reader) ReadF() float32 {
	return math.Float32frombits(r.ReadDU())
}

// ReadF3 reads three float32 fields, the layout of positions and rotations.
func (r *Reader) ReadF3() (x, y, z float32) {
	return r.ReadF(), r.ReadF(), r.ReadF()
}

// ReadS reads a NUL-terminated string in the client charset and returns
// UTF-8. A missing terminator fails the reader.
func (r *Reader) ReadS() string {
	if r.short {
		return ""
	}
	for i := r.off; i < len(r.data); i++ {
		if r.data[i] == 0 {
			raw := r.data[r.off:i]
			r.off = i + 1
			return decodeString(raw)
		}
	}
	r.take(len(r.data) - r.off + 1)
	return ""
}

// ReadBlock reads a [len H][bytes] block and returns a copy of the bytes.
func (r *Reader) ReadBlock() []byte {
	n := int(r.ReadH())
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Rest returns every unread byte without copying.
func (r *Reader) Rest() []byte {
	rest := r.data[r.off:]
	r.off = len(r.data)
	return rest
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

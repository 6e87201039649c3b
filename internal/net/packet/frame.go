package packet

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the packet header inside a transport frame:
// [2B LE opcode][4B LE seq].
const HeaderSize = 6

// Encode prepends the packet header to body.
func Encode(opcode uint16, seq uint32, body []byte) []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(body))
	binary.LittleEndian.PutUint16(out[0:2], opcode)
	binary.LittleEndian.PutUint32(out[2:6], seq)
	return append(out, body...)
}

// Decode splits a frame into header fields and body. The body aliases data.
func Decode(data []byte) (opcode uint16, seq uint32, body []byte, err error) {
	if len(data) < HeaderSize {
		return 0, 0, nil, fmt.Errorf("short packet: %d bytes", len(data))
	}
	opcode = binary.LittleEndian.Uint16(data[0:2])
	seq = binary.LittleEndian.Uint32(data[2:6])
	return opcode, seq, data[HeaderSize:], nil
}

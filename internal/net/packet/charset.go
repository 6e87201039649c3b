package packet

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// clientCharset is the encoding of strings on the wire. Set once at boot.
var clientCharset encoding.Encoding = unicode.UTF8

// SetCharset selects the client string encoding by WHATWG label
// ("utf-8", "big5", "gbk", "shift_jis", ...).
func SetCharset(label string) error {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return fmt.Errorf("unknown client charset %q: %w", label, err)
	}
	clientCharset = enc
	return nil
}

func isASCII(raw []byte) bool {
	for _, b := range raw {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// decodeString converts client-charset bytes to UTF-8.
// Pure ASCII passes through unchanged.
func decodeString(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if isASCII(raw) || clientCharset == unicode.UTF8 {
		return string(raw)
	}
	decoded, err := clientCharset.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw) // fallback to raw bytes
	}
	return string(decoded)
}

func encodeString(s string) []byte {
	if s == "" || clientCharset == unicode.UTF8 || isASCII([]byte(s)) {
		return []byte(s)
	}
	encoded, err := clientCharset.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

package protocol

import (
	"encoding/hex"
	"strings"
)

// ParseHex converts textual hex into bytes. ASCII whitespace between
// digits is ignored and a leading 0x is accepted.
func ParseHex(s string) ([]byte, error) {
	lead := 0
	for lead < len(s) && isHexSpace(s[lead]) {
		lead++
	}
	body := strings.TrimRightFunc(s[lead:], func(r rune) bool {
		return r < 0x80 && isHexSpace(byte(r))
	})
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body = body[2:]
		lead += 2
	}

	digits := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case isHexSpace(c):
			continue
		case isHexDigit(c):
			digits = append(digits, c)
		default:
			return nil, &MalformedHexError{Input: s, Offset: lead + i, Reason: "non-hex character"}
		}
	}
	if len(digits)%2 != 0 {
		return nil, &MalformedHexError{Input: s, Offset: -1, Reason: "odd number of hex digits"}
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, &MalformedHexError{Input: s, Offset: -1, Reason: err.Error()}
	}
	return out, nil
}

// FormatHex renders raw as lowercase hex with no separators.
func FormatHex(raw []byte) string {
	return hex.EncodeToString(raw)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isHexSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

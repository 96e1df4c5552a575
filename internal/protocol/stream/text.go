package stream

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// WriteString writes s as UTF-8 followed by zero padding. maxLen bounds the
// number of bytes written, terminator included; maxLen <= 0 writes the whole
// string plus one terminator byte. Content that does not fit is cut at a
// rune boundary. When the content fills maxLen exactly no terminator is
// written, and readers rely on the same budget to stop.
func (s *Stream) WriteString(str string, maxLen int) error {
	content := []byte(strings.ToValidUTF8(str, "\uFFFD"))
	n := len(content) + 1
	if maxLen > 0 && maxLen < n {
		n = maxLen
		content = truncateRunes(content, n)
	}
	b, err := s.put("WriteString", n)
	if err != nil {
		return err
	}
	copied := copy(b, content)
	clear(b[copied:])
	return nil
}

// ReadString reads at most maxLen bytes, stopping after the first zero byte.
// maxLen <= 0 reads up to the end of the buffer. On error the cursor does
// not move.
func (s *Stream) ReadString(maxLen int) (string, error) {
	left := s.BytesLeft()
	limit := left
	if maxLen > 0 && maxLen < left {
		limit = maxLen
	}
	window := s.buf[s.index : s.index+limit]
	if i := bytes.IndexByte(window, 0); i >= 0 {
		s.index += i + 1
		return decodeText(window[:i]), nil
	}
	if maxLen > 0 && limit < maxLen {
		return "", &BoundsError{Op: "ReadString", Index: s.index, Need: left + 1, Left: left}
	}
	s.index += limit
	return decodeText(window), nil
}

func truncateRunes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return b[:cut]
}

func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

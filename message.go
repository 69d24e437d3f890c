package emitter

import (
	"strconv"
	"strings"
)

// Template is a message format with one or more {i} placeholders.
type Template string

// Render returns the wire form of message i: the template with every
// placeholder replaced by i, terminated by exactly one carriage return.
func (t Template) Render(i int) string {
	return string(t.AppendTo(nil, i))
}

// AppendTo appends the wire form of message i to dst.
func (t Template) AppendTo(dst []byte, i int) []byte {
	start := len(dst)
	s := string(t)
	for {
		idx := strings.Index(s, Placeholder)
		if idx == -1 {
			dst = append(dst, s...)
			break
		}
		dst = append(dst, s[:idx]...)
		dst = strconv.AppendInt(dst, int64(i), 10)
		s = s[idx+len(Placeholder):]
	}
	// ensure delimiter
	if len(dst) == start || dst[len(dst)-1] != LineTerminator {
		dst = append(dst, LineTerminator)
	}
	return dst
}

// RenderedLen is the length of the wire form of message i.
func (t Template) RenderedLen(i int) int {
	n := len(t) + strings.Count(string(t), Placeholder)*(len(strconv.Itoa(i))-len(Placeholder))
	if !strings.HasSuffix(string(t), string(LineTerminator)) {
		n++
	}
	return n
}

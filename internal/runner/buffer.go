package runner

// boundedBuffer keeps the first limit bytes written to it and silently
// drops the rest. Write never fails.
type boundedBuffer struct {
	buf       []byte
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	if limit <= 0 {
		limit = DefaultMaxCapture
	}
	return &boundedBuffer{limit: limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - len(b.buf)
	switch {
	case len(p) <= room:
		b.buf = append(b.buf, p...)
	case room > 0:
		b.buf = append(b.buf, p[:room]...)
		b.truncated = true
	case len(p) > 0:
		b.truncated = true
	}
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte { return b.buf }

func (b *boundedBuffer) Truncated() bool { return b.truncated }

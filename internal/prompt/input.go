package prompt

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"
)

// Input is the operator's input stream. The prompts read answers from it
// and child processes that ask their own questions (unzip's overwrite
// prompt) read the rest, so nothing typed ahead is lost in between.
type Input struct {
	src io.Reader
	r   *bufio.Reader
}

// NewInput wraps src.
func NewInput(src io.Reader) *Input {
	return &Input{src: src, r: bufio.NewReader(src)}
}

// Read reads from the buffered stream.
func (in *Input) Read(p []byte) (int, error) {
	return in.r.Read(p)
}

// Reader returns the stream to hand to a child process. When nothing is
// buffered and src is a file, that is the file itself, so the child reads
// the terminal directly; otherwise it is the buffered stream.
func (in *Input) Reader() io.Reader {
	if in.r.Buffered() == 0 {
		if f, ok := in.src.(*os.File); ok {
			return f
		}
	}
	return in.r
}

// word reads one whitespace-delimited token. Blanks after it up to and
// including the end of its line are consumed as well.
func (in *Input) word() (string, error) {
	var sb strings.Builder
	for {
		r, _, err := in.r.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", err
			}
			if sb.Len() == 0 {
				return "", ErrNoInput
			}
			return sb.String(), nil
		}
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
			continue
		}
		if sb.Len() == 0 {
			continue
		}
		if r != '\n' {
			in.skipToEOL()
		}
		return sb.String(), nil
	}
}

// skipToEOL drops blanks and one newline, stopping at anything else.
func (in *Input) skipToEOL() {
	for {
		r, _, err := in.r.ReadRune()
		if err != nil {
			return
		}
		switch r {
		case '\n':
			return
		case ' ', '\t', '\r':
		default:
			_ = in.r.UnreadRune()
			return
		}
	}
}

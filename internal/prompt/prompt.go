// Package prompt asks the operator for the values twofzip cannot derive
// from its command line: the authentication code when extracting and the
// recipient's phone number after an archive has been created.
package prompt

import (
	"errors"
	"fmt"
	"io"

	"github.com/atinyakov/twofzip/internal/authcode"
)

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input")

// Prompter reads whitespace-delimited answers from an Input and writes
// questions to out.
type Prompter struct {
	in  *Input
	out io.Writer
}

// New returns a Prompter reading from in and writing to out. An *Input is
// used as is so it can be shared with child processes.
func New(in io.Reader, out io.Writer) *Prompter {
	input, ok := in.(*Input)
	if !ok {
		input = NewInput(in)
	}
	return &Prompter{in: input, out: out}
}

// Input returns the stream the Prompter reads from.
func (p *Prompter) Input() *Input { return p.in }

// AuthCode asks for the code that was sent to the recipient.
// The answer is not validated; a wrong code simply fails to open the archive.
func (p *Prompter) AuthCode() (authcode.Code, error) {
	answer, err := p.ask("Enter 2Factor Authentication Code: \n  ")
	if err != nil {
		return "", fmt.Errorf("read authentication code: %w", err)
	}
	return authcode.Code(answer), nil
}

// PhoneNumber asks for the recipient's number. The format is not checked.
func (p *Prompter) PhoneNumber() (string, error) {
	answer, err := p.ask("Enter recipient's (10-digit) phone number (form: xxxxxxxxxx): \n")
	if err != nil {
		return "", fmt.Errorf("read phone number: %w", err)
	}
	return answer, nil
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	return p.in.word()
}

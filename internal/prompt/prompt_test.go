package prompt

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/atinyakov/twofzip/internal/authcode"
)

func TestAuthCode(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  0420\n"), &out)

	code, err := p.AuthCode()
	if err != nil {
		t.Fatalf("AuthCode returned error: %v", err)
	}
	if code != authcode.Code("0420") {
		t.Errorf("code = %q; want %q", code, "0420")
	}
	if !strings.Contains(out.String(), "Enter 2Factor Authentication Code") {
		t.Errorf("prompt not written, got %q", out.String())
	}
}

func TestPhoneNumber(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("5551234567\n"), &out)

	num, err := p.PhoneNumber()
	if err != nil {
		t.Fatalf("PhoneNumber returned error: %v", err)
	}
	if num != "5551234567" {
		t.Errorf("number = %q; want %q", num, "5551234567")
	}
	if !strings.Contains(out.String(), "phone number") {
		t.Errorf("prompt not written, got %q", out.String())
	}
}

func TestSequentialAnswers(t *testing.T) {
	p := New(strings.NewReader("1234 5551234567"), io.Discard)

	code, err := p.AuthCode()
	if err != nil || code != "1234" {
		t.Fatalf("AuthCode = %q, %v; want 1234, nil", code, err)
	}
	num, err := p.PhoneNumber()
	if err != nil || num != "5551234567" {
		t.Fatalf("PhoneNumber = %q, %v; want 5551234567, nil", num, err)
	}
}

func TestEmptyInput(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)

	_, err := p.PhoneNumber()
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("error = %v; want ErrNoInput", err)
	}
}

func TestFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.WriteString("9876\n")
	w.Close()
	defer r.Close()

	p := New(r, io.Discard)
	code, err := p.AuthCode()
	if err != nil {
		t.Fatalf("AuthCode returned error: %v", err)
	}
	if code != "9876" {
		t.Errorf("code = %q; want %q", code, "9876")
	}
}

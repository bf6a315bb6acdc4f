// Package authcode generates the short numeric one-time code that forms the
// first half of an archive's compound password.
package authcode

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// Length is the number of digits in a Code.
	Length = 4

	// Delimiter joins a Code and the base password.
	Delimiter = ":"

	// space is the number of distinct codes, 10^Length.
	space = 10000
)

// Code is a zero-padded numeric authentication code such as "0042".
type Code string

// Source yields pseudo-random integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Generator draws Codes from a Source.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator reading from src.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// NewTimeSeededGenerator seeds a PCG source from the wall clock in whole
// seconds. The result is predictable to anyone who knows roughly when the
// archive was made; the code is a convenience factor, not a key.
func NewTimeSeededGenerator() *Generator {
	seed := uint64(time.Now().Unix())
	return NewGenerator(rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// Generate returns a fresh Code.
func (g *Generator) Generate() Code {
	return Format(g.src.IntN(space))
}

// Format renders n (taken modulo 10^Length) as a zero-padded Code.
// Negative n wraps around, so every int maps into [0, 10^Length).
func Format(n int) Code {
	return Code(fmt.Sprintf("%0*d", Length, ((n%space)+space)%space))
}

// Valid reports whether c is exactly Length decimal digits.
func (c Code) Valid() bool {
	if len(c) != Length {
		return false
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// Compound joins code and password into the archive passphrase.
// The delimiter is not escaped, so a password containing it yields a
// passphrase that cannot be split back unambiguously.
func Compound(code Code, password string) string {
	return string(code) + Delimiter + password
}

// Ambiguous reports whether password contains the Delimiter.
func Ambiguous(password string) bool {
	return strings.Contains(password, Delimiter)
}

package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atinyakov/twofzip/internal/archive"
)

// minArgs counts the mode keyword, the password and the archive name.
const minArgs = 3

// ErrUsage reports a command line that cannot be turned into an Invocation.
var ErrUsage = errors.New("invalid invocation")

// Invocation is a parsed command line.
type Invocation struct {
	Mode     archive.Mode
	Password string
	// Flags are passed to the archiver verbatim, before the archive name.
	Flags   []string
	Archive string
	// Files are the members to add, or to extract when decrypting.
	Files []string
}

// ParseArgs parses the arguments following the program name:
//
//	-e password [zip_parameters] archive file...
//	-d password [unzip_parameters] archive [member...]
//
// The archive is the first argument after the password that does not start
// with '-'; everything between the password and the archive is a flag.
func ParseArgs(args []string) (Invocation, error) {
	if len(args) < minArgs {
		return Invocation{}, fmt.Errorf("%w: need at least %d arguments, got %d", ErrUsage, minArgs, len(args))
	}
	mode, ok := archive.ParseMode(args[0])
	if !ok {
		return Invocation{}, fmt.Errorf("%w: unknown mode %q", ErrUsage, args[0])
	}

	rest := args[2:]
	i := slices.IndexFunc(rest, func(s string) bool { return !strings.HasPrefix(s, "-") })
	if i < 0 {
		return Invocation{}, fmt.Errorf("%w: no archive filename", ErrUsage)
	}

	return Invocation{
		Mode:     mode,
		Password: args[1],
		Flags:    slices.Clone(rest[:i]),
		Archive:  rest[i],
		Files:    slices.Clone(rest[i+1:]),
	}, nil
}

package app

import (
	"fmt"
	"io"
)

const usage = `2Factor Zip
Usage:
  %[1]s -e password [zip_parameters] zipfilename.2fz filelist
  %[1]s -d password [unzip_parameters] zipfilename.2fz
Available zip/unzip parameters:
  -r   recurse into directories     -j   junk (don't record) directory names
  -0   store only                   -l   convert LF to CR LF (-ll CR LF to LF)
  -1   compress faster              -9   compress better
  -q   quiet operation              -v   verbose operation/print version info
  -c   add one-line comments        -z   add zipfile comment
`

// Usage writes the help text for the program called name.
func Usage(w io.Writer, name string) {
	fmt.Fprintf(w, usage, name)
}

package main

import (
	"os"
	"strings"

	"folio-cli/internal/cli"
	"folio-cli/internal/store"
)

// Persistent flags that take a value. Unknown flags are assumed boolean so an
// id is never swallowed as a flag value.
var valueFlags = map[string]bool{
	"--endpoint":  true,
	"--user":      true,
	"--workspace": true,
	"--format":    true,
	"--log-level": true,
	"--log-file":  true,
}

// firstPositional returns the index of the first non-flag token, or -1.
func firstPositional(argv []string) int {
	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) {
				return i + 1
			}
			return -1
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		return i
	}
	return -1
}

// rewriteDirectLookupArgs turns `folio <doc-…|fld-…>` into
// `folio cache show <id>`. Cobra treats the first positional as a
// subcommand, so argv is rewritten before parsing.
func rewriteDirectLookupArgs(argv []string) []string {
	i := firstPositional(argv)
	if i < 0 || !store.IsEntityID(argv[i]) {
		return argv
	}
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:i]...)
	out = append(out, "cache", "show")
	return append(out, argv[i:]...)
}

func main() {
	os.Args = rewriteDirectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package govern

import (
	"fmt"
	"os"
	"runtime"
)

// diagf writes a diagnostic to stderr with file:line context, in the same
// spirit as moriarty's "moriarty: ..." prefix and the original source's
// GOV_ERR macro (which used __FILE__/__LINE__/__func__). No diagnostic is
// ever written to the backing file (spec.md §7).
func diagf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "???", 0
	}
	fmt.Fprintf(os.Stderr, "govthread: %s:%d: "+format+"\n", append([]any{file, line}, args...)...)
}

// fatalf reports a diagnostic and aborts the process. Used for spec.md §7
// tier 3 (PRESET inconsistency), tier 5 (invalid GOV_MODE), and, per the
// "stricter variant" allowed by tier 2, misuse of Subscribe.
func fatalf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "???", 0
	}
	fmt.Fprintf(os.Stderr, "govthread: %s:%d: "+format+"\n", append([]any{file, line}, args...)...)
	os.Exit(1)
}

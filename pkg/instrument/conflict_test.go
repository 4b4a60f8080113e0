package instrument_test

import (
	"bytes"
	"go/printer"
	"go/token"
	"strings"
	"testing"

	"github.com/brnhx/govthread/pkg/instrument"
)

// A user import named "govern" must not collide with the mangled alias this
// package generates for its own governor import.
func TestNoGovernImportConflict(t *testing.T) {
	src := `package main

import govern "some/other/govern"

func main() {
	govern.DoSomething()
	//govthread:controlpoint
	step()
}

func step() {}
`

	instr := instrument.NewInstrumenter(nil)
	fset := token.NewFileSet()

	f, err := instr.InstrumentFile(fset, "test.go", src)
	if err != nil {
		t.Fatalf("InstrumentFile failed: %v", err)
	}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, f); err != nil {
		t.Fatalf("Failed to print AST: %v", err)
	}

	result := buf.String()

	if !strings.Contains(result, `"some/other/govern"`) {
		t.Error("expected original govern import to be preserved")
	}
	if !strings.Contains(result, "__govthread_") {
		t.Error("expected mangled governor alias")
	}
	if !strings.Contains(result, "govern.DoSomething()") {
		t.Error("expected the user's own govern.DoSomething() call to remain unchanged")
	}
}

// Package instrument rewrites Go source to call into pkg/govern at marked
// points, so a program's control points and goroutine spawns don't have to
// be hand-wired to the governor's API. Two comment markers are recognized,
// each attached to the statement immediately below it:
//
//	//govthread:controlpoint
//	doWork()
//
// inserts a call to ControlPoint() immediately before the marked statement,
// and
//
//	//govthread:spawn:workerID
//	go worker(workerID)
//
// rewrites the marked go statement into a call to the governor's spawn
// helper, passing workerID as the threadId and the original call as the
// goroutine body. A spliced marker's own comment line is removed from the
// rewritten file. Everything else in the file is left untouched: this is
// deliberately not the general-purpose race-detection instrumentation a
// full memory-access interceptor would need, since this repo schedules
// control points, not individual memory accesses.
//
// A spawn marker's threadId expression is type-checked, best effort,
// before it's spliced in; an expression that plainly can't reach a uint64
// parameter is rejected rather than silently producing code that won't
// compile.
package instrument

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

const (
	controlPointMarker = "govthread:controlpoint"
	spawnMarkerPrefix  = "govthread:spawn:"
)

// Config holds configuration for the instrumentation.
type Config struct {
	// GovernImportPath is the import path of the governor package.
	GovernImportPath string

	// GovernAlias is the import alias used for the governor package in
	// rewritten files. If empty, a mangled name is generated from
	// GovernImportPath so it can never collide with a user import.
	GovernAlias string

	// ControlPointFunc is the name of the control-point function.
	ControlPointFunc string

	// SpawnFunc is the name of the goroutine-spawn helper.
	SpawnFunc string
}

// DefaultConfig returns a Config pointed at this module's governor package.
func DefaultConfig() *Config {
	return &Config{
		GovernImportPath: "github.com/brnhx/govthread/pkg/govern",
		GovernAlias:      "",
		ControlPointFunc: "ControlPoint",
		SpawnFunc:        "Go",
	}
}

// generateGovernAlias creates a deterministic mangled alias from the import
// path, so the rewritten file's import can never shadow or be shadowed by a
// user-level identifier.
func generateGovernAlias(importPath string) string {
	hash := sha256.Sum256([]byte(importPath))
	return "__govthread_" + hex.EncodeToString(hash[:8])
}

// Instrumenter rewrites parsed Go source according to a Config.
type Instrumenter struct {
	config          *Config
	instrumented    bool  // true if the current file received a rewrite
	anyInstrumented bool  // true if any file in the last batch received one
	lastErr         error // last skipped-marker error, for diagnostics
}

// LastError returns the most recent error that caused a marker to be
// skipped rather than spliced in (an unparsable threadId expression, or one
// that type-checks to something that can't reach the spawn helper's
// uint64 parameter). Markers are still skipped rather than failing the
// whole file, since one malformed marker shouldn't block the rest.
func (instr *Instrumenter) LastError() error {
	return instr.lastErr
}

// NewInstrumenter creates an Instrumenter with the given config. A nil
// config uses DefaultConfig().
func NewInstrumenter(config *Config) *Instrumenter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.GovernAlias == "" {
		config.GovernAlias = generateGovernAlias(config.GovernImportPath)
	}
	return &Instrumenter{config: config}
}

// WasInstrumented reports whether the most recent InstrumentAST/InstrumentFile
// call rewrote anything.
func (instr *Instrumenter) WasInstrumented() bool {
	return instr.instrumented
}

// AnyInstrumented reports whether any file in the most recent InstrumentFiles
// batch was rewritten.
func (instr *Instrumenter) AnyInstrumented() bool {
	return instr.anyInstrumented
}

// InstrumentFile parses and rewrites a single Go source file. src follows
// the same conventions as go/parser.ParseFile (nil reads filename from disk).
func (instr *Instrumenter) InstrumentFile(fset *token.FileSet, filename string, src any) (*ast.File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return instr.InstrumentAST(fset, f), nil
}

// InstrumentFiles parses and rewrites multiple files, tracking whether any
// of them were changed (see AnyInstrumented).
func (instr *Instrumenter) InstrumentFiles(fset *token.FileSet, filenames []string) ([]*ast.File, error) {
	instr.anyInstrumented = false
	files := make([]*ast.File, len(filenames))
	for i, filename := range filenames {
		f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
		instr.InstrumentAST(fset, f)
		if instr.instrumented {
			instr.anyInstrumented = true
		}
		files[i] = f
	}
	return files, nil
}

// InstrumentAST rewrites an already-parsed file in place and returns it.
func (instr *Instrumenter) InstrumentAST(fset *token.FileSet, f *ast.File) *ast.File {
	instr.instrumented = false
	instr.lastErr = nil
	consumed := make(map[*ast.CommentGroup]bool)

	astutil.Apply(f, nil, func(c *astutil.Cursor) bool {
		stmt, ok := c.Node().(ast.Stmt)
		if !ok || !canInsertBefore(c) {
			return true
		}

		cg := commentImmediatelyBefore(fset, f, stmt)
		kind, arg, ok := parseMarker(cg)
		if !ok {
			return true
		}

		switch kind {
		case "controlpoint":
			c.InsertBefore(instr.controlPointCall(stmt.Pos()))
			instr.instrumented = true
			consumed[cg] = true
		case "spawn":
			goStmt, ok := stmt.(*ast.GoStmt)
			if !ok {
				break
			}
			replacement, err := instr.rewriteSpawn(fset, f, goStmt, arg)
			if err != nil {
				instr.lastErr = err
				break
			}
			c.Replace(replacement)
			instr.instrumented = true
			consumed[cg] = true
		}
		return true
	})

	// Spliced marker lines are dropped so the printer can't place them inside generated calls.
	kept := f.Comments[:0]
	for _, cg := range f.Comments {
		if consumed[cg] {
			cg.List = cg.List[:len(cg.List)-1]
		}
		if len(cg.List) > 0 {
			kept = append(kept, cg)
		}
	}
	f.Comments = kept

	if instr.instrumented {
		instr.anyInstrumented = true
		astutil.AddNamedImport(fset, f, instr.config.GovernAlias, instr.config.GovernImportPath)
	}
	return f
}

// commentImmediatelyBefore returns the comment group, if any, whose last
// line is the line directly above stmt's first line.
func commentImmediatelyBefore(fset *token.FileSet, f *ast.File, stmt ast.Stmt) *ast.CommentGroup {
	stmtLine := fset.Position(stmt.Pos()).Line
	var found *ast.CommentGroup
	for _, cg := range f.Comments {
		if fset.Position(cg.End()).Line == stmtLine-1 {
			found = cg
		}
	}
	return found
}

// parseMarker recognizes the two comment markers described in the package
// doc. ok is false for any comment that isn't one of them, including nil.
func parseMarker(cg *ast.CommentGroup) (kind, arg string, ok bool) {
	if cg == nil || len(cg.List) == 0 {
		return "", "", false
	}
	// cg.Text() drops directive-shaped comments such as //govthread:controlpoint,
	// so the marker is read from the raw text of the group's last line.
	text := strings.TrimSpace(strings.TrimPrefix(cg.List[len(cg.List)-1].Text, "//"))
	switch {
	case text == controlPointMarker:
		return "controlpoint", "", true
	case strings.HasPrefix(text, spawnMarkerPrefix):
		return "spawn", strings.TrimSpace(strings.TrimPrefix(text, spawnMarkerPrefix)), true
	default:
		return "", "", false
	}
}

// canInsertBefore checks if the cursor is in a context where InsertBefore
// will work. InsertBefore only works when the current node is in a slice
// field of its parent.
func canInsertBefore(c *astutil.Cursor) bool {
	return c.Index() >= 0
}

func ident(name string) *ast.Ident {
	return &ast.Ident{Name: name}
}

func (instr *Instrumenter) selector(fn string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: ident(instr.config.GovernAlias), Sel: ident(fn)}
}

// controlPointCall builds `alias.ControlPoint()`, placed on pos's line.
func (instr *Instrumenter) controlPointCall(pos token.Pos) ast.Stmt {
	sel := instr.selector(instr.config.ControlPointFunc)
	sel.X.(*ast.Ident).NamePos = pos
	return &ast.ExprStmt{X: &ast.CallExpr{Fun: sel}}
}

// rewriteSpawn turns `go f(args...)` into `alias.Go(threadIDExpr, func() { f(args...) })`.
// The spawn helper performs the "go" itself, so the rewritten statement is a
// plain call, not another go statement.
func (instr *Instrumenter) rewriteSpawn(fset *token.FileSet, f *ast.File, stmt *ast.GoStmt, threadIDExpr string) (ast.Stmt, error) {
	threadID, err := parser.ParseExpr(threadIDExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid threadId expression %q in spawn marker: %w", threadIDExpr, err)
	}

	if err := checkThreadIDType(fset, f, stmt.Pos(), threadID); err != nil {
		return nil, fmt.Errorf("spawn marker %q: %w", threadIDExpr, err)
	}

	body := &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{List: []ast.Stmt{&ast.ExprStmt{X: stmt.Call}}},
	}

	return &ast.ExprStmt{
		X: &ast.CallExpr{
			Fun:  instr.selector(instr.config.SpawnFunc),
			Args: []ast.Expr{threadID, body},
		},
	}, nil
}

// checkThreadIDType type-checks the marked file and then the threadId
// expression against it, rejecting expressions that plainly can't reach the
// spawn helper's uint64 parameter (a string literal, a struct value, and so
// on). Checking the whole file can fail for reasons that have nothing to do
// with this expression: an import go/importer can't resolve outside a real
// build, a file that's only a fragment. A failure there is treated as
// inconclusive rather than rejected, so the marker still gets spliced, just
// without the benefit of the check.
func checkThreadIDType(fset *token.FileSet, f *ast.File, pos token.Pos, expr ast.Expr) error {
	conf := types.Config{Importer: importer.Default(), Error: func(error) {}}
	pkg, err := conf.Check(f.Name.Name, fset, []*ast.File{f}, nil)
	if err != nil {
		return nil
	}

	info := &types.Info{Types: make(map[ast.Expr]types.TypeAndValue)}
	if err := types.CheckExpr(fset, pkg, pos, expr, info); err != nil {
		return nil
	}

	tv, ok := info.Types[expr]
	if !ok || tv.Type == nil {
		return nil
	}
	if !types.AssignableTo(tv.Type, types.Typ[types.Uint64]) {
		return fmt.Errorf("threadId expression has type %s, want something assignable to uint64", tv.Type)
	}
	return nil
}

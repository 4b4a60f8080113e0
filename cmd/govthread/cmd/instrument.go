package cmd

import (
	"errors"
	"fmt"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"

	"github.com/brnhx/govthread/pkg/instrument"
	"github.com/spf13/cobra"
)

// instrumentCmd rewrites //govthread:controlpoint and //govthread:spawn:
// markers in the given files into calls against pkg/govern.
var instrumentCmd = &cobra.Command{
	Use:   "instrument",
	Short: "rewrite govthread markers into governor calls",
	Long: `instrument scans each input file for //govthread:controlpoint and
//govthread:spawn:<threadIDExpr> comment markers and splices in calls to the
configured governor package. Files with no markers are reported and left
untouched; no output file is written for them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(inputs) == 0 {
			return nil
		}

		cfg := instrument.DefaultConfig()
		if governImport != "" {
			cfg.GovernImportPath = governImport
		}
		if governAlias != "" {
			cfg.GovernAlias = governAlias
		}
		if controlPointFunc != "" {
			cfg.ControlPointFunc = controlPointFunc
		}
		if spawnFunc != "" {
			cfg.SpawnFunc = spawnFunc
		}
		instr := instrument.NewInstrumenter(cfg)
		fset := token.NewFileSet()

		var errs []error
		for _, path := range inputs {
			if err := instrumentFile(cmd, instr, fset, path); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
			}
		}
		return errors.Join(errs...)
	},
}

// instrumentFile rewrites a single input and, only when the rewrite actually
// touched something, writes the result to the postfixed sibling path.
func instrumentFile(cmd *cobra.Command, instr *instrument.Instrumenter, fset *token.FileSet, path string) error {
	f, err := instr.InstrumentFile(fset, path, nil)
	if err != nil {
		return err
	}
	if !instr.WasInstrumented() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no markers found, skipped\n", path)
		return nil
	}

	output := outputPath(path)
	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", output)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := printer.Fprint(out, fset, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %s\n", path, output)
	return nil
}

// outputPath inserts postfix before the extension, alongside the input.
func outputPath(path string) string {
	dir, filename := filepath.Split(path)
	ext := filepath.Ext(filename)
	stem := filename[:len(filename)-len(ext)]
	return filepath.Join(dir, stem+postfix+ext)
}

var (
	inputs           []string
	postfix          string
	force            bool
	governImport     string
	governAlias      string
	controlPointFunc string
	spawnFunc        string
)

func init() {
	rootCmd.AddCommand(instrumentCmd)

	instrumentCmd.Flags().StringArrayVarP(&inputs, "input", "i",
		[]string{}, "path of input files")
	instrumentCmd.Flags().StringVarP(&postfix, "postfix", "p", "_govthread",
		"postfix of generated files (alongside input files)")
	instrumentCmd.Flags().BoolVarP(&force, "force", "f", false,
		"force override files")
	instrumentCmd.Flags().StringVar(&governImport, "govern-import", "",
		"override the governor package import path (default: pkg/govern of this module)")
	instrumentCmd.Flags().StringVar(&governAlias, "govern-alias", "",
		"override the generated import alias for the governor package")
	instrumentCmd.Flags().StringVar(&controlPointFunc, "controlpoint-func", "",
		"override the control-point function name (default: ControlPoint)")
	instrumentCmd.Flags().StringVar(&spawnFunc, "spawn-func", "",
		"override the spawn helper function name (default: Go)")
}

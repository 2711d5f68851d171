package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CFdefense/ClassQL/internal/compiler"
	"github.com/CFdefense/ClassQL/internal/diag"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ShowParams bool
}

// CompileResult is the JSON payload for a successful compile.
type CompileResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts, ShowParams: true}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a ClassQL query to parameterized SQL",
		Long: `Compile a ClassQL query to one parameterized SQL statement without
executing it. Diagnostics are rendered with a caret pointing into the
query text.

Example:

  classql compile 'prof contains alan and start < 12pm'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // errors get our own rendering
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowParams, "params", true, "print bound parameter values")

	return cmd
}

func runCompile(opts *CompileOptions, source string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, diags := compiler.Compile(source)
	if len(diags) > 0 {
		reportDiagnostics(formatter, source, diags)
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", len(diags)))
	}

	if opts.Format == "json" {
		if err := formatter.Success(CompileResult{SQL: result.SQL, Params: result.Params}); err != nil {
			return WrapExitError(ExitCommandError, "encode output", err)
		}
		return nil
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	if opts.ShowParams {
		fmt.Fprintf(formatter.Writer, "-- params: %v\n", result.Params)
	}
	return nil
}

// reportDiagnostics renders every diagnostic in source order.
func reportDiagnostics(formatter *OutputFormatter, source string, diags []diag.Diagnostic) {
	if formatter.Format == "json" {
		formatter.Error("compile_failed", "query failed to compile", diags)
		return
	}
	for _, d := range diags {
		fmt.Fprintln(formatter.Writer, d.Render(source))
	}
}

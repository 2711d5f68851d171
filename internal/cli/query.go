package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CFdefense/ClassQL/internal/compiler"
	"github.com/CFdefense/ClassQL/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Limit int
}

// QueryResult is the JSON payload for an executed query.
type QueryResult struct {
	SQL      string          `json:"sql"`
	Params   []any           `json:"params"`
	Count    int             `json:"count"`
	Sections []SectionResult `json:"sections"`
}

// SectionResult is one matched section in JSON output.
type SectionResult struct {
	Code        string  `json:"code"`
	Title       string  `json:"title,omitempty"`
	Professor   string  `json:"professor,omitempty"`
	Days        string  `json:"days"`
	Time        string  `json:"time"`
	Enrollment  int64   `json:"enrollment"`
	MaxEnroll   int64   `json:"max_enrollment"`
	CreditHours float64 `json:"credit_hours"`
	Campus      string  `json:"campus,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Compile a ClassQL query and run it against the catalog",
		Long: `Compile a ClassQL query and execute it against the SQLite catalog,
printing the matching sections.

Example:

  classql query 'subject = CS and credit hours at least 3 and not full'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum sections to print (0 = all)")

	return cmd
}

func runQuery(opts *QueryOptions, source string, cmd *cobra.Command) error {
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

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("catalog %s not found", opts.Database), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	defer st.Close()

	traceID := uuid.NewString()
	formatter.VerboseLog("trace %s: %s", traceID, result.SQL)
	formatter.VerboseLog("trace %s: params %v", traceID, result.Params)

	sections, err := st.Search(cmd.Context(), result.SQL, result.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "execute query", err)
	}
	if opts.Limit > 0 && len(sections) > opts.Limit {
		sections = sections[:opts.Limit]
	}

	if opts.Format == "json" {
		payload := QueryResult{
			SQL:      result.SQL,
			Params:   result.Params,
			Count:    len(sections),
			Sections: make([]SectionResult, 0, len(sections)),
		}
		for _, sec := range sections {
			payload.Sections = append(payload.Sections, SectionResult{
				Code:        sec.Code(),
				Title:       sec.Title.String,
				Professor:   sec.ProfessorName.String,
				Days:        sec.DaySummary(),
				Time:        sec.TimeSummary(),
				Enrollment:  sec.Enrollment.Int64,
				MaxEnroll:   sec.MaxEnrollment.Int64,
				CreditHours: sec.CreditHours,
				Campus:      sec.Campus.String,
			})
		}
		if err := formatter.SuccessWithTrace(payload, traceID); err != nil {
			return WrapExitError(ExitCommandError, "encode output", err)
		}
		return nil
	}

	printSections(formatter, sections)
	return nil
}

func printSections(formatter *OutputFormatter, sections []store.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(formatter.Writer, "no sections matched")
		return
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tTITLE\tPROFESSOR\tDAYS\tTIME\tENROLLED")
	for _, sec := range sections {
		prof := sec.ProfessorName.String
		if prof == "" {
			prof = "TBA"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			sec.Code(),
			sec.Title.String,
			prof,
			sec.DaySummary(),
			sec.TimeSummary(),
			sec.Enrollment.Int64,
			sec.MaxEnrollment.Int64,
		)
	}
	tw.Flush()
	fmt.Fprintf(formatter.Writer, "%d section(s)\n", len(sections))
}

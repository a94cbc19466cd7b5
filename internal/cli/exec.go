package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maihuoche/Medoo/internal/compiler"
	"github.com/maihuoche/Medoo/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Tx bool // run all statements in one transaction
}

// ExecResult is the outcome of one executed description.
type ExecResult struct {
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	SQL          string      `json:"sql"`
	Fingerprint  string      `json:"fingerprint"`
	Columns      []string    `json:"columns,omitempty"`
	Rows         []store.Row `json:"rows,omitempty"`
	Affected     int64       `json:"affected,omitempty"`
	LastInsertID int64       `json:"last_insert_id,omitempty"`

	values [][]any
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <path>",
		Short: "Compile query descriptions and execute them",
		Long: `Compile CUE or YAML query descriptions and execute them in load order
against the configured database (--driver, --dsn).

Reads print their rows; writes print affected rows or the last insert id.
With --tx every statement runs in one transaction that rolls back on the
first failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Tx, "tx", false, "run all statements in one transaction")

	return cmd
}

func runExec(ctx context.Context, opts *ExecOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadDescriptions(opts.fs(), path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, "Execution aborted", loadErrors)
	}

	if opts.Config == nil {
		return outputCommandError(formatter, ErrCodeConnect, "configuration not loaded")
	}
	s, err := store.Open(ctx, opts.Config.Store())
	if err != nil {
		return outputCommandError(formatter, ErrCodeConnect, err.Error())
	}
	defer s.Close()

	slog.Debug("executing descriptions", "trace_id", formatter.TraceID, "count", len(loadResult.Descriptions))

	var results []ExecResult
	run := func(target *store.Store) error {
		results = results[:0]
		for i, desc := range loadResult.Descriptions {
			label := desc.Label(i)
			formatter.VerboseLog("Executing %s: %s", desc.Kind, label)

			out, err := target.Run(ctx, desc.Statement)
			if err != nil {
				return &LoadError{Code: execErrorCode(err), Message: fmt.Sprintf("%s: %v", label, err), Pos: desc.Pos}
			}
			results = append(results, newExecResult(label, string(desc.Kind), out))
		}
		return nil
	}

	if opts.Tx {
		err = s.Action(ctx, run)
	} else {
		err = run(s)
	}
	if err != nil {
		code, message := parseLoadError(err)
		_ = formatter.Error(code, message, positionDetails(err))
		return NewExitError(ExitFailure, fmt.Sprintf("execution failed: %s", message))
	}

	return outputExecSuccess(formatter, results)
}

func newExecResult(name, kind string, out *store.Outcome) ExecResult {
	r := ExecResult{
		Name:         name,
		Kind:         kind,
		SQL:          out.SQL,
		Fingerprint:  out.Fingerprint,
		Affected:     out.Affected,
		LastInsertID: out.LastInsertID,
	}
	if out.Result != nil {
		r.Columns = out.Result.Columns
		r.Rows = out.Result.Maps()
		r.values = out.Result.Rows
	}
	return r
}

// execErrorCode separates compile errors from driver errors.
func execErrorCode(err error) string {
	if code := compileErrorCode(err); code != ErrCodeGeneric {
		return code
	}
	return ErrCodeExecFailed
}

// outputExecSuccess outputs execution results.
func outputExecSuccess(formatter *OutputFormatter, results []ExecResult) error {
	if formatter.Format == "json" {
		if results == nil {
			results = []ExecResult{}
		}
		return formatter.Success(results)
	}

	w := formatter.Writer
	successMark.Fprint(w, "✓")
	fmt.Fprintf(w, " Executed %d statement(s)\n", len(results))

	for _, r := range results {
		fmt.Fprintf(w, "\n%s (%s)\n", r.Name, r.Kind)
		if formatter.Verbose {
			fmt.Fprint(w, "  ")
			sqlStyle.Fprintln(w, r.SQL)
		}
		switch {
		case r.Columns != nil:
			writeRows(w, r.Columns, r.values)
		case r.Kind == string(compiler.KindInsert):
			fmt.Fprintf(w, "  last insert id: %d\n", r.LastInsertID)
		default:
			fmt.Fprintf(w, "  affected rows: %d\n", r.Affected)
		}
	}
	return nil
}

// writeRows prints rows as an aligned table in column order.
func writeRows(w io.Writer, columns []string, rows [][]any) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\n", strings.Join(columns, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "  (%d row(s))\n", len(rows))
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maihuoche/Medoo/internal/queryir"
	"github.com/maihuoche/Medoo/internal/querysql"
)

// ErrCodeAdvisory marks advisory findings from queryir.Validate.
const ErrCodeAdvisory = "W001"

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat warnings as failures
}

// ValidationIssue is one finding about one description.
type ValidationIssue struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity"` // "error" | "warning"
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Statements int               `json:"statements"`
	Issues     []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate query descriptions without printing SQL",
		Long: `Decode and compile query descriptions, then report advisory findings:
UPDATE or DELETE without WHERE, empty IN lists, equality against NULL,
empty groups and BETWEEN with a NULL bound.

Compile errors fail validation. Warnings fail it only with --strict.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadDescriptions(opts.fs(), path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d description file(s) in %s", len(loadResult.Files), path)

	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, "Validation failed", loadErrors)
	}

	result := validateAll(opts, loadResult, formatter)
	return outputValidation(formatter, result)
}

// validateAll compiles each description and collects findings.
func validateAll(opts *ValidateOptions, loadResult *LoadResult, formatter *OutputFormatter) ValidationResult {
	compiler := querysql.NewSQLCompiler(opts.quoter())
	result := ValidationResult{Valid: true, Statements: len(loadResult.Descriptions)}

	for i, desc := range loadResult.Descriptions {
		label := desc.Label(i)
		formatter.VerboseLog("Validating %s: %s", desc.Kind, label)

		issue := ValidationIssue{Name: label, File: desc.File, Line: desc.Pos.Line}

		if _, _, err := compiler.Compile(desc.Statement); err != nil {
			issue.Severity = "error"
			issue.Code = compileErrorCode(err)
			issue.Message = err.Error()
			result.Issues = append(result.Issues, issue)
			result.Valid = false
			continue
		}

		for _, warning := range queryir.Validate(desc.Statement).Warnings {
			w := issue
			w.Severity = "warning"
			w.Code = ErrCodeAdvisory
			w.Message = warning
			result.Issues = append(result.Issues, w)
			if opts.Strict {
				result.Valid = false
			}
		}
	}
	return result
}

// outputValidation outputs validation results. Failures exit with code 1.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	var failure error
	if !result.Valid {
		failure = NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result, TraceID: formatter.TraceID}
		if !result.Valid {
			first := result.Issues[0]
			resp.Status = "error"
			resp.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	if result.Valid {
		successMark.Fprint(w, "✓")
		fmt.Fprintf(w, " %d statement(s) valid\n", result.Statements)
	} else {
		failureMark.Fprint(w, "✗")
		fmt.Fprintln(w, " Validation failed")
	}

	for _, issue := range result.Issues {
		fmt.Fprintln(w)
		if issue.Line > 0 {
			fmt.Fprintf(w, "%s:%d (%s)\n", issue.File, issue.Line, issue.Name)
		} else {
			fmt.Fprintf(w, "%s (%s)\n", issue.File, issue.Name)
		}
		mark := warningMark
		if issue.Severity == "error" {
			mark = failureMark
		}
		fmt.Fprint(w, "  ")
		mark.Fprint(w, issue.Severity)
		fmt.Fprintf(w, " %s: %s\n", issue.Code, issue.Message)
	}
	return failure
}

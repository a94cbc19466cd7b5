package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledStatement is one description compiled to SQL.
type CompiledStatement struct {
	Name        string          `json:"name"`
	File        string          `json:"file"`
	Kind        string          `json:"kind"`
	SQL         string          `json:"sql"`
	Params      json.RawMessage `json:"params"`
	Fingerprint string          `json:"fingerprint"`
}

// CompilationResult holds every compiled statement in load order.
type CompilationResult struct {
	Statements []CompiledStatement `json:"statements"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile query descriptions to parameterized SQL",
		Long: `Compile CUE or YAML query descriptions to SQL plus ordered bind values.

<path> is a description file or a directory searched recursively for
.cue, .yaml and .yml files. Table prefix and quote style come from the
configuration (--prefix, --quote, MEDOO_*, .medoo.yaml).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadDescriptions(opts.fs(), path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d description file(s) in %s", len(loadResult.Files), path)

	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, "Compilation failed", loadErrors)
	}

	compiler := querysql.NewSQLCompiler(opts.quoter())
	result := &CompilationResult{Statements: []CompiledStatement{}}
	var compileErrors []error
	for i, desc := range loadResult.Descriptions {
		label := desc.Label(i)
		formatter.VerboseLog("Compiling %s: %s", desc.Kind, label)

		stmt, err := compileDescription(compiler, desc, label)
		if err != nil {
			compileErrors = append(compileErrors, err)
			continue
		}
		result.Statements = append(result.Statements, stmt)
	}
	if len(compileErrors) > 0 {
		return outputLoadErrors(formatter, "Compilation failed", compileErrors)
	}

	if opts.Output != "" {
		if err := writeResultToFile(opts.fs(), result, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// compileDescription compiles one description. Compile errors become
// LoadErrors positioned at the description.
func compileDescription(c *querysql.SQLCompiler, desc LoadedDescription, label string) (CompiledStatement, error) {
	sqlText, params, err := c.Compile(desc.Statement)
	if err != nil {
		return CompiledStatement{}, &LoadError{
			Code:    compileErrorCode(err),
			Message: fmt.Sprintf("%s: %v", label, err),
			Pos:     desc.Pos,
		}
	}

	paramsJSON, err := ir.MarshalCanonical(params)
	if err != nil {
		return CompiledStatement{}, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%s: encoding params: %v", label, err),
			Pos:     desc.Pos,
		}
	}

	return CompiledStatement{
		Name:        label,
		File:        desc.File,
		Kind:        string(desc.Kind),
		SQL:         sqlText,
		Params:      paramsJSON,
		Fingerprint: c.LastCompiled().Fingerprint,
	}, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	successMark.Fprint(w, "✓")
	fmt.Fprintf(w, " Compiled %d statement(s)\n\n", len(result.Statements))

	for _, stmt := range result.Statements {
		fmt.Fprintf(w, "%s (%s)\n", stmt.Name, stmt.Kind)
		fmt.Fprint(w, "  ")
		sqlStyle.Fprintln(w, stmt.SQL)
		fmt.Fprintf(w, "  params: %s\n", stmt.Params)
		if formatter.Verbose {
			fmt.Fprintf(w, "  fingerprint: %s\n", stmt.Fingerprint)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled statements to %s\n", outputFile)
	}
	return nil
}

// outputLoadError outputs a single error that stopped loading.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := parseLoadError(err)
	return outputCommandError(formatter, code, message)
}

// outputCommandError outputs a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputLoadErrors outputs decode or compile errors. Malformed
// descriptions are command-level errors (exit code 2).
func outputLoadErrors(formatter *OutputFormatter, title string, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message, Details: positionDetails(err)}
		}

		if err := formatter.encode(CLIResponse{
			Status:  "error",
			Error:   &cliErrors[0],
			Data:    cliErrors, // Include all errors in data
			TraceID: formatter.TraceID,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", title, len(errs)))
	}

	failureMark.Fprint(formatter.Writer, "✗")
	fmt.Fprintf(formatter.Writer, " %s\n\n", title)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			switch {
			case loadErr.Pos.IsValid():
				fmt.Fprintln(formatter.Writer, loadErr.Pos)
			case loadErr.Pos.Filename != "":
				fmt.Fprintln(formatter.Writer, loadErr.Pos.Filename)
			}
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", title, len(errs)))
}

// positionDetails returns {file, line, column} for positioned errors.
func positionDetails(err error) any {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !loadErr.Pos.IsValid() {
		return nil
	}
	return map[string]any{
		"file":   loadErr.Pos.Filename,
		"line":   loadErr.Pos.Line,
		"column": loadErr.Pos.Column,
	}
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(fs afero.Fs, result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := afero.WriteFile(fs, filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

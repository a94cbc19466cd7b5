package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/maihuoche/Medoo/internal/compiler"
	"github.com/maihuoche/Medoo/internal/querysql"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedDescription is a decoded statement with the file it came from.
type LoadedDescription struct {
	compiler.Description
	File string
}

// Label names the description in output: its name, or file#index.
func (d LoadedDescription) Label(index int) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%s#%d", filepath.Base(d.File), index)
}

// LoadResult contains the descriptions found under a path.
type LoadResult struct {
	Files        []string
	Descriptions []LoadedDescription
}

// LoadError represents an error that occurred while loading descriptions.
type LoadError struct {
	Code    string
	Message string
	Pos     compiler.Position
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDescriptions decodes every .cue/.yaml/.yml file at path (a file or
// a directory walked recursively, in lexical order).
//
// A nil result means the path itself could not be used.
func LoadDescriptions(fs afero.Fs, path string, mode LoadMode) (*LoadResult, []error) {
	info, err := fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	var files []string
	if info.IsDir() {
		files, err = FindDescriptionFiles(fs, path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no description files found in %s", path)}}
		}
	} else {
		if !compiler.SupportedExt(path) {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("unsupported file type: %s (want .cue, .yaml or .yml)", path)}}
		}
		files = []string{path}
	}

	result := &LoadResult{Files: files}
	var errs []error
	for _, file := range files {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", file, err)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		descs, err := compiler.DecodeFile(data, file)
		if err != nil {
			errs = append(errs, convertDecodeError(err, file))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		for _, d := range descs {
			result.Descriptions = append(result.Descriptions, LoadedDescription{Description: d, File: file})
		}
	}
	return result, errs
}

// FindDescriptionFiles walks dir and returns all description file paths.
func FindDescriptionFiles(fs afero.Fs, dir string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && compiler.SupportedExt(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertDecodeError converts a decoder error to a LoadError with position info.
func convertDecodeError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		pos := compileErr.Pos
		if pos.Filename == "" {
			pos.Filename = file
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", file, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No description files found
	ErrCodeReadFailed  = "E004" // File read failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSyntax      = "E006" // CUE / YAML syntax error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConnect     = "E008" // Database connection failed
	ErrCodeExecFailed  = "E009" // Statement execution failed

	// Statement compilation errors
	ErrCodeInvalidInput     = "E101" // Empty table, columns or data
	ErrCodeWildcardWithJoin = "E102" // "*" combined with joins

	// Description errors
	ErrCodeInvalidStatement = "E110" // Unknown or duplicate statement key
	ErrCodeInvalidTable     = "E111" // Invalid table reference
	ErrCodeInvalidColumns   = "E112" // Invalid column list
	ErrCodeInvalidJoin      = "E113" // Invalid join
	ErrCodeInvalidWhere     = "E114" // Invalid where / having / on clause
	ErrCodeInvalidData      = "E115" // Invalid insert / update data
	ErrCodeInvalidOrder     = "E116" // Invalid order, group or limit
)

// MapFieldToErrorCode maps a decoder error field (a path such as
// "$.select.where.age") to an error code. The first clause named in the
// path wins, so column names inside a clause never change the code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue", "yaml":
		return ErrCodeSyntax
	case "$":
		return ErrCodeInvalidStatement
	}

	segments := strings.FieldsFunc(field, func(r rune) bool { return r == '.' || r == '[' })
	for _, seg := range segments {
		switch seg {
		case "where", "having", "on":
			return ErrCodeInvalidWhere
		case "join":
			return ErrCodeInvalidJoin
		case "columns", "column":
			return ErrCodeInvalidColumns
		case "table":
			return ErrCodeInvalidTable
		case "data":
			return ErrCodeInvalidData
		case "order", "group", "limit":
			return ErrCodeInvalidOrder
		}
	}
	return ErrCodeInvalidStatement
}

// compileErrorCode maps a statement compile error to an error code.
func compileErrorCode(err error) string {
	switch {
	case querysql.IsWildcardWithJoin(err):
		return ErrCodeWildcardWithJoin
	case querysql.IsInvalidInput(err):
		return ErrCodeInvalidInput
	default:
		return ErrCodeGeneric
	}
}

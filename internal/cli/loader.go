package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/combomirror/internal/compiler"
	"github.com/roach88/combomirror/internal/ir"
)

// LoadError is a catalog load failure with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Field   string    // compiler field path, if any
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog compiles the catalog at path (a .cue file or a directory).
// Every error is a *LoadError.
func LoadCatalog(path string) (ir.IRArray, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}
	}
	records, err := compiler.LoadCatalog(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return records, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Field:   compileErr.Field,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field such as
// "combos.tornado_emp.sequence[0].name" to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "combos":
		return ErrCodeCatalogEmpty
	case strings.Contains(field, ".resourceCosts"):
		return ErrCodeResourceCosts
	case strings.Contains(field, ".sequence"):
		return ErrCodeSequence
	case strings.HasPrefix(field, "combos."):
		return ErrCodeInvalidType
	default:
		return ErrCodeGeneric
	}
}

// loadErrorDetails returns position details for JSON output, or nil.
func loadErrorDetails(err *LoadError) any {
	if !err.Pos.IsValid() && err.Field == "" {
		return nil
	}
	details := map[string]any{}
	if err.Field != "" {
		details["field"] = err.Field
	}
	if err.Pos.IsValid() {
		details["file"] = err.Pos.Filename()
		details["line"] = err.Pos.Line()
		details["column"] = err.Pos.Column()
	}
	return details
}

// failLoad prints a catalog load error and returns the command-level error.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return f.Fail(ErrCodeGeneric, err.Error(), nil)
	}
	if f.Format != "json" && loadErr.Pos.IsValid() {
		fmt.Fprintf(f.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	msg := loadErr.Message
	if loadErr.Field != "" && loadErr.Field != "cue" {
		msg = loadErr.Field + ": " + msg
	}
	return f.Fail(loadErr.Code, msg, loadErrorDetails(loadErr))
}

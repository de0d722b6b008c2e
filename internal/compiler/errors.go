package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports an invalid combo definition. Field is a dotted path
// such as "combos.tornado_emp.sequence"; CUE evaluation failures use "cue".
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	msg := e.Field + ": " + e.Message
	if !e.Pos.IsValid() {
		return msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
}

// fromCUE turns the first CUE error into a CompileError when it carries a
// position. Other errors are returned as they are.
func fromCUE(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	if pos := errors.Positions(errs[0]); len(pos) > 0 {
		return &CompileError{Field: "cue", Message: errs[0].Error(), Pos: pos[0]}
	}
	return err
}

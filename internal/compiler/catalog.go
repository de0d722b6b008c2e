// Package compiler turns combo definitions written in CUE into the table
// value the upstream publishes.
//
// Definitions live under a top-level "combos" struct keyed by combo id:
//
//	combos: tornado_emp: {
//		heroLevel:        6
//		talents:          5
//		tags: ["teamfight"]
//		specialty:        "qw"
//		stance:           "offensive"
//		damageRating:     3
//		difficultyRating: "medium"
//		resourceCosts: [2, 1, 0]
//		sequence: [
//			{name: "invoker_quas", required: true, next: [1]},
//			{name: "invoker_wex"},
//		]
//	}
//
// The compiled value uses the host's list encoding: every list, including
// the list of records, becomes an object keyed "1".."n".
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/normalize"
)

// resourceCount is the number of entries in resourceCosts.
const resourceCount = 3

// CompileCatalog compiles the "combos" struct of v into native records, in
// declaration order. Use Encode to produce the published form.
func CompileCatalog(v cue.Value) (ir.IRArray, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}
	if err := v.Validate(); err != nil {
		return nil, fromCUE(err)
	}

	combosVal := v.LookupPath(cue.ParsePath("combos"))
	if !combosVal.Exists() {
		return nil, &CompileError{Field: "combos", Message: "combos is required", Pos: v.Pos()}
	}

	iter, err := combosVal.Fields()
	if err != nil {
		return nil, fromCUE(err)
	}

	records := ir.IRArray{}
	for iter.Next() {
		rec, err := CompileCombo(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &CompileError{Field: "combos", Message: "at least one combo is required", Pos: combosVal.Pos()}
	}
	return records, nil
}

// Encode converts compiled records into the published foreign encoding.
func Encode(records ir.IRArray) ir.IRValue {
	return normalize.EncodeForeign(records)
}

// CompileCombo compiles one combo definition. The id is the struct label.
func CompileCombo(id string, v cue.Value) (ir.IRObject, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}

	c := comboCompiler{id: id}
	rec := ir.IRObject{"id": ir.IRString(id)}

	c.optionalInt(rec, v, "heroLevel")
	c.optionalInt(rec, v, "talents")
	c.optionalStrings(rec, v, "tags")
	c.optionalStrings(rec, v, "items")
	for _, field := range []string{"specialty", "stance", "damageRating", "difficultyRating"} {
		c.optionalScalar(rec, v, field)
	}
	if c.err != nil {
		return nil, c.err
	}

	costs, err := c.resourceCosts(v)
	if err != nil {
		return nil, err
	}
	rec["resourceCosts"] = costs

	seq, err := c.sequence(v)
	if err != nil {
		return nil, err
	}
	rec["sequence"] = seq

	return rec, nil
}

// comboCompiler reads optional fields and keeps the first error.
type comboCompiler struct {
	id  string
	err error
}

func (c *comboCompiler) fail(field, msg string, pos cue.Value) {
	if c.err == nil {
		c.err = &CompileError{Field: c.field(field), Message: msg, Pos: pos.Pos()}
	}
}

func (c *comboCompiler) field(name string) string {
	return fmt.Sprintf("combos.%s.%s", c.id, name)
}

func (c *comboCompiler) optionalInt(rec ir.IRObject, v cue.Value, name string) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return
	}
	n, err := fv.Int64()
	if err != nil {
		c.fail(name, "must be an integer", fv)
		return
	}
	rec[name] = ir.IRInt(n)
}

// optionalScalar accepts a string or an integer.
func (c *comboCompiler) optionalScalar(rec ir.IRObject, v cue.Value, name string) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return
	}
	if s, err := fv.String(); err == nil {
		rec[name] = ir.IRString(s)
		return
	}
	if n, err := fv.Int64(); err == nil {
		rec[name] = ir.IRInt(n)
		return
	}
	c.fail(name, "must be a string or an integer", fv)
}

func (c *comboCompiler) optionalStrings(rec ir.IRObject, v cue.Value, name string) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return
	}
	iter, err := fv.List()
	if err != nil {
		c.fail(name, "must be a list of strings", fv)
		return
	}
	out := ir.IRArray{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			c.fail(name, "must be a list of strings", iter.Value())
			return
		}
		out = append(out, ir.IRString(s))
	}
	rec[name] = out
}

func (c *comboCompiler) resourceCosts(v cue.Value) (ir.IRArray, error) {
	fv := v.LookupPath(cue.ParsePath("resourceCosts"))
	if !fv.Exists() {
		return nil, &CompileError{Field: c.field("resourceCosts"), Message: "resourceCosts is required", Pos: v.Pos()}
	}
	ints, err := c.ints(fv, "resourceCosts")
	if err != nil {
		return nil, err
	}
	if len(ints) != resourceCount {
		return nil, &CompileError{
			Field:   c.field("resourceCosts"),
			Message: fmt.Sprintf("expected %d values, got %d", resourceCount, len(ints)),
			Pos:     fv.Pos(),
		}
	}
	return ints, nil
}

func (c *comboCompiler) ints(fv cue.Value, name string) (ir.IRArray, error) {
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: c.field(name), Message: "must be a list of integers", Pos: fv.Pos()}
	}
	out := ir.IRArray{}
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, &CompileError{Field: c.field(name), Message: "must be a list of integers", Pos: iter.Value().Pos()}
		}
		out = append(out, ir.IRInt(n))
	}
	return out, nil
}

func (c *comboCompiler) sequence(v cue.Value) (ir.IRArray, error) {
	fv := v.LookupPath(cue.ParsePath("sequence"))
	if !fv.Exists() {
		return nil, &CompileError{Field: c.field("sequence"), Message: "sequence is required", Pos: v.Pos()}
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: c.field("sequence"), Message: "must be a list of steps", Pos: fv.Pos()}
	}

	steps := ir.IRArray{}
	for i := 0; iter.Next(); i++ {
		step, err := c.step(i, iter.Value())
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, &CompileError{Field: c.field("sequence"), Message: "sequence must not be empty", Pos: fv.Pos()}
	}

	// next must point inside the sequence
	for i, s := range steps {
		next, _ := s.(ir.IRObject)["next"].(ir.IRArray)
		for _, n := range next {
			if id := int64(n.(ir.IRInt)); id < 0 || id >= int64(len(steps)) {
				return nil, &CompileError{
					Field:   c.field(fmt.Sprintf("sequence[%d].next", i)),
					Message: fmt.Sprintf("step %d out of range [0, %d)", id, len(steps)),
					Pos:     fv.Pos(),
				}
			}
		}
	}
	return steps, nil
}

func (c *comboCompiler) step(i int, v cue.Value) (ir.IRObject, error) {
	prefix := fmt.Sprintf("sequence[%d]", i)

	nameVal := v.LookupPath(cue.ParsePath("name"))
	name, err := nameVal.String()
	if !nameVal.Exists() || err != nil || name == "" {
		return nil, &CompileError{Field: c.field(prefix + ".name"), Message: "step name is required", Pos: v.Pos()}
	}
	step := ir.IRObject{"name": ir.IRString(name)}

	if rv := v.LookupPath(cue.ParsePath("required")); rv.Exists() {
		b, err := rv.Bool()
		if err != nil {
			return nil, &CompileError{Field: c.field(prefix + ".required"), Message: "must be a boolean", Pos: rv.Pos()}
		}
		step["required"] = ir.IRBool(b)
	}

	if nv := v.LookupPath(cue.ParsePath("next")); nv.Exists() {
		next, err := c.ints(nv, prefix+".next")
		if err != nil {
			return nil, err
		}
		step["next"] = next
	}
	return step, nil
}

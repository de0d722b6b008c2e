package combo

import (
	"fmt"
	"strconv"

	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/normalize"
)

// Parser converts a raw catalog publication into a Snapshot.
type Parser struct {
	Localizer  Localizer
	Classifier Classifier
}

// ParseError reports a malformed combo record.
type ParseError struct {
	ComboID string
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	if e.ComboID == "" {
		return fmt.Sprintf("combo: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("combo %q: %s: %s", e.ComboID, e.Field, e.Message)
}

// Parse deep-normalizes raw and builds a Snapshot. raw may be an encoded
// list of records or a map of records keyed by id; a record's own "id" field
// wins over its map key.
//
// Any malformed record fails the whole publication.
func (p Parser) Parse(raw ir.IRValue) (Snapshot, error) {
	loc := p.Localizer
	if loc == nil {
		loc = KeyLocalizer{}
	}
	cls := p.Classifier
	if cls == nil {
		cls = InvokerClassifier{}
	}

	type keyed struct {
		key    string
		record ir.IRValue
	}
	var records []keyed
	switch v := normalize.NormalizeDeep(raw).(type) {
	case ir.IRArray:
		for i, rec := range v {
			records = append(records, keyed{key: strconv.Itoa(i + 1), record: rec})
		}
	case ir.IRObject:
		for _, k := range v.SortedKeys() {
			records = append(records, keyed{key: k, record: v[k]})
		}
	default:
		return nil, &ParseError{Field: "catalog", Message: fmt.Sprintf("expected records, got %T", v)}
	}

	snap := make(Snapshot, len(records))
	for _, r := range records {
		c, err := parseCombo(r.key, r.record, cls)
		if err != nil {
			return nil, err
		}
		if _, dup := snap[c.ID]; dup {
			return nil, &ParseError{ComboID: c.ID, Field: "id", Message: "duplicate id"}
		}
		c.Text = localizeText(loc, c)
		snap[c.ID] = c
	}
	return snap, nil
}

func parseCombo(fallbackID string, raw ir.IRValue, cls Classifier) (*Combo, error) {
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return nil, &ParseError{ComboID: fallbackID, Field: "record", Message: fmt.Sprintf("expected object, got %T", raw)}
	}
	r := recordReader{obj: obj}

	c := &Combo{ID: fallbackID}
	if id := r.readScalar("id"); id != "" {
		c.ID = id
	}
	r.id = c.ID

	c.HeroLevel = int(r.readInt("heroLevel"))
	c.Talents = r.readInt("talents")
	c.Tags = r.readStrings("tags")
	c.Items = r.readStrings("items")
	c.Specialty = r.readScalar("specialty")
	c.Stance = r.readScalar("stance")
	c.DamageRating = r.readScalar("damageRating")
	c.DifficultyRating = r.readScalar("difficultyRating")

	costs := r.readInts("resourceCosts")
	if r.err == nil && len(costs) != len(ResourceNames) {
		r.fail("resourceCosts", fmt.Sprintf("expected %d values, got %d", len(ResourceNames), len(costs)))
	}
	if r.err != nil {
		return nil, r.err
	}
	c.ResourceCostsByName = make(map[string]int, len(ResourceNames))
	for i, name := range ResourceNames {
		c.ResourceCosts[i] = int(costs[i])
		c.ResourceCostsByName[name] = int(costs[i])
	}

	seq, ok := obj["sequence"].(ir.IRArray)
	if !ok || len(seq) == 0 {
		return nil, &ParseError{ComboID: c.ID, Field: "sequence", Message: "must be a non-empty list"}
	}
	c.Sequence = make([]Step, len(seq))
	for i, rawStep := range seq {
		step, err := parseStep(c.ID, i, rawStep, cls)
		if err != nil {
			return nil, err
		}
		c.Sequence[i] = step
	}
	return c, nil
}

func parseStep(comboID string, pos int, raw ir.IRValue, cls Classifier) (Step, error) {
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return Step{}, &ParseError{ComboID: comboID, Field: fmt.Sprintf("sequence[%d]", pos), Message: fmt.Sprintf("expected object, got %T", raw)}
	}
	r := recordReader{obj: obj, id: comboID, prefix: fmt.Sprintf("sequence[%d].", pos)}

	name, _ := obj["name"].(ir.IRString)
	if name == "" {
		return Step{}, &ParseError{ComboID: comboID, Field: r.prefix + "name", Message: "required"}
	}
	next := r.readInts("next")
	required := r.readBool("required")
	if r.err != nil {
		return Step{}, r.err
	}

	s := Step{
		ID:                  pos,
		Name:                string(name),
		Required:            required,
		Next:                make([]int, len(next)),
		IsOrbAbility:        cls.IsOrbAbility(string(name)),
		IsInvocationAbility: cls.IsInvocationAbility(string(name)),
		IsItemAbility:       cls.IsItemAbility(string(name)),
	}
	for i, n := range next {
		s.Next[i] = int(n)
	}
	return s, nil
}

// recordReader reads optional typed fields and keeps the first error.
type recordReader struct {
	obj    ir.IRObject
	id     string
	prefix string
	err    error
}

func (r *recordReader) fail(field, msg string) {
	if r.err == nil {
		r.err = &ParseError{ComboID: r.id, Field: r.prefix + field, Message: msg}
	}
}

// readScalar reads a string or integer field as text. Missing fields read as "".
func (r *recordReader) readScalar(field string) string {
	switch v := r.obj[field].(type) {
	case nil, ir.IRNull:
		return ""
	case ir.IRString:
		return string(v)
	case ir.IRInt:
		return strconv.FormatInt(int64(v), 10)
	default:
		r.fail(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
}

func (r *recordReader) readInt(field string) int64 {
	switch v := r.obj[field].(type) {
	case nil, ir.IRNull:
		return 0
	case ir.IRInt:
		return int64(v)
	default:
		r.fail(field, fmt.Sprintf("expected integer, got %T", v))
		return 0
	}
}

func (r *recordReader) readBool(field string) bool {
	switch v := r.obj[field].(type) {
	case nil, ir.IRNull:
		return false
	case ir.IRBool:
		return bool(v)
	default:
		r.fail(field, fmt.Sprintf("expected boolean, got %T", v))
		return false
	}
}

// readList reads an already-normalized list. An empty object stands for an
// empty list because the host encoding cannot tell them apart.
func (r *recordReader) readList(field string) ir.IRArray {
	switch v := r.obj[field].(type) {
	case nil, ir.IRNull:
		return nil
	case ir.IRArray:
		return v
	case ir.IRObject:
		if len(v) == 0 {
			return nil
		}
	}
	r.fail(field, fmt.Sprintf("expected list, got %T", r.obj[field]))
	return nil
}

func (r *recordReader) readStrings(field string) []string {
	items := r.readList(field)
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(ir.IRString)
		if !ok {
			r.fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("expected string, got %T", item))
			return nil
		}
		out = append(out, string(s))
	}
	return out
}

func (r *recordReader) readInts(field string) []int64 {
	items := r.readList(field)
	out := make([]int64, 0, len(items))
	for i, item := range items {
		n, ok := item.(ir.IRInt)
		if !ok {
			r.fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("expected integer, got %T", item))
			return nil
		}
		out = append(out, int64(n))
	}
	return out
}

package combo

import (
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/normalize"
)

// record is a compact way to describe a combo in tests.
type record struct {
	id         string
	level      int64
	difficulty string
	specialty  string
	stance     string
	tags       []string
	steps      []string
}

// native builds the record in native form (plain arrays).
func (r record) native() ir.IRObject {
	seq := make(ir.IRArray, len(r.steps))
	for i, name := range r.steps {
		step := ir.IRObject{"name": ir.IRString(name), "required": ir.IRBool(true)}
		if i+1 < len(r.steps) {
			step["next"] = ir.IRArray{ir.IRInt(i + 1)}
		}
		seq[i] = step
	}
	tags := ir.IRArray{}
	for _, t := range r.tags {
		tags = append(tags, ir.IRString(t))
	}
	return ir.IRObject{
		"id":               ir.IRString(r.id),
		"heroLevel":        ir.IRInt(r.level),
		"talents":          ir.IRInt(5),
		"tags":             tags,
		"items":            ir.IRArray{},
		"specialty":        ir.IRString(r.specialty),
		"stance":           ir.IRString(r.stance),
		"damageRating":     ir.IRInt(3),
		"difficultyRating": ir.IRString(r.difficulty),
		"resourceCosts":    ir.IRArray{ir.IRInt(2), ir.IRInt(1), ir.IRInt(0)},
		"sequence":         seq,
	}
}

// foreignCatalog encodes records the way the host publishes them: a 1-based
// keyed map of records with every list encoded the same way.
func foreignCatalog(records ...record) ir.IRValue {
	list := make(ir.IRArray, len(records))
	for i, r := range records {
		list[i] = r.native()
	}
	return normalize.EncodeForeign(list)
}

var sampleRecords = []record{
	{id: "tornado_emp", level: 6, difficulty: "medium", specialty: "qw", stance: "offensive", tags: []string{"teamfight", "wex"},
		steps: []string{"invoker_quas", "invoker_wex", "invoker_wex", "invoker_invoke", "invoker_tornado", "invoker_emp"}},
	{id: "cold_snap", level: 1, difficulty: "easy", specialty: "qe", stance: "defensive", tags: []string{"laning"},
		steps: []string{"invoker_quas", "invoker_quas", "invoker_quas", "invoker_invoke", "invoker_cold_snap"}},
	{id: "eul_meteor", level: 10, difficulty: "hard", specialty: "qe", stance: "offensive", tags: []string{"burst", "teamfight"},
		steps: []string{"item_cyclone", "invoker_chaos_meteor", "invoker_sun_strike"}},
	{id: "alacrity_push", level: 6, difficulty: "easy", specialty: "we", stance: "offensive", tags: []string{"push"},
		steps: []string{"invoker_alacrity", "item_black_king_bar"}},
}

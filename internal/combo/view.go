package combo

import (
	"cmp"
	"slices"
)

// Predicate keeps a combo when it returns true.
type Predicate func(*Combo) bool

// FilterSpec is a set of ANDed criteria. Empty criteria exclude nothing, so
// the zero FilterSpec selects every combo.
type FilterSpec struct {
	// Properties are equality constraints. Names outside the closed property
	// set are ignored.
	Properties map[Property]string `yaml:"properties,omitempty" json:"properties,omitempty"`

	// Tags keeps combos sharing at least one tag with the list.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Item keeps combos with a step named exactly Item.
	Item string `yaml:"item,omitempty" json:"item,omitempty"`

	// Ability keeps combos with a non-item step named exactly Ability.
	Ability string `yaml:"ability,omitempty" json:"ability,omitempty"`
}

// Predicates returns one predicate per non-empty criterion.
func (f FilterSpec) Predicates() []Predicate {
	var preds []Predicate
	for _, p := range Properties {
		if want, ok := f.Properties[p]; ok {
			preds = append(preds, PropertyEquals(p, want))
		}
	}
	if len(f.Tags) > 0 {
		preds = append(preds, HasAnyTag(f.Tags))
	}
	if f.Item != "" {
		preds = append(preds, HasItemStep(f.Item))
	}
	if f.Ability != "" {
		preds = append(preds, HasAbilityStep(f.Ability))
	}
	return preds
}

// PropertyEquals matches combos whose property p equals want.
func PropertyEquals(p Property, want string) Predicate {
	return func(c *Combo) bool {
		got, ok := c.Property(p)
		return !ok || got == want
	}
}

// HasAnyTag matches combos carrying at least one of tags.
func HasAnyTag(tags []string) Predicate {
	return func(c *Combo) bool {
		for _, t := range c.Tags {
			if slices.Contains(tags, t) {
				return true
			}
		}
		return false
	}
}

// HasItemStep matches combos with a step named item.
func HasItemStep(item string) Predicate {
	return func(c *Combo) bool {
		return c.HasStep(func(s Step) bool { return s.Name == item })
	}
}

// HasAbilityStep matches combos with a non-item step named ability.
func HasAbilityStep(ability string) Predicate {
	return func(c *Combo) bool {
		return c.HasStep(func(s Step) bool { return !s.IsItemAbility && s.Name == ability })
	}
}

// View is a filtered, sorted window over a list of combos.
//
// INVARIANT: current is always sorted by (HeroLevel, DifficultyRating, ID)
// ascending and is recomputed from source on every Filter and SetCombos.
type View struct {
	source  []*Combo
	current []*Combo
}

// NewView creates a view showing every combo in list.
func NewView(list []*Combo) *View {
	v := &View{}
	v.SetCombos(list)
	return v
}

// BindView creates a view that tracks cat. Every publication resets the view
// to the full catalog.
func BindView(cat *Catalog) *View {
	v := NewView(nil)
	cat.OnChange(func(s Snapshot) {
		v.SetCombos(s.List())
	})
	return v
}

// SetCombos replaces the source list and resets the view to all of it.
func (v *View) SetCombos(list []*Combo) {
	v.source = list
	v.current = sortCombos(slices.Clone(list))
}

// Filter recomputes the view from the full source list.
func (v *View) Filter(spec FilterSpec) {
	v.Apply(spec.Predicates()...)
}

// Apply recomputes the view from the full source list using preds.
func (v *View) Apply(preds ...Predicate) {
	out := make([]*Combo, 0, len(v.source))
	for _, c := range v.source {
		if matchAll(c, preds) {
			out = append(out, c)
		}
	}
	v.current = sortCombos(out)
}

// Entries returns the current view. The slice is a copy; the combos are shared.
func (v *View) Entries() []*Combo {
	return slices.Clone(v.current)
}

// Size returns the number of combos in the current view.
func (v *View) Size() int {
	return len(v.current)
}

// IDs returns the ids of the current view in order.
func (v *View) IDs() []string {
	ids := make([]string, len(v.current))
	for i, c := range v.current {
		ids[i] = c.ID
	}
	return ids
}

func matchAll(c *Combo, preds []Predicate) bool {
	for _, p := range preds {
		if !p(c) {
			return false
		}
	}
	return true
}

func sortCombos(list []*Combo) []*Combo {
	slices.SortStableFunc(list, func(a, b *Combo) int {
		return cmp.Or(
			cmp.Compare(a.HeroLevel, b.HeroLevel),
			compareKeys(a.DifficultyRating, b.DifficultyRating),
			compareKeys(a.ID, b.ID),
		)
	})
	return list
}

package combo

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// ResourceNames is the fixed order of the three resource costs.
var ResourceNames = [3]string{"quas", "wex", "exort"}

// Property names a filterable domain property.
type Property string

// The closed set of filterable properties.
const (
	PropertySpecialty        Property = "specialty"
	PropertyStance           Property = "stance"
	PropertyDamageRating     Property = "damageRating"
	PropertyDifficultyRating Property = "difficultyRating"
)

// Properties lists every Property in declaration order.
var Properties = []Property{
	PropertySpecialty,
	PropertyStance,
	PropertyDamageRating,
	PropertyDifficultyRating,
}

// Step is one position of a combo's sequence.
type Step struct {
	ID       int    `json:"id"` // position in the sequence
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Next     []int  `json:"next"` // ids of valid successor steps in the same combo

	IsOrbAbility        bool `json:"isOrbAbility"`
	IsInvocationAbility bool `json:"isInvocationAbility"`
	IsItemAbility       bool `json:"isItemAbility"`
}

// Text holds localized strings for a combo.
type Text struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Specialty        string `json:"specialty"`
	Stance           string `json:"stance"`
	DamageRating     string `json:"damageRating"`
	DifficultyRating string `json:"difficultyRating"`
}

// Combo is one catalog entry.
type Combo struct {
	ID               string   `json:"id"`
	HeroLevel        int      `json:"heroLevel"`
	Talents          int64    `json:"talents"` // bitset
	Tags             []string `json:"tags"`
	Items            []string `json:"items"`
	Specialty        string   `json:"specialty"`
	Stance           string   `json:"stance"`
	DamageRating     string   `json:"damageRating"`
	DifficultyRating string   `json:"difficultyRating"`

	ResourceCosts       [3]int         `json:"resourceCosts"`
	ResourceCostsByName map[string]int `json:"resourceCostsByName"`

	Sequence []Step `json:"sequence"`
	Text     Text   `json:"text"`
}

// Property returns the value of p, or false for names outside the closed set.
func (c *Combo) Property(p Property) (string, bool) {
	switch p {
	case PropertySpecialty:
		return c.Specialty, true
	case PropertyStance:
		return c.Stance, true
	case PropertyDamageRating:
		return c.DamageRating, true
	case PropertyDifficultyRating:
		return c.DifficultyRating, true
	}
	return "", false
}

// HasStep reports whether any step satisfies match.
func (c *Combo) HasStep(match func(Step) bool) bool {
	return slices.ContainsFunc(c.Sequence, match)
}

// Snapshot is one published catalog, keyed by combo id. A Snapshot is
// replaced wholesale on every publication and never mutated after Parse.
type Snapshot map[string]*Combo

// List returns the combos ordered by id.
func (s Snapshot) List() []*Combo {
	out := make([]*Combo, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Combo) int { return compareKeys(a.ID, b.ID) })
	return out
}

// compareKeys orders ids and ratings. Integer values compare numerically and
// sort before non-integer values, which compare as strings.
func compareKeys(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Or(cmp.Compare(ai, bi), strings.Compare(a, b))
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

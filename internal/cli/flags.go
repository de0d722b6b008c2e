package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/combomirror/internal/combo"
)

// filterFlags binds the query view's filter criteria to command flags.
type filterFlags struct {
	specialty  string
	stance     string
	damage     string
	difficulty string
	tags       []string
	item       string
	ability    string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.specialty, "specialty", "", "keep combos with this specialty")
	cmd.Flags().StringVar(&f.stance, "stance", "", "keep combos with this stance")
	cmd.Flags().StringVar(&f.damage, "damage", "", "keep combos with this damage rating")
	cmd.Flags().StringVar(&f.difficulty, "difficulty", "", "keep combos with this difficulty rating")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "keep combos sharing a tag (repeatable)")
	cmd.Flags().StringVar(&f.item, "item", "", "keep combos using this item")
	cmd.Flags().StringVar(&f.ability, "ability", "", "keep combos casting this ability")
}

// spec converts the flags; unset flags exclude nothing.
func (f *filterFlags) spec() combo.FilterSpec {
	spec := combo.FilterSpec{
		Tags:    f.tags,
		Item:    f.item,
		Ability: f.ability,
	}
	props := map[combo.Property]string{
		combo.PropertySpecialty:        f.specialty,
		combo.PropertyStance:           f.stance,
		combo.PropertyDamageRating:     f.damage,
		combo.PropertyDifficultyRating: f.difficulty,
	}
	for p, v := range props {
		if v == "" {
			continue
		}
		if spec.Properties == nil {
			spec.Properties = map[combo.Property]string{}
		}
		spec.Properties[p] = v
	}
	return spec
}

// localeFlags selects display strings.
type localeFlags struct {
	locale  string
	strings []string
}

func (l *localeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.locale, "locale", "", "display language (BCP 47 tag)")
	cmd.Flags().StringSliceVar(&l.strings, "strings", nil, "YAML strings files (repeatable)")
}

// localizer returns nil when no strings are configured, which makes the
// catalog fall back to raw keys.
func (l *localeFlags) localizer() (combo.Localizer, error) {
	if len(l.strings) == 0 {
		return nil, nil
	}
	strs, err := combo.LoadStrings(l.strings...)
	if err != nil {
		return nil, err
	}
	tag := language.English
	if l.locale != "" {
		if tag, err = language.Parse(l.locale); err != nil {
			return nil, fmt.Errorf("locale %q: %w", l.locale, err)
		}
	}
	return combo.NewTextLocalizer(tag, strs)
}

// locationFlags names the catalog's table and key.
type locationFlags struct {
	table string
	key   string
}

func (l *locationFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.table, "table", combo.DefaultTable, "table holding the catalog")
	cmd.Flags().StringVar(&l.key, "key", combo.DefaultKey, "key holding the catalog")
}

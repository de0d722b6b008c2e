package combo

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Localizer resolves a string key to display text.
type Localizer interface {
	Localize(key string) string
}

// KeyLocalizer returns every key unchanged.
type KeyLocalizer struct{}

// Localize implements Localizer.
func (KeyLocalizer) Localize(key string) string { return key }

// TextLocalizer resolves keys through an x/text message catalog. Unknown
// keys resolve to themselves.
type TextLocalizer struct {
	printer *message.Printer
}

// Strings maps language tag -> key -> text, the shape of a strings YAML file:
//
//	en:
//	  combo_tornado_emp: "Tornado EMP"
//	  combo_specialty_qw: "Quas-Wex"
type Strings map[string]map[string]string

// NewTextLocalizer builds a localizer for lang. English is the fallback.
func NewTextLocalizer(lang language.Tag, strs Strings) (*TextLocalizer, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tagName, entries := range strs {
		tag, err := language.Parse(tagName)
		if err != nil {
			return nil, fmt.Errorf("strings: language %q: %w", tagName, err)
		}
		for key, text := range entries {
			if err := b.SetString(tag, key, escapePercent(text)); err != nil {
				return nil, fmt.Errorf("strings: %s/%s: %w", tagName, key, err)
			}
		}
	}
	return &TextLocalizer{printer: message.NewPrinter(lang, message.Catalog(b))}, nil
}

// LoadStrings reads and merges YAML strings files. Later files override
// earlier ones key by key.
func LoadStrings(paths ...string) (Strings, error) {
	merged := Strings{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read strings file: %w", err)
		}
		var strs Strings
		if err := yaml.Unmarshal(data, &strs); err != nil {
			return nil, fmt.Errorf("parse strings file %s: %w", path, err)
		}
		for lang, entries := range strs {
			if merged[lang] == nil {
				merged[lang] = map[string]string{}
			}
			for k, v := range entries {
				merged[lang][k] = v
			}
		}
	}
	return merged, nil
}

// Localize implements Localizer.
func (l *TextLocalizer) Localize(key string) string {
	return l.printer.Sprintf(message.Key(key, escapePercent(key)))
}

// escapePercent keeps printer verbs out of stored text and fallback keys.
func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// Localization keys.
func nameKey(id string) string        { return "combo_" + id }
func descriptionKey(id string) string { return "combo_" + id + "_description" }

func propertyKey(p Property, value string) string {
	switch p {
	case PropertyDamageRating:
		return "combo_damage_rating_" + value
	case PropertyDifficultyRating:
		return "combo_difficulty_rating_" + value
	default:
		return "combo_" + string(p) + "_" + value
	}
}

func localizeText(l Localizer, c *Combo) Text {
	return Text{
		Name:             l.Localize(nameKey(c.ID)),
		Description:      l.Localize(descriptionKey(c.ID)),
		Specialty:        l.Localize(propertyKey(PropertySpecialty, c.Specialty)),
		Stance:           l.Localize(propertyKey(PropertyStance, c.Stance)),
		DamageRating:     l.Localize(propertyKey(PropertyDamageRating, c.DamageRating)),
		DifficultyRating: l.Localize(propertyKey(PropertyDifficultyRating, c.DifficultyRating)),
	}
}

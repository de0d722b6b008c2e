package combo

import "strings"

// Classifier maps an ability or item name onto the three step flags.
type Classifier interface {
	IsOrbAbility(name string) bool
	IsInvocationAbility(name string) bool
	IsItemAbility(name string) bool
}

// InvokerClassifier follows the hero's naming conventions: three orb
// abilities, one invocation ability, and items prefixed "item_".
type InvokerClassifier struct{}

var orbAbilities = map[string]bool{
	"invoker_quas":  true,
	"invoker_wex":   true,
	"invoker_exort": true,
}

const (
	invocationAbility = "invoker_invoke"
	itemPrefix        = "item_"
)

// IsOrbAbility implements Classifier.
func (InvokerClassifier) IsOrbAbility(name string) bool {
	return orbAbilities[name]
}

// IsInvocationAbility implements Classifier.
func (InvokerClassifier) IsInvocationAbility(name string) bool {
	return name == invocationAbility
}

// IsItemAbility implements Classifier.
func (InvokerClassifier) IsItemAbility(name string) bool {
	return strings.HasPrefix(name, itemPrefix)
}

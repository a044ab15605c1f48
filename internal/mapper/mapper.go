// Package mapper evaluates an ordered rule list against a conversational
// intent and merges the matches into a single assembly instruction.
//
// The flat ordered-rule design keeps behavior auditable: replaying the same
// intent always yields the same instruction shape, while later rules act as
// intent-aware post-processors over earlier ones (for example an urgency rule
// shortening animation durations set by a browse rule).
package mapper

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conneroisu/weave/internal/errors"
	"github.com/conneroisu/weave/internal/logging"
	"github.com/conneroisu/weave/internal/types"
)

// DefaultStaggerUnit is the per-index entrance delay in seconds applied to
// successive components in one merged instruction.
const DefaultStaggerUnit = 0.1

// PropsSource produces the property bag for a synthesized component
// instance. It is a tagged variant: StaticProps carries a plain map,
// DerivedProps computes the map from the intent.
type PropsSource interface {
	Props(intent types.Intent) map[string]interface{}
}

// StaticProps is a fixed property bag.
type StaticProps map[string]interface{}

// Props returns a copy of the static bag so instruction consumers can never
// mutate rule-owned state.
func (p StaticProps) Props(types.Intent) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DerivedProps computes a property bag from the intent.
type DerivedProps func(intent types.Intent) map[string]interface{}

// Props invokes the derivation, normalizing a nil result to an empty bag.
func (p DerivedProps) Props(intent types.Intent) map[string]interface{} {
	out := p(intent)
	if out == nil {
		out = make(map[string]interface{})
	}
	return out
}

// ComponentDefinition is a rule-owned template for a component, not yet an
// instance.
type ComponentDefinition struct {
	Type  string
	Props PropsSource
	Area  string
}

// Effect is what a matched rule contributes to the instruction being built.
type Effect interface {
	apply(draft *types.Instruction, intent types.Intent, staggerUnit float64)
}

// AddEffect contributes component instances plus optional layout and
// animation choices. A non-empty Layout or non-nil Animation overwrites the
// draft's current value: last matching rule with that field wins.
type AddEffect struct {
	Components []ComponentDefinition
	Layout     string
	Animation  *types.AnimationConfig
}

func (e AddEffect) apply(draft *types.Instruction, intent types.Intent, staggerUnit float64) {
	for _, def := range e.Components {
		index := len(draft.Components)
		draft.Components = append(draft.Components, types.ComponentInstance{
			ID:    NewInstanceID(def.Type),
			Type:  def.Type,
			Props: def.Props.Props(intent),
			Position: types.Position{
				Area:  def.Area,
				Order: index,
			},
			AnimationDelay: float64(index) * staggerUnit,
		})
	}

	if e.Layout != "" {
		draft.Layout = e.Layout
	}
	if e.Animation != nil {
		anim := *e.Animation
		draft.Animation = &anim
	}
}

// ModifyEffect shallow-merges field overrides into the draft's top-level
// fields without touching already-added components' props. Recognized keys:
// "layout", "animation", "animation.enter", "animation.exit",
// "animation.duration", "animation.stagger", "animation.ease". Unrecognized
// keys are ignored.
type ModifyEffect struct {
	Overrides map[string]interface{}
}

func (e ModifyEffect) apply(draft *types.Instruction, _ types.Intent, _ float64) {
	for key, value := range e.Overrides {
		switch key {
		case "layout":
			if s, ok := value.(string); ok {
				draft.Layout = s
			}
		case "animation":
			switch v := value.(type) {
			case types.AnimationConfig:
				anim := v
				draft.Animation = &anim
			case *types.AnimationConfig:
				if v != nil {
					anim := *v
					draft.Animation = &anim
				}
			}
		case "animation.enter", "animation.exit", "animation.ease":
			s, ok := value.(string)
			if !ok {
				continue
			}
			anim := draft.Animation
			if anim == nil {
				anim = &types.AnimationConfig{}
				draft.Animation = anim
			}
			switch key {
			case "animation.enter":
				anim.Enter = s
			case "animation.exit":
				anim.Exit = s
			case "animation.ease":
				anim.Ease = s
			}
		case "animation.duration", "animation.stagger":
			f, ok := toFloat(value)
			if !ok {
				continue
			}
			anim := draft.Animation
			if anim == nil {
				anim = &types.AnimationConfig{}
				draft.Animation = anim
			}
			if key == "animation.duration" {
				anim.Duration = f
			} else {
				anim.Stagger = f
			}
		}
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Rule pairs a predicate with an effect. Rules are declared in a fixed,
// ordered list; order is significant because the merge folds matches
// left-to-right. Confidence gating belongs inside the predicate itself, not
// to a separate step.
type Rule struct {
	ID        string
	Predicate func(intent types.Intent) bool
	Effect    Effect
}

// Config carries the mapper collaborators and tunables.
type Config struct {
	StaggerUnit float64
	Logger      logging.Logger
	Collector   *errors.Collector
}

// Mapper evaluates an ordered rule list against intents. The rule list is
// fixed at construction; reloading rules means constructing a new mapper.
type Mapper struct {
	rules       []Rule
	staggerUnit float64
	logger      logging.Logger
	collector   *errors.Collector
}

// New creates a mapper over an ordered rule list.
func New(rules []Rule, cfg Config) *Mapper {
	staggerUnit := cfg.StaggerUnit
	if staggerUnit <= 0 {
		staggerUnit = DefaultStaggerUnit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	collector := cfg.Collector
	if collector == nil {
		collector = errors.NewCollector()
	}
	return &Mapper{
		rules:       rules,
		staggerUnit: staggerUnit,
		logger:      logger.WithComponent("mapper"),
		collector:   collector,
	}
}

// Rules returns the ordered rule list for introspection.
func (m *Mapper) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// MapToInstruction evaluates every rule in declaration order and folds the
// matches into one instruction. The result is never empty: when zero rules
// match, the fixed fallback instruction is returned.
func (m *Mapper) MapToInstruction(intent types.Intent) types.Instruction {
	var matched []Rule
	for _, rule := range m.rules {
		if m.evaluate(rule, intent) {
			matched = append(matched, rule)
		}
	}

	if len(matched) == 0 {
		return m.fallback()
	}

	draft := types.Instruction{
		Action:    types.ActionAdd,
		Layout:    "default",
		Animation: defaultAnimation(),
	}
	for _, rule := range matched {
		rule.Effect.apply(&draft, intent, m.staggerUnit)
	}
	return draft
}

// evaluate runs one predicate, short-circuiting a panic to "rule does not
// match". The failure is reported through the diagnostic collector, never
// propagated.
func (m *Mapper) evaluate(rule Rule, intent types.Intent) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			m.collector.Add(errors.AssemblyDiagnostic{
				Kind:     errors.KindRulePanic,
				Op:       rule.ID,
				Message:  fmt.Sprintf("predicate panic: %v", r),
				Severity: errors.SeverityWarning,
			})
			m.logger.Warn(context.Background(), nil, "rule predicate panicked",
				"rule", rule.ID, "intent_type", intent.Type)
		}
	}()
	if rule.Predicate == nil {
		return false
	}
	return rule.Predicate(intent)
}

// fallback is the fixed instruction emitted when no rule matches: a single
// help/suggestion component, centered, with a short fade.
func (m *Mapper) fallback() types.Instruction {
	return types.Instruction{
		Action: types.ActionAdd,
		Layout: "centered",
		Components: []types.ComponentInstance{
			{
				ID:   NewInstanceID("HelpPanel"),
				Type: "HelpPanel",
				Props: map[string]interface{}{
					"title": "How can I help?",
					"suggestions": []string{
						"Browse products",
						"Search the catalog",
						"Compare items",
					},
				},
				Position: types.Position{Area: "center", Order: 0},
			},
		},
		Animation: &types.AnimationConfig{Enter: "fade", Exit: "fade", Duration: 0.2},
	}
}

func defaultAnimation() *types.AnimationConfig {
	return &types.AnimationConfig{Enter: "fade", Exit: "fade", Duration: 0.4, Ease: "ease-out"}
}

// NewInstanceID returns a fresh globally unique component instance id. The
// type name prefix keeps snapshots and logs readable; uniqueness comes from
// the UUID suffix.
func NewInstanceID(componentType string) string {
	return componentType + "-" + uuid.NewString()
}

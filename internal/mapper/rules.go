package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/weave/internal/types"
)

// RuleTuning adjusts one rule without changing its effect. A nil field keeps
// the built-in value.
type RuleTuning struct {
	Enabled       *bool    `yaml:"enabled"`
	MinConfidence *float64 `yaml:"min_confidence"`
}

// Tuning is the operator-editable overrides file applied when the default
// rule set is built. It is read once at mapper construction.
type Tuning struct {
	StaggerUnit float64               `yaml:"stagger_unit"`
	Rules       map[string]RuleTuning `yaml:"rules"`
}

// LoadTuning reads a YAML tuning file. A missing path returns empty tuning.
func LoadTuning(path string) (Tuning, error) {
	var tuning Tuning
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tuning, nil
		}
		return tuning, fmt.Errorf("read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return tuning, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	return tuning, nil
}

// minConfidence resolves a rule's confidence floor against the tuning file.
func (t Tuning) minConfidence(ruleID string, builtin float64) float64 {
	if rt, ok := t.Rules[ruleID]; ok && rt.MinConfidence != nil {
		return *rt.MinConfidence
	}
	return builtin
}

// enabled reports whether a rule survives tuning.
func (t Tuning) enabled(ruleID string) bool {
	if rt, ok := t.Rules[ruleID]; ok && rt.Enabled != nil {
		return *rt.Enabled
	}
	return true
}

// typePredicate builds a predicate matching an intent type with a confidence
// floor baked into the predicate itself.
func typePredicate(intentType string, minConfidence float64) func(types.Intent) bool {
	return func(intent types.Intent) bool {
		return intent.Type == intentType && intent.Confidence >= minConfidence
	}
}

// DefaultRules returns the built-in ordered rule set with tuning applied.
// Content rules come first; modifier rules run last so they can post-process
// whatever the content rules set.
func DefaultRules(tuning Tuning) []Rule {
	all := []Rule{
		{
			ID:        "greeting",
			Predicate: typePredicate("greeting", tuning.minConfidence("greeting", 0.5)),
			Effect: AddEffect{
				Components: []ComponentDefinition{
					{
						Type: "WelcomeHero",
						Area: "center",
						Props: DerivedProps(func(intent types.Intent) map[string]interface{} {
							title := "Welcome"
							if name, ok := intent.Entity("name").(string); ok && name != "" {
								title = "Welcome, " + name
							}
							return map[string]interface{}{
								"title":    title,
								"subtitle": "What would you like to do today?",
							}
						}),
					},
					{
						Type: "SuggestionCards",
						Area: "center",
						Props: StaticProps{
							"suggestions": []string{
								"Browse products",
								"Search the catalog",
								"Compare items",
							},
						},
					},
				},
				Layout:    "centered",
				Animation: &types.AnimationConfig{Enter: "fade", Exit: "fade", Duration: 0.4, Ease: "ease-out"},
			},
		},
		{
			ID:        "product_browse",
			Predicate: typePredicate("product_browse", tuning.minConfidence("product_browse", 0.6)),
			Effect: AddEffect{
				Components: []ComponentDefinition{
					{
						Type: "ProductGrid",
						Area: "main",
						Props: DerivedProps(func(intent types.Intent) map[string]interface{} {
							props := map[string]interface{}{"pageSize": 12}
							if category, ok := intent.Entity("category").(string); ok && category != "" {
								props["category"] = category
							}
							return props
						}),
					},
					{
						Type: "FilterPanel",
						Area: "sidebar",
						Props: StaticProps{
							"filters": []string{"price", "brand", "rating"},
						},
					},
				},
				Layout: "two-column",
			},
		},
		{
			ID:        "search",
			Predicate: typePredicate("search", tuning.minConfidence("search", 0.6)),
			Effect: AddEffect{
				Components: []ComponentDefinition{
					{
						Type: "SearchResults",
						Area: "main",
						Props: DerivedProps(func(intent types.Intent) map[string]interface{} {
							props := map[string]interface{}{}
							if query, ok := intent.Entity("query").(string); ok {
								props["query"] = query
							}
							return props
						}),
					},
					{
						Type:  "NavigationPanel",
						Area:  "sidebar",
						Props: StaticProps{"sections": []string{"All", "Products", "Guides"}},
					},
				},
				Layout: "two-column",
			},
		},
		{
			ID:        "comparison",
			Predicate: typePredicate("comparison", tuning.minConfidence("comparison", 0.65)),
			Effect: AddEffect{
				Components: []ComponentDefinition{
					{
						Type: "ComparisonTable",
						Area: "grid",
						Props: DerivedProps(func(intent types.Intent) map[string]interface{} {
							props := map[string]interface{}{}
							if items, ok := intent.Entity("items").([]string); ok {
								props["items"] = items
							}
							return props
						}),
					},
				},
				Layout: "grid",
			},
		},
		{
			// Evaluates on context alone: no confidence clause.
			ID: "urgency-modifier",
			Predicate: func(intent types.Intent) bool {
				return intent.ContextString("urgency") == "high"
			},
			Effect: ModifyEffect{
				Overrides: map[string]interface{}{
					"animation.duration": 0.3,
					"animation.enter":    "instant",
				},
			},
		},
		{
			ID: "reduced-motion-modifier",
			Predicate: func(intent types.Intent) bool {
				return intent.ContextString("reduced_motion") == "true"
			},
			Effect: ModifyEffect{
				Overrides: map[string]interface{}{
					"animation.enter":    "instant",
					"animation.exit":     "instant",
					"animation.duration": 0.0,
				},
			},
		},
	}

	rules := make([]Rule, 0, len(all))
	for _, rule := range all {
		if tuning.enabled(rule.ID) {
			rules = append(rules, rule)
		}
	}
	return rules
}

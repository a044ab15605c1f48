// Package ui provides the default renderable component set. Each capability
// turns a property bag into a templ component; the assembly core only ever
// sees the type names these are registered under.
package ui

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/weave/internal/registry"
)

// stringProp pulls a string property, falling back when absent or mistyped.
func stringProp(props map[string]interface{}, key, fallback string) string {
	if v, ok := props[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// listProp pulls a string list property, accepting both []string and the
// []interface{} shape JSON decoding produces.
func listProp(props map[string]interface{}, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// WelcomeHero renders the greeting banner.
func WelcomeHero(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		title := html.EscapeString(stringProp(props, "title", "Welcome"))
		subtitle := html.EscapeString(stringProp(props, "subtitle", ""))
		_, err := fmt.Fprintf(w,
			`<section class="welcome-hero"><h1>%s</h1><p>%s</p></section>`,
			title, subtitle)
		return err
	})
}

// SuggestionCards renders a card per suggestion string.
func SuggestionCards(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="suggestion-cards">`); err != nil {
			return err
		}
		for _, suggestion := range listProp(props, "suggestions") {
			if _, err := fmt.Fprintf(w,
				`<button class="suggestion-card">%s</button>`,
				html.EscapeString(suggestion)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// ProductGrid renders the product listing shell.
func ProductGrid(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		category := html.EscapeString(stringProp(props, "category", "all"))
		_, err := fmt.Fprintf(w,
			`<div class="product-grid" data-category="%s"></div>`, category)
		return err
	})
}

// FilterPanel renders the sidebar filter controls.
func FilterPanel(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<aside class="filter-panel"><ul>`); err != nil {
			return err
		}
		for _, filter := range listProp(props, "filters") {
			if _, err := fmt.Fprintf(w, `<li>%s</li>`, html.EscapeString(filter)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></aside>`)
		return err
	})
}

// NavigationPanel renders the sidebar section navigation.
func NavigationPanel(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="navigation-panel">`); err != nil {
			return err
		}
		for _, section := range listProp(props, "sections") {
			if _, err := fmt.Fprintf(w,
				`<a href="#%s">%s</a>`,
				html.EscapeString(section), html.EscapeString(section)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}

// SearchResults renders the search result shell.
func SearchResults(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		query := html.EscapeString(stringProp(props, "query", ""))
		_, err := fmt.Fprintf(w,
			`<div class="search-results" data-query="%s"></div>`, query)
		return err
	})
}

// ComparisonTable renders a column per compared item.
func ComparisonTable(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table class="comparison-table"><tr>`); err != nil {
			return err
		}
		for _, item := range listProp(props, "items") {
			if _, err := fmt.Fprintf(w, `<th>%s</th>`, html.EscapeString(item)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tr></table>`)
		return err
	})
}

// HelpPanel renders the fallback help component.
func HelpPanel(props map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		title := html.EscapeString(stringProp(props, "title", "How can I help?"))
		if _, err := fmt.Fprintf(w, `<section class="help-panel"><h2>%s</h2><ul>`, title); err != nil {
			return err
		}
		for _, suggestion := range listProp(props, "suggestions") {
			if _, err := fmt.Fprintf(w, `<li>%s</li>`, html.EscapeString(suggestion)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

// RegisterDefaults binds the default component set into a registry.
func RegisterDefaults(r *registry.ComponentRegistry) {
	r.Register("WelcomeHero", WelcomeHero, registry.Metadata{
		Description: "Greeting banner with title and subtitle",
		Areas:       []string{"center", "main"},
	})
	r.Register("SuggestionCards", SuggestionCards, registry.Metadata{
		Description: "Clickable conversation suggestions",
		Areas:       []string{"center", "main"},
	})
	r.Register("ProductGrid", ProductGrid, registry.Metadata{
		Description: "Product listing grid",
		Areas:       []string{"main", "grid"},
	})
	r.Register("FilterPanel", FilterPanel, registry.Metadata{
		Description: "Faceted filter controls",
		Areas:       []string{"sidebar"},
		Tags:        []string{"sidebar"},
	})
	r.Register("NavigationPanel", NavigationPanel, registry.Metadata{
		Description: "Section navigation",
		Areas:       []string{"sidebar"},
		Tags:        []string{"sidebar"},
	})
	r.Register("SearchResults", SearchResults, registry.Metadata{
		Description: "Search result listing",
		Areas:       []string{"main"},
	})
	r.Register("ComparisonTable", ComparisonTable, registry.Metadata{
		Description: "Side-by-side item comparison",
		Areas:       []string{"grid"},
	})
	r.Register("HelpPanel", HelpPanel, registry.Metadata{
		Description: "Fallback help and suggestions",
		Areas:       []string{"center"},
	})
}

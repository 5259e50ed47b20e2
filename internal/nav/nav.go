// Package nav resolves free-text page names to canonical application routes
// and answers "where do I find X" questions without touching the completion
// provider.
package nav

import (
	"sort"
	"strings"
	"unicode"
)

// Intent is a resolved navigation target.
type Intent struct {
	Page string `json:"page"`
	URL  string `json:"url"`
}

// pages maps canonical page names to routes. Alias keys point at the same
// route so fuzzy phrasings resolve ("po" → purchase orders).
var pages = map[string]Intent{
	"dashboard":       {Page: "dashboard", URL: "/dashboard"},
	"products":        {Page: "products", URL: "/products"},
	"inventory":       {Page: "inventory", URL: "/inventory"},
	"orders":          {Page: "orders", URL: "/orders"},
	"purchase orders": {Page: "purchase orders", URL: "/purchase-orders"},
	"suppliers":       {Page: "suppliers", URL: "/suppliers"},
	"warehouses":      {Page: "warehouses", URL: "/warehouses"},
	"customers":       {Page: "customers", URL: "/customers"},
	"audits":          {Page: "audits", URL: "/audits"},
	"reports":         {Page: "reports", URL: "/reports"},
	"settings":        {Page: "settings", URL: "/settings"},
}

var aliases = map[string]string{
	"home":             "dashboard",
	"main":             "dashboard",
	"product":          "products",
	"catalog":          "products",
	"items":            "products",
	"stock":            "inventory",
	"order":            "orders",
	"sales":            "orders",
	"po":               "purchase orders",
	"purchase order":   "purchase orders",
	"purchasing":       "purchase orders",
	"supplier":         "suppliers",
	"vendors":          "suppliers",
	"vendor":           "suppliers",
	"warehouse":        "warehouses",
	"locations":        "warehouses",
	"customer":         "customers",
	"clients":          "customers",
	"audit":            "audits",
	"report":           "reports",
	"analytics":        "reports",
	"dashboards":       "reports",
	"financial":        "reports",
	"configuration":    "settings",
	"company settings": "settings",
}

// substringKeys holds every canonical name and alias ordered longest first
// (ties broken lexicographically) so the substring pass is deterministic and
// the most specific key wins: "purchase orders" resolves before "orders".
var substringKeys = func() []string {
	keys := make([]string, 0, len(pages)+len(aliases))
	for k := range pages {
		keys = append(keys, k)
	}
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Find resolves a free-text page name to a navigation intent. Matching is
// case-insensitive: exact canonical name, then alias, then substring of the
// input containing a canonical name or alias, longest key first.
func Find(name string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Intent{}, false
	}

	if in, ok := pages[normalized]; ok {
		return in, true
	}
	if canonical, ok := aliases[normalized]; ok {
		return pages[canonical], true
	}

	// Substring pass for phrasings like "the products page".
	for _, key := range substringKeys {
		if !strings.Contains(normalized, key) {
			continue
		}
		// Very short aliases only match as whole words so "expo" does
		// not resolve through "po".
		if len(key) <= 2 && !containsWord(normalized, key) {
			continue
		}
		if in, ok := pages[key]; ok {
			return in, true
		}
		return pages[aliases[key]], true
	}

	return Intent{}, false
}

// containsWord reports whether word appears in s delimited by non-letter
// runes.
func containsWord(s, word string) bool {
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if field == word {
			return true
		}
	}
	return false
}

// Help is the static reply when no page matches, listing example pages.
const Help = "I couldn't find that page. Try asking for one of: dashboard, " +
	"products, inventory, orders, purchase orders, suppliers, warehouses, " +
	"customers, audits, reports or settings."

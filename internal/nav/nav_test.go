package nav

import (
	"strings"
	"testing"
)

func TestFindExact(t *testing.T) {
	in, ok := Find("products")
	if !ok {
		t.Fatal("expected match for products")
	}
	if in.URL != "/products" {
		t.Errorf("url = %q, want /products", in.URL)
	}
}

func TestFindCaseInsensitiveAndTrimmed(t *testing.T) {
	in, ok := Find("  Purchase Orders  ")
	if !ok {
		t.Fatal("expected match")
	}
	if in.URL != "/purchase-orders" {
		t.Errorf("url = %q, want /purchase-orders", in.URL)
	}
}

func TestFindAlias(t *testing.T) {
	cases := map[string]string{
		"po":      "/purchase-orders",
		"stock":   "/inventory",
		"vendors": "/suppliers",
		"home":    "/dashboard",
	}
	for name, wantURL := range cases {
		in, ok := Find(name)
		if !ok {
			t.Errorf("Find(%q): no match", name)
			continue
		}
		if in.URL != wantURL {
			t.Errorf("Find(%q) = %q, want %q", name, in.URL, wantURL)
		}
	}
}

func TestFindSubstring(t *testing.T) {
	in, ok := Find("the suppliers page please")
	if !ok {
		t.Fatal("expected substring match")
	}
	if in.Page != "suppliers" {
		t.Errorf("page = %q, want suppliers", in.Page)
	}
}

func TestFindSubstringDeterministic(t *testing.T) {
	// "take me to purchase orders" contains both the "orders" and the
	// "purchase orders" keys; the longer key must win on every call.
	for i := 0; i < 200; i++ {
		in, ok := Find("take me to purchase orders")
		if !ok {
			t.Fatal("expected match")
		}
		if in.URL != "/purchase-orders" {
			t.Fatalf("iteration %d: url = %q, want /purchase-orders", i, in.URL)
		}
	}
}

func TestFindSubstringPrefersLongestKey(t *testing.T) {
	cases := map[string]string{
		"show purchase orders":          "/purchase-orders",
		"go to the purchase order page": "/purchase-orders",
		"open company settings":         "/settings",
		"the orders overview":           "/orders",
	}
	for name, wantURL := range cases {
		in, ok := Find(name)
		if !ok {
			t.Errorf("Find(%q): no match", name)
			continue
		}
		if in.URL != wantURL {
			t.Errorf("Find(%q) = %q, want %q", name, in.URL, wantURL)
		}
	}
}

func TestFindShortAliasWholeWordOnly(t *testing.T) {
	if in, ok := Find("take me to the expo"); ok {
		t.Errorf("expected no match for expo, got %q", in.URL)
	}
	in, ok := Find("open the po list")
	if !ok {
		t.Fatal("expected match for po as a word")
	}
	if in.URL != "/purchase-orders" {
		t.Errorf("url = %q, want /purchase-orders", in.URL)
	}
}

func TestFindUnknown(t *testing.T) {
	if _, ok := Find("the moon"); ok {
		t.Error("expected no match for unknown page")
	}
	if _, ok := Find(""); ok {
		t.Error("expected no match for empty input")
	}
}

func TestGuidanceMatchesWhereQuestions(t *testing.T) {
	cases := []struct {
		message string
		domain  string
	}{
		{"Where do I find my products?", "Products"},
		{"where should I go to create a purchase order", "Purchase"},
		{"Where can I check inventory levels?", "Inventory"},
		{"where do I manage suppliers", "Suppliers"},
		{"Where are the sales reports?", "Report"},
	}
	for _, tc := range cases {
		answer, ok := Guidance(tc.message)
		if !ok {
			t.Errorf("Guidance(%q): expected a match", tc.message)
			continue
		}
		if !strings.Contains(answer, tc.domain) {
			t.Errorf("Guidance(%q) = %q, want mention of %q", tc.message, answer, tc.domain)
		}
	}
}

func TestGuidanceNavigationalPhrasing(t *testing.T) {
	if _, ok := Guidance("which page should I go to for orders"); !ok {
		t.Error("expected match for navigational phrasing without 'where'")
	}
}

func TestGuidanceRequiresDomainKeyword(t *testing.T) {
	if answer, ok := Guidance("where is the bathroom"); ok {
		t.Errorf("expected no match without domain keyword, got %q", answer)
	}
}

func TestGuidanceRequiresNavigationalShape(t *testing.T) {
	// Domain keyword alone is not enough; "how" questions go to retrieval.
	if answer, ok := Guidance("how are products priced"); ok {
		t.Errorf("expected no match without where/go phrasing, got %q", answer)
	}
}

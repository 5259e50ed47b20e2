package nav

import "strings"

// guidanceRule pairs a predicate with a canned response. Rules are evaluated
// in order; the first match wins. Keeping the rules in a flat list makes each
// one independently testable and lets new heuristics land as one-line edits.
type guidanceRule struct {
	name     string
	keywords []string
	response string
}

// navigationalPhrases signal the user is asking where to go in the app, not
// asking for an explanation.
var navigationalPhrases = []string{
	"should i go", "do i go", "can i go", "can i find", "to find",
	"should i", "do i",
}

var guidanceRules = []guidanceRule{
	{
		name:     "products",
		keywords: []string{"product", "item", "catalog"},
		response: "You can manage products from the Products page:\n" +
			"- View and search the catalog under Products\n" +
			"- Add a product with the \"New Product\" button\n" +
			"- Edit prices, SKUs and categories from a product's detail view",
	},
	{
		name:     "purchase orders",
		keywords: []string{"purchase order", "po "},
		response: "Purchase orders live under Purchasing:\n" +
			"- Open Purchase Orders to see drafts and sent POs\n" +
			"- Create one with \"New Purchase Order\" and pick a supplier\n" +
			"- Receiving stock against a PO updates inventory automatically",
	},
	{
		name:     "orders",
		keywords: []string{"order"},
		response: "Orders are under the Orders page:\n" +
			"- Recent orders appear first; use filters for status or customer\n" +
			"- Open an order to see line items, payments and fulfillment\n" +
			"- Export order lists from the toolbar",
	},
	{
		name:     "inventory",
		keywords: []string{"inventory", "stock"},
		response: "Inventory is tracked on the Inventory page:\n" +
			"- Current stock levels per product and warehouse\n" +
			"- Low-stock alerts appear on the dashboard\n" +
			"- Adjustments are recorded under Inventory > Adjustments",
	},
	{
		name:     "suppliers",
		keywords: []string{"supplier", "vendor"},
		response: "Suppliers are managed on the Suppliers page:\n" +
			"- Contact details and payment terms per supplier\n" +
			"- Linked purchase orders appear on a supplier's detail view",
	},
	{
		name:     "warehouses",
		keywords: []string{"warehouse", "location"},
		response: "Warehouses are configured under Warehouses:\n" +
			"- Each warehouse tracks its own stock levels\n" +
			"- Transfers between warehouses are under Inventory > Transfers",
	},
	{
		name:     "audits",
		keywords: []string{"audit"},
		response: "Audits are under the Audits page:\n" +
			"- Schedule a count from \"New Audit\"\n" +
			"- Completed audits show discrepancies and adjustments",
	},
	{
		name:     "reports",
		keywords: []string{"report", "analytic", "dashboard"},
		response: "Reporting lives on the Reports page:\n" +
			"- Sales, inventory valuation and supplier performance reports\n" +
			"- The dashboard shows the most-used charts at a glance",
	},
}

// Guidance answers a common question shape deterministically: a message that
// asks where something is AND names a known domain gets a canned multi-bullet
// answer, skipping retrieval entirely. Returns false when the shape doesn't
// match.
func Guidance(message string) (string, bool) {
	lower := strings.ToLower(message)

	if !asksWhere(lower) {
		return "", false
	}

	for _, rule := range guidanceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.response, true
			}
		}
	}

	return "", false
}

func asksWhere(lower string) bool {
	if strings.Contains(lower, "where") {
		return true
	}
	for _, phrase := range navigationalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

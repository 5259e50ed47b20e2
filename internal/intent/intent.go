// Package intent turns a raw user message into a classified intent with
// confidence and extracted parameters.
//
// The taxonomy is a closed set of labels across the operational domains of
// the platform (inventory, products, orders, purchase orders, audits,
// suppliers, warehouses, customers, categories, brands, analytics) plus two
// special labels: Navigation for "take me to page X" requests and
// KnowledgeExplainer for procedural questions answered from the tenant's
// knowledge base. Fallback is the label of last resort.
package intent

// Intent is a closed label describing what the user wants.
type Intent string

// Special intents with dedicated routing strategies.
const (
	// Navigation asks to open an application page. Parameters carry
	// {"page": "<name>"}.
	Navigation Intent = "navigation.page"

	// KnowledgeExplainer asks how/why/what-should-I questions answered from
	// the tenant knowledge base rather than live operational data.
	KnowledgeExplainer Intent = "knowledge.explainer"

	// Fallback is produced when no other intent applies, or substituted when
	// classification itself fails.
	Fallback Intent = "fallback"
)

// Live-data intents. Each resolves to a structured query against operational
// data, scoped to the requesting tenant.
const (
	InventoryCheck      Intent = "inventory.check"
	InventoryLowStock   Intent = "inventory.low_stock"
	InventoryOutOfStock Intent = "inventory.out_of_stock"
	InventoryValue      Intent = "inventory.value"

	ProductsList       Intent = "products.list"
	ProductsSearch     Intent = "products.search"
	ProductsDetail     Intent = "products.detail"
	ProductsCount      Intent = "products.count"
	ProductsByCategory Intent = "products.by_category"

	OrdersRecent  Intent = "orders.recent"
	OrdersSearch  Intent = "orders.search"
	OrdersStatus  Intent = "orders.status"
	OrdersPending Intent = "orders.pending"
	OrdersCount   Intent = "orders.count"

	PurchaseOrdersList    Intent = "purchase_orders.list"
	PurchaseOrdersSearch  Intent = "purchase_orders.search"
	PurchaseOrdersStatus  Intent = "purchase_orders.status"
	PurchaseOrdersPending Intent = "purchase_orders.pending"

	AuditsRecent Intent = "audits.recent"
	AuditsSearch Intent = "audits.search"

	SuppliersList   Intent = "suppliers.list"
	SuppliersSearch Intent = "suppliers.search"
	SuppliersDetail Intent = "suppliers.detail"

	WarehousesList   Intent = "warehouses.list"
	WarehousesSearch Intent = "warehouses.search"
	WarehousesStock  Intent = "warehouses.stock"

	CustomersList   Intent = "customers.list"
	CustomersSearch Intent = "customers.search"
	CustomersDetail Intent = "customers.detail"

	CategoriesList Intent = "categories.list"
	BrandsList     Intent = "brands.list"

	AnalyticsSales       Intent = "analytics.sales"
	AnalyticsInventory   Intent = "analytics.inventory"
	AnalyticsTopProducts Intent = "analytics.top_products"
)

// LiveData lists every intent resolved by the live-data handler boundary.
// The router builds its dispatch table from this slice; adding a live-data
// intent means adding it here and nowhere else.
var LiveData = []Intent{
	InventoryCheck, InventoryLowStock, InventoryOutOfStock, InventoryValue,
	ProductsList, ProductsSearch, ProductsDetail, ProductsCount, ProductsByCategory,
	OrdersRecent, OrdersSearch, OrdersStatus, OrdersPending, OrdersCount,
	PurchaseOrdersList, PurchaseOrdersSearch, PurchaseOrdersStatus, PurchaseOrdersPending,
	AuditsRecent, AuditsSearch,
	SuppliersList, SuppliersSearch, SuppliersDetail,
	WarehousesList, WarehousesSearch, WarehousesStock,
	CustomersList, CustomersSearch, CustomersDetail,
	CategoriesList, BrandsList,
	AnalyticsSales, AnalyticsInventory, AnalyticsTopProducts,
}

// All lists the complete taxonomy: every live-data intent plus the special
// labels. Useful for exhaustiveness checks in tests and tooling.
var All = append(append([]Intent{}, LiveData...), Navigation, KnowledgeExplainer, Fallback)

// Recognized parameter keys. Values are passed through opaquely to the
// live-data handler; the classifier is instructed to use these keys for
// free-text search terms.
const (
	ParamPage        = "page"
	ParamSearchTerm  = "searchTerm"
	ParamSKU         = "sku"
	ParamOrderNumber = "orderNumber"
)

// Result is the outcome of classifying a single message. It is produced once
// per request and immutable thereafter.
type Result struct {
	Intent     Intent         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters"`
}

// DegradedResult is substituted when classification fails for any reason.
// The request proceeds through the fallback strategy instead of aborting.
func DegradedResult() Result {
	return Result{
		Intent:     Fallback,
		Confidence: 0.3,
		Parameters: map[string]any{},
	}
}

// Outcome separates the expected degraded path from real errors: a failed
// provider call or malformed JSON yields Degraded=true with the fallback
// Result, never an error that aborts the request.
type Outcome struct {
	Result   Result
	Degraded bool
	// Reason records why classification degraded. Empty when Degraded is false.
	Reason string
}

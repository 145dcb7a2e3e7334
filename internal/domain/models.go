package domain

import "time"

// Monetary amounts are int64 in the shop's minor currency unit.

type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model,omitempty"`
	SKU          string    `json:"sku,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	Description  string    `json:"description,omitempty"`
	CostPrice    int64     `json:"cost_price"`
	SellingPrice int64     `json:"selling_price"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ItemCreateRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SKU          string `json:"sku"`
	Photo        string `json:"photo"`
	Description  string `json:"description"`
	CostPrice    int64  `json:"cost_price"`
	SellingPrice int64  `json:"selling_price"`
	Stock        int    `json:"stock"`
}

type ItemUpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Category     *string `json:"category,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	SKU          *string `json:"sku,omitempty"`
	Photo        *string `json:"photo,omitempty"`
	Description  *string `json:"description,omitempty"`
	CostPrice    *int64  `json:"cost_price,omitempty"`
	SellingPrice *int64  `json:"selling_price,omitempty"`
	Stock        *int    `json:"stock,omitempty"`
}

type ItemFilter struct {
	Category string
	Brand    string
}

// CategoryStock is a distinct-category row with aggregate stock, used by the
// storefront category listing.
type CategoryStock struct {
	Category  string `json:"category"`
	ItemCount int    `json:"item_count"`
	Stock     int    `json:"stock"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusRefunded  = "refunded"
	SaleStatusVoided    = "voided"
)

// Sale is an immutable ledger record. The item name/category/brand/model are
// snapshotted at sale time so historical reports stay stable even when the
// catalog entry is later edited or deleted. Only Status may change afterwards.
type Sale struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ItemName      string    `json:"item_name"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand,omitempty"`
	Model         string    `json:"model,omitempty"`
	Quantity      int       `json:"quantity"`
	CostPrice     int64     `json:"cost_price"`
	SellingPrice  int64     `json:"selling_price"`
	TotalRevenue  int64     `json:"total_revenue"`
	TotalCost     int64     `json:"total_cost"`
	PaymentMethod string    `json:"payment_method"`
	Reference     string    `json:"reference,omitempty"`
	Status        string    `json:"status"`
	SoldBy        string    `json:"sold_by"`
	Date          time.Time `json:"date"`
}

type SaleCreateRequest struct {
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
	SellingPrice  int64  `json:"selling_price"`
	PaymentMethod string `json:"payment_method"`
	Reference     string `json:"reference"`
}

const (
	InventoryTxPurchase   = "purchase"
	InventoryTxSale       = "sale"
	InventoryTxAdjustment = "adjustment"
	InventoryTxReturn     = "return"
)

// InventoryTransaction records every stock-affecting event. Rows of type
// "purchase" are the authoritative source for stock-purchase totals in the
// financial aggregates, independent of any Expense record.
type InventoryTransaction struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	UnitCost  int64     `json:"unit_cost"`
	RelatedID string    `json:"related_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Actor     string    `json:"actor"`
	Date      time.Time `json:"date"`
}

// PurchaseLine is one line of a restock request. Lines are matched to existing
// items by name+category+brand+model; unmatched lines create new items, which
// is also how new categories and brands come into existence.
type PurchaseLine struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Quantity     int    `json:"quantity"`
	UnitCost     int64  `json:"unit_cost"`
	SellingPrice int64  `json:"selling_price"`
}

const (
	ExpenseStatusApproved  = "approved"
	ExpenseStatusPending   = "pending"
	ExpenseStatusCancelled = "cancelled"
)

const (
	ExpenseTypeStockPurchase = "stock_purchase"
	ExpenseTypeAssetPurchase = "asset_purchase"
	ExpenseTypeAssetDisposal = "asset_disposal"
	ExpenseTypeWithdrawal    = "withdrawal"
	ExpenseTypeMisc          = "misc"
)

// Expense types are an open set: operating categories (rent, transport, salary,
// ...) arrive as free-form strings. Only the capital-nature types above carry
// special aggregation rules.
type Expense struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Category      string    `json:"category,omitempty"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Supplier      string    `json:"supplier,omitempty"`
	LinkedItemID  string    `json:"linked_item_id,omitempty"`
	Status        string    `json:"status"`
	Description   string    `json:"description,omitempty"`
	Actor         string    `json:"actor"`
	Date          time.Time `json:"date"`
}

type ExpenseCreateRequest struct {
	Type          string `json:"type"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Reference     string `json:"reference"`
	Supplier      string `json:"supplier"`
	LinkedItemID  string `json:"linked_item_id"`
	Status        string `json:"status"`
	Description   string `json:"description"`
}

const (
	AssetStatusActive   = "active"
	AssetStatusDisposed = "disposed"
)

type Asset struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Quantity         int        `json:"quantity"`
	PurchaseCost     int64      `json:"purchase_cost"`
	PurchaseDate     time.Time  `json:"purchase_date"`
	Supplier         string     `json:"supplier,omitempty"`
	Location         string     `json:"location,omitempty"`
	Condition        string     `json:"condition,omitempty"`
	UsefulLifeMonths int        `json:"useful_life_months,omitempty"`
	SalvageValue     int64      `json:"salvage_value,omitempty"`
	Status           string     `json:"status"`
	DisposalAmount   int64      `json:"disposal_amount,omitempty"`
	DisposedAt       *time.Time `json:"disposed_at,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

type AssetCreateRequest struct {
	Name             string `json:"name"`
	Category         string `json:"category"`
	Quantity         int    `json:"quantity"`
	PurchaseCost     int64  `json:"purchase_cost"`
	Supplier         string `json:"supplier"`
	Location         string `json:"location"`
	Condition        string `json:"condition"`
	UsefulLifeMonths int    `json:"useful_life_months"`
	SalvageValue     int64  `json:"salvage_value"`
}

type AssetUpdateRequest struct {
	Name             *string `json:"name,omitempty"`
	Category         *string `json:"category,omitempty"`
	Quantity         *int    `json:"quantity,omitempty"`
	PurchaseCost     *int64  `json:"purchase_cost,omitempty"`
	Supplier         *string `json:"supplier,omitempty"`
	Location         *string `json:"location,omitempty"`
	Condition        *string `json:"condition,omitempty"`
	UsefulLifeMonths *int    `json:"useful_life_months,omitempty"`
	SalvageValue     *int64  `json:"salvage_value,omitempty"`
}

type AssetDisposalRequest struct {
	Amount int64 `json:"amount"`
}

type AssetListResponse struct {
	TotalAssets     int     `json:"total_assets"`
	TotalAssetValue int64   `json:"total_asset_value"`
	Assets          []Asset `json:"assets"`
}

const (
	CapitalInjection  = "injection"
	CapitalWithdrawal = "withdrawal"
)

type CapitalTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type CapitalCreateRequest struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// Stats is the live dashboard payload. Every figure is recomputed from the
// ledger on each request; nothing here is cached or incrementally maintained.
type Stats struct {
	TotalProducts int `json:"total_products"`
	LowStock      int `json:"low_stock"`
	TotalUsers    int `json:"total_users"`

	TodayRevenue        int64 `json:"today_revenue"`
	TodayCOGS           int64 `json:"today_cogs"`
	TodayExpenses       int64 `json:"today_expenses"`
	TodayStockPurchases int64 `json:"today_stock_purchases"`
	TodayProfit         int64 `json:"today_profit"`

	TotalRevenue        int64 `json:"total_revenue"`
	TotalCOGS           int64 `json:"total_cogs"`
	TotalExpenses       int64 `json:"total_expenses"`
	TotalStockPurchases int64 `json:"total_stock_purchases"`
	TotalProfit         int64 `json:"total_profit"`
	Balance             int64 `json:"balance"`

	TotalAssets     int   `json:"total_assets"`
	TotalAssetValue int64 `json:"total_asset_value"`
	TotalCapital    int64 `json:"total_capital"`
}

type BestSellingItem struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	TotalQty     int    `json:"total_qty"`
	TotalRevenue int64  `json:"total_revenue"`
}

type CategorySales struct {
	Category     string `json:"category"`
	TotalRevenue int64  `json:"total_revenue"`
	TotalQty     int    `json:"total_qty"`
}

// DailyBucket keys are formatted YYYY-MM-DD in the report's time zone.
type DailyBucket struct {
	Day     string `json:"day"`
	Revenue int64  `json:"revenue"`
	Cost    int64  `json:"cost"`
}

type DailyExpenseBucket struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
}

type DailyNetCash struct {
	Day string `json:"day"`
	Net int64  `json:"net"`
}

type HourlyBucket struct {
	Hour    int   `json:"hour"`
	Revenue int64 `json:"revenue"`
}

type AdvancedReport struct {
	TodaySales      int64 `json:"today_sales"`
	YesterdaySales  int64 `json:"yesterday_sales"`
	WeeklySales     int64 `json:"weekly_sales"`
	MonthlySales    int64 `json:"monthly_sales"`
	ThisMonthSales  int64 `json:"this_month_sales"`
	ThisYearSales   int64 `json:"this_year_sales"`
	TotalRevenue    int64 `json:"total_revenue"`
	TotalSalesCount int   `json:"total_sales_count"`

	TotalExpenses int64 `json:"total_expenses"`
	NetCash       int64 `json:"net_cash"`

	BestSellingItems []BestSellingItem    `json:"best_selling_items"`
	CategorySales    []CategorySales      `json:"category_sales"`
	HourlySales      []HourlyBucket       `json:"hourly_sales"`
	DailySales       []DailyBucket        `json:"daily_sales"`
	DailyExpenses    []DailyExpenseBucket `json:"daily_expenses"`
	NetCashDaily     []DailyNetCash       `json:"net_cash_daily"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

package reports

import (
	"sort"
	"time"

	"dukapos/backend/internal/domain"
)

// Ledger is a point-in-time snapshot of everything the financial views are
// computed from. Callers fetch it fresh per request; nothing in this package
// caches or keeps running counters.
type Ledger struct {
	Items        []domain.Item
	Sales        []domain.Sale
	Expenses     []domain.Expense
	InventoryTxs []domain.InventoryTransaction
	Assets       []domain.Asset
	Capital      []domain.CapitalTransaction
	UserCount    int
}

// startOfDay returns midnight of t's day in t's location. All "today" and
// daily-bucket math keys off this, not off UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Revenue sums completed-sale revenue from the given instant onward. A zero
// from means lifetime.
func (l Ledger) Revenue(from time.Time) int64 {
	var total int64
	for _, s := range l.Sales {
		if s.Status != domain.SaleStatusCompleted {
			continue
		}
		if !from.IsZero() && s.Date.Before(from) {
			continue
		}
		total += s.TotalRevenue
	}
	return total
}

// COGS sums the cost side of the same completed sales.
func (l Ledger) COGS(from time.Time) int64 {
	var total int64
	for _, s := range l.Sales {
		if s.Status != domain.SaleStatusCompleted {
			continue
		}
		if !from.IsZero() && s.Date.Before(from) {
			continue
		}
		total += s.TotalCost
	}
	return total
}

// OperatingExpenses sums approved expenses excluding stock purchases, which
// are accounted through the inventory ledger instead. Asset purchases stay
// in; asset disposals carry negative amounts and flow in as inflows.
func (l Ledger) OperatingExpenses(from time.Time) int64 {
	var total int64
	for _, e := range l.Expenses {
		if e.Status != domain.ExpenseStatusApproved {
			continue
		}
		if e.Type == domain.ExpenseTypeStockPurchase {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		total += e.Amount
	}
	return total
}

// StockPurchases sums quantity times unit cost over purchase-type inventory
// transactions. These rows, not expense records, are authoritative for money
// spent on stock.
func (l Ledger) StockPurchases(from time.Time) int64 {
	var total int64
	for _, itx := range l.InventoryTxs {
		if itx.Type != domain.InventoryTxPurchase {
			continue
		}
		if !from.IsZero() && itx.Date.Before(from) {
			continue
		}
		total += int64(itx.Quantity) * itx.UnitCost
	}
	return total
}

func (l Ledger) Profit(from time.Time) int64 {
	return l.Revenue(from) - l.COGS(from) - l.OperatingExpenses(from) - l.StockPurchases(from)
}

// NetCapital is lifetime injections minus withdrawals.
func (l Ledger) NetCapital() int64 {
	var total int64
	for _, c := range l.Capital {
		if c.Type == domain.CapitalWithdrawal {
			total -= c.Amount
		} else {
			total += c.Amount
		}
	}
	return total
}

// Balance approximates cash on hand: capital plus lifetime revenue minus
// lifetime expenses and stock purchases. COGS is excluded on purpose; cost
// of goods leaves the till when stock is bought, not when it is sold.
func (l Ledger) Balance() int64 {
	var zero time.Time
	return l.NetCapital() + l.Revenue(zero) - l.OperatingExpenses(zero) - l.StockPurchases(zero)
}

// BuildStats assembles the dashboard payload. Windows are anchored at
// midnight of now's day in now's location.
func BuildStats(ledger Ledger, now time.Time, lowStockThreshold int) domain.Stats {
	var lifetime time.Time
	today := startOfDay(now)

	lowStock := 0
	for _, it := range ledger.Items {
		if it.Stock < lowStockThreshold {
			lowStock++
		}
	}

	activeAssets := 0
	var assetValue int64
	for _, a := range ledger.Assets {
		if a.Status != domain.AssetStatusActive {
			continue
		}
		activeAssets++
		assetValue += int64(a.Quantity) * a.PurchaseCost
	}

	return domain.Stats{
		TotalProducts: len(ledger.Items),
		LowStock:      lowStock,
		TotalUsers:    ledger.UserCount,

		TodayRevenue:        ledger.Revenue(today),
		TodayCOGS:           ledger.COGS(today),
		TodayExpenses:       ledger.OperatingExpenses(today),
		TodayStockPurchases: ledger.StockPurchases(today),
		TodayProfit:         ledger.Profit(today),

		TotalRevenue:        ledger.Revenue(lifetime),
		TotalCOGS:           ledger.COGS(lifetime),
		TotalExpenses:       ledger.OperatingExpenses(lifetime),
		TotalStockPurchases: ledger.StockPurchases(lifetime),
		TotalProfit:         ledger.Profit(lifetime),
		Balance:             ledger.Balance(),

		TotalAssets:     activeAssets,
		TotalAssetValue: assetValue,
		TotalCapital:    ledger.NetCapital(),
	}
}

// BuildAdvancedReport assembles the reporting payload: window totals, best
// sellers, category and time-bucketed breakdowns. Only completed sales count;
// refunded and voided sales drop out of every figure retroactively.
func BuildAdvancedReport(ledger Ledger, now time.Time) domain.AdvancedReport {
	var lifetime time.Time
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -6)
	monthAgo := today.AddDate(0, 0, -29)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	report := domain.AdvancedReport{
		TodaySales:     ledger.Revenue(today),
		WeeklySales:    ledger.Revenue(weekAgo),
		MonthlySales:   ledger.Revenue(monthAgo),
		ThisMonthSales: ledger.Revenue(monthStart),
		ThisYearSales:  ledger.Revenue(yearStart),
		TotalRevenue:   ledger.Revenue(lifetime),
		TotalExpenses:  ledger.OperatingExpenses(lifetime),
		NetCash:        ledger.Balance(),
	}

	itemsByID := make(map[string]domain.Item, len(ledger.Items))
	for _, it := range ledger.Items {
		itemsByID[it.ID] = it
	}

	type itemAgg struct {
		name     string
		category string
		qty      int
		revenue  int64
	}
	byItem := map[string]*itemAgg{}
	byCategory := map[string]*domain.CategorySales{}
	dailyRevenue := map[string]int64{}
	dailyCost := map[string]int64{}
	hourly := make([]int64, 24)

	for _, s := range ledger.Sales {
		if s.Status != domain.SaleStatusCompleted {
			continue
		}

		report.TotalSalesCount++
		if !s.Date.Before(yesterday) && s.Date.Before(today) {
			report.YesterdaySales += s.TotalRevenue
		}

		agg, ok := byItem[s.ItemID]
		if !ok {
			agg = &itemAgg{name: s.ItemName, category: s.Category}
			byItem[s.ItemID] = agg
		}
		agg.qty += s.Quantity
		agg.revenue += s.TotalRevenue

		// The live catalog entry wins for display fields; the sale's own
		// snapshot covers items deleted since.
		category := s.Category
		if item, ok := itemsByID[s.ItemID]; ok {
			agg.name = item.Name
			agg.category = item.Category
			category = item.Category
		}
		cs, ok := byCategory[category]
		if !ok {
			cs = &domain.CategorySales{Category: category}
			byCategory[category] = cs
		}
		cs.TotalRevenue += s.TotalRevenue
		cs.TotalQty += s.Quantity

		local := s.Date.In(now.Location())
		if !local.Before(monthAgo) {
			day := local.Format("2006-01-02")
			dailyRevenue[day] += s.TotalRevenue
			dailyCost[day] += s.TotalCost
		}
		if !local.Before(today) {
			hourly[local.Hour()] += s.TotalRevenue
		}
	}

	dailyExpense := map[string]int64{}
	for _, e := range ledger.Expenses {
		if e.Status != domain.ExpenseStatusApproved {
			continue
		}
		local := e.Date.In(now.Location())
		if local.Before(monthAgo) {
			continue
		}
		dailyExpense[local.Format("2006-01-02")] += e.Amount
	}

	best := make([]domain.BestSellingItem, 0, len(byItem))
	for id, agg := range byItem {
		best = append(best, domain.BestSellingItem{
			ItemID:       id,
			Name:         agg.name,
			Category:     agg.category,
			TotalQty:     agg.qty,
			TotalRevenue: agg.revenue,
		})
	}
	sort.Slice(best, func(i, j int) bool {
		if best[i].TotalQty != best[j].TotalQty {
			return best[i].TotalQty > best[j].TotalQty
		}
		return best[i].TotalRevenue > best[j].TotalRevenue
	})
	if len(best) > 10 {
		best = best[:10]
	}
	report.BestSellingItems = best

	categories := make([]domain.CategorySales, 0, len(byCategory))
	for _, cs := range byCategory {
		categories = append(categories, *cs)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].TotalRevenue != categories[j].TotalRevenue {
			return categories[i].TotalRevenue > categories[j].TotalRevenue
		}
		return categories[i].Category < categories[j].Category
	})
	report.CategorySales = categories

	report.HourlySales = make([]domain.HourlyBucket, 24)
	for h := range hourly {
		report.HourlySales[h] = domain.HourlyBucket{Hour: h, Revenue: hourly[h]}
	}

	// One bucket per calendar day over the trailing 30, zero-filled so the
	// chart axis stays continuous.
	for d := 0; d < 30; d++ {
		day := monthAgo.AddDate(0, 0, d).Format("2006-01-02")
		report.DailySales = append(report.DailySales, domain.DailyBucket{
			Day:     day,
			Revenue: dailyRevenue[day],
			Cost:    dailyCost[day],
		})
		report.DailyExpenses = append(report.DailyExpenses, domain.DailyExpenseBucket{
			Day:   day,
			Total: dailyExpense[day],
		})
		report.NetCashDaily = append(report.NetCashDaily, domain.DailyNetCash{
			Day: day,
			Net: dailyRevenue[day] - dailyCost[day] - dailyExpense[day],
		})
	}

	return report
}

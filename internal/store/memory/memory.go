package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dukapos/backend/internal/domain"
	"dukapos/backend/internal/store"
	"dukapos/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	items           map[string]domain.Item
	sales           map[string]domain.Sale
	inventoryTxs    []domain.InventoryTransaction
	expenses        map[string]domain.Expense
	assets          map[string]domain.Asset
	capital         []domain.CapitalTransaction
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		items:           make(map[string]domain.Item),
		sales:           make(map[string]domain.Sale),
		inventoryTxs:    make([]domain.InventoryTransaction, 0, 128),
		expenses:        make(map[string]domain.Expense),
		assets:          make(map[string]domain.Asset),
		capital:         make([]domain.CapitalTransaction, 0, 16),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD; unset
// variables fall back to hardcoded dev defaults with a warning. Production
// deployments use PostgreSQL (DATABASE_URL set) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	items := []domain.Item{
		{ID: xid.New("item"), Name: "iPhone 13", Category: "phone", Brand: "Apple", Model: "13", CostPrice: 4500000, SellingPrice: 5200000, Stock: 6, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "Galaxy A54", Category: "phone", Brand: "Samsung", Model: "A54", CostPrice: 2800000, SellingPrice: 3300000, Stock: 9, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "Redmi Note 12", Category: "phone", Brand: "Xiaomi", Model: "Note 12", CostPrice: 1700000, SellingPrice: 2100000, Stock: 12, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "Clear Case", Category: "accessory", Brand: "Generic", Model: "", CostPrice: 8000, SellingPrice: 25000, Stock: 40, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "Tempered Glass", Category: "accessory", Brand: "Generic", Model: "", CostPrice: 5000, SellingPrice: 20000, Stock: 55, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "USB-C Charger 25W", Category: "accessory", Brand: "Samsung", Model: "EP-TA800", CostPrice: 95000, SellingPrice: 150000, Stock: 14, CreatedAt: now, UpdatedAt: now},
		{ID: xid.New("item"), Name: "TWS Earbuds", Category: "audio", Brand: "Xiaomi", Model: "Buds 4", CostPrice: 280000, SellingPrice: 390000, Stock: 1, CreatedAt: now, UpdatedAt: now},
	}

	s := New()
	for _, it := range items {
		s.items[it.ID] = it
	}
	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		if filter.Category != "" && !strings.EqualFold(it.Category, filter.Category) {
			continue
		}
		if filter.Brand != "" && !strings.EqualFold(it.Brand, filter.Brand) {
			continue
		}
		items = append(items, it)
	}

	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})

	return items, nil
}

func (s *Store) GetItem(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.SKU != "" {
		for _, existing := range s.items {
			if existing.SKU == item.SKU {
				return nil, store.ErrConflict
			}
		}
	}
	s.items[item.ID] = item
	return &item, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return nil, store.ErrNotFound
	}
	if item.SKU != "" {
		for _, existing := range s.items {
			if existing.ID != item.ID && existing.SKU == item.SKU {
				return nil, store.ErrConflict
			}
		}
	}
	s.items[item.ID] = item
	return &item, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	categories := make([]string, 0, 8)
	for _, it := range s.items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		categories = append(categories, it.Category)
	}
	slices.Sort(categories)
	return categories, nil
}

func (s *Store) ListBrands(_ context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	brands := make([]string, 0, 8)
	for _, it := range s.items {
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		if it.Brand == "" || seen[it.Brand] {
			continue
		}
		seen[it.Brand] = true
		brands = append(brands, it.Brand)
	}
	slices.Sort(brands)
	return brands, nil
}

func (s *Store) CategoriesWithStock(_ context.Context) ([]domain.CategoryStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := map[string]*domain.CategoryStock{}
	for _, it := range s.items {
		if it.Category == "" {
			continue
		}
		cs, ok := byCategory[it.Category]
		if !ok {
			cs = &domain.CategoryStock{Category: it.Category}
			byCategory[it.Category] = cs
		}
		cs.ItemCount++
		cs.Stock += it.Stock
	}

	out := make([]domain.CategoryStock, 0, len(byCategory))
	for _, cs := range byCategory {
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b domain.CategoryStock) int {
		return strings.Compare(a.Category, b.Category)
	})
	return out, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, itx domain.InventoryTransaction) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[sale.ItemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if item.Stock < sale.Quantity {
		return nil, store.ErrInsufficientStock
	}

	item.Stock -= sale.Quantity
	item.UpdatedAt = sale.Date
	s.items[item.ID] = item

	sale.ItemName = item.Name
	sale.Category = item.Category
	sale.Brand = item.Brand
	sale.Model = item.Model
	sale.CostPrice = item.CostPrice
	if sale.SellingPrice == 0 {
		sale.SellingPrice = item.SellingPrice
	}
	sale.TotalRevenue = sale.SellingPrice * int64(sale.Quantity)
	sale.TotalCost = sale.CostPrice * int64(sale.Quantity)
	sale.Status = domain.SaleStatusCompleted
	s.sales[sale.ID] = sale

	itx.ItemID = sale.ItemID
	itx.UnitCost = item.CostPrice
	itx.RelatedID = sale.ID
	s.inventoryTxs = append(s.inventoryTxs, itx)

	return &sale, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !from.IsZero() && sale.Date.Before(from) {
			continue
		}
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return b.Date.Compare(a.Date)
	})
	return sales, nil
}

func (s *Store) VoidSale(_ context.Context, id string, itx domain.InventoryTransaction) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrConflict
	}

	sale.Status = domain.SaleStatusVoided
	s.sales[id] = sale

	// Restock only while the item still exists; a deleted item keeps the
	// void but loses the stock restore.
	if item, ok := s.items[sale.ItemID]; ok {
		item.Stock += sale.Quantity
		item.UpdatedAt = itx.Date
		s.items[item.ID] = item
	}

	itx.ItemID = sale.ItemID
	itx.Quantity = sale.Quantity
	itx.UnitCost = sale.CostPrice
	itx.RelatedID = sale.ID
	s.inventoryTxs = append(s.inventoryTxs, itx)

	return &sale, nil
}

func (s *Store) RefundSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrConflict
	}
	sale.Status = domain.SaleStatusRefunded
	s.sales[id] = sale
	return &sale, nil
}

func (s *Store) ApplyPurchase(_ context.Context, lines []domain.PurchaseLine, actor string, at time.Time) ([]store.PurchaseApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := make([]store.PurchaseApplication, 0, len(lines))
	for _, line := range lines {
		item, ok := s.findItemLocked(line.Name, line.Category, line.Brand, line.Model)
		created := false
		if ok {
			item.Stock += line.Quantity
			item.CostPrice = line.UnitCost
			if line.SellingPrice > 0 {
				item.SellingPrice = line.SellingPrice
			}
			item.UpdatedAt = at
		} else {
			created = true
			item = domain.Item{
				ID:           xid.New("item"),
				Name:         line.Name,
				Category:     line.Category,
				Brand:        line.Brand,
				Model:        line.Model,
				CostPrice:    line.UnitCost,
				SellingPrice: line.SellingPrice,
				Stock:        line.Quantity,
				CreatedAt:    at,
				UpdatedAt:    at,
			}
		}
		s.items[item.ID] = item

		s.inventoryTxs = append(s.inventoryTxs, domain.InventoryTransaction{
			ID:       xid.New("itx"),
			ItemID:   item.ID,
			Type:     domain.InventoryTxPurchase,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
			Actor:    actor,
			Date:     at,
		})
		applied = append(applied, store.PurchaseApplication{Item: item, Created: created})
	}
	return applied, nil
}

func (s *Store) findItemLocked(name, category, brand, model string) (domain.Item, bool) {
	for _, it := range s.items {
		if strings.EqualFold(it.Name, name) &&
			strings.EqualFold(it.Category, category) &&
			strings.EqualFold(it.Brand, brand) &&
			strings.EqualFold(it.Model, model) {
			return it, true
		}
	}
	return domain.Item{}, false
}

func (s *Store) AdjustStock(_ context.Context, itemID string, newQty int, itx domain.InventoryTransaction) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}

	itx.ItemID = itemID
	itx.Quantity = newQty - item.Stock
	itx.UnitCost = item.CostPrice
	item.Stock = newQty
	item.UpdatedAt = itx.Date
	s.items[itemID] = item
	s.inventoryTxs = append(s.inventoryTxs, itx)

	return &item, nil
}

func (s *Store) ListInventoryTransactions(_ context.Context, from time.Time) ([]domain.InventoryTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]domain.InventoryTransaction, 0, len(s.inventoryTxs))
	for _, itx := range s.inventoryTxs {
		if !from.IsZero() && itx.Date.Before(from) {
			continue
		}
		txs = append(txs, itx)
	}
	slices.SortFunc(txs, func(a, b domain.InventoryTransaction) int {
		return b.Date.Compare(a.Date)
	})
	return txs, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses[expense.ID] = expense
	return &expense, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		return b.Date.Compare(a.Date)
	})
	return expenses, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) CreateAssetWithExpense(_ context.Context, asset domain.Asset, expense domain.Expense) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets[asset.ID] = asset
	s.expenses[expense.ID] = expense
	return &asset, nil
}

func (s *Store) GetAsset(_ context.Context, id string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &asset, nil
}

func (s *Store) ListAssets(_ context.Context) ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]domain.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		assets = append(assets, a)
	}
	slices.SortFunc(assets, func(a, b domain.Asset) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return assets, nil
}

func (s *Store) UpdateAsset(_ context.Context, asset domain.Asset) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[asset.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.assets[asset.ID] = asset
	return &asset, nil
}

func (s *Store) DeleteAsset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return store.ErrNotFound
	}
	if asset.Status == domain.AssetStatusDisposed {
		return store.ErrConflict
	}
	delete(s.assets, id)
	return nil
}

func (s *Store) DisposeAsset(_ context.Context, id string, amount int64, expense domain.Expense) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if asset.Status == domain.AssetStatusDisposed {
		return nil, store.ErrConflict
	}

	now := expense.Date
	asset.Status = domain.AssetStatusDisposed
	asset.DisposalAmount = amount
	asset.DisposedAt = &now
	s.assets[id] = asset
	s.expenses[expense.ID] = expense

	return &asset, nil
}

func (s *Store) CreateCapitalTransaction(_ context.Context, tx domain.CapitalTransaction) (*domain.CapitalTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capital = append(s.capital, tx)
	return &tx, nil
}

func (s *Store) ListCapitalTransactions(_ context.Context) ([]domain.CapitalTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CapitalTransaction, len(s.capital))
	copy(out, s.capital)
	slices.SortFunc(out, func(a, b domain.CapitalTransaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, len(s.auditLogs))
	for _, entry := range s.auditLogs {
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		logs = append(logs, entry)
	}
	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.usersByUsername), nil
}

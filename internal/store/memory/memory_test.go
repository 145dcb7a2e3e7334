package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dukapos/backend/internal/domain"
	"dukapos/backend/internal/store"
	"dukapos/backend/internal/xid"
)

func seedItem(t *testing.T, s *Store, stock int) domain.Item {
	t.Helper()
	now := time.Now().UTC()
	item, err := s.CreateItem(context.Background(), domain.Item{
		ID:           xid.New("item"),
		Name:         "Widget",
		Category:     "general",
		CostPrice:    100,
		SellingPrice: 250,
		Stock:        stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return *item
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	s := New()
	item := seedItem(t, s, 10)
	ctx := context.Background()

	const workers = 25
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			_, err := s.CreateSale(ctx, domain.Sale{
				ID:           xid.New("sale"),
				ItemID:       item.ID,
				Quantity:     1,
				SellingPrice: 250,
				SoldBy:       "staff",
				Date:         now,
			}, domain.InventoryTransaction{
				ID:       xid.New("itx"),
				Type:     domain.InventoryTxSale,
				Quantity: -1,
				Actor:    "staff",
				Date:     now,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientStock):
			failed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 successful sales, got %d (failed %d)", succeeded, failed)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Stock != 0 {
		t.Fatalf("expected stock exhausted to 0, got %d", got.Stock)
	}

	sales, _ := s.ListSales(ctx, time.Time{})
	if len(sales) != 10 {
		t.Fatalf("expected 10 sale records, got %d", len(sales))
	}
	txs, _ := s.ListInventoryTransactions(ctx, time.Time{})
	if len(txs) != 10 {
		t.Fatalf("expected 10 ledger rows, got %d", len(txs))
	}
}

func TestCreateSaleSnapshotsItemFields(t *testing.T) {
	s := New()
	item := seedItem(t, s, 5)
	ctx := context.Background()

	sale, err := s.CreateSale(ctx, domain.Sale{
		ID:       xid.New("sale"),
		ItemID:   item.ID,
		Quantity: 2,
		Date:     time.Now().UTC(),
	}, domain.InventoryTransaction{ID: xid.New("itx"), Type: domain.InventoryTxSale, Quantity: -2, Date: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if sale.ItemName != "Widget" || sale.CostPrice != 100 {
		t.Fatalf("expected snapshot from item, got %+v", sale)
	}
	// Blank selling price falls back to the item's current price.
	if sale.SellingPrice != 250 || sale.TotalRevenue != 500 {
		t.Fatalf("expected price fallback 250/500, got %d/%d", sale.SellingPrice, sale.TotalRevenue)
	}
}

func TestDimensionQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, spec := range []struct {
		name, category, brand string
		stock                 int
	}{
		{"A", "phone", "Apple", 3},
		{"B", "phone", "Samsung", 2},
		{"C", "accessory", "Generic", 10},
	} {
		if _, err := s.CreateItem(ctx, domain.Item{
			ID: xid.New("item"), Name: spec.name, Category: spec.category, Brand: spec.brand,
			SellingPrice: 100, Stock: spec.stock, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "accessory" || categories[1] != "phone" {
		t.Fatalf("unexpected categories: %v", categories)
	}

	brands, err := s.ListBrands(ctx, "phone")
	if err != nil {
		t.Fatalf("list brands: %v", err)
	}
	if len(brands) != 2 || brands[0] != "Apple" {
		t.Fatalf("unexpected brands: %v", brands)
	}

	withStock, err := s.CategoriesWithStock(ctx)
	if err != nil {
		t.Fatalf("categories with stock: %v", err)
	}
	for _, cs := range withStock {
		if cs.Category == "phone" && (cs.ItemCount != 2 || cs.Stock != 5) {
			t.Fatalf("unexpected phone aggregate: %+v", cs)
		}
	}
}

func TestApplyPurchaseMatchesCaseInsensitively(t *testing.T) {
	s := New()
	item := seedItem(t, s, 4)
	ctx := context.Background()

	applied, err := s.ApplyPurchase(ctx, []domain.PurchaseLine{
		{Name: "WIDGET", Category: "General", Brand: "", Model: "", Quantity: 6, UnitCost: 110, SellingPrice: 260},
	}, "admin", time.Now().UTC())
	if err != nil {
		t.Fatalf("apply purchase: %v", err)
	}
	if len(applied) != 1 || applied[0].Created {
		t.Fatalf("expected match against existing item, got %+v", applied)
	}
	if applied[0].Item.ID != item.ID || applied[0].Item.Stock != 10 {
		t.Fatalf("unexpected applied item: %+v", applied[0].Item)
	}
}

func TestSKUConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.CreateItem(ctx, domain.Item{ID: "i1", Name: "A", Category: "c", SKU: "SKU-1", SellingPrice: 1, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.CreateItem(ctx, domain.Item{ID: "i2", Name: "B", Category: "c", SKU: "SKU-1", SellingPrice: 1, CreatedAt: now, UpdatedAt: now}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected SKU conflict, got %v", err)
	}
}

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"dukapos/backend/internal/domain"
)

func TestVoidSaleRestocksItem(t *testing.T) {
	databaseURL := os.Getenv("DUKAPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DUKAPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("item-void-it-%d", stamp)
	saleID := fmt.Sprintf("sale-void-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_transactions WHERE item_id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	})

	now := time.Now().UTC()
	if _, err := s.CreateItem(ctx, domain.Item{
		ID:           itemID,
		Name:         fmt.Sprintf("Void IT Widget %d", stamp),
		Category:     "integration",
		CostPrice:    500,
		SellingPrice: 800,
		Stock:        10,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	sale, err := s.CreateSale(ctx, domain.Sale{
		ID:            saleID,
		ItemID:        itemID,
		Quantity:      3,
		SellingPrice:  800,
		PaymentMethod: "cash",
		SoldBy:        "integration",
		Date:          now,
	}, domain.InventoryTransaction{
		ID:       fmt.Sprintf("itx-sale-it-%d", stamp),
		Type:     domain.InventoryTxSale,
		Quantity: -3,
		Actor:    "integration",
		Date:     now,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.TotalRevenue != 2400 || sale.TotalCost != 1500 {
		t.Fatalf("unexpected sale totals: %+v", sale)
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item after sale: %v", err)
	}
	if item.Stock != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", item.Stock)
	}

	voided, err := s.VoidSale(ctx, saleID, domain.InventoryTransaction{
		ID:    fmt.Sprintf("itx-void-it-%d", stamp),
		Type:  domain.InventoryTxReturn,
		Notes: "integration test void",
		Actor: "integration",
		Date:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("void sale: %v", err)
	}
	if voided.Status != domain.SaleStatusVoided {
		t.Fatalf("expected voided status, got %s", voided.Status)
	}

	item, err = s.GetItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item after void: %v", err)
	}
	if item.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", item.Stock)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM inventory_transactions
		WHERE item_id = $1
	`, itemID).Scan(&count); err != nil {
		t.Fatalf("count ledger rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ledger rows (sale + return), got %d", count)
	}

	if _, err := s.VoidSale(ctx, saleID, domain.InventoryTransaction{
		ID:    fmt.Sprintf("itx-void2-it-%d", stamp),
		Type:  domain.InventoryTxReturn,
		Actor: "integration",
		Date:  time.Now().UTC(),
	}); err == nil {
		t.Fatalf("expected second void to fail")
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dukapos/backend/internal/domain"
	"dukapos/backend/internal/store"
	"dukapos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, brand, model, sku, photo, description,
		       cost_price, selling_price, stock, created_at, updated_at
		FROM items
		WHERE ($1 = '' OR lower(category) = lower($1))
		  AND ($2 = '' OR lower(brand) = lower($2))
		ORDER BY category, name
	`, filter.Category, filter.Brand)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 128)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, brand, model, sku, photo, description,
		       cost_price, selling_price, stock, created_at, updated_at
		FROM items
		WHERE id = $1
	`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, brand, model, sku, photo, description,
		                   cost_price, selling_price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
	`, item.ID, item.Name, item.Category, item.Brand, item.Model, nullIfEmpty(item.SKU),
		item.Photo, item.Description, item.CostPrice, item.SellingPrice, item.Stock, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $2, category = $3, brand = $4, model = $5, sku = $6, photo = $7,
		    description = $8, cost_price = $9, selling_price = $10, stock = $11, updated_at = now()
		WHERE id = $1
	`, item.ID, item.Name, item.Category, item.Brand, item.Model, nullIfEmpty(item.SKU),
		item.Photo, item.Description, item.CostPrice, item.SellingPrice, item.Stock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, `
		SELECT DISTINCT category FROM items WHERE category <> '' ORDER BY category
	`)
}

func (s *Store) ListBrands(ctx context.Context, category string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT brand
		FROM items
		WHERE brand <> '' AND ($1 = '' OR lower(category) = lower($1))
		ORDER BY brand
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	brands := make([]string, 0, 16)
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (s *Store) CategoriesWithStock(ctx context.Context) ([]domain.CategoryStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(stock), 0)
		FROM items
		WHERE category <> ''
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CategoryStock, 0, 16)
	for rows.Next() {
		var cs domain.CategoryStock
		if err := rows.Scan(&cs.Category, &cs.ItemCount, &cs.Stock); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, itx domain.InventoryTransaction) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var item domain.Item
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, category, brand, model, cost_price, selling_price
		FROM items
		WHERE id = $1
		FOR UPDATE
	`, sale.ItemID).Scan(&item.ID, &item.Name, &item.Category, &item.Brand, &item.Model, &item.CostPrice, &item.SellingPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	// With the row locked above, zero rows here can only mean short stock.
	res, err := tx.ExecContext(ctx, `
		UPDATE items
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, sale.ItemID, sale.Quantity)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrInsufficientStock
	}

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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, item_id, item_name, category, brand, model, quantity,
		                   cost_price, selling_price, total_revenue, total_cost,
		                   payment_method, reference, status, sold_by, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, sale.ID, sale.ItemID, sale.ItemName, sale.Category, sale.Brand, sale.Model, sale.Quantity,
		sale.CostPrice, sale.SellingPrice, sale.TotalRevenue, sale.TotalCost,
		sale.PaymentMethod, sale.Reference, sale.Status, sale.SoldBy, sale.Date)
	if err != nil {
		return nil, err
	}

	itx.ItemID = sale.ItemID
	itx.UnitCost = item.CostPrice
	itx.RelatedID = sale.ID
	if err := insertInventoryTx(ctx, tx, itx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, item_name, category, brand, model, quantity,
		       cost_price, selling_price, total_revenue, total_cost,
		       payment_method, reference, status, sold_by, date
		FROM sales
		WHERE id = $1
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, item_name, category, brand, model, quantity,
		       cost_price, selling_price, total_revenue, total_cost,
		       payment_method, reference, status, sold_by, date
		FROM sales
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		ORDER BY date DESC
	`, nullTimeIfZero(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 256)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) VoidSale(ctx context.Context, id string, itx domain.InventoryTransaction) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, item_id, item_name, category, brand, model, quantity,
		       cost_price, selling_price, total_revenue, total_cost,
		       payment_method, reference, status, sold_by, date
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sales SET status = $2 WHERE id = $1
	`, id, domain.SaleStatusVoided); err != nil {
		return nil, err
	}

	// The item may have been deleted since the sale; the void still lands.
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET stock = stock + $2, updated_at = now() WHERE id = $1
	`, sale.ItemID, sale.Quantity); err != nil {
		return nil, err
	}

	itx.ItemID = sale.ItemID
	itx.Quantity = sale.Quantity
	itx.UnitCost = sale.CostPrice
	itx.RelatedID = sale.ID
	if err := insertInventoryTx(ctx, tx, itx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.Status = domain.SaleStatusVoided
	return &sale, nil
}

func (s *Store) RefundSale(ctx context.Context, id string) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, item_id, item_name, category, brand, model, quantity,
		       cost_price, selling_price, total_revenue, total_cost,
		       payment_method, reference, status, sold_by, date
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sales SET status = $2 WHERE id = $1
	`, id, domain.SaleStatusRefunded); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.Status = domain.SaleStatusRefunded
	return &sale, nil
}

func (s *Store) ApplyPurchase(ctx context.Context, lines []domain.PurchaseLine, actor string, at time.Time) ([]store.PurchaseApplication, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	applied := make([]store.PurchaseApplication, 0, len(lines))
	for _, line := range lines {
		var item domain.Item
		err := tx.QueryRowContext(ctx, `
			SELECT id, name, category, brand, model, cost_price, selling_price, stock
			FROM items
			WHERE lower(name) = lower($1) AND lower(category) = lower($2)
			  AND lower(brand) = lower($3) AND lower(model) = lower($4)
			FOR UPDATE
		`, line.Name, line.Category, line.Brand, line.Model).Scan(
			&item.ID, &item.Name, &item.Category, &item.Brand, &item.Model,
			&item.CostPrice, &item.SellingPrice, &item.Stock)

		created := false
		switch {
		case err == nil:
			item.Stock += line.Quantity
			item.CostPrice = line.UnitCost
			if line.SellingPrice > 0 {
				item.SellingPrice = line.SellingPrice
			}
			item.UpdatedAt = at
			if _, err := tx.ExecContext(ctx, `
				UPDATE items
				SET stock = $2, cost_price = $3, selling_price = $4, updated_at = $5
				WHERE id = $1
			`, item.ID, item.Stock, item.CostPrice, item.SellingPrice, at); err != nil {
				return nil, err
			}
		case errors.Is(err, sql.ErrNoRows):
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
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO items (id, name, category, brand, model, cost_price, selling_price, stock, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
			`, item.ID, item.Name, item.Category, item.Brand, item.Model,
				item.CostPrice, item.SellingPrice, item.Stock, at); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}

		if err := insertInventoryTx(ctx, tx, domain.InventoryTransaction{
			ID:       xid.New("itx"),
			ItemID:   item.ID,
			Type:     domain.InventoryTxPurchase,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
			Actor:    actor,
			Date:     at,
		}); err != nil {
			return nil, err
		}
		applied = append(applied, store.PurchaseApplication{Item: item, Created: created})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return applied, nil
}

func (s *Store) AdjustStock(ctx context.Context, itemID string, newQty int, itx domain.InventoryTransaction) (*domain.Item, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, category, brand, model, sku, photo, description,
		       cost_price, selling_price, stock, created_at, updated_at
		FROM items
		WHERE id = $1
		FOR UPDATE
	`, itemID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	itx.ItemID = itemID
	itx.Quantity = newQty - item.Stock
	itx.UnitCost = item.CostPrice

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET stock = $2, updated_at = now() WHERE id = $1
	`, itemID, newQty); err != nil {
		return nil, err
	}
	if err := insertInventoryTx(ctx, tx, itx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	item.Stock = newQty
	return &item, nil
}

func (s *Store) ListInventoryTransactions(ctx context.Context, from time.Time) ([]domain.InventoryTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, type, quantity, unit_cost, COALESCE(related_id, ''), notes, actor, date
		FROM inventory_transactions
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		ORDER BY date DESC
	`, nullTimeIfZero(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.InventoryTransaction, 0, 256)
	for rows.Next() {
		var itx domain.InventoryTransaction
		if err := rows.Scan(&itx.ID, &itx.ItemID, &itx.Type, &itx.Quantity, &itx.UnitCost,
			&itx.RelatedID, &itx.Notes, &itx.Actor, &itx.Date); err != nil {
			return nil, err
		}
		txs = append(txs, itx)
	}
	return txs, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if err := insertExpense(ctx, s.db, expense); err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, from time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, category, amount, payment_method, reference, supplier,
		       COALESCE(linked_item_id, ''), status, description, actor, date
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		ORDER BY date DESC
	`, nullTimeIfZero(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 128)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Type, &e.Category, &e.Amount, &e.PaymentMethod, &e.Reference,
			&e.Supplier, &e.LinkedItemID, &e.Status, &e.Description, &e.Actor, &e.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAssetWithExpense(ctx context.Context, asset domain.Asset, expense domain.Expense) (*domain.Asset, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assets (id, name, category, quantity, purchase_cost, purchase_date,
		                    supplier, location, condition, useful_life_months, salvage_value,
		                    status, disposal_amount, disposed_at, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0,NULL,$13,$14)
	`, asset.ID, asset.Name, asset.Category, asset.Quantity, asset.PurchaseCost, asset.PurchaseDate,
		asset.Supplier, asset.Location, asset.Condition, asset.UsefulLifeMonths, asset.SalvageValue,
		asset.Status, asset.CreatedBy, asset.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := insertExpense(ctx, tx, expense); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := asset
	return &created, nil
}

func (s *Store) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, purchase_cost, purchase_date, supplier, location,
		       condition, useful_life_months, salvage_value, status, disposal_amount, disposed_at,
		       created_by, created_at
		FROM assets
		WHERE id = $1
	`, id)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (s *Store) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, purchase_cost, purchase_date, supplier, location,
		       condition, useful_life_months, salvage_value, status, disposal_amount, disposed_at,
		       created_by, created_at
		FROM assets
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]domain.Asset, 0, 32)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (s *Store) UpdateAsset(ctx context.Context, asset domain.Asset) (*domain.Asset, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET name = $2, category = $3, quantity = $4, purchase_cost = $5, supplier = $6,
		    location = $7, condition = $8, useful_life_months = $9, salvage_value = $10
		WHERE id = $1
	`, asset.ID, asset.Name, asset.Category, asset.Quantity, asset.PurchaseCost, asset.Supplier,
		asset.Location, asset.Condition, asset.UsefulLifeMonths, asset.SalvageValue)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := asset
	return &updated, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM assets WHERE id = $1 AND status <> $2
	`, id, domain.AssetStatusDisposed)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM assets WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

func (s *Store) DisposeAsset(ctx context.Context, id string, amount int64, expense domain.Expense) (*domain.Asset, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, purchase_cost, purchase_date, supplier, location,
		       condition, useful_life_months, salvage_value, status, disposal_amount, disposed_at,
		       created_by, created_at
		FROM assets
		WHERE id = $1
		FOR UPDATE
	`, id)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if asset.Status == domain.AssetStatusDisposed {
		return nil, store.ErrConflict
	}

	disposedAt := expense.Date
	if _, err := tx.ExecContext(ctx, `
		UPDATE assets SET status = $2, disposal_amount = $3, disposed_at = $4 WHERE id = $1
	`, id, domain.AssetStatusDisposed, amount, disposedAt); err != nil {
		return nil, err
	}
	if err := insertExpense(ctx, tx, expense); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	asset.Status = domain.AssetStatusDisposed
	asset.DisposalAmount = amount
	asset.DisposedAt = &disposedAt
	return &asset, nil
}

func (s *Store) CreateCapitalTransaction(ctx context.Context, capTx domain.CapitalTransaction) (*domain.CapitalTransaction, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capital_transactions (id, type, amount, source, description, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, capTx.ID, capTx.Type, capTx.Amount, capTx.Source, capTx.Description, capTx.CreatedBy, capTx.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := capTx
	return &created, nil
}

func (s *Store) ListCapitalTransactions(ctx context.Context) ([]domain.CapitalTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, source, description, created_by, created_at
		FROM capital_transactions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CapitalTransaction, 0, 16)
	for rows.Next() {
		var t domain.CapitalTransaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Source, &t.Description, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, nullTimeIfZero(from), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action,
			&entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (s *Store) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertInventoryTx(ctx context.Context, ex execer, itx domain.InventoryTransaction) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO inventory_transactions (id, item_id, type, quantity, unit_cost, related_id, notes, actor, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, itx.ID, itx.ItemID, itx.Type, itx.Quantity, itx.UnitCost, nullIfEmpty(itx.RelatedID),
		strings.TrimSpace(itx.Notes), itx.Actor, itx.Date)
	return err
}

func insertExpense(ctx context.Context, ex execer, e domain.Expense) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO expenses (id, type, category, amount, payment_method, reference, supplier,
		                      linked_item_id, status, description, actor, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, e.ID, e.Type, e.Category, e.Amount, e.PaymentMethod, e.Reference, e.Supplier,
		nullIfEmpty(e.LinkedItemID), e.Status, e.Description, e.Actor, e.Date)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var item domain.Item
	var sku sql.NullString
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Brand, &item.Model, &sku,
		&item.Photo, &item.Description, &item.CostPrice, &item.SellingPrice, &item.Stock,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.Item{}, err
	}
	item.SKU = sku.String
	return item, nil
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.ItemID, &sale.ItemName, &sale.Category, &sale.Brand, &sale.Model,
		&sale.Quantity, &sale.CostPrice, &sale.SellingPrice, &sale.TotalRevenue, &sale.TotalCost,
		&sale.PaymentMethod, &sale.Reference, &sale.Status, &sale.SoldBy, &sale.Date)
	return sale, err
}

func scanAsset(row rowScanner) (domain.Asset, error) {
	var asset domain.Asset
	var disposedAt sql.NullTime
	err := row.Scan(&asset.ID, &asset.Name, &asset.Category, &asset.Quantity, &asset.PurchaseCost,
		&asset.PurchaseDate, &asset.Supplier, &asset.Location, &asset.Condition,
		&asset.UsefulLifeMonths, &asset.SalvageValue, &asset.Status, &asset.DisposalAmount,
		&disposedAt, &asset.CreatedBy, &asset.CreatedAt)
	if err != nil {
		return domain.Asset{}, err
	}
	if disposedAt.Valid {
		t := disposedAt.Time
		asset.DisposedAt = &t
	}
	return asset, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTimeIfZero(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

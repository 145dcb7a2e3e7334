package store

import (
	"context"
	"errors"
	"time"

	"dukapos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConflict          = errors.New("conflict")
)

// PurchaseApplication is a validated restock line plus the resolution the
// store arrived at while applying it.
type PurchaseApplication struct {
	Item    domain.Item
	Created bool
}

type Repository interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]string, error)
	ListBrands(ctx context.Context, category string) ([]string, error)
	CategoriesWithStock(ctx context.Context) ([]domain.CategoryStock, error)

	// CreateSale decrements stock and appends the sale and its inventory
	// transaction in one storage transaction. The sale's snapshot fields and
	// totals are filled from the current item inside that transaction.
	CreateSale(ctx context.Context, sale domain.Sale, itx domain.InventoryTransaction) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time) ([]domain.Sale, error)
	// VoidSale flips a completed sale to voided, restores the stock, and
	// appends a return transaction, all in one storage transaction.
	VoidSale(ctx context.Context, id string, itx domain.InventoryTransaction) (*domain.Sale, error)
	RefundSale(ctx context.Context, id string) (*domain.Sale, error)

	// ApplyPurchase applies a validated restock batch all-or-nothing: each
	// line either tops up its matching item or creates a new one, and appends
	// one purchase transaction.
	ApplyPurchase(ctx context.Context, lines []domain.PurchaseLine, actor string, at time.Time) ([]PurchaseApplication, error)
	AdjustStock(ctx context.Context, itemID string, newQty int, itx domain.InventoryTransaction) (*domain.Item, error)
	ListInventoryTransactions(ctx context.Context, from time.Time) ([]domain.InventoryTransaction, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from time.Time) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	// CreateAssetWithExpense persists the asset and its paired purchase
	// expense together.
	CreateAssetWithExpense(ctx context.Context, asset domain.Asset, expense domain.Expense) (*domain.Asset, error)
	GetAsset(ctx context.Context, id string) (*domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	UpdateAsset(ctx context.Context, asset domain.Asset) (*domain.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
	// DisposeAsset marks an active asset disposed and records the disposal
	// expense in the same storage transaction. Disposing twice is a conflict.
	DisposeAsset(ctx context.Context, id string, amount int64, expense domain.Expense) (*domain.Asset, error)

	CreateCapitalTransaction(ctx context.Context, tx domain.CapitalTransaction) (*domain.CapitalTransaction, error)
	ListCapitalTransactions(ctx context.Context) ([]domain.CapitalTransaction, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
	CountUsers(ctx context.Context) (int, error)
}

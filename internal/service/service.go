package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"dukapos/backend/internal/cache"
	"dukapos/backend/internal/domain"
	"dukapos/backend/internal/reports"
	"dukapos/backend/internal/store"
	"dukapos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	cacheKeyCategories = "dukapos:dim:categories"
	cacheKeyBrands     = "dukapos:dim:brands"
)

var validPaymentMethods = map[string]bool{
	"cash":     true,
	"transfer": true,
	"pos":      true,
}

type Service struct {
	repo              store.Repository
	dimensions        cache.DimensionCache
	dimensionTTL      time.Duration
	lowStockThreshold int
}

func New(repo store.Repository, dimensions cache.DimensionCache, dimensionTTL time.Duration, lowStockThreshold int) *Service {
	if dimensions == nil {
		dimensions = cache.NoopDimensionCache{}
	}
	if dimensionTTL <= 0 {
		dimensionTTL = 30 * time.Second
	}
	if lowStockThreshold < 1 {
		lowStockThreshold = 2
	}

	return &Service{
		repo:              repo,
		dimensions:        dimensions,
		dimensionTTL:      dimensionTTL,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *Service) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	return s.repo.ListItems(ctx, filter)
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))

	if req.Name == "" || req.Category == "" {
		return domain.Item{}, fmt.Errorf("%w: name and category are required", store.ErrInvalidArgument)
	}
	if req.CostPrice < 0 || req.SellingPrice < 1 || req.Stock < 0 {
		return domain.Item{}, fmt.Errorf("%w: prices and stock must be non-negative", store.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:           xid.New("item"),
		Name:         req.Name,
		Category:     req.Category,
		Brand:        req.Brand,
		Model:        req.Model,
		SKU:          req.SKU,
		Photo:        strings.TrimSpace(req.Photo),
		Description:  strings.TrimSpace(req.Description),
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_create", "item", created.ID, fmt.Sprintf("name=%s,category=%s,stock=%d", created.Name, created.Category, created.Stock))
	s.invalidateDimensions(ctx)
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Item{}, fmt.Errorf("%w: name cannot be blank", store.ErrInvalidArgument)
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Item{}, fmt.Errorf("%w: category cannot be blank", store.ErrInvalidArgument)
		}
		updated.Category = category
	}
	if req.Brand != nil {
		updated.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		updated.Model = strings.TrimSpace(*req.Model)
	}
	if req.SKU != nil {
		updated.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Photo != nil {
		updated.Photo = strings.TrimSpace(*req.Photo)
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.CostPrice != nil {
		if *req.CostPrice < 0 {
			return domain.Item{}, fmt.Errorf("%w: cost price cannot be negative", store.ErrInvalidArgument)
		}
		updated.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		if *req.SellingPrice < 1 {
			return domain.Item{}, fmt.Errorf("%w: selling price must be positive", store.ErrInvalidArgument)
		}
		updated.SellingPrice = *req.SellingPrice
	}

	var newStock *int
	if req.Stock != nil && *req.Stock != existing.Stock {
		if *req.Stock < 0 {
			return domain.Item{}, fmt.Errorf("%w: stock cannot be negative", store.ErrInvalidArgument)
		}
		newStock = req.Stock
	}

	// Field edits land first; the stock adjustment runs only once they stick,
	// so a rejected update cannot leave a stray ledger row behind.
	updated.Stock = existing.Stock
	updated.UpdatedAt = time.Now().UTC()
	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return domain.Item{}, err
	}

	// Direct stock edits go through the adjustment path so the inventory
	// ledger keeps the delta.
	if newStock != nil {
		adjusted, err := s.AdjustStock(ctx, id, *newStock)
		if err != nil {
			return domain.Item{}, err
		}
		saved.Stock = adjusted.Stock
	}

	s.logAudit(ctx, "item_update", "item", saved.ID, fmt.Sprintf("name=%s,category=%s", saved.Name, saved.Category))
	s.invalidateDimensions(ctx)
	return *saved, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "item_delete", "item", id, "")
	s.invalidateDimensions(ctx)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	if cached, ok, err := s.dimensions.Get(ctx, cacheKeyCategories); err == nil && ok {
		return cached, nil
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.dimensions.Set(ctx, cacheKeyCategories, categories, s.dimensionTTL); err != nil {
		log.Printf("[service] WARN: failed to cache categories: %v", err)
	}
	return categories, nil
}

func (s *Service) ListBrands(ctx context.Context, category string) ([]string, error) {
	category = strings.TrimSpace(category)

	// Only the unfiltered list is cached; per-category lists are cheap and
	// would multiply keys.
	if category == "" {
		if cached, ok, err := s.dimensions.Get(ctx, cacheKeyBrands); err == nil && ok {
			return cached, nil
		}
	}

	brands, err := s.repo.ListBrands(ctx, category)
	if err != nil {
		return nil, err
	}
	if category == "" {
		if err := s.dimensions.Set(ctx, cacheKeyBrands, brands, s.dimensionTTL); err != nil {
			log.Printf("[service] WARN: failed to cache brands: %v", err)
		}
	}
	return brands, nil
}

func (s *Service) CategoriesWithStock(ctx context.Context) ([]domain.CategoryStock, error) {
	return s.repo.CategoriesWithStock(ctx)
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Sale{}, fmt.Errorf("authenticated actor required")
	}

	req.ItemID = strings.TrimSpace(req.ItemID)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	if req.ItemID == "" {
		return domain.Sale{}, fmt.Errorf("%w: item_id is required", store.ErrInvalidArgument)
	}
	if req.Quantity < 1 {
		return domain.Sale{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidArgument)
	}
	if req.SellingPrice < 0 {
		return domain.Sale{}, fmt.Errorf("%w: selling price cannot be negative", store.ErrInvalidArgument)
	}
	if !validPaymentMethods[req.PaymentMethod] {
		return domain.Sale{}, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalidArgument, req.PaymentMethod)
	}

	now := time.Now().UTC()
	sale := domain.Sale{
		ID:            xid.New("sale"),
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		SellingPrice:  req.SellingPrice,
		PaymentMethod: req.PaymentMethod,
		Reference:     strings.TrimSpace(req.Reference),
		SoldBy:        actor.Username,
		Date:          now,
	}
	itx := domain.InventoryTransaction{
		ID:       xid.New("itx"),
		Type:     domain.InventoryTxSale,
		Quantity: -req.Quantity,
		Actor:    actor.Username,
		Date:     now,
	}

	created, err := s.repo.CreateSale(ctx, sale, itx)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("item=%s,qty=%d,revenue=%d", created.ItemID, created.Quantity, created.TotalRevenue))
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, from time.Time) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, from)
}

func (s *Service) VoidSale(ctx context.Context, id string) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Sale{}, fmt.Errorf("admin role required")
	}

	itx := domain.InventoryTransaction{
		ID:    xid.New("itx"),
		Type:  domain.InventoryTxReturn,
		Notes: "sale voided",
		Actor: actor.Username,
		Date:  time.Now().UTC(),
	}
	voided, err := s.repo.VoidSale(ctx, id, itx)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_void", "sale", voided.ID, fmt.Sprintf("item=%s,qty=%d", voided.ItemID, voided.Quantity))
	return *voided, nil
}

// RefundSale flips a completed sale to refunded. The money comes back but the
// goods do not, so stock stays as sold.
func (s *Service) RefundSale(ctx context.Context, id string) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Sale{}, fmt.Errorf("admin role required")
	}

	refunded, err := s.repo.RefundSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_refund", "sale", refunded.ID, fmt.Sprintf("item=%s,revenue=%d", refunded.ItemID, refunded.TotalRevenue))
	return *refunded, nil
}

// PurchaseStock applies a restock batch. Every line is validated before any
// is applied; one bad line rejects the whole batch.
func (s *Service) PurchaseStock(ctx context.Context, lines []domain.PurchaseLine) ([]domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one purchase line is required", store.ErrInvalidArgument)
	}

	for i := range lines {
		lines[i].Name = strings.TrimSpace(lines[i].Name)
		lines[i].Category = strings.TrimSpace(lines[i].Category)
		lines[i].Brand = strings.TrimSpace(lines[i].Brand)
		lines[i].Model = strings.TrimSpace(lines[i].Model)

		if lines[i].Name == "" || lines[i].Category == "" {
			return nil, fmt.Errorf("%w: line %d: name and category are required", store.ErrInvalidArgument, i+1)
		}
		if lines[i].Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d: quantity must be at least 1", store.ErrInvalidArgument, i+1)
		}
		if lines[i].UnitCost < 1 {
			return nil, fmt.Errorf("%w: line %d: unit cost must be positive", store.ErrInvalidArgument, i+1)
		}
		if lines[i].SellingPrice < 0 {
			return nil, fmt.Errorf("%w: line %d: selling price cannot be negative", store.ErrInvalidArgument, i+1)
		}
	}

	applied, err := s.repo.ApplyPurchase(ctx, lines, actor.Username, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(applied))
	createdCount := 0
	for _, app := range applied {
		items = append(items, app.Item)
		if app.Created {
			createdCount++
		}
	}

	s.logAudit(ctx, "inventory_purchase", "inventory", "", fmt.Sprintf("lines=%d,new_items=%d", len(lines), createdCount))
	s.invalidateDimensions(ctx)
	return items, nil
}

func (s *Service) AdjustStock(ctx context.Context, itemID string, newQty int) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}
	if newQty < 0 {
		return domain.Item{}, fmt.Errorf("%w: stock cannot be negative", store.ErrInvalidArgument)
	}

	itx := domain.InventoryTransaction{
		ID:    xid.New("itx"),
		Type:  domain.InventoryTxAdjustment,
		Notes: "manual stock adjustment",
		Actor: actor.Username,
		Date:  time.Now().UTC(),
	}
	item, err := s.repo.AdjustStock(ctx, itemID, newQty, itx)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "stock_adjust", "item", itemID, fmt.Sprintf("new_qty=%d", newQty))
	return *item, nil
}

func (s *Service) ListInventoryTransactions(ctx context.Context, from time.Time) ([]domain.InventoryTransaction, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListInventoryTransactions(ctx, from)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Expense{}, fmt.Errorf("admin role required")
	}

	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Status == "" {
		req.Status = domain.ExpenseStatusApproved
	}

	if req.Type == "" {
		return domain.Expense{}, fmt.Errorf("%w: type is required", store.ErrInvalidArgument)
	}
	// Disposal inflows are recorded by the asset flow with negative amounts;
	// everything created here must be a real outflow.
	if req.Amount < 1 {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalidArgument)
	}
	if req.Status != domain.ExpenseStatusApproved && req.Status != domain.ExpenseStatusPending && req.Status != domain.ExpenseStatusCancelled {
		return domain.Expense{}, fmt.Errorf("%w: unknown status %q", store.ErrInvalidArgument, req.Status)
	}

	expense := domain.Expense{
		ID:            xid.New("exp"),
		Type:          req.Type,
		Category:      strings.TrimSpace(req.Category),
		Amount:        req.Amount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Reference:     strings.TrimSpace(req.Reference),
		Supplier:      strings.TrimSpace(req.Supplier),
		LinkedItemID:  strings.TrimSpace(req.LinkedItemID),
		Status:        req.Status,
		Description:   strings.TrimSpace(req.Description),
		Actor:         actor.Username,
		Date:          time.Now().UTC(),
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("type=%s,amount=%d", created.Type, created.Amount))
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, from time.Time) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, from)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

// CreateAsset records the asset and an approved asset_purchase expense for
// quantity times unit cost in one storage transaction.
func (s *Service) CreateAsset(ctx context.Context, req domain.AssetCreateRequest) (domain.Asset, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Asset{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return domain.Asset{}, fmt.Errorf("%w: name is required", store.ErrInvalidArgument)
	}
	if req.Quantity < 1 {
		return domain.Asset{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidArgument)
	}
	if req.PurchaseCost < 1 {
		return domain.Asset{}, fmt.Errorf("%w: purchase cost must be positive", store.ErrInvalidArgument)
	}
	if req.UsefulLifeMonths < 0 || req.SalvageValue < 0 {
		return domain.Asset{}, fmt.Errorf("%w: useful life and salvage value cannot be negative", store.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	asset := domain.Asset{
		ID:               xid.New("asset"),
		Name:             req.Name,
		Category:         req.Category,
		Quantity:         req.Quantity,
		PurchaseCost:     req.PurchaseCost,
		PurchaseDate:     now,
		Supplier:         strings.TrimSpace(req.Supplier),
		Location:         strings.TrimSpace(req.Location),
		Condition:        strings.TrimSpace(req.Condition),
		UsefulLifeMonths: req.UsefulLifeMonths,
		SalvageValue:     req.SalvageValue,
		Status:           domain.AssetStatusActive,
		CreatedBy:        actor.Username,
		CreatedAt:        now,
	}
	expense := domain.Expense{
		ID:          xid.New("exp"),
		Type:        domain.ExpenseTypeAssetPurchase,
		Category:    asset.Category,
		Amount:      asset.PurchaseCost * int64(asset.Quantity),
		Supplier:    asset.Supplier,
		Status:      domain.ExpenseStatusApproved,
		Description: fmt.Sprintf("asset purchase: %s x%d", asset.Name, asset.Quantity),
		Actor:       actor.Username,
		Date:        now,
	}

	created, err := s.repo.CreateAssetWithExpense(ctx, asset, expense)
	if err != nil {
		return domain.Asset{}, err
	}

	s.logAudit(ctx, "asset_create", "asset", created.ID, fmt.Sprintf("name=%s,cost=%d,qty=%d", created.Name, created.PurchaseCost, created.Quantity))
	return *created, nil
}

func (s *Service) ListAssets(ctx context.Context) (domain.AssetListResponse, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return domain.AssetListResponse{}, err
	}

	resp := domain.AssetListResponse{Assets: assets}
	for _, a := range assets {
		if a.Status != domain.AssetStatusActive {
			continue
		}
		resp.TotalAssets++
		resp.TotalAssetValue += int64(a.Quantity) * a.PurchaseCost
	}
	return resp, nil
}

func (s *Service) UpdateAsset(ctx context.Context, id string, req domain.AssetUpdateRequest) (domain.Asset, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Asset{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}
	if existing.Status == domain.AssetStatusDisposed {
		return domain.Asset{}, fmt.Errorf("%w: disposed assets cannot be edited", store.ErrConflict)
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Asset{}, fmt.Errorf("%w: name cannot be blank", store.ErrInvalidArgument)
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return domain.Asset{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidArgument)
		}
		updated.Quantity = *req.Quantity
	}
	if req.PurchaseCost != nil {
		if *req.PurchaseCost < 1 {
			return domain.Asset{}, fmt.Errorf("%w: purchase cost must be positive", store.ErrInvalidArgument)
		}
		updated.PurchaseCost = *req.PurchaseCost
	}
	if req.Supplier != nil {
		updated.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if req.Location != nil {
		updated.Location = strings.TrimSpace(*req.Location)
	}
	if req.Condition != nil {
		updated.Condition = strings.TrimSpace(*req.Condition)
	}
	if req.UsefulLifeMonths != nil {
		if *req.UsefulLifeMonths < 0 {
			return domain.Asset{}, fmt.Errorf("%w: useful life cannot be negative", store.ErrInvalidArgument)
		}
		updated.UsefulLifeMonths = *req.UsefulLifeMonths
	}
	if req.SalvageValue != nil {
		if *req.SalvageValue < 0 {
			return domain.Asset{}, fmt.Errorf("%w: salvage value cannot be negative", store.ErrInvalidArgument)
		}
		updated.SalvageValue = *req.SalvageValue
	}

	saved, err := s.repo.UpdateAsset(ctx, updated)
	if err != nil {
		return domain.Asset{}, err
	}

	s.logAudit(ctx, "asset_update", "asset", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "asset_delete", "asset", id, "")
	return nil
}

// DisposeAsset is terminal: the asset flips to disposed and a negative
// asset_disposal expense records the sale proceeds as a cash inflow.
func (s *Service) DisposeAsset(ctx context.Context, id string, req domain.AssetDisposalRequest) (domain.Asset, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Asset{}, fmt.Errorf("admin role required")
	}
	if req.Amount < 0 {
		return domain.Asset{}, fmt.Errorf("%w: disposal amount cannot be negative", store.ErrInvalidArgument)
	}

	existing, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ID:          xid.New("exp"),
		Type:        domain.ExpenseTypeAssetDisposal,
		Category:    existing.Category,
		Amount:      -req.Amount,
		Status:      domain.ExpenseStatusApproved,
		Description: fmt.Sprintf("asset disposal: %s", existing.Name),
		Actor:       actor.Username,
		Date:        now,
	}

	disposed, err := s.repo.DisposeAsset(ctx, id, req.Amount, expense)
	if err != nil {
		return domain.Asset{}, err
	}

	s.logAudit(ctx, "asset_dispose", "asset", disposed.ID, fmt.Sprintf("amount=%d", req.Amount))
	return *disposed, nil
}

func (s *Service) CreateCapitalTransaction(ctx context.Context, req domain.CapitalCreateRequest) (domain.CapitalTransaction, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.CapitalTransaction{}, fmt.Errorf("admin role required")
	}

	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Type != domain.CapitalInjection && req.Type != domain.CapitalWithdrawal {
		return domain.CapitalTransaction{}, fmt.Errorf("%w: type must be injection or withdrawal", store.ErrInvalidArgument)
	}
	if req.Amount < 1 {
		return domain.CapitalTransaction{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalidArgument)
	}

	capTx := domain.CapitalTransaction{
		ID:          xid.New("cap"),
		Type:        req.Type,
		Amount:      req.Amount,
		Source:      strings.TrimSpace(req.Source),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actor.Username,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.repo.CreateCapitalTransaction(ctx, capTx)
	if err != nil {
		return domain.CapitalTransaction{}, err
	}

	s.logAudit(ctx, "capital_create", "capital", created.ID, fmt.Sprintf("type=%s,amount=%d", created.Type, created.Amount))
	return *created, nil
}

func (s *Service) ListCapitalTransactions(ctx context.Context) ([]domain.CapitalTransaction, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListCapitalTransactions(ctx)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	ledger, err := s.buildLedger(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return reports.BuildStats(ledger, time.Now(), s.lowStockThreshold), nil
}

func (s *Service) AdvancedReport(ctx context.Context) (domain.AdvancedReport, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.AdvancedReport{}, fmt.Errorf("admin role required")
	}

	ledger, err := s.buildLedger(ctx)
	if err != nil {
		return domain.AdvancedReport{}, err
	}
	return reports.BuildAdvancedReport(ledger, time.Now()), nil
}

// buildLedger snapshots everything the report engine needs. Each request gets
// a fresh snapshot; slight staleness between the reads is acceptable.
func (s *Service) buildLedger(ctx context.Context) (reports.Ledger, error) {
	var zero time.Time

	items, err := s.repo.ListItems(ctx, domain.ItemFilter{})
	if err != nil {
		return reports.Ledger{}, err
	}
	sales, err := s.repo.ListSales(ctx, zero)
	if err != nil {
		return reports.Ledger{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, zero)
	if err != nil {
		return reports.Ledger{}, err
	}
	inventoryTxs, err := s.repo.ListInventoryTransactions(ctx, zero)
	if err != nil {
		return reports.Ledger{}, err
	}
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return reports.Ledger{}, err
	}
	capital, err := s.repo.ListCapitalTransactions(ctx)
	if err != nil {
		return reports.Ledger{}, err
	}
	userCount, err := s.repo.CountUsers(ctx)
	if err != nil {
		return reports.Ledger{}, err
	}

	return reports.Ledger{
		Items:        items,
		Sales:        sales,
		Expenses:     expenses,
		InventoryTxs: inventoryTxs,
		Assets:       assets,
		Capital:      capital,
		UserCount:    userCount,
	}, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, from, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *Service) invalidateDimensions(ctx context.Context) {
	if err := s.dimensions.Invalidate(ctx, cacheKeyCategories, cacheKeyBrands); err != nil {
		log.Printf("[service] WARN: failed to invalidate dimension cache: %v", err)
	}
}

package service

import (
	"context"
	"fmt"

	"billiard-pos/internal/models"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"

	"go.uber.org/zap"
)

// ProductService manages the catalog and restocking.
type ProductService struct {
	store    *store.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store *store.Store, notifier notify.Notifier) *ProductService {
	return &ProductService{
		store:    store,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// CreateProductRequest adds a catalog item
type CreateProductRequest struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Stock    int     `json:"stock" binding:"gte=0"`
	Category string  `json:"category"`
}

// RestockRequest replenishes stock, optionally logging the purchase cost
// as an expense against the till.
type RestockRequest struct {
	ProductID int64   `json:"id" binding:"required,gt=0"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	Cost      float64 `json:"cost" binding:"gte=0"`
}

// List returns the full catalog.
func (ps *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return ps.store.GetProducts(ctx)
}

// Menu returns the customer-facing menu projection.
func (ps *ProductService) Menu(ctx context.Context) ([]models.MenuItem, error) {
	return ps.store.PublicMenu(ctx)
}

// Create adds a catalog item.
func (ps *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, models.Validationf("product name is required")
	}
	if req.Price <= 0 {
		return nil, models.Validationf("product price must be positive, got %.2f", req.Price)
	}
	if req.Stock < 0 {
		return nil, models.Validationf("initial stock must not be negative, got %d", req.Stock)
	}

	category := req.Category
	if category == "" {
		category = "General"
	}

	p := &models.Product{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: category,
	}
	if err := ps.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	ps.logger.Info("Product created",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name))
	return p, nil
}

// Delete removes a product and its order lines.
func (ps *ProductService) Delete(ctx context.Context, productID int64) error {
	if err := ps.store.DeleteProductTx(ctx, productID); err != nil {
		return err
	}
	ps.logger.Info("Product deleted", zap.Int64("product_id", productID))
	ps.notifier.Notify(ctx, notify.EventTablesChanged)
	return nil
}

// Restock increments stock; when a cost is given, the matching expense
// lands in the current till period.
func (ps *ProductService) Restock(ctx context.Context, req *RestockRequest) error {
	ctx, span := util.StartSpan(ctx, "ProductService.Restock")
	defer span.End()

	if req.Quantity <= 0 {
		return models.Validationf("restock quantity must be positive, got %d", req.Quantity)
	}
	if req.Cost < 0 {
		return models.Validationf("restock cost must not be negative, got %.2f", req.Cost)
	}

	p, err := ps.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return err
	}

	description := fmt.Sprintf("Inventory purchase: %s (+%d)", p.Name, req.Quantity)
	if err := ps.store.RestockTx(ctx, req.ProductID, req.Quantity, description, req.Cost); err != nil {
		return err
	}

	ps.logger.Info("Product restocked",
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.Float64("cost", req.Cost))

	if req.Cost > 0 {
		ps.notifier.Notify(ctx, notify.EventTillChanged)
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	Cost         string `json:"cost"`
	Price        string `json:"price" binding:"required"`
	CurrentStock *int   `json:"current_stock"`
	MinimumStock int    `json:"minimum_stock"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name"`
	Code         *string `json:"code"`
	Description  *string `json:"description"`
	Cost         *string `json:"cost"`
	Price        *string `json:"price"`
	CurrentStock *int    `json:"current_stock"`
	MinimumStock *int    `json:"minimum_stock"`
}

type ProductService interface {
	Create(ctx context.Context, actor *model.User, req CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, actor *model.User, search string, page, limit int) ([]model.Product, int64, error)
	ListCritical(ctx context.Context, actor *model.User, limit int) ([]model.Product, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type productService struct {
	repo   repository.ProductRepository
	events StockEventPublisher
}

// StockEventPublisher receives low-stock notifications for live
// listeners. A nil publisher disables broadcasting.
type StockEventPublisher interface {
	PublishStockAlert(companyID, productID uuid.UUID, name string, currentStock int)
}

func NewProductService(repo repository.ProductRepository, events StockEventPublisher) ProductService {
	return &productService{repo: repo, events: events}
}

func parseOptionalMoney(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := parseMoney(field, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (s *productService) Create(ctx context.Context, actor *model.User, req CreateProductRequest) (*model.Product, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return nil, err
	}
	cost, err := parseOptionalMoney("cost", &req.Cost)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		CompanyID:    companyID,
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Cost:         cost,
		Price:        price,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("name", "product name already in use")
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Product, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "product")
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, actor *model.User, search string, page, limit int) ([]model.Product, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, companyID, search, page, limit)
}

func (s *productService) ListCritical(ctx context.Context, actor *model.User, limit int) ([]model.Product, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCritical(ctx, companyID, limit)
}

func (s *productService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "product")
	}

	wasCritical := product.StockCritical()

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.NewValidation("name", "must not be empty")
		}
		product.Name = *req.Name
	}
	if req.Code != nil {
		product.Code = *req.Code
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Cost != nil {
		cost, parseErr := parseOptionalMoney("cost", req.Cost)
		if parseErr != nil {
			return nil, parseErr
		}
		product.Cost = cost
	}
	if req.Price != nil {
		price, parseErr := parseMoney("price", *req.Price)
		if parseErr != nil {
			return nil, parseErr
		}
		product.Price = price
	}
	if req.CurrentStock != nil {
		product.CurrentStock = req.CurrentStock
	}
	if req.MinimumStock != nil {
		product.MinimumStock = *req.MinimumStock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("name", "product name already in use")
		}
		return nil, err
	}

	// Only alert on the transition into critical, not on every save.
	if s.events != nil && !wasCritical && product.StockCritical() {
		s.events.PublishStockAlert(product.CompanyID, product.ID, product.Name, *product.CurrentStock)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "product")
}

package repository

import (
	"context"

	"oficina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.Product, error)
	List(ctx context.Context, companyID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id, companyID uuid.UUID) error
	ListCritical(ctx context.Context, companyID uuid.UUID, limit int) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, companyID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("company_id = ?", companyID)
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id, companyID uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCritical returns stock-tracked products at or below minimum stock.
func (r *productRepository) ListCritical(ctx context.Context, companyID uuid.UUID, limit int) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("company_id = ? AND current_stock IS NOT NULL AND current_stock <= minimum_stock", companyID).
		Order("current_stock, name").
		Limit(limit).
		Find(&products).Error
	return products, err
}

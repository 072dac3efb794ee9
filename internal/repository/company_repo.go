package repository

import (
	"context"

	"oficina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyRepository is the only repository without a company-scoped read
// path: companies are the tenants themselves. The Pending* methods exist
// solely for the superuser approval flow.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	Update(ctx context.Context, company *model.Company) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ListPendingSignups(ctx context.Context) ([]model.Company, error)
	ListPendingRenewals(ctx context.Context) ([]model.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) Update(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Save(company).Error
}

// UpdateFields performs an atomic partial update restricted to the given
// columns (used for the is_active recompute on each request).
func (r *companyRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Company{}).Where("id = ?", id).Updates(fields).Error
}

func (r *companyRepository) ListPendingSignups(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := GetDB(ctx, r.db).
		Where("payment_confirmed = ?", false).
		Order("created_at DESC").
		Find(&companies).Error
	return companies, err
}

func (r *companyRepository) ListPendingRenewals(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := GetDB(ctx, r.db).
		Where("renewal_period <> ''").
		Order("renewal_requested_at DESC").
		Find(&companies).Error
	return companies, err
}

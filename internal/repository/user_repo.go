package repository

import (
	"context"

	"oficina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository reads and writes login accounts. Company-scoped methods
// take the caller's company id explicitly; GetByUsername and GetAuthUser
// are the only unscoped reads and exist for the login and token paths.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetAuthUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.User, error)
	List(ctx context.Context, companyID uuid.UUID, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	CountActive(ctx context.Context, companyID uuid.UUID) (int64, error)
	CountActiveManagers(ctx context.Context, companyID uuid.UUID) (int64, error)
	FirstForCompany(ctx context.Context, companyID uuid.UUID) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Company").First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAuthUser resolves a token subject into a full account with its
// company loaded. Token verification happens before any tenant scope
// exists, so this read is intentionally unscoped.
func (r *userRepository) GetAuthUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Company").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, companyID uuid.UUID, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{}).Where("company_id = ?", companyID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("username").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) CountActive(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Count(&count).Error
	return count, err
}

func (r *userRepository) CountActiveManagers(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("company_id = ? AND is_active = ? AND is_manager = ?", companyID, true, true).
		Count(&count).Error
	return count, err
}

// FirstForCompany returns the company's oldest account, the one the
// access-released email goes to.
func (r *userRepository) FirstForCompany(ctx context.Context, companyID uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("created_at").
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

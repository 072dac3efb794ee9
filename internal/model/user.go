package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is a login account. CompanyID is nil only for superusers; every
// other user belongs to exactly one company.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Company   *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	Username      string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email         string `gorm:"type:varchar(255);not null" json:"email"`
	RecoveryEmail string `gorm:"type:varchar(255)" json:"recovery_email"`
	RecoveryPhone string `gorm:"type:varchar(30)" json:"recovery_phone"`
	Password      string `gorm:"type:varchar(255);not null" json:"-"`

	IsManager   bool `gorm:"default:false" json:"is_manager"`
	IsSuperuser bool `gorm:"default:false" json:"is_superuser"`
	IsActive    bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsManagerUser is the single capability predicate for manager-only
// operations: superusers and managers pass, employees do not.
func IsManagerUser(u *User) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.IsManager
}

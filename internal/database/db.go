package database

import (
	"log"

	"oficina/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError is on so uniqueness violations surface as
// gorm.ErrDuplicatedKey regardless of the driver.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate for every model. Split out so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Employee{},
		&model.Client{},
		&model.Vehicle{},
		&model.Product{},
		&model.Schedule{},
		&model.WorkOrder{},
		&model.WorkOrderItem{},
		&model.Payment{},
		&model.WorkOrderLog{},
		&model.Expense{},
	)
}

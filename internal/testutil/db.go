package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"oficina/internal/database"
	"oficina/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a fresh in-memory database with the full schema applied.
// Each call gets its own named database so pooled connections share
// state within a test but never across tests.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// NewCompany inserts an approved, active tenant.
func NewCompany(t *testing.T, db *gorm.DB, name string) *model.Company {
	t.Helper()
	now := time.Now()
	company := &model.Company{
		Name:             name,
		Plan:             model.PlanBasic,
		PlanPeriod:       model.PlanPeriodMonthly,
		PaymentConfirmed: true,
	}
	model.RecomputePlanStatus(company, now, true)
	require.NoError(t, db.Create(company).Error)
	return company
}

// NewUser inserts an active account for the company.
func NewUser(t *testing.T, db *gorm.DB, company *model.Company, username string, isManager bool) *model.User {
	t.Helper()
	user := &model.User{
		CompanyID: &company.ID,
		Username:  username,
		Email:     username + "@example.com",
		IsManager: isManager,
		IsActive:  true,
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// NewClient inserts a customer for the company.
func NewClient(t *testing.T, db *gorm.DB, company *model.Company, name string) *model.Client {
	t.Helper()
	client := &model.Client{
		CompanyID: company.ID,
		Name:      name,
		Phone:     "11999990000",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// NewVehicle inserts a vehicle owned by the client.
func NewVehicle(t *testing.T, db *gorm.DB, company *model.Company, client *model.Client, plate string) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		CompanyID: company.ID,
		ClientID:  client.ID,
		Type:      model.VehicleTypeCar,
		Plate:     plate,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

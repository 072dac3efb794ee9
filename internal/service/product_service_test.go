package service

import (
	"context"
	"testing"

	"oficina/internal/apperror"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockAlert struct {
	CompanyID    uuid.UUID
	ProductID    uuid.UUID
	Name         string
	CurrentStock int
}

type stubStockEvents struct {
	alerts []stockAlert
}

func (s *stubStockEvents) PublishStockAlert(companyID, productID uuid.UUID, name string, currentStock int) {
	s.alerts = append(s.alerts, stockAlert{CompanyID: companyID, ProductID: productID, Name: name, CurrentStock: currentStock})
}

func TestProductNameUniquePerCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina A")
	companyB := testutil.NewCompany(t, db, "Oficina B")
	managerA := testutil.NewUser(t, db, companyA, "bossA", true)
	managerB := testutil.NewUser(t, db, companyB, "bossB", true)
	svc := NewProductService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, managerA, CreateProductRequest{Name: "Oil 10W40", Price: "40"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, managerA, CreateProductRequest{Name: "Oil 10W40", Price: "42"})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Errors[0].Field)

	// Another company may stock the same product name.
	_, err = svc.Create(ctx, managerB, CreateProductRequest{Name: "Oil 10W40", Price: "38"})
	require.NoError(t, err)
}

func TestProductStockAlertOnTransition(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Estoque")
	manager := testutil.NewUser(t, db, company, "boss", true)
	events := &stubStockEvents{}
	svc := NewProductService(repository.NewProductRepository(db), events)
	ctx := context.Background()

	stock := 10
	product, err := svc.Create(ctx, manager, CreateProductRequest{
		Name:         "Brake fluid",
		Price:        "25",
		CurrentStock: &stock,
		MinimumStock: 3,
	})
	require.NoError(t, err)
	assert.Empty(t, events.alerts)

	// Dropping to the minimum fires exactly one alert.
	low := 3
	_, err = svc.Update(ctx, manager, product.ID, UpdateProductRequest{CurrentStock: &low})
	require.NoError(t, err)
	require.Len(t, events.alerts, 1)
	assert.Equal(t, company.ID, events.alerts[0].CompanyID)
	assert.Equal(t, product.ID, events.alerts[0].ProductID)
	assert.Equal(t, 3, events.alerts[0].CurrentStock)

	// Further saves while already critical stay quiet.
	lower := 2
	_, err = svc.Update(ctx, manager, product.ID, UpdateProductRequest{CurrentStock: &lower})
	require.NoError(t, err)
	assert.Len(t, events.alerts, 1)
}

func TestProductListCritical(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Estoque")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := NewProductService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	low := 1
	fine := 50
	_, err := svc.Create(ctx, manager, CreateProductRequest{
		Name: "Spark plug", Price: "15", CurrentStock: &low, MinimumStock: 4,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, manager, CreateProductRequest{
		Name: "Coolant", Price: "30", CurrentStock: &fine, MinimumStock: 4,
	})
	require.NoError(t, err)
	// Untracked products never count as critical.
	_, err = svc.Create(ctx, manager, CreateProductRequest{
		Name: "Labor kit", Price: "10",
	})
	require.NoError(t, err)

	critical, err := svc.ListCritical(ctx, manager, 10)
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "Spark plug", critical[0].Name)
}

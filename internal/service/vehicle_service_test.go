package service

import (
	"context"
	"testing"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newVehicleService(db *gorm.DB) VehicleService {
	return NewVehicleService(repository.NewVehicleRepository(db), repository.NewClientRepository(db))
}

func TestVehiclePlateNormalized(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Placas")
	manager := testutil.NewUser(t, db, company, "boss", true)
	client := testutil.NewClient(t, db, company, "Maria")
	svc := newVehicleService(db)

	vehicle, err := svc.Create(context.Background(), manager, CreateVehicleRequest{
		ClientID: client.ID.String(),
		Type:     model.VehicleTypeCar,
		Plate:    " abc-1d23 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC1D23", vehicle.Plate)
}

func TestVehiclePlateUniquePerCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina A")
	companyB := testutil.NewCompany(t, db, "Oficina B")
	managerA := testutil.NewUser(t, db, companyA, "bossA", true)
	managerB := testutil.NewUser(t, db, companyB, "bossB", true)
	clientA := testutil.NewClient(t, db, companyA, "Maria")
	clientB := testutil.NewClient(t, db, companyB, "Joana")
	svc := newVehicleService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, managerA, CreateVehicleRequest{
		ClientID: clientA.ID.String(), Type: model.VehicleTypeCar, Plate: "XYZ9Z99",
	})
	require.NoError(t, err)

	// Normalization makes "xyz-9z99" collide with the stored plate.
	_, err = svc.Create(ctx, managerA, CreateVehicleRequest{
		ClientID: clientA.ID.String(), Type: model.VehicleTypeCar, Plate: "xyz-9z99",
	})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "plate", ve.Errors[0].Field)

	// The same plate in another company is a different car.
	_, err = svc.Create(ctx, managerB, CreateVehicleRequest{
		ClientID: clientB.ID.String(), Type: model.VehicleTypeCar, Plate: "XYZ9Z99",
	})
	require.NoError(t, err)
}

func TestVehicleOwnerMustBeInCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina A")
	companyB := testutil.NewCompany(t, db, "Oficina B")
	managerB := testutil.NewUser(t, db, companyB, "bossB", true)
	clientA := testutil.NewClient(t, db, companyA, "Maria")
	svc := newVehicleService(db)

	_, err := svc.Create(context.Background(), managerB, CreateVehicleRequest{
		ClientID: clientA.ID.String(), Type: model.VehicleTypeCar, Plate: "QQQ1Q11",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestVehicleUnknownType(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Tipos")
	manager := testutil.NewUser(t, db, company, "boss", true)
	client := testutil.NewClient(t, db, company, "Maria")
	svc := newVehicleService(db)

	_, err := svc.Create(context.Background(), manager, CreateVehicleRequest{
		ClientID: client.ID.String(), Type: "BOAT", Plate: "BBB2B22",
	})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

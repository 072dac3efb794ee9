package service

import (
	"context"
	"testing"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleDoubleBooking(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Agenda")
	manager := testutil.NewUser(t, db, company, "boss", true)
	client := testutil.NewClient(t, db, company, "Maria")
	vehicle := testutil.NewVehicle(t, db, company, client, "AGN1A11")

	svc := NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewClientRepository(db),
		repository.NewVehicleRepository(db),
	)
	ctx := context.Background()

	req := CreateScheduleRequest{
		ClientID:  client.ID.String(),
		VehicleID: vehicle.ID.String(),
		Date:      "2026-09-10",
		Time:      "14:00",
		Type:      model.ScheduleTypeNote,
	}
	_, err := svc.Create(ctx, manager, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, manager, req)
	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)

	// Same day, different slot is fine.
	req.Time = "15:30"
	_, err = svc.Create(ctx, manager, req)
	require.NoError(t, err)

	entries, err := svc.ListByDate(ctx, manager, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScheduleRejectsBadSlot(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Agenda")
	manager := testutil.NewUser(t, db, company, "boss", true)
	client := testutil.NewClient(t, db, company, "Maria")
	vehicle := testutil.NewVehicle(t, db, company, client, "AGN2B22")

	svc := NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewClientRepository(db),
		repository.NewVehicleRepository(db),
	)

	_, err := svc.Create(context.Background(), manager, CreateScheduleRequest{
		ClientID:  client.ID.String(),
		VehicleID: vehicle.ID.String(),
		Date:      "2026-09-10",
		Time:      "25:99",
	})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestScheduleForeignClientUnreachable(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina A")
	companyB := testutil.NewCompany(t, db, "Oficina B")
	managerB := testutil.NewUser(t, db, companyB, "rival", true)
	clientA := testutil.NewClient(t, db, companyA, "Maria")
	vehicleA := testutil.NewVehicle(t, db, companyA, clientA, "AGN3C33")

	svc := NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewClientRepository(db),
		repository.NewVehicleRepository(db),
	)

	_, err := svc.Create(context.Background(), managerB, CreateScheduleRequest{
		ClientID:  clientA.ID.String(),
		VehicleID: vehicleA.ID.String(),
		Date:      "2026-09-10",
		Time:      "09:00",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

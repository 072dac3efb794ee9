package service

import (
	"context"
	"fmt"
	"testing"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) UserService {
	return NewUserService(repository.NewUserRepository(db), repository.NewCompanyRepository(db))
}

func TestUserCreateActiveSeatCap(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina A")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)
	ctx := context.Background()

	// BASIC allows six active seats; the manager already holds one.
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, manager, CreateUserRequest{
			Username: fmt.Sprintf("mech%d", i),
			Email:    fmt.Sprintf("mech%d@example.com", i),
			Password: "secret123",
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, manager, CreateUserRequest{
		Username: "onetoomany",
		Email:    "extra@example.com",
		Password: "secret123",
	})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "is_active", ve.Errors[0].Field)
}

func TestUserCreateManagerCap(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina B")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)

	_, err := svc.Create(context.Background(), manager, CreateUserRequest{
		Username:  "cochief",
		Email:     "cochief@example.com",
		Password:  "secret123",
		IsManager: true,
	})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "is_manager", ve.Errors[0].Field)
}

func TestUserCapsRaisedOnPlusPlan(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina C")
	require.NoError(t, db.Model(company).Update("plan", model.PlanPlus).Error)
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)

	_, err := svc.Create(context.Background(), manager, CreateUserRequest{
		Username:  "cochief",
		Email:     "cochief@example.com",
		Password:  "secret123",
		IsManager: true,
	})
	require.NoError(t, err)
}

func TestUserDeactivatedSeatFreesCapacity(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina D")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)
	ctx := context.Background()

	var last *UserResponse
	for i := 0; i < 5; i++ {
		created, err := svc.Create(ctx, manager, CreateUserRequest{
			Username: fmt.Sprintf("mech%d", i),
			Email:    fmt.Sprintf("mech%d@example.com", i),
			Password: "secret123",
		})
		require.NoError(t, err)
		last = created
	}
	require.NoError(t, svc.Deactivate(ctx, manager, last.ID))

	// The freed seat can be filled again.
	_, err := svc.Create(ctx, manager, CreateUserRequest{
		Username: "replacement",
		Email:    "replacement@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
}

func TestUserReactivationCountsAgainstCap(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina E")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)
	ctx := context.Background()

	benched, err := svc.Create(ctx, manager, CreateUserRequest{
		Username: "benched",
		Email:    "benched@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, manager, benched.ID))

	// Fill the remaining seats (manager + 5 = cap of 6).
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, manager, CreateUserRequest{
			Username: fmt.Sprintf("mech%d", i),
			Email:    fmt.Sprintf("mech%d@example.com", i),
			Password: "secret123",
		})
		require.NoError(t, err)
	}

	active := true
	_, err = svc.Update(ctx, manager, benched.ID, UpdateUserRequest{IsActive: &active})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok, "reactivation over the cap must be rejected")
}

func TestUserCannotDeactivateSelf(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina F")
	manager := testutil.NewUser(t, db, company, "boss", true)
	svc := newUserService(db)

	err := svc.Deactivate(context.Background(), manager, manager.ID)
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestUserUsernameGloballyUnique(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina G")
	companyB := testutil.NewCompany(t, db, "Oficina H")
	managerA := testutil.NewUser(t, db, companyA, "bossA", true)
	managerB := testutil.NewUser(t, db, companyB, "bossB", true)
	svc := newUserService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, managerA, CreateUserRequest{
		Username: "carlos", Email: "carlos@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	// Usernames are login identifiers, unique across all tenants.
	_, err = svc.Create(ctx, managerB, CreateUserRequest{
		Username: "carlos", Email: "carlos2@example.com", Password: "secret123",
	})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "username", ve.Errors[0].Field)
}

func TestUserListScopedToCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companyA := testutil.NewCompany(t, db, "Oficina I")
	companyB := testutil.NewCompany(t, db, "Oficina J")
	managerA := testutil.NewUser(t, db, companyA, "bossI", true)
	testutil.NewUser(t, db, companyB, "bossJ", true)
	svc := newUserService(db)

	users, total, err := svc.List(context.Background(), managerA, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "bossI", users[0].Username)
}

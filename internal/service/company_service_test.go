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
	"gorm.io/gorm"
)

func newCompanyService(db *gorm.DB, mailer Mailer) CompanyService {
	return NewCompanyService(
		repository.NewCompanyRepository(db),
		repository.NewUserRepository(db),
		repository.NewTransactionManager(db),
		mailer,
	)
}

func newSuperuser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	admin := &model.User{
		Username:    "root",
		Email:       "root@example.com",
		IsSuperuser: true,
		IsActive:    true,
	}
	require.NoError(t, admin.SetPassword("secret123"))
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestSignupCreatesPendingCompany(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &stubMailer{}
	svc := newCompanyService(db, mailer)
	ctx := context.Background()

	company, err := svc.Signup(ctx, SignupRequest{
		CompanyName: "Oficina Nova",
		Plan:        model.PlanPlus,
		PlanPeriod:  model.PlanPeriodAnnual,
		Username:    "dona",
		Email:       "dona@example.com",
	})
	require.NoError(t, err)

	assert.False(t, company.PaymentConfirmed)
	assert.False(t, company.IsActive)
	assert.NotEmpty(t, company.TempPassword)

	var owner model.User
	require.NoError(t, db.First(&owner, "username = ?", "dona").Error)
	require.NotNil(t, owner.CompanyID)
	assert.Equal(t, company.ID, *owner.CompanyID)
	assert.True(t, owner.IsManager)
	assert.True(t, owner.CheckPassword(company.TempPassword))

	// Nobody mails credentials before approval.
	assert.Empty(t, mailer.sent)

	// A second signup reusing the username is rejected.
	_, err = svc.Signup(ctx, SignupRequest{
		CompanyName: "Outra Oficina",
		Username:    "dona",
		Email:       "dona2@example.com",
	})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestApproveSignup(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &stubMailer{}
	svc := newCompanyService(db, mailer)
	admin := newSuperuser(t, db)
	ctx := context.Background()

	company, err := svc.Signup(ctx, SignupRequest{
		CompanyName: "Oficina Nova",
		Username:    "dona",
		Email:       "dona@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveSignup(ctx, admin, company.ID))

	var fresh model.Company
	require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
	assert.True(t, fresh.PaymentConfirmed)
	assert.True(t, fresh.IsActive)
	assert.Empty(t, fresh.TempPassword)
	require.NotNil(t, fresh.PlanExpiresAt)
	assert.True(t, fresh.PlanExpiresAt.After(time.Now()))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "dona@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, company.TempPassword)

	// Approving twice is a no-op error, not a second billing window.
	err = svc.ApproveSignup(ctx, admin, company.ID)
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestApproveSignupSurvivesMailOutage(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &stubMailer{sendErr: &apperror.ExternalServiceError{Service: "resend", Detail: "timeout"}}
	svc := newCompanyService(db, mailer)
	admin := newSuperuser(t, db)
	ctx := context.Background()

	company, err := svc.Signup(ctx, SignupRequest{
		CompanyName: "Oficina Nova",
		Username:    "dona",
		Email:       "dona@example.com",
	})
	require.NoError(t, err)

	// The approval sticks even when the credentials email bounces.
	require.NoError(t, svc.ApproveSignup(ctx, admin, company.ID))

	var fresh model.Company
	require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
	assert.True(t, fresh.PaymentConfirmed)
	assert.True(t, fresh.IsActive)

	// The bootstrap password is kept so the email can be resent.
	assert.Equal(t, company.TempPassword, fresh.TempPassword)
}

func TestApproveSignupRequiresSuperuser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newCompanyService(db, &stubMailer{})
	company := testutil.NewCompany(t, db, "Oficina Alvo")
	manager := testutil.NewUser(t, db, company, "boss", true)

	err := svc.ApproveSignup(context.Background(), manager, company.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.ListPendingSignups(context.Background(), manager)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestRenewalFlow(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newCompanyService(db, &stubMailer{})
	admin := newSuperuser(t, db)
	company := testutil.NewCompany(t, db, "Oficina Renova")
	manager := testutil.NewUser(t, db, company, "boss", true)
	ctx := context.Background()

	require.NoError(t, svc.RequestRenewal(ctx, manager, RenewalRequest{Period: model.PlanPeriodAnnual}))

	pending, err := svc.ListPendingRenewals(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, company.ID, pending[0].ID)

	require.NoError(t, svc.ApproveRenewal(ctx, admin, company.ID))

	var fresh model.Company
	require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
	assert.Equal(t, model.PlanPeriodAnnual, fresh.PlanPeriod)
	assert.Empty(t, fresh.RenewalPeriod)
	assert.Nil(t, fresh.RenewalRequestedAt)
	assert.True(t, fresh.IsActive)

	// The new window runs a year, not the old month.
	require.NotNil(t, fresh.PlanExpiresAt)
	assert.True(t, fresh.PlanExpiresAt.After(time.Now().AddDate(0, 6, 0)))

	// Without a pending request there is nothing to approve.
	err = svc.ApproveRenewal(ctx, admin, company.ID)
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestRenewalRescuesExpiredCompany(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newCompanyService(db, &stubMailer{})
	admin := newSuperuser(t, db)
	company := testutil.NewCompany(t, db, "Oficina Atrasada")
	manager := testutil.NewUser(t, db, company, "boss", true)
	ctx := context.Background()

	expired := time.Now().Add(-72 * time.Hour)
	require.NoError(t, db.Model(company).Updates(map[string]interface{}{
		"plan_expires_at": expired,
		"is_active":       false,
	}).Error)

	require.NoError(t, svc.RequestRenewal(ctx, manager, RenewalRequest{Period: model.PlanPeriodMonthly}))
	require.NoError(t, svc.ApproveRenewal(ctx, admin, company.ID))

	var fresh model.Company
	require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
	assert.True(t, fresh.IsActive)
	require.NotNil(t, fresh.PlanExpiresAt)
	assert.True(t, fresh.PlanExpiresAt.After(time.Now()))
}

func TestPlanStatusReflectsExpiration(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newCompanyService(db, &stubMailer{})
	company := testutil.NewCompany(t, db, "Oficina Status")
	manager := testutil.NewUser(t, db, company, "boss", true)
	ctx := context.Background()

	status, err := svc.PlanStatus(ctx, manager)
	require.NoError(t, err)
	assert.False(t, status.Expired)
	assert.True(t, status.IsActive)
	require.NotNil(t, status.DaysRemaining)
	assert.Greater(t, *status.DaysRemaining, 0)

	expired := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(company).Update("plan_expires_at", expired).Error)

	status, err = svc.PlanStatus(ctx, manager)
	require.NoError(t, err)
	assert.True(t, status.Expired)
	assert.False(t, status.IsActive)
}

package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type stubMailer struct {
	sent    []sentMail
	sendErr error
}

func (m *stubMailer) Send(_ context.Context, to, subject, html string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func newAuthService(db *gorm.DB, mailer Mailer) AuthService {
	return NewAuthService(repository.NewUserRepository(db), repository.NewCompanyRepository(db), mailer)
}

func TestLoginSuccess(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Login")
	user := testutil.NewUser(t, db, company, "ze", true)
	svc := newAuthService(db, &stubMailer{})

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "ze", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return GetJWTSecret(), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, company.ID.String(), claims["company_id"])
	assert.Equal(t, true, claims["is_manager"])
}

func TestLoginWrongPassword(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Login")
	testutil.NewUser(t, db, company, "ze", true)
	svc := newAuthService(db, &stubMailer{})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ze", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnconfirmedCompany(t *testing.T) {
	db := testutil.NewDB(t)
	company := &model.Company{
		Name:       "Oficina Pendente",
		Plan:       model.PlanBasic,
		PlanPeriod: model.PlanPeriodMonthly,
	}
	require.NoError(t, db.Create(company).Error)
	testutil.NewUser(t, db, company, "ze", true)
	svc := newAuthService(db, &stubMailer{})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ze", Password: "secret123"})
	assert.ErrorIs(t, err, ErrRegistrationPending)
}

func TestLoginExpiredCompany(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Vencida")
	expired := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(company).Update("plan_expires_at", expired).Error)
	testutil.NewUser(t, db, company, "ze", true)
	svc := newAuthService(db, &stubMailer{})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ze", Password: "secret123"})
	assert.ErrorIs(t, err, ErrCompanyInactive)

	// The recomputed status is written back, not just evaluated.
	var fresh model.Company
	require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
	assert.False(t, fresh.IsActive)
}

func TestLoginSuperuserBypassesTenantGating(t *testing.T) {
	db := testutil.NewDB(t)
	admin := &model.User{
		Username:    "root",
		Email:       "root@example.com",
		IsSuperuser: true,
		IsActive:    true,
	}
	require.NoError(t, admin.SetPassword("secret123"))
	require.NoError(t, db.Create(admin).Error)
	svc := newAuthService(db, &stubMailer{})

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "root", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginInactiveUser(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Login")
	user := testutil.NewUser(t, db, company, "ze", false)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	svc := newAuthService(db, &stubMailer{})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ze", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRecoverPasswordRotates(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Recupera")
	user := testutil.NewUser(t, db, company, "ze", true)
	require.NoError(t, db.Model(user).Update("recovery_email", "ze.backup@example.com").Error)
	mailer := &stubMailer{}
	svc := newAuthService(db, mailer)
	ctx := context.Background()

	require.NoError(t, svc.RecoverPassword(ctx, RecoverPasswordRequest{Username: "ze"}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ze.backup@example.com", mailer.sent[0].To)

	// Old password no longer works; the mailed one does.
	_, err := svc.Login(ctx, LoginRequest{Username: "ze", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	match := regexp.MustCompile(`<strong>([^<]+)</strong>`).FindStringSubmatch(mailer.sent[0].HTML)
	require.Len(t, match, 2)
	_, err = svc.Login(ctx, LoginRequest{Username: "ze", Password: match[1]})
	require.NoError(t, err)
}

func TestRecoverPasswordSilentOnUnknownUser(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &stubMailer{}
	svc := newAuthService(db, mailer)

	require.NoError(t, svc.RecoverPassword(context.Background(), RecoverPasswordRequest{Username: "ghost"}))
	assert.Empty(t, mailer.sent)
}

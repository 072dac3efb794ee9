package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/service"
	"oficina/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator(repository.NewUserRepository(db), repository.NewCompanyRepository(db))

	router := gin.New()
	router.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})
	return router
}

func doAuthRequest(t *testing.T, router *gin.Engine, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	token, err := service.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAdmitsActiveTenant(t *testing.T) {
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina Ativa")
	user := testutil.NewUser(t, db, company, "ze", false)

	rec := doAuthRequest(t, newAuthRouter(db), user)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ze")
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	router := newAuthRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// sessionCookie returns the access_token cookie set on the response, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "access_token" {
			return cookie
		}
	}
	return nil
}

func TestBlockedTenantIsLoggedOut(t *testing.T) {
	db := testutil.NewDB(t)

	t.Run("pending approval", func(t *testing.T) {
		company := &model.Company{
			Name:       "Oficina Pendente",
			Plan:       model.PlanBasic,
			PlanPeriod: model.PlanPeriodMonthly,
		}
		model.RecomputePlanStatus(company, time.Now(), true)
		require.NoError(t, db.Create(company).Error)
		user := testutil.NewUser(t, db, company, "pendente", true)

		rec := doAuthRequest(t, newAuthRouter(db), user)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Registration pending approval")

		cleared := sessionCookie(rec)
		require.NotNil(t, cleared, "rejection must clear the session cookie")
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("expired subscription", func(t *testing.T) {
		company := testutil.NewCompany(t, db, "Oficina Vencida")
		expired := time.Now().Add(-48 * time.Hour)
		require.NoError(t, db.Model(company).Update("plan_expires_at", expired).Error)
		user := testutil.NewUser(t, db, company, "vencido", true)

		rec := doAuthRequest(t, newAuthRouter(db), user)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Company subscription inactive")

		cleared := sessionCookie(rec)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)

		// The recomputed flag is persisted on the way out.
		var fresh model.Company
		require.NoError(t, db.First(&fresh, "id = ?", company.ID).Error)
		assert.False(t, fresh.IsActive)
	})
}

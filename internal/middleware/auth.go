package middleware

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/service"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const currentUserKey = "currentUser"

// SetTokenCookie stores the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// Authenticator resolves the JWT into a full user record and gates on the
// company's subscription state. Every authenticated request recomputes
// the plan status instead of trusting the cached flag, so an expired
// tenant is locked out on its next request, not its next deploy.
type Authenticator struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
}

func NewAuthenticator(userRepo repository.UserRepository, companyRepo repository.CompanyRepository) *Authenticator {
	return &Authenticator{userRepo: userRepo, companyRepo: companyRepo}
}

func extractToken(c *gin.Context) (string, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func (a *Authenticator) resolveUser(c *gin.Context) (*model.User, bool) {
	tokenString, ok := extractToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return nil, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return service.GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}

	user, err := a.userRepo.GetAuthUser(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account no longer exists"))
		return nil, false
	}
	if !user.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account is disabled"))
		return nil, false
	}

	if !user.IsSuperuser {
		if !a.companyActive(c, user) {
			return nil, false
		}
	}
	return user, true
}

// companyActive recomputes the tenant's plan status and persists the
// cached flag when it flips. Returns false after writing the rejection.
func (a *Authenticator) companyActive(c *gin.Context, user *model.User) bool {
	if user.CompanyID == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Account has no company"))
		return false
	}
	company := user.Company
	if company == nil {
		loaded, err := a.companyRepo.GetByID(c.Request.Context(), *user.CompanyID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Company no longer exists"))
			return false
		}
		company = loaded
		user.Company = loaded
	}

	wasActive := company.IsActive
	model.RecomputePlanStatus(company, time.Now(), false)
	if company.IsActive != wasActive {
		if err := a.companyRepo.UpdateFields(c.Request.Context(), company.ID, map[string]interface{}{
			"is_active":       company.IsActive,
			"plan_expires_at": company.PlanExpiresAt,
		}); err != nil {
			log.Printf("failed to persist plan status for company %s: %v", company.ID, err)
		}
	}

	// A blocked tenant is also logged out: the session cookie goes with
	// the rejection so the next request starts from the login screen.
	if !company.PaymentConfirmed {
		ClearTokenCookie(c)
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Registration pending approval"))
		return false
	}
	if !company.IsActive {
		ClearTokenCookie(c)
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Company subscription inactive"))
		return false
	}
	return true
}

// RequireAuth admits any active user of an active company.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.resolveUser(c)
		if !ok {
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireManager admits managers and superusers only. Authenticated
// employees get 403, anonymous callers 401.
func (a *Authenticator) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.resolveUser(c)
		if !ok {
			return
		}
		if !model.IsManagerUser(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: manager role required"))
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireSuperuser admits platform superusers only.
func (a *Authenticator) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.resolveUser(c)
		if !ok {
			return
		}
		if !user.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: superuser role required"))
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by the middleware.
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*model.User)
	return user
}

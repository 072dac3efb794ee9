package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrRegistrationPending = errors.New("registration pending approval")
	ErrCompanyInactive     = errors.New("company subscription inactive")
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type RecoverPasswordRequest struct {
	Username string `json:"username" binding:"required"`
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RecoverPassword(ctx context.Context, req RecoverPasswordRequest) error
}

type authService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	mailer      Mailer
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, mailer Mailer) AuthService {
	return &authService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		mailer:      mailer,
		now:         time.Now,
	}
}

// GetJWTSecret resolves the signing secret, with a development fallback.
func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return []byte(secret)
}

// IssueToken signs a JWT carrying identity and role claims.
func IssueToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"is_manager":   user.IsManager,
		"is_superuser": user.IsSuperuser,
		"exp":          time.Now().Add(24 * time.Hour).Unix(),
	}
	if user.CompanyID != nil {
		claims["company_id"] = user.CompanyID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetJWTSecret())
}

// Login authenticates the user and gates on the company's subscription
// state. The inactive checks run against a freshly recomputed plan
// status, not the cached flag.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	// Superusers are not subject to tenant gating.
	if !user.IsSuperuser {
		company := user.Company
		if company == nil && user.CompanyID != nil {
			company, err = s.companyRepo.GetByID(ctx, *user.CompanyID)
			if err != nil {
				return nil, err
			}
		}
		if company == nil {
			return nil, ErrInvalidCredentials
		}

		wasActive := company.IsActive
		model.RecomputePlanStatus(company, s.now(), false)
		if company.IsActive != wasActive {
			if err := s.companyRepo.UpdateFields(ctx, company.ID, map[string]interface{}{
				"is_active":       company.IsActive,
				"plan_expires_at": company.PlanExpiresAt,
			}); err != nil {
				log.Printf("failed to persist plan status for company %s: %v", company.ID, err)
			}
		}

		if !company.PaymentConfirmed {
			return nil, ErrRegistrationPending
		}
		if !company.IsActive {
			return nil, ErrCompanyInactive
		}
	}

	token, err := IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{Token: token, User: user}, nil
}

// RecoverPassword resets the account to a fresh random password and
// mails it to the recovery address. The response never reveals whether
// the username exists.
func (s *authService) RecoverPassword(ctx context.Context, req RecoverPasswordRequest) error {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if user.RecoveryEmail == "" {
		return apperror.NewValidation("recovery_email", "no recovery email on file")
	}

	newPassword := GenerateTempPassword()
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your new temporary password is: <strong>%s</strong></p><p>Change it after signing in.</p>",
		user.Username, newPassword,
	)
	if err := s.mailer.Send(ctx, user.RecoveryEmail, "Password recovery", html); err != nil {
		// The password was already rotated; surface the delivery failure.
		return err
	}
	return nil
}

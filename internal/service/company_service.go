package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SignupRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	TaxID       string `json:"tax_id"`
	Phone       string `json:"phone"`
	Zip         string `json:"zip"`
	Street      string `json:"street"`
	Number      string `json:"number"`
	District    string `json:"district"`
	City        string `json:"city"`
	Plan        string `json:"plan"`
	PlanPeriod  string `json:"plan_period"`

	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	RecoveryPhone string `json:"recovery_phone"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	TaxID    *string `json:"tax_id"`
	Phone    *string `json:"phone"`
	Zip      *string `json:"zip"`
	Street   *string `json:"street"`
	Number   *string `json:"number"`
	District *string `json:"district"`
	City     *string `json:"city"`
}

type RenewalRequest struct {
	Period string `json:"period" binding:"required"`
	Plan   string `json:"plan"`
}

type PlanStatusResponse struct {
	Plan             string     `json:"plan"`
	PlanPeriod       string     `json:"plan_period"`
	ExpiresAt        *time.Time `json:"expires_at"`
	DaysRemaining    *int       `json:"days_remaining"`
	Expired          bool       `json:"expired"`
	PaymentConfirmed bool       `json:"payment_confirmed"`
	IsActive         bool       `json:"is_active"`
	RenewalPeriod    string     `json:"renewal_period,omitempty"`
}

type CompanyService interface {
	Signup(ctx context.Context, req SignupRequest) (*model.Company, error)
	Get(ctx context.Context, actor *model.User) (*model.Company, error)
	Update(ctx context.Context, actor *model.User, req UpdateCompanyRequest) (*model.Company, error)
	PlanStatus(ctx context.Context, actor *model.User) (*PlanStatusResponse, error)
	RequestRenewal(ctx context.Context, actor *model.User, req RenewalRequest) error

	// Superuser back office.
	ListPendingSignups(ctx context.Context, actor *model.User) ([]model.Company, error)
	ListPendingRenewals(ctx context.Context, actor *model.User) ([]model.Company, error)
	ApproveSignup(ctx context.Context, actor *model.User, companyID uuid.UUID) error
	ApproveRenewal(ctx context.Context, actor *model.User, companyID uuid.UUID) error
}

type companyService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	txManager   repository.TransactionManager
	mailer      Mailer
	now         func() time.Time
}

func NewCompanyService(companyRepo repository.CompanyRepository, userRepo repository.UserRepository, txManager repository.TransactionManager, mailer Mailer) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		mailer:      mailer,
		now:         time.Now,
	}
}

const tempPasswordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTempPassword returns a 10-character random password from an
// unambiguous alphabet.
func GenerateTempPassword() string {
	out := make([]byte, 10)
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(err)
		}
		out[i] = tempPasswordChars[n.Int64()]
	}
	return string(out)
}

// Signup registers a company together with its first manager account.
// The company starts unconfirmed: nobody can log in until a superuser
// approves it and payment is confirmed.
func (s *companyService) Signup(ctx context.Context, req SignupRequest) (*model.Company, error) {
	plan := req.Plan
	if plan == "" {
		plan = model.PlanBasic
	}
	if plan != model.PlanBasic && plan != model.PlanPlus {
		return nil, apperror.NewValidation("plan", "unknown plan")
	}
	period := req.PlanPeriod
	if period == "" {
		period = model.PlanPeriodMonthly
	}
	if !model.ValidPlanPeriod(period) {
		return nil, apperror.NewValidation("plan_period", "unknown billing period")
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.NewValidation("username", "already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tempPassword := GenerateTempPassword()
	company := &model.Company{
		Name:             req.CompanyName,
		TaxID:            req.TaxID,
		Phone:            req.Phone,
		Zip:              req.Zip,
		Street:           req.Street,
		Number:           req.Number,
		District:         req.District,
		City:             req.City,
		Plan:             plan,
		PlanPeriod:       period,
		PaymentConfirmed: false,
		TempPassword:     tempPassword,
	}
	model.RecomputePlanStatus(company, s.now(), true)

	user := &model.User{
		Username:      req.Username,
		Email:         req.Email,
		RecoveryEmail: req.Email,
		RecoveryPhone: req.RecoveryPhone,
		IsManager:     true,
		IsActive:      true,
	}
	if err := user.SetPassword(tempPassword); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.companyRepo.Create(txCtx, company); createErr != nil {
			return createErr
		}
		user.CompanyID = &company.ID
		return s.userRepo.Create(txCtx, user)
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (s *companyService) companyOf(ctx context.Context, actor *model.User) (*model.Company, error) {
	if actor == nil || actor.CompanyID == nil {
		return nil, apperror.NotFound("company")
	}
	company, err := s.companyRepo.GetByID(ctx, *actor.CompanyID)
	if err != nil {
		return nil, translateNotFound(err, "company")
	}
	return company, nil
}

func (s *companyService) Get(ctx context.Context, actor *model.User) (*model.Company, error) {
	return s.companyOf(ctx, actor)
}

func (s *companyService) Update(ctx context.Context, actor *model.User, req UpdateCompanyRequest) (*model.Company, error) {
	company, err := s.companyOf(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.TaxID != nil {
		company.TaxID = *req.TaxID
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Zip != nil {
		company.Zip = *req.Zip
	}
	if req.Street != nil {
		company.Street = *req.Street
	}
	if req.Number != nil {
		company.Number = *req.Number
	}
	if req.District != nil {
		company.District = *req.District
	}
	if req.City != nil {
		company.City = *req.City
	}

	model.RecomputePlanStatus(company, s.now(), false)
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *companyService) PlanStatus(ctx context.Context, actor *model.User) (*PlanStatusResponse, error) {
	company, err := s.companyOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	model.RecomputePlanStatus(company, now, false)

	return &PlanStatusResponse{
		Plan:             company.Plan,
		PlanPeriod:       company.PlanPeriod,
		ExpiresAt:        company.PlanExpiresCalculated(),
		DaysRemaining:    company.DaysUntilExpiration(now),
		Expired:          company.PlanExpired(now),
		PaymentConfirmed: company.PaymentConfirmed,
		IsActive:         company.IsActive,
		RenewalPeriod:    company.RenewalPeriod,
	}, nil
}

// RequestRenewal records the wish to renew; the subscription only moves
// once a superuser approves it.
func (s *companyService) RequestRenewal(ctx context.Context, actor *model.User, req RenewalRequest) error {
	company, err := s.companyOf(ctx, actor)
	if err != nil {
		return err
	}
	if !model.ValidPlanPeriod(req.Period) {
		return apperror.NewValidation("period", "unknown billing period")
	}
	if req.Plan != "" && req.Plan != model.PlanBasic && req.Plan != model.PlanPlus {
		return apperror.NewValidation("plan", "unknown plan")
	}

	requestedAt := s.now()
	fields := map[string]interface{}{
		"renewal_period":       req.Period,
		"renewal_requested_at": &requestedAt,
	}
	if req.Plan != "" {
		fields["plan"] = req.Plan
	}
	return s.companyRepo.UpdateFields(ctx, company.ID, fields)
}

func requireSuperuser(actor *model.User) error {
	if actor == nil || !actor.IsSuperuser {
		return apperror.Forbidden("superuser access required")
	}
	return nil
}

func (s *companyService) ListPendingSignups(ctx context.Context, actor *model.User) ([]model.Company, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	return s.companyRepo.ListPendingSignups(ctx)
}

func (s *companyService) ListPendingRenewals(ctx context.Context, actor *model.User) ([]model.Company, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	return s.companyRepo.ListPendingRenewals(ctx)
}

// ApproveSignup confirms payment for a newly registered company, starts
// its billing window and emails the bootstrap credentials to the first
// account.
func (s *companyService) ApproveSignup(ctx context.Context, actor *model.User, companyID uuid.UUID) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return translateNotFound(err, "company")
	}
	if company.PaymentConfirmed {
		return apperror.NewValidation("company", "already approved")
	}

	company.PaymentConfirmed = true
	model.RecomputePlanStatus(company, s.now(), true)

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return err
	}

	owner, err := s.userRepo.FirstForCompany(ctx, company.ID)
	if err != nil {
		return translateNotFound(err, "company account")
	}

	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your access to %s has been released.</p><p>Username: <strong>%s</strong><br>Temporary password: <strong>%s</strong></p>",
		owner.Username, company.Name, owner.Username, company.TempPassword,
	)

	// The approval itself is committed above. A failed email must not
	// undo it, and the bootstrap password has to survive for a retry, so
	// the temp password is only cleared after a successful send.
	if err := s.mailer.Send(ctx, owner.RecoveryEmail, "Access released", html); err != nil {
		log.Printf("WARNING: access-released email for company %s failed: %v", company.ID, err)
		return nil
	}
	return s.companyRepo.UpdateFields(ctx, company.ID, map[string]interface{}{"temp_password": ""})
}

// ApproveRenewal applies a pending renewal request: the billing window
// restarts from approval time and the request is cleared.
func (s *companyService) ApproveRenewal(ctx context.Context, actor *model.User, companyID uuid.UUID) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return translateNotFound(err, "company")
	}
	if company.RenewalPeriod == "" {
		return apperror.NewValidation("company", "no pending renewal request")
	}

	company.PlanPeriod = company.RenewalPeriod
	company.RenewalPeriod = ""
	company.RenewalRequestedAt = nil
	company.PaymentConfirmed = true
	company.PlanUpdatedAt = nil
	company.PlanExpiresAt = nil
	model.RecomputePlanStatus(company, s.now(), true)

	return s.companyRepo.UpdateFields(ctx, company.ID, map[string]interface{}{
		"plan_period":          company.PlanPeriod,
		"renewal_period":       "",
		"renewal_requested_at": nil,
		"payment_confirmed":    true,
		"plan_updated_at":      company.PlanUpdatedAt,
		"plan_expires_at":      company.PlanExpiresAt,
		"is_active":            company.IsActive,
	})
}

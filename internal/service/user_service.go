package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	RecoveryEmail string `json:"recovery_email"`
	RecoveryPhone string `json:"recovery_phone"`
	IsManager     bool   `json:"is_manager"`
}

type UpdateUserRequest struct {
	Email         *string `json:"email" binding:"omitempty,email"`
	Password      *string `json:"password" binding:"omitempty,min=6"`
	RecoveryEmail *string `json:"recovery_email"`
	RecoveryPhone *string `json:"recovery_phone"`
	IsManager     *bool   `json:"is_manager"`
	IsActive      *bool   `json:"is_active"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	RecoveryEmail string    `json:"recovery_email"`
	RecoveryPhone string    `json:"recovery_phone"`
	IsManager     bool      `json:"is_manager"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

type UserService interface {
	Create(ctx context.Context, actor *model.User, req CreateUserRequest) (*UserResponse, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*UserResponse, error)
	List(ctx context.Context, actor *model.User, page, limit int) ([]UserResponse, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type userService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
}

func NewUserService(userRepo repository.UserRepository, companyRepo repository.CompanyRepository) UserService {
	return &userService{userRepo: userRepo, companyRepo: companyRepo}
}

func mapUser(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		RecoveryEmail: user.RecoveryEmail,
		RecoveryPhone: user.RecoveryPhone,
		IsManager:     user.IsManager,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt,
	}
}

// checkPlanLimits guards any change that would add an active seat or an
// active manager seat. It counts current active rows and compares against
// the plan caps, so it must run before the write.
func (s *userService) checkPlanLimits(ctx context.Context, companyID uuid.UUID, addingActive, addingManager bool) error {
	if !addingActive && !addingManager {
		return nil
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return translateNotFound(err, "company")
	}

	if addingActive {
		active, countErr := s.userRepo.CountActive(ctx, companyID)
		if countErr != nil {
			return countErr
		}
		if active >= int64(company.MaxActiveUsers()) {
			return apperror.NewValidation("is_active",
				fmt.Sprintf("plan %s allows at most %d active users", company.Plan, company.MaxActiveUsers()))
		}
	}
	if addingManager {
		managers, countErr := s.userRepo.CountActiveManagers(ctx, companyID)
		if countErr != nil {
			return countErr
		}
		if managers >= int64(company.MaxManagers()) {
			return apperror.NewValidation("is_manager",
				fmt.Sprintf("plan %s allows at most %d managers", company.Plan, company.MaxManagers()))
		}
	}
	return nil
}

func (s *userService) Create(ctx context.Context, actor *model.User, req CreateUserRequest) (*UserResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.NewValidation("username", "already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.checkPlanLimits(ctx, companyID, true, req.IsManager); err != nil {
		return nil, err
	}

	user := &model.User{
		CompanyID:     &companyID,
		Username:      req.Username,
		Email:         req.Email,
		RecoveryEmail: req.RecoveryEmail,
		RecoveryPhone: req.RecoveryPhone,
		IsManager:     req.IsManager,
		IsActive:      true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return mapUser(user), nil
}

func (s *userService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*UserResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "user")
	}
	return mapUser(user), nil
}

func (s *userService) List(ctx context.Context, actor *model.User, page, limit int) ([]UserResponse, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.List(ctx, companyID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUser(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "user")
	}

	// Reactivating a seat or promoting to manager consumes plan capacity.
	addingActive := req.IsActive != nil && *req.IsActive && !user.IsActive
	addingManager := req.IsManager != nil && *req.IsManager && !user.IsManager
	if err := s.checkPlanLimits(ctx, companyID, addingActive, addingManager); err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}
	if req.RecoveryEmail != nil {
		user.RecoveryEmail = *req.RecoveryEmail
	}
	if req.RecoveryPhone != nil {
		user.RecoveryPhone = *req.RecoveryPhone
	}
	if req.IsManager != nil {
		user.IsManager = *req.IsManager
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return mapUser(user), nil
}

// Deactivate retires an account without deleting it; audit history keeps
// pointing at the row.
func (s *userService) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return translateNotFound(err, "user")
	}
	if user.ID == actor.ID {
		return apperror.NewValidation("user", "cannot deactivate your own account")
	}
	user.IsActive = false
	return s.userRepo.Update(ctx, user)
}

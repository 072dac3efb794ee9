package service

import (
	"context"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
)

type CreateEmployeeRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	HiredOn string `json:"hired_on"`
}

type UpdateEmployeeRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	HiredOn  *string `json:"hired_on"`
	IsActive *bool   `json:"is_active"`
}

type EmployeeService interface {
	Create(ctx context.Context, actor *model.User, req CreateEmployeeRequest) (*model.Employee, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Employee, error)
	List(ctx context.Context, actor *model.User, activeOnly bool, page, limit int) ([]model.Employee, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateEmployeeRequest) (*model.Employee, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type employeeService struct {
	repo repository.EmployeeRepository
}

func NewEmployeeService(repo repository.EmployeeRepository) EmployeeService {
	return &employeeService{repo: repo}
}

func (s *employeeService) Create(ctx context.Context, actor *model.User, req CreateEmployeeRequest) (*model.Employee, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	hiredOn := time.Now().UTC().Truncate(24 * time.Hour)
	if req.HiredOn != "" {
		parsed, parseErr := parseDate("hired_on", req.HiredOn)
		if parseErr != nil {
			return nil, parseErr
		}
		hiredOn = *parsed
	}

	employee := &model.Employee{
		CompanyID: companyID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		HiredOn:   hiredOn,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Employee, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	employee, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "employee")
	}
	return employee, nil
}

func (s *employeeService) List(ctx context.Context, actor *model.User, activeOnly bool, page, limit int) ([]model.Employee, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, companyID, activeOnly, page, limit)
}

func (s *employeeService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateEmployeeRequest) (*model.Employee, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	employee, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "employee")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.NewValidation("name", "must not be empty")
		}
		employee.Name = *req.Name
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.HiredOn != nil {
		parsed, parseErr := parseDate("hired_on", *req.HiredOn)
		if parseErr != nil {
			return nil, parseErr
		}
		if parsed != nil {
			employee.HiredOn = *parsed
		}
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "employee")
}

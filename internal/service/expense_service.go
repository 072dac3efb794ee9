package service

import (
	"context"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
)

type CreateExpenseRequest struct {
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Date        string `json:"date"`
}

type UpdateExpenseRequest struct {
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	Date        *string `json:"date"`
}

type ExpenseService interface {
	Create(ctx context.Context, actor *model.User, req CreateExpenseRequest) (*model.Expense, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, actor *model.User, from, to *time.Time, page, limit int) ([]model.Expense, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type expenseService struct {
	repo repository.ExpenseRepository
}

func NewExpenseService(repo repository.ExpenseRepository) ExpenseService {
	return &expenseService{repo: repo}
}

func (s *expenseService) Create(ctx context.Context, actor *model.User, req CreateExpenseRequest) (*model.Expense, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, parseErr := parseDate("date", req.Date)
		if parseErr != nil {
			return nil, parseErr
		}
		date = *parsed
	}

	expense := &model.Expense{
		CompanyID:   companyID,
		Description: req.Description,
		Amount:      amount,
		Date:        date,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Expense, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "expense")
	}
	return expense, nil
}

func (s *expenseService) List(ctx context.Context, actor *model.User, from, to *time.Time, page, limit int) ([]model.Expense, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, companyID, from, to, page, limit)
}

func (s *expenseService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "expense")
	}

	if req.Description != nil {
		if *req.Description == "" {
			return nil, apperror.NewValidation("description", "must not be empty")
		}
		expense.Description = *req.Description
	}
	if req.Amount != nil {
		amount, parseErr := parseMoney("amount", *req.Amount)
		if parseErr != nil {
			return nil, parseErr
		}
		expense.Amount = amount
	}
	if req.Date != nil {
		parsed, parseErr := parseDate("date", *req.Date)
		if parseErr != nil {
			return nil, parseErr
		}
		if parsed != nil {
			expense.Date = *parsed
		}
	}

	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "expense")
}

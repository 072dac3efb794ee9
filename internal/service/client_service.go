package service

import (
	"context"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
)

type CreateClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Document string `json:"document"`
	Zip      string `json:"zip"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	District string `json:"district"`
	City     string `json:"city"`
}

type UpdateClientRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Document *string `json:"document"`
	Zip      *string `json:"zip"`
	Street   *string `json:"street"`
	Number   *string `json:"number"`
	District *string `json:"district"`
	City     *string `json:"city"`
}

type ClientService interface {
	Create(ctx context.Context, actor *model.User, req CreateClientRequest) (*model.Client, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, actor *model.User, search string, page, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateClientRequest) (*model.Client, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) Create(ctx context.Context, actor *model.User, req CreateClientRequest) (*model.Client, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	client := &model.Client{
		CompanyID: companyID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Document:  req.Document,
		Zip:       req.Zip,
		Street:    req.Street,
		Number:    req.Number,
		District:  req.District,
		City:      req.City,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Client, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "client")
	}
	return client, nil
}

func (s *clientService) List(ctx context.Context, actor *model.User, search string, page, limit int) ([]model.Client, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, companyID, search, page, limit)
}

func (s *clientService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateClientRequest) (*model.Client, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "client")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.NewValidation("name", "must not be empty")
		}
		client.Name = *req.Name
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Document != nil {
		client.Document = *req.Document
	}
	if req.Zip != nil {
		client.Zip = *req.Zip
	}
	if req.Street != nil {
		client.Street = *req.Street
	}
	if req.Number != nil {
		client.Number = *req.Number
	}
	if req.District != nil {
		client.District = *req.District
	}
	if req.City != nil {
		client.City = *req.City
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "client")
}

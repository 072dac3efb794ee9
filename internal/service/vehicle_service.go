package service

import (
	"context"
	"errors"
	"strings"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateVehicleRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Plate    string `json:"plate" binding:"required"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Year     string `json:"year"`
	Color    string `json:"color"`
	Mileage  *int   `json:"mileage"`
}

type UpdateVehicleRequest struct {
	Type    *string `json:"type"`
	Plate   *string `json:"plate"`
	Brand   *string `json:"brand"`
	Model   *string `json:"model"`
	Year    *string `json:"year"`
	Color   *string `json:"color"`
	Mileage *int    `json:"mileage"`
}

type VehicleService interface {
	Create(ctx context.Context, actor *model.User, req CreateVehicleRequest) (*model.Vehicle, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, actor *model.User, clientID *uuid.UUID, page, limit int) ([]model.Vehicle, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateVehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type vehicleService struct {
	repo       repository.VehicleRepository
	clientRepo repository.ClientRepository
}

func NewVehicleService(repo repository.VehicleRepository, clientRepo repository.ClientRepository) VehicleService {
	return &vehicleService{repo: repo, clientRepo: clientRepo}
}

func validVehicleType(t string) bool {
	return t == model.VehicleTypeMotorcycle || t == model.VehicleTypeCar || t == model.VehicleTypeTruck
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), "-", ""))
}

func (s *vehicleService) Create(ctx context.Context, actor *model.User, req CreateVehicleRequest) (*model.Vehicle, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("client_id", "invalid id")
	}
	if !validVehicleType(req.Type) {
		return nil, apperror.NewValidation("type", "unknown vehicle type")
	}
	// The owning client must live in the same company.
	if _, err := s.clientRepo.GetByID(ctx, clientID, companyID); err != nil {
		return nil, translateNotFound(err, "client")
	}

	vehicle := &model.Vehicle{
		CompanyID: companyID,
		ClientID:  clientID,
		Type:      req.Type,
		Plate:     normalizePlate(req.Plate),
		Brand:     req.Brand,
		ModelID:   req.Model,
		Year:      req.Year,
		Color:     req.Color,
		Mileage:   req.Mileage,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("plate", "already registered for this company")
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *vehicleService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Vehicle, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "vehicle")
	}
	return vehicle, nil
}

func (s *vehicleService) List(ctx context.Context, actor *model.User, clientID *uuid.UUID, page, limit int) ([]model.Vehicle, int64, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, companyID, clientID, page, limit)
}

func (s *vehicleService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateVehicleRequest) (*model.Vehicle, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "vehicle")
	}

	if req.Type != nil {
		if !validVehicleType(*req.Type) {
			return nil, apperror.NewValidation("type", "unknown vehicle type")
		}
		vehicle.Type = *req.Type
	}
	if req.Plate != nil {
		vehicle.Plate = normalizePlate(*req.Plate)
	}
	if req.Brand != nil {
		vehicle.Brand = *req.Brand
	}
	if req.Model != nil {
		vehicle.ModelID = *req.Model
	}
	if req.Year != nil {
		vehicle.Year = *req.Year
	}
	if req.Color != nil {
		vehicle.Color = *req.Color
	}
	if req.Mileage != nil {
		vehicle.Mileage = req.Mileage
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("plate", "already registered for this company")
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *vehicleService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "vehicle")
}

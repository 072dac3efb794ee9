package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateScheduleRequest struct {
	ClientID  string `json:"client_id" binding:"required"`
	VehicleID string `json:"vehicle_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	Notes     string `json:"notes"`
}

type ScheduleService interface {
	Create(ctx context.Context, actor *model.User, req CreateScheduleRequest) (*model.Schedule, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Schedule, error)
	ListByDate(ctx context.Context, actor *model.User, date time.Time) ([]model.Schedule, error)
	ListRange(ctx context.Context, actor *model.User, start, end time.Time) ([]model.Schedule, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type scheduleService struct {
	repo        repository.ScheduleRepository
	clientRepo  repository.ClientRepository
	vehicleRepo repository.VehicleRepository
}

func NewScheduleService(repo repository.ScheduleRepository, clientRepo repository.ClientRepository, vehicleRepo repository.VehicleRepository) ScheduleService {
	return &scheduleService{repo: repo, clientRepo: clientRepo, vehicleRepo: vehicleRepo}
}

var timeSlotPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func (s *scheduleService) Create(ctx context.Context, actor *model.User, req CreateScheduleRequest) (*model.Schedule, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("client_id", "invalid id")
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return nil, apperror.NewValidation("vehicle_id", "invalid id")
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if req.Time != "" && !timeSlotPattern.MatchString(req.Time) {
		return nil, apperror.NewValidation("time", "expected HH:MM")
	}
	entryType := req.Type
	if entryType == "" {
		entryType = model.ScheduleTypeNote
	}
	if !model.ValidScheduleType(entryType) {
		return nil, apperror.NewValidation("type", "unknown entry type")
	}

	if _, err := s.clientRepo.GetByID(ctx, clientID, companyID); err != nil {
		return nil, translateNotFound(err, "client")
	}
	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID, companyID); err != nil {
		return nil, translateNotFound(err, "vehicle")
	}

	schedule := &model.Schedule{
		CompanyID: companyID,
		ClientID:  clientID,
		VehicleID: vehicleID,
		Date:      *date,
		Time:      req.Time,
		Type:      entryType,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperror.ConflictError{Message: "slot already booked for this client and vehicle"}
		}
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Schedule, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	schedule, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "schedule entry")
	}
	return schedule, nil
}

func (s *scheduleService) ListByDate(ctx context.Context, actor *model.User, date time.Time) ([]model.Schedule, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, companyID, date)
}

func (s *scheduleService) ListRange(ctx context.Context, actor *model.User, start, end time.Time) ([]model.Schedule, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRange(ctx, companyID, start, end)
}

func (s *scheduleService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	companyID, err := companyOf(actor)
	if err != nil {
		return err
	}
	return translateNotFound(s.repo.Delete(ctx, id, companyID), "schedule entry")
}

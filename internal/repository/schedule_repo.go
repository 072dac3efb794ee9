package repository

import (
	"context"
	"time"

	"oficina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.Schedule, error)
	ListByDate(ctx context.Context, companyID uuid.UUID, date time.Time) ([]model.Schedule, error)
	ListRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]model.Schedule, error)
	Delete(ctx context.Context, id, companyID uuid.UUID) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

// Create relies on the (company, client, vehicle, date, time) unique index;
// a gorm.ErrDuplicatedKey from here means the slot is already booked.
func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	return GetDB(ctx, r.db).Create(schedule).Error
}

func (r *scheduleRepository) GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Vehicle").
		First(&schedule, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) ListByDate(ctx context.Context, companyID uuid.UUID, date time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Vehicle").
		Where("company_id = ? AND date >= ? AND date < ?", companyID, dayFloor(date), dayAfter(date)).
		Order("time").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) ListRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Vehicle").
		Where("company_id = ? AND date >= ? AND date < ?", companyID, dayFloor(start), dayAfter(end)).
		Order("date, time").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) Delete(ctx context.Context, id, companyID uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"oficina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows a work-order list. ResponsibleID is set by the
// service layer for employee callers; managers leave it nil.
type OrderFilter struct {
	Status        string
	ClientID      *uuid.UUID
	ResponsibleID *uuid.UUID
	From          *time.Time
	To            *time.Time
}

type WorkOrderRepository interface {
	Create(ctx context.Context, order *model.WorkOrder) error
	GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.WorkOrder, error)
	List(ctx context.Context, companyID uuid.UUID, filter OrderFilter, page, limit int) ([]model.WorkOrder, int64, error)
	Update(ctx context.Context, order *model.WorkOrder) error
	UpdateTotalCache(ctx context.Context, id, companyID uuid.UUID, total string) error

	CreateItem(ctx context.Context, item *model.WorkOrderItem) error
	GetItem(ctx context.Context, id, companyID uuid.UUID) (*model.WorkOrderItem, error)
	UpdateItem(ctx context.Context, item *model.WorkOrderItem) error
	DeleteItem(ctx context.Context, id, companyID uuid.UUID) error

	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPayment(ctx context.Context, id, companyID uuid.UUID) (*model.Payment, error)
	DeletePayment(ctx context.Context, id, companyID uuid.UUID) error

	AppendLog(ctx context.Context, entry *model.WorkOrderLog) error
	ListLogs(ctx context.Context, orderID, companyID uuid.UUID) ([]model.WorkOrderLog, error)
}

type workOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) Create(ctx context.Context, order *model.WorkOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *workOrderRepository) GetByID(ctx context.Context, id, companyID uuid.UUID) (*model.WorkOrder, error) {
	var order model.WorkOrder
	if err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Vehicle").
		Preload("Responsible").
		Preload("Executor").
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *workOrderRepository) List(ctx context.Context, companyID uuid.UUID, filter OrderFilter, page, limit int) ([]model.WorkOrder, int64, error) {
	var orders []model.WorkOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.WorkOrder{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ResponsibleID != nil {
		db = db.Where("responsible_id = ?", *filter.ResponsibleID)
	}
	if filter.From != nil {
		db = db.Where("entry_date >= ?", dayFloor(*filter.From))
	}
	if filter.To != nil {
		db = db.Where("entry_date < ?", dayAfter(*filter.To))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Client").
		Preload("Vehicle").
		Preload("Responsible").
		Preload("Items").
		Preload("Payments").
		Order("entry_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *workOrderRepository) Update(ctx context.Context, order *model.WorkOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

// UpdateTotalCache refreshes the cached display total without touching
// any other column.
func (r *workOrderRepository) UpdateTotalCache(ctx context.Context, id, companyID uuid.UUID, total string) error {
	return GetDB(ctx, r.db).Model(&model.WorkOrder{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Update("total_cache", total).Error
}

func (r *workOrderRepository) CreateItem(ctx context.Context, item *model.WorkOrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *workOrderRepository) GetItem(ctx context.Context, id, companyID uuid.UUID) (*model.WorkOrderItem, error) {
	var item model.WorkOrderItem
	if err := GetDB(ctx, r.db).First(&item, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *workOrderRepository) UpdateItem(ctx context.Context, item *model.WorkOrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *workOrderRepository) DeleteItem(ctx context.Context, id, companyID uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.WorkOrderItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *workOrderRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *workOrderRepository) GetPayment(ctx context.Context, id, companyID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).First(&payment, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *workOrderRepository) DeletePayment(ctx context.Context, id, companyID uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Payment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendLog inserts an audit entry. The trail is append-only: no update
// or delete path exists on this repository.
func (r *workOrderRepository) AppendLog(ctx context.Context, entry *model.WorkOrderLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *workOrderRepository) ListLogs(ctx context.Context, orderID, companyID uuid.UUID) ([]model.WorkOrderLog, error) {
	var logs []model.WorkOrderLog
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("order_id = ? AND company_id = ?", orderID, companyID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

package repository

import (
	"context"
	"time"

	"oficina/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRow is a payment joined with its order's client for ranking.
type PaymentRow struct {
	PaidOn     time.Time
	Amount     decimal.Decimal
	ClientName string
}

// ItemRow is a line item joined with its product name for ranking.
type ItemRow struct {
	ProductName string
	Description string
	Quantity    decimal.Decimal
	Subtotal    decimal.Decimal
}

// DashboardRepository fetches the raw rows the dashboard aggregates.
// Aggregation itself happens in the service so the same code path serves
// every storage engine; rows are already company-filtered and, for
// employee callers, visibility-filtered (visibleTo != nil).
type DashboardRepository interface {
	ListPayments(ctx context.Context, companyID uuid.UUID, from, to *time.Time, visibleTo *uuid.UUID) ([]PaymentRow, error)
	ListExpenses(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]model.Expense, error)
	ListOrders(ctx context.Context, companyID uuid.UUID, from, to *time.Time, visibleTo *uuid.UUID) ([]model.WorkOrder, error)
	ListFinalizedOrders(ctx context.Context, companyID uuid.UUID, from, to time.Time, visibleTo *uuid.UUID) ([]model.WorkOrder, error)
	ListItems(ctx context.Context, companyID uuid.UUID, from, to time.Time, visibleTo *uuid.UUID) ([]ItemRow, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// ListPayments returns payments in the window joined with client names.
// For employee callers only payments on orders they answer for (or
// created) are visible.
func (r *dashboardRepository) ListPayments(ctx context.Context, companyID uuid.UUID, from, to *time.Time, visibleTo *uuid.UUID) ([]PaymentRow, error) {
	var rows []PaymentRow
	db := GetDB(ctx, r.db).Table("payments").
		Select("payments.paid_on as paid_on, payments.amount as amount, clients.name as client_name").
		Joins("JOIN work_orders ON work_orders.id = payments.order_id").
		Joins("JOIN clients ON clients.id = work_orders.client_id").
		Where("payments.company_id = ?", companyID)
	if from != nil {
		db = db.Where("payments.paid_on >= ?", dayFloor(*from))
	}
	if to != nil {
		db = db.Where("payments.paid_on < ?", dayAfter(*to))
	}
	if visibleTo != nil {
		db = db.Where("work_orders.responsible_id = ? OR work_orders.created_by_id = ?", *visibleTo, *visibleTo)
	}
	if err := db.Order("payments.paid_on").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *dashboardRepository) ListExpenses(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]model.Expense, error) {
	var expenses []model.Expense
	db := GetDB(ctx, r.db).Where("company_id = ?", companyID)
	if from != nil {
		db = db.Where("date >= ?", dayFloor(*from))
	}
	if to != nil {
		db = db.Where("date < ?", dayAfter(*to))
	}
	if err := db.Order("date").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *dashboardRepository) ListOrders(ctx context.Context, companyID uuid.UUID, from, to *time.Time, visibleTo *uuid.UUID) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	db := GetDB(ctx, r.db).Where("company_id = ?", companyID)
	if from != nil {
		db = db.Where("entry_date >= ?", dayFloor(*from))
	}
	if to != nil {
		db = db.Where("entry_date < ?", dayAfter(*to))
	}
	if visibleTo != nil {
		db = db.Where("responsible_id = ?", *visibleTo)
	}
	if err := db.Preload("Executor").Preload("Responsible").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *dashboardRepository) ListFinalizedOrders(ctx context.Context, companyID uuid.UUID, from, to time.Time, visibleTo *uuid.UUID) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	db := GetDB(ctx, r.db).
		Where("company_id = ? AND status = ? AND finalized_at IS NOT NULL", companyID, model.OrderStatusFinalized).
		Where("finalized_at >= ? AND finalized_at < ?", from, to.AddDate(0, 0, 1))
	if visibleTo != nil {
		db = db.Where("responsible_id = ?", *visibleTo)
	}
	if err := db.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *dashboardRepository) ListItems(ctx context.Context, companyID uuid.UUID, from, to time.Time, visibleTo *uuid.UUID) ([]ItemRow, error) {
	var rows []ItemRow
	db := GetDB(ctx, r.db).Table("work_order_items").
		Select("COALESCE(products.name, '') as product_name, work_order_items.description as description, work_order_items.quantity as quantity, work_order_items.subtotal as subtotal").
		Joins("LEFT JOIN products ON products.id = work_order_items.product_id").
		Joins("JOIN work_orders ON work_orders.id = work_order_items.order_id").
		Where("work_order_items.company_id = ?", companyID).
		Where("work_orders.entry_date >= ? AND work_orders.entry_date < ?", dayFloor(from), dayAfter(to))
	if visibleTo != nil {
		db = db.Where("work_orders.responsible_id = ?", *visibleTo)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

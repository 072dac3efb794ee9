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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrderRequest struct {
	ClientID         string `json:"client_id" binding:"required"`
	VehicleID        string `json:"vehicle_id" binding:"required"`
	ResponsibleID    string `json:"responsible_id"`
	ExecutorID       string `json:"executor_id"`
	Status           string `json:"status"`
	EntryDate        string `json:"entry_date"` // "2006-01-02", defaults to today
	ExpectedDelivery string `json:"expected_delivery"`
	Problem          string `json:"problem" binding:"required"`
	Diagnosis        string `json:"diagnosis"`
	Notes            string `json:"notes"`
	Attachment       string `json:"attachment"`
	LaborCost        string `json:"labor_cost"`
	Discount         string `json:"discount"`
}

type UpdateOrderRequest struct {
	ResponsibleID    *string `json:"responsible_id"`
	ExecutorID       *string `json:"executor_id"`
	Status           *string `json:"status"`
	ExpectedDelivery *string `json:"expected_delivery"`
	Problem          *string `json:"problem"`
	Diagnosis        *string `json:"diagnosis"`
	Notes            *string `json:"notes"`
	Attachment       *string `json:"attachment"`
	LaborCost        *string `json:"labor_cost"`
	Discount         *string `json:"discount"`
}

type AddItemRequest struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

type UpdateItemRequest struct {
	Description *string `json:"description"`
	Quantity    *string `json:"quantity"`
	UnitPrice   *string `json:"unit_price"`
}

type AddPaymentRequest struct {
	Method string `json:"method" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	PaidOn string `json:"paid_on"` // defaults to today
}

type OrderTotals struct {
	ItemsTotal string `json:"items_total"`
	Total      string `json:"total"`
	TotalPaid  string `json:"total_paid"`
	Balance    string `json:"balance"`
}

type OrderResponse struct {
	Order  *model.WorkOrder `json:"order"`
	Totals OrderTotals      `json:"totals"`
}

// --- Interface ---

type WorkOrderService interface {
	Create(ctx context.Context, actor *model.User, req CreateOrderRequest) (*OrderResponse, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*OrderResponse, error)
	List(ctx context.Context, actor *model.User, filter repository.OrderFilter, page, limit int) ([]model.WorkOrder, int64, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error)

	AddItem(ctx context.Context, actor *model.User, orderID uuid.UUID, req AddItemRequest) (*OrderResponse, error)
	UpdateItem(ctx context.Context, actor *model.User, orderID, itemID uuid.UUID, req UpdateItemRequest) (*OrderResponse, error)
	RemoveItem(ctx context.Context, actor *model.User, orderID, itemID uuid.UUID) (*OrderResponse, error)
	AddPayment(ctx context.Context, actor *model.User, orderID uuid.UUID, req AddPaymentRequest) (*OrderResponse, error)
	RemovePayment(ctx context.Context, actor *model.User, orderID, paymentID uuid.UUID) (*OrderResponse, error)

	ListLogs(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]model.WorkOrderLog, error)
}

type workOrderService struct {
	orderRepo repository.WorkOrderRepository
	txManager repository.TransactionManager
	events    OrderEventPublisher
	now       func() time.Time
}

// OrderEventPublisher receives status-change notifications for live
// listeners. A nil publisher disables broadcasting.
type OrderEventPublisher interface {
	PublishOrderStatus(companyID, orderID uuid.UUID, status string)
}

func NewWorkOrderService(orderRepo repository.WorkOrderRepository, txManager repository.TransactionManager, events OrderEventPublisher) WorkOrderService {
	return &workOrderService{
		orderRepo: orderRepo,
		txManager: txManager,
		events:    events,
		now:       time.Now,
	}
}

// companyOf resolves the acting user's company; employees and managers
// always have one, superusers acting here must pick a company elsewhere.
func companyOf(actor *model.User) (uuid.UUID, error) {
	if actor == nil || actor.CompanyID == nil {
		return uuid.Nil, apperror.NotFound("work order")
	}
	return *actor.CompanyID, nil
}

func translateNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity)
	}
	return err
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.NewValidation(field, "invalid amount")
	}
	if value.IsNegative() {
		return decimal.Zero, apperror.NewValidation(field, "must not be negative")
	}
	return value, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.NewValidation(field, "expected YYYY-MM-DD")
	}
	return &parsed, nil
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.NewValidation(field, "invalid id")
	}
	return &parsed, nil
}

// applyStatusSideEffects mutates the order for a status change and
// returns the audit actions to append once the write commits.
//
// Entering IN_PROGRESS for the first time stamps started_at; entering
// FINALIZED stamps finalized_at/finalized_by and sets the delivery date
// to today; entering CANCELLED also closes out the delivery date. While
// the order stays in a working status the delivery date tracks whatever
// the user set (or nothing).
func (s *workOrderService) applyStatusSideEffects(order *model.WorkOrder, previousStatus string, actor *model.User) []string {
	var actions []string
	now := s.now()

	if order.Status == model.OrderStatusInProgress && previousStatus != order.Status && order.StartedAt == nil {
		order.StartedAt = &now
		actions = append(actions, model.AuditActionStart)
	}
	if order.Status == model.OrderStatusFinalized && previousStatus != order.Status {
		order.FinalizedAt = &now
		if actor != nil {
			id := actor.ID
			order.FinalizedByID = &id
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		order.ExpectedDelivery = &today
		actions = append(actions, model.AuditActionFinalize)
	}
	if order.Status == model.OrderStatusCancelled && previousStatus != order.Status {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		order.ExpectedDelivery = &today
		actions = append(actions, model.AuditActionCancel)
	}
	return actions
}

func (s *workOrderService) appendLogs(ctx context.Context, order *model.WorkOrder, actor *model.User, actions []string) error {
	for _, action := range actions {
		entry := &model.WorkOrderLog{
			CompanyID: order.CompanyID,
			OrderID:   order.ID,
			Action:    action,
		}
		if actor != nil {
			id := actor.ID
			entry.UserID = &id
		}
		if err := s.orderRepo.AppendLog(ctx, entry); err != nil {
			return fmt.Errorf("failed to append audit log: %w", err)
		}
	}
	return nil
}

func (s *workOrderService) Create(ctx context.Context, actor *model.User, req CreateOrderRequest) (*OrderResponse, error) {
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

	status := req.Status
	if status == "" {
		status = model.OrderStatusOpen
	}
	if !model.ValidOrderStatus(status) {
		return nil, apperror.NewValidation("status", "unknown status")
	}

	laborCost, err := parseMoney("labor_cost", req.LaborCost)
	if err != nil {
		return nil, err
	}
	discount, err := parseMoney("discount", req.Discount)
	if err != nil {
		return nil, err
	}

	entryDate, err := parseDate("entry_date", req.EntryDate)
	if err != nil {
		return nil, err
	}
	if entryDate == nil {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		entryDate = &today
	}
	expectedDelivery, err := parseDate("expected_delivery", req.ExpectedDelivery)
	if err != nil {
		return nil, err
	}

	responsibleID, err := parseOptionalUUID("responsible_id", req.ResponsibleID)
	if err != nil {
		return nil, err
	}
	// Orders always answer to someone: default to the creator.
	if responsibleID == nil {
		id := actor.ID
		responsibleID = &id
	}
	executorID, err := parseOptionalUUID("executor_id", req.ExecutorID)
	if err != nil {
		return nil, err
	}

	actorID := actor.ID
	order := &model.WorkOrder{
		CompanyID:        companyID,
		ClientID:         clientID,
		VehicleID:        vehicleID,
		ResponsibleID:    responsibleID,
		ExecutorID:       executorID,
		CreatedByID:      &actorID,
		Status:           model.OrderStatusOpen,
		EntryDate:        *entryDate,
		ExpectedDelivery: expectedDelivery,
		Problem:          req.Problem,
		Diagnosis:        req.Diagnosis,
		Notes:            req.Notes,
		Attachment:       req.Attachment,
		LaborCost:        laborCost,
		Discount:         discount,
	}

	// An order may be born directly into a working status.
	order.Status = status
	actions := s.applyStatusSideEffects(order, model.OrderStatusOpen, actor)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.orderRepo.Create(txCtx, order); createErr != nil {
			return createErr
		}
		logActions := []string{model.AuditActionCreate}
		if order.ResponsibleID != nil {
			logActions = append(logActions, model.AuditActionAssign)
		}
		logActions = append(logActions, actions...)
		return s.appendLogs(txCtx, order, actor, logActions)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatus(order)
	return s.Get(ctx, actor, order.ID)
}

func (s *workOrderService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "work order")
	}
	// Employees only reach orders they answer for.
	if !model.IsManagerUser(actor) {
		if order.ResponsibleID == nil || *order.ResponsibleID != actor.ID {
			return nil, apperror.NotFound("work order")
		}
	}

	return s.buildResponse(ctx, order)
}

func (s *workOrderService) buildResponse(ctx context.Context, order *model.WorkOrder) (*OrderResponse, error) {
	total := order.Total()

	// Refresh the display cache when it drifted from the recomputed total.
	if order.TotalCache == nil || !order.TotalCache.Equal(total) {
		if err := s.orderRepo.UpdateTotalCache(ctx, order.ID, order.CompanyID, total.StringFixed(2)); err != nil {
			return nil, err
		}
		cached := total
		order.TotalCache = &cached
	}

	return &OrderResponse{
		Order: order,
		Totals: OrderTotals{
			ItemsTotal: order.ItemsTotal().StringFixed(2),
			Total:      total.StringFixed(2),
			TotalPaid:  order.TotalPaid().StringFixed(2),
			Balance:    order.Balance().StringFixed(2),
		},
	}, nil
}

func (s *workOrderService) List(ctx context.Context, actor *model.User, filter repository.OrderFilter, page, limit int) ([]model.WorkOrder, int64, error) {
	if actor == nil {
		return nil, 0, apperror.Forbidden("authentication required")
	}
	if actor.CompanyID == nil {
		// A caller without a company (and not superuser) sees nothing,
		// never an error and never another company's rows.
		return []model.WorkOrder{}, 0, nil
	}
	if !model.IsManagerUser(actor) {
		id := actor.ID
		filter.ResponsibleID = &id
	}
	return s.orderRepo.List(ctx, *actor.CompanyID, filter, page, limit)
}

func (s *workOrderService) Update(ctx context.Context, actor *model.User, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, translateNotFound(err, "work order")
	}
	if !model.IsManagerUser(actor) {
		if order.ResponsibleID == nil || *order.ResponsibleID != actor.ID {
			return nil, apperror.NotFound("work order")
		}
	}

	previousStatus := order.Status
	previousResponsible := order.ResponsibleID

	if req.Status != nil {
		if !model.ValidOrderStatus(*req.Status) {
			return nil, apperror.NewValidation("status", "unknown status")
		}
		if !model.ValidTransition(order.Status, *req.Status) {
			return nil, apperror.NewValidation("status",
				fmt.Sprintf("cannot move from %s to %s", order.Status, *req.Status))
		}
		order.Status = *req.Status
	}
	if req.ResponsibleID != nil {
		responsibleID, parseErr := parseOptionalUUID("responsible_id", *req.ResponsibleID)
		if parseErr != nil {
			return nil, parseErr
		}
		order.ResponsibleID = responsibleID
	}
	if req.ExecutorID != nil {
		executorID, parseErr := parseOptionalUUID("executor_id", *req.ExecutorID)
		if parseErr != nil {
			return nil, parseErr
		}
		order.ExecutorID = executorID
	}
	if req.ExpectedDelivery != nil {
		expected, parseErr := parseDate("expected_delivery", *req.ExpectedDelivery)
		if parseErr != nil {
			return nil, parseErr
		}
		order.ExpectedDelivery = expected
	}
	if req.Problem != nil {
		order.Problem = *req.Problem
	}
	if req.Diagnosis != nil {
		order.Diagnosis = *req.Diagnosis
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.Attachment != nil {
		order.Attachment = *req.Attachment
	}
	if req.LaborCost != nil {
		laborCost, parseErr := parseMoney("labor_cost", *req.LaborCost)
		if parseErr != nil {
			return nil, parseErr
		}
		order.LaborCost = laborCost
	}
	if req.Discount != nil {
		discount, parseErr := parseMoney("discount", *req.Discount)
		if parseErr != nil {
			return nil, parseErr
		}
		order.Discount = discount
	}

	actions := s.applyStatusSideEffects(order, previousStatus, actor)
	responsibleChanged := !uuidPtrEqual(previousResponsible, order.ResponsibleID)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Associations stay untouched on update; only the order row moves.
		order.Items = nil
		order.Payments = nil
		order.Client = nil
		order.Vehicle = nil
		order.Responsible = nil
		order.Executor = nil
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return updateErr
		}

		var logActions []string
		if responsibleChanged && order.ResponsibleID != nil {
			logActions = append(logActions, model.AuditActionAssign)
		}
		logActions = append(logActions, actions...)
		// Every mutation leaves a trace: a no-op on status and assignment
		// still gets an EDIT entry.
		if len(logActions) == 0 {
			logActions = append(logActions, model.AuditActionEdit)
		}
		return s.appendLogs(txCtx, order, actor, logActions)
	})
	if err != nil {
		return nil, err
	}

	if order.Status != previousStatus {
		s.publishStatus(order)
	}
	return s.Get(ctx, actor, order.ID)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *workOrderService) AddItem(ctx context.Context, actor *model.User, orderID uuid.UUID, req AddItemRequest) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID, companyID)
	if err != nil {
		return nil, translateNotFound(err, "work order")
	}
	if !model.IsManagerUser(actor) {
		if order.ResponsibleID == nil || *order.ResponsibleID != actor.ID {
			return nil, apperror.NotFound("work order")
		}
	}

	quantity, err := parseMoney("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	unitPrice, err := parseMoney("unit_price", req.UnitPrice)
	if err != nil {
		return nil, err
	}
	productID, err := parseOptionalUUID("product_id", req.ProductID)
	if err != nil {
		return nil, err
	}

	item := &model.WorkOrderItem{
		CompanyID:   companyID,
		OrderID:     order.ID,
		ProductID:   productID,
		Description: req.Description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.orderRepo.CreateItem(txCtx, item)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, order.ID)
}

func (s *workOrderService) UpdateItem(ctx context.Context, actor *model.User, orderID, itemID uuid.UUID, req UpdateItemRequest) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	item, err := s.orderRepo.GetItem(ctx, itemID, companyID)
	if err != nil {
		return nil, translateNotFound(err, "order item")
	}
	if item.OrderID != orderID {
		return nil, apperror.NotFound("order item")
	}

	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Quantity != nil {
		quantity, err := parseMoney("quantity", *req.Quantity)
		if err != nil {
			return nil, err
		}
		item.Quantity = quantity
	}
	if req.UnitPrice != nil {
		unitPrice, err := parseMoney("unit_price", *req.UnitPrice)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = unitPrice
	}

	// BeforeSave recomputes the subtotal from the new quantity and price.
	if err := s.orderRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, orderID)
}

func (s *workOrderService) RemoveItem(ctx context.Context, actor *model.User, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	item, err := s.orderRepo.GetItem(ctx, itemID, companyID)
	if err != nil {
		return nil, translateNotFound(err, "order item")
	}
	if item.OrderID != orderID {
		return nil, apperror.NotFound("order item")
	}

	if err := s.orderRepo.DeleteItem(ctx, itemID, companyID); err != nil {
		return nil, translateNotFound(err, "order item")
	}

	return s.Get(ctx, actor, orderID)
}

func (s *workOrderService) AddPayment(ctx context.Context, actor *model.User, orderID uuid.UUID, req AddPaymentRequest) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID, companyID)
	if err != nil {
		return nil, translateNotFound(err, "work order")
	}
	if !model.IsManagerUser(actor) {
		if order.ResponsibleID == nil || *order.ResponsibleID != actor.ID {
			return nil, apperror.NotFound("work order")
		}
	}

	if !model.ValidPaymentMethod(req.Method) {
		return nil, apperror.NewValidation("method", "unknown payment method")
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	paidOn, err := parseDate("paid_on", req.PaidOn)
	if err != nil {
		return nil, err
	}
	if paidOn == nil {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		paidOn = &today
	}

	payment := &model.Payment{
		CompanyID: companyID,
		OrderID:   order.ID,
		Method:    req.Method,
		Amount:    amount,
		PaidOn:    *paidOn,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.orderRepo.CreatePayment(txCtx, payment)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, order.ID)
}

func (s *workOrderService) RemovePayment(ctx context.Context, actor *model.User, orderID, paymentID uuid.UUID) (*OrderResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	payment, err := s.orderRepo.GetPayment(ctx, paymentID, companyID)
	if err != nil {
		return nil, translateNotFound(err, "payment")
	}
	if payment.OrderID != orderID {
		return nil, apperror.NotFound("payment")
	}

	if err := s.orderRepo.DeletePayment(ctx, paymentID, companyID); err != nil {
		return nil, translateNotFound(err, "payment")
	}

	return s.Get(ctx, actor, orderID)
}

// ListLogs returns the order's audit trail, newest first. Manager only;
// handlers enforce the role, the service re-checks tenant reach.
func (s *workOrderService) ListLogs(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]model.WorkOrderLog, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.orderRepo.GetByID(ctx, orderID, companyID); err != nil {
		return nil, translateNotFound(err, "work order")
	}
	return s.orderRepo.ListLogs(ctx, orderID, companyID)
}

func (s *workOrderService) publishStatus(order *model.WorkOrder) {
	if s.events != nil {
		s.events.PublishOrderStatus(order.CompanyID, order.ID, order.Status)
	}
}

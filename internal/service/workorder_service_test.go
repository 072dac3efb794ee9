package service

import (
	"context"
	"testing"

	"oficina/internal/apperror"
	"oficina/internal/model"
	"oficina/internal/repository"
	"oficina/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db      *gorm.DB
	svc     WorkOrderService
	company *model.Company
	manager *model.User
	client  *model.Client
	vehicle *model.Vehicle
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := testutil.NewDB(t)
	company := testutil.NewCompany(t, db, "Oficina do Zé")
	manager := testutil.NewUser(t, db, company, "ze", true)
	client := testutil.NewClient(t, db, company, "Maria")
	vehicle := testutil.NewVehicle(t, db, company, client, "ABC1D23")

	svc := NewWorkOrderService(repository.NewWorkOrderRepository(db), repository.NewTransactionManager(db), nil)
	return &orderFixture{db: db, svc: svc, company: company, manager: manager, client: client, vehicle: vehicle}
}

func (f *orderFixture) createOrder(t *testing.T, actor *model.User, req CreateOrderRequest) *OrderResponse {
	t.Helper()
	if req.ClientID == "" {
		req.ClientID = f.client.ID.String()
	}
	if req.VehicleID == "" {
		req.VehicleID = f.vehicle.ID.String()
	}
	if req.Problem == "" {
		req.Problem = "engine noise"
	}
	resp, err := f.svc.Create(context.Background(), actor, req)
	require.NoError(t, err)
	return resp
}

func TestOrderCreateDefaults(t *testing.T) {
	f := newOrderFixture(t)

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})

	assert.Equal(t, model.OrderStatusOpen, resp.Order.Status)
	require.NotNil(t, resp.Order.ResponsibleID)
	assert.Equal(t, f.manager.ID, *resp.Order.ResponsibleID)
	require.NotNil(t, resp.Order.CreatedByID)
	assert.Equal(t, f.manager.ID, *resp.Order.CreatedByID)
	assert.False(t, resp.Order.EntryDate.IsZero())

	logs, err := f.svc.ListLogs(context.Background(), f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.AuditActionCreate, model.AuditActionAssign}, logActions(logs))
}

func TestOrderTotalsAndBalance(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{LaborCost: "150.00"})

	resp, err := f.svc.AddItem(ctx, f.manager, resp.Order.ID, AddItemRequest{
		Description: "oil filter",
		Quantity:    "2",
		UnitPrice:   "45.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "90.00", resp.Totals.ItemsTotal)
	assert.Equal(t, "240.00", resp.Totals.Total)

	resp, err = f.svc.AddPayment(ctx, f.manager, resp.Order.ID, AddPaymentRequest{
		Method: model.PaymentMethodPix,
		Amount: "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", resp.Totals.TotalPaid)
	assert.Equal(t, "140.00", resp.Totals.Balance)

	// The display cache follows the recomputed total.
	require.NotNil(t, resp.Order.TotalCache)
	assert.Equal(t, "240.00", resp.Order.TotalCache.StringFixed(2))
}

func TestOrderItemSubtotalRecomputed(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	resp, err := f.svc.AddItem(ctx, f.manager, resp.Order.ID, AddItemRequest{
		Description: "brake pads",
		Quantity:    "4",
		UnitPrice:   "25.50",
	})
	require.NoError(t, err)

	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "102.00", resp.Order.Items[0].Subtotal.StringFixed(2))
}

func TestOrderUpdateItemRecomputesTotals(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	resp, err := f.svc.AddItem(ctx, f.manager, resp.Order.ID, AddItemRequest{
		Description: "brake pads", Quantity: "2", UnitPrice: "25.00",
	})
	require.NoError(t, err)

	quantity := "4"
	price := "30.00"
	resp, err = f.svc.UpdateItem(ctx, f.manager, resp.Order.ID, resp.Order.Items[0].ID, UpdateItemRequest{
		Quantity:  &quantity,
		UnitPrice: &price,
	})
	require.NoError(t, err)

	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "120.00", resp.Order.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "120.00", resp.Totals.ItemsTotal)

	// An item from another order is out of reach under this order's path.
	other := f.createOrder(t, f.manager, CreateOrderRequest{})
	_, err = f.svc.UpdateItem(ctx, f.manager, other.Order.ID, resp.Order.Items[0].ID, UpdateItemRequest{Quantity: &quantity})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOrderRemovePaymentRestoresBalance(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{LaborCost: "200.00"})
	resp, err := f.svc.AddPayment(ctx, f.manager, resp.Order.ID, AddPaymentRequest{
		Method: model.PaymentMethodCash,
		Amount: "80.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "120.00", resp.Totals.Balance)
	require.Len(t, resp.Order.Payments, 1)

	resp, err = f.svc.RemovePayment(ctx, f.manager, resp.Order.ID, resp.Order.Payments[0].ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Order.Payments)
	assert.Equal(t, "0.00", resp.Totals.TotalPaid)
	assert.Equal(t, "200.00", resp.Totals.Balance)

	_, err = f.svc.RemovePayment(ctx, f.manager, resp.Order.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOrderRemoveItem(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	resp, err := f.svc.AddItem(ctx, f.manager, resp.Order.ID, AddItemRequest{
		Description: "wiper blades", Quantity: "1", UnitPrice: "30",
	})
	require.NoError(t, err)
	require.Len(t, resp.Order.Items, 1)

	resp, err = f.svc.RemoveItem(ctx, f.manager, resp.Order.ID, resp.Order.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Order.Items)
	assert.Equal(t, "0.00", resp.Totals.ItemsTotal)
}

func TestOrderStartStampsOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})

	inProgress := model.OrderStatusInProgress
	resp, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &inProgress})
	require.NoError(t, err)
	require.NotNil(t, resp.Order.StartedAt)
	firstStart := *resp.Order.StartedAt

	// Parking the order for parts and resuming must not re-stamp the start.
	awaiting := model.OrderStatusAwaitingParts
	_, err = f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &awaiting})
	require.NoError(t, err)
	resp, err = f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &inProgress})
	require.NoError(t, err)
	require.NotNil(t, resp.Order.StartedAt)
	assert.True(t, firstStart.Equal(*resp.Order.StartedAt))

	logs, err := f.svc.ListLogs(ctx, f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countAction(logs, model.AuditActionStart))
}

func TestOrderFinalizeStamps(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	finalized := model.OrderStatusFinalized
	resp, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &finalized})
	require.NoError(t, err)

	require.NotNil(t, resp.Order.FinalizedAt)
	require.NotNil(t, resp.Order.FinalizedByID)
	assert.Equal(t, f.manager.ID, *resp.Order.FinalizedByID)
	require.NotNil(t, resp.Order.ExpectedDelivery)

	logs, err := f.svc.ListLogs(ctx, f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countAction(logs, model.AuditActionFinalize))
}

func TestOrderCancelClosesDelivery(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	cancelled := model.OrderStatusCancelled
	resp, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &cancelled})
	require.NoError(t, err)

	require.NotNil(t, resp.Order.ExpectedDelivery)
	assert.Nil(t, resp.Order.FinalizedAt)

	logs, err := f.svc.ListLogs(ctx, f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countAction(logs, model.AuditActionCancel))
}

func TestOrderInvalidTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	inProgress := model.OrderStatusInProgress
	_, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &inProgress})
	require.NoError(t, err)

	open := model.OrderStatusOpen
	_, err = f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &open})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok, "reopening a started order must be rejected")

	finalized := model.OrderStatusFinalized
	_, err = f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &finalized})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Status: &inProgress})
	_, ok = apperror.AsValidation(err)
	assert.True(t, ok, "finalized orders are terminal")
}

func TestOrderEditLoggedWhenNothingElseApplies(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	notes := "customer called"
	_, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{Notes: &notes})
	require.NoError(t, err)

	logs, err := f.svc.ListLogs(ctx, f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countAction(logs, model.AuditActionEdit))
}

func TestOrderReassignLogged(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mechanic := testutil.NewUser(t, f.db, f.company, "joao", false)

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	newResponsible := mechanic.ID.String()
	resp, err := f.svc.Update(ctx, f.manager, resp.Order.ID, UpdateOrderRequest{ResponsibleID: &newResponsible})
	require.NoError(t, err)
	require.NotNil(t, resp.Order.ResponsibleID)
	assert.Equal(t, mechanic.ID, *resp.Order.ResponsibleID)

	logs, err := f.svc.ListLogs(ctx, f.manager, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, countAction(logs, model.AuditActionAssign))
}

func TestOrderTenantIsolation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})

	other := testutil.NewCompany(t, f.db, "Concorrente")
	intruder := testutil.NewUser(t, f.db, other, "rival", true)

	_, err := f.svc.Get(ctx, intruder, resp.Order.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	status := model.OrderStatusCancelled
	_, err = f.svc.Update(ctx, intruder, resp.Order.ID, UpdateOrderRequest{Status: &status})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	orders, total, err := f.svc.List(ctx, intruder, repository.OrderFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestOrderEmployeeVisibility(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mechanicA := testutil.NewUser(t, f.db, f.company, "ana", false)
	mechanicB := testutil.NewUser(t, f.db, f.company, "bia", false)

	mine := f.createOrder(t, f.manager, CreateOrderRequest{ResponsibleID: mechanicA.ID.String()})
	f.createOrder(t, f.manager, CreateOrderRequest{ResponsibleID: mechanicB.ID.String()})

	// A mechanic only reaches orders assigned to them; everything else
	// reads as nonexistent, not forbidden.
	_, err := f.svc.Get(ctx, mechanicA, mine.Order.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, mechanicB, mine.Order.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	orders, total, err := f.svc.List(ctx, mechanicA, repository.OrderFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.Order.ID, orders[0].ID)

	// Managers see the whole company.
	_, total, err = f.svc.List(ctx, f.manager, repository.OrderFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestOrderListStatusFilter(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first := f.createOrder(t, f.manager, CreateOrderRequest{})
	f.createOrder(t, f.manager, CreateOrderRequest{})

	inProgress := model.OrderStatusInProgress
	_, err := f.svc.Update(ctx, f.manager, first.Order.ID, UpdateOrderRequest{Status: &inProgress})
	require.NoError(t, err)

	orders, total, err := f.svc.List(ctx, f.manager, repository.OrderFilter{Status: model.OrderStatusInProgress}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, first.Order.ID, orders[0].ID)
}

func TestOrderNegativeMoneyRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.manager, CreateOrderRequest{
		ClientID:  f.client.ID.String(),
		VehicleID: f.vehicle.ID.String(),
		Problem:   "dent",
		LaborCost: "-10",
	})
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)

	resp := f.createOrder(t, f.manager, CreateOrderRequest{})
	_, err = f.svc.AddPayment(ctx, f.manager, resp.Order.ID, AddPaymentRequest{
		Method: model.PaymentMethodCash,
		Amount: "-5",
	})
	_, ok = apperror.AsValidation(err)
	assert.True(t, ok)

	_, err = f.svc.AddPayment(ctx, f.manager, resp.Order.ID, AddPaymentRequest{
		Method: "BARTER",
		Amount: "5",
	})
	_, ok = apperror.AsValidation(err)
	assert.True(t, ok)
}

func TestOrderGetUnknownID(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Get(context.Background(), f.manager, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func logActions(logs []model.WorkOrderLog) []string {
	actions := make([]string, 0, len(logs))
	for _, entry := range logs {
		actions = append(actions, entry.Action)
	}
	return actions
}

func countAction(logs []model.WorkOrderLog, action string) int {
	count := 0
	for _, entry := range logs {
		if entry.Action == action {
			count++
		}
	}
	return count
}

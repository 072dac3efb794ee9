package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WorkOrder status constants
const (
	OrderStatusOpen          = "OPEN"
	OrderStatusInProgress    = "IN_PROGRESS"
	OrderStatusAwaitingParts = "AWAITING_PARTS"
	OrderStatusFinalized     = "FINALIZED"
	OrderStatusCancelled     = "CANCELLED"
)

// Audit actions
const (
	AuditActionCreate   = "CREATE"
	AuditActionAssign   = "ASSIGN"
	AuditActionStart    = "START"
	AuditActionFinalize = "FINALIZE"
	AuditActionCancel   = "CANCEL"
	AuditActionEdit     = "EDIT"
)

// validTransitions is the strict lifecycle matrix. FINALIZED and CANCELLED
// are terminal; AWAITING_PARTS is lateral and re-enterable.
var validTransitions = map[string][]string{
	OrderStatusOpen:          {OrderStatusInProgress, OrderStatusAwaitingParts, OrderStatusFinalized, OrderStatusCancelled},
	OrderStatusInProgress:    {OrderStatusAwaitingParts, OrderStatusFinalized, OrderStatusCancelled},
	OrderStatusAwaitingParts: {OrderStatusInProgress, OrderStatusFinalized, OrderStatusCancelled},
	OrderStatusFinalized:     {},
	OrderStatusCancelled:     {},
}

// ValidOrderStatus reports whether status is a known lifecycle state.
func ValidOrderStatus(status string) bool {
	_, ok := validTransitions[status]
	return ok
}

// ValidTransition reports whether a work order may move from one status to
// another. Staying put is always allowed.
func ValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether a status ends the lifecycle.
func TerminalStatus(status string) bool {
	return status == OrderStatusFinalized || status == OrderStatusCancelled
}

// WorkOrder is a service order for a client's vehicle.
type WorkOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client    *Client   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle   *Vehicle  `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`

	// ResponsibleID is the user answering for the order; employees only see
	// orders where they are responsible. ExecutorID is the mechanic doing
	// the work. All three user refs are weak: removing the user keeps the
	// order.
	ResponsibleID *uuid.UUID `gorm:"type:uuid;index" json:"responsible_id"`
	Responsible   *User      `gorm:"foreignKey:ResponsibleID;constraint:OnDelete:SET NULL" json:"responsible,omitempty"`
	ExecutorID    *uuid.UUID `gorm:"type:uuid;index" json:"executor_id"`
	Executor      *Employee  `gorm:"foreignKey:ExecutorID;constraint:OnDelete:SET NULL" json:"executor,omitempty"`
	CreatedByID   *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	FinalizedByID *uuid.UUID `gorm:"type:uuid" json:"finalized_by_id"`

	Status           string     `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	EntryDate        time.Time  `gorm:"type:date;not null" json:"entry_date"`
	ExpectedDelivery *time.Time `gorm:"type:date" json:"expected_delivery"`
	StartedAt        *time.Time `json:"started_at"`
	FinalizedAt      *time.Time `json:"finalized_at"`

	Problem   string `gorm:"type:text;not null" json:"problem"`
	Diagnosis string `gorm:"type:text" json:"diagnosis"`
	Notes     string `gorm:"type:text" json:"notes"`
	// Attachment holds a stored file path or URL; upload handling lives
	// outside this service.
	Attachment string `gorm:"type:varchar(255)" json:"attachment"`

	LaborCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"labor_cost"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	// TotalCache is a display convenience only; the authoritative total is
	// always recomputed from items + labor - discount.
	TotalCache *decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_cache"`

	Items    []WorkOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ItemsTotal sums the loaded line-item subtotals.
func (o *WorkOrder) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Total is items + labor - discount.
func (o *WorkOrder) Total() decimal.Decimal {
	return o.ItemsTotal().Add(o.LaborCost).Sub(o.Discount)
}

// TotalPaid sums the loaded payments.
func (o *WorkOrder) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Balance is what the client still owes.
func (o *WorkOrder) Balance() decimal.Decimal {
	return o.Total().Sub(o.TotalPaid())
}

// WorkOrderItem is a billed line on an order. ProductID is a weak
// reference: deleting the product nulls it but keeps the line.
type WorkOrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`

	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *WorkOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BeforeSave enforces subtotal = quantity * unit price on every write.
func (i *WorkOrderItem) BeforeSave(tx *gorm.DB) error {
	i.Subtotal = i.Quantity.Mul(i.UnitPrice)
	return nil
}

// Payment method constants
const (
	PaymentMethodDebit  = "DEBIT_CARD"
	PaymentMethodCredit = "CREDIT_CARD"
	PaymentMethodCash   = "CASH"
	PaymentMethodPix    = "PIX"
	PaymentMethodCheque = "CHEQUE"
	PaymentMethodOther  = "OTHER"
)

// ValidPaymentMethod reports whether method is a known payment method.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodDebit, PaymentMethodCredit, PaymentMethodCash,
		PaymentMethodPix, PaymentMethodCheque, PaymentMethodOther:
		return true
	}
	return false
}

// Payment records money received against a work order.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`

	Method string          `gorm:"type:varchar(30);not null" json:"method"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidOn time.Time       `gorm:"type:date;not null" json:"paid_on"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// WorkOrderLog is the append-only audit trail. UserID is weak: removing
// the acting user keeps the entry.
type WorkOrderLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`

	Action string `gorm:"type:varchar(30);not null" json:"action"`
	Note   string `gorm:"type:text" json:"note"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *WorkOrderLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

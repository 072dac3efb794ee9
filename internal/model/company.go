package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan tier constants
const (
	PlanBasic = "BASIC"
	PlanPlus  = "PLUS"
)

// Plan period constants (billing cycle keys stored as-is)
const (
	PlanPeriodMonthly    = "30d"
	PlanPeriodSemiannual = "6m"
	PlanPeriodAnnual     = "12m"
)

// planPeriodDays maps a billing cycle to its length in days.
var planPeriodDays = map[string]int{
	PlanPeriodMonthly:    30,
	PlanPeriodSemiannual: 182,
	PlanPeriodAnnual:     365,
}

// PlanPeriodDays returns the expiration window for a period key,
// defaulting to the monthly window for unknown keys.
func PlanPeriodDays(period string) int {
	if days, ok := planPeriodDays[period]; ok {
		return days
	}
	return 30
}

// ValidPlanPeriod reports whether period is a known billing cycle key.
func ValidPlanPeriod(period string) bool {
	_, ok := planPeriodDays[period]
	return ok
}

// Company is the tenant. Every business entity in the system carries a
// CompanyID and is only reachable through it.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(150);not null" json:"name"`
	TaxID    string    `gorm:"type:varchar(20)" json:"tax_id"`
	Phone    string    `gorm:"type:varchar(20)" json:"phone"`
	Zip      string    `gorm:"type:varchar(12)" json:"zip"`
	Street   string    `gorm:"type:varchar(150)" json:"street"`
	Number   string    `gorm:"type:varchar(20)" json:"number"`
	District string    `gorm:"type:varchar(100)" json:"district"`
	City     string    `gorm:"type:varchar(100)" json:"city"`

	Plan          string     `gorm:"type:varchar(10);not null;default:'BASIC'" json:"plan"`
	PlanPeriod    string     `gorm:"type:varchar(3);not null;default:'30d'" json:"plan_period"`
	PlanUpdatedAt *time.Time `json:"plan_updated_at"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`

	// IsActive is a cached flag: (not expired) AND payment confirmed.
	// Recomputed via RecomputePlanStatus on every save and every
	// authenticated request; never trusted as authoritative. No column
	// default: a default tag would make GORM drop an explicit false on
	// insert, and new signups start inactive.
	IsActive         bool `json:"is_active"`
	PaymentConfirmed bool `gorm:"default:false" json:"payment_confirmed"`

	// Pending renewal request, applied only by superuser approval.
	RenewalPeriod      string     `gorm:"type:varchar(3)" json:"renewal_period"`
	RenewalRequestedAt *time.Time `json:"renewal_requested_at"`

	// Temporary password for first-login bootstrap, cleared once the
	// access-released email goes out.
	TempPassword string `gorm:"type:varchar(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// MaxActiveUsers is the plan's active user limit.
func (c *Company) MaxActiveUsers() int {
	if c.Plan == PlanPlus {
		return 30
	}
	return 6
}

// MaxManagers is the plan's active manager limit.
func (c *Company) MaxManagers() int {
	if c.Plan == PlanPlus {
		return 3
	}
	return 1
}

// PlanExpiresCalculated returns the stored expiration, falling back to
// plan_updated_at (or created_at) plus the period window when unset.
func (c *Company) PlanExpiresCalculated() *time.Time {
	if c.PlanExpiresAt != nil {
		return c.PlanExpiresAt
	}
	base := c.PlanUpdatedAt
	if base == nil {
		if c.CreatedAt.IsZero() {
			return nil
		}
		base = &c.CreatedAt
	}
	expires := base.AddDate(0, 0, PlanPeriodDays(c.PlanPeriod))
	return &expires
}

// PlanExpired reports whether the plan has expired as of now.
// The expiration day itself counts as expired.
func (c *Company) PlanExpired(now time.Time) bool {
	expires := c.PlanExpiresCalculated()
	if expires == nil {
		return false
	}
	expDay := time.Date(expires.Year(), expires.Month(), expires.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !expDay.After(today)
}

// DaysUntilExpiration returns whole days until the plan expires, negative
// once past, or nil when no expiration can be derived.
func (c *Company) DaysUntilExpiration(now time.Time) *int {
	expires := c.PlanExpiresCalculated()
	if expires == nil {
		return nil
	}
	expDay := time.Date(expires.Year(), expires.Month(), expires.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(expDay.Sub(today).Hours() / 24)
	return &days
}

// RecomputePlanStatus derives plan_expires_at and is_active from the plan
// fields. It is pure with respect to persistence: callers decide when to
// save. planChanged forces plan_updated_at to now and a fresh expiration.
func RecomputePlanStatus(c *Company, now time.Time, planChanged bool) {
	if c.PlanUpdatedAt == nil || planChanged {
		updated := now
		c.PlanUpdatedAt = &updated
	}
	if c.PlanExpiresAt == nil || planChanged {
		expires := c.PlanUpdatedAt.AddDate(0, 0, PlanPeriodDays(c.PlanPeriod))
		c.PlanExpiresAt = &expires
	}
	c.IsActive = !c.PlanExpired(now) && c.PaymentConfirmed
}

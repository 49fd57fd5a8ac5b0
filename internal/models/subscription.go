package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubscriptionStatus tracks where a subscription sits in its lifecycle
type SubscriptionStatus string

const (
	SubscriptionUnbound    SubscriptionStatus = "unbound"
	SubscriptionBound      SubscriptionStatus = "bound"
	SubscriptionRenewed    SubscriptionStatus = "renewed"
	SubscriptionReassigned SubscriptionStatus = "reassigned"
	SubscriptionExpired    SubscriptionStatus = "expired"
	SubscriptionReleased   SubscriptionStatus = "released"
)

// Reservation records exactly what a bound subscription debited from
// its server, so release and reassignment credit back the same
// amounts. GpuByModel maps GPU model name to reserved memory GB.
type Reservation struct {
	Cores      int              `json:"cores"`
	RamGB      int64            `json:"ram_gb"`
	HdGB       int64            `json:"hd_gb"`
	SsdGB      int64            `json:"ssd_gb"`
	GpuByModel map[string]int64 `json:"gpu_by_model,omitempty"`
}

// Value implements driver.Valuer so GORM stores the reservation as JSON
func (r Reservation) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *Reservation) Scan(value interface{}) error {
	if value == nil {
		*r = Reservation{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("failed to scan reservation: unexpected type %T", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, r)
}

// Subscription binds a user's purchased plan to a server for a time
// window. ServerID is nil until a match succeeds.
type Subscription struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	UserID   uint  `gorm:"column:user_id;not null;uniqueIndex:idx_user_plan" json:"user_id"`
	PlanID   uint  `gorm:"column:plan_id;not null;uniqueIndex:idx_user_plan" json:"plan_id"`
	ServerID *uint `gorm:"column:server_id;index" json:"server_id"`

	Status      SubscriptionStatus `gorm:"column:status;size:20;not null;default:'unbound'" json:"status"`
	StartDate   time.Time          `gorm:"column:start_date;not null" json:"start_date"`
	EndDate     time.Time          `gorm:"column:end_date;not null" json:"end_date"`
	Reservation Reservation        `gorm:"column:reservation;type:jsonb" json:"reservation"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Active reports whether the subscription still holds its reservation
func (s *Subscription) Active(now time.Time) bool {
	switch s.Status {
	case SubscriptionExpired, SubscriptionReleased:
		return false
	}
	return s.EndDate.After(now)
}

// Renew extends the subscription window by months without touching any
// capacity counters.
func (s *Subscription) Renew(months int) error {
	if months <= 0 {
		return ErrInvalidQuantity
	}
	s.EndDate = s.EndDate.AddDate(0, months, 0)
	s.Status = SubscriptionRenewed
	return nil
}

// Purchase is an immutable record of a payment event
type Purchase struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	PlanID         uint      `gorm:"column:plan_id;not null" json:"plan_id"`
	SubscriptionID uint      `gorm:"column:subscription_id;not null;index" json:"subscription_id"`
	PaymentRef     string    `gorm:"column:payment_ref;size:64;uniqueIndex" json:"payment_ref"`
	Amount         float64   `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	IsRenewal      bool      `gorm:"column:is_renewal;default:false" json:"is_renewal"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

package models

import "time"

// Plan is a sellable bundle of hardware requirements plus an OS.
// Price is either set by an administrator or auto-computed from the
// current line items and duration.
type Plan struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Title          string  `gorm:"column:title;size:200;not null" json:"title"`
	Price          float64 `gorm:"column:price;type:decimal(15,2);not null;default:0" json:"price"`
	AutoPrice      bool    `gorm:"column:auto_price;default:false" json:"auto_price"`
	DurationMonths int     `gorm:"column:duration_months;not null;default:1" json:"duration_months"`
	CpuModel       string  `gorm:"column:cpu_model;size:100;not null" json:"cpu_model"`
	OsName         string  `gorm:"column:os_name;size:100;not null" json:"os_name"`
	IsPublic       bool    `gorm:"column:is_public;default:true" json:"is_public"`

	Gpus []PlanGpu `gorm:"foreignKey:PlanID" json:"gpus,omitempty"`
	Rams []PlanRam `gorm:"foreignKey:PlanID" json:"rams,omitempty"`
	Hds  []PlanHd  `gorm:"foreignKey:PlanID" json:"hds,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// PlanGpu is one GPU line item of a plan
type PlanGpu struct {
	PlanID   uint   `gorm:"column:plan_id;primaryKey" json:"plan_id"`
	GpuModel string `gorm:"column:gpu_model;primaryKey;size:100" json:"gpu_model"`
	Quantity int    `gorm:"column:quantity;not null" json:"quantity"`
}

// PlanRam is one RAM line item of a plan
type PlanRam struct {
	PlanID   uint   `gorm:"column:plan_id;primaryKey" json:"plan_id"`
	RamModel string `gorm:"column:ram_model;primaryKey;size:100" json:"ram_model"`
	Quantity int    `gorm:"column:quantity;not null" json:"quantity"`
}

// PlanHd is one disk line item of a plan
type PlanHd struct {
	PlanID   uint   `gorm:"column:plan_id;primaryKey" json:"plan_id"`
	HdModel  string `gorm:"column:hd_model;primaryKey;size:100" json:"hd_model"`
	Quantity int    `gorm:"column:quantity;not null" json:"quantity"`
}

func (Plan) TableName() string {
	return "plans"
}

func (PlanGpu) TableName() string {
	return "plan_gpus"
}

func (PlanRam) TableName() string {
	return "plan_rams"
}

func (PlanHd) TableName() string {
	return "plan_hds"
}

// PriceItem is one line item's contribution to an auto-computed price
type PriceItem struct {
	UnitPrice float64
	Quantity  int
}

// ComputePlanPrice returns the auto price for a plan: the sum of unit
// price times quantity over all line items, plus the CPU price, times
// the duration in months. Reads every current line item rather than
// applying a delta; fine at catalog scale.
func ComputePlanPrice(cpuPrice float64, durationMonths int, items []PriceItem) float64 {
	total := cpuPrice
	for _, it := range items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	price := total * float64(durationMonths)
	if price < 0 {
		return 0
	}
	return price
}

// SetManualPrice disables auto pricing and pins the plan price
func (p *Plan) SetManualPrice(price float64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	p.AutoPrice = false
	p.Price = price
	return nil
}

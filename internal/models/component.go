package models

import "time"

// ComponentKind identifies one of the four hardware catalogs
type ComponentKind string

const (
	ComponentKindCpu ComponentKind = "cpu"
	ComponentKindGpu ComponentKind = "gpu"
	ComponentKindRam ComponentKind = "ram"
	ComponentKindHd  ComponentKind = "hd"
)

// Valid reports whether k names a known component kind
func (k ComponentKind) Valid() bool {
	switch k {
	case ComponentKindCpu, ComponentKindGpu, ComponentKindRam, ComponentKindHd:
		return true
	}
	return false
}

// Stock is the price/stock ledger shared by every component kind.
// Available moves only through Reserve and Release; Total only through
// Restock. 0 <= Available <= Total holds after every successful call.
type Stock struct {
	Price     float64 `gorm:"column:price;type:decimal(15,2);not null" json:"price"`
	Total     int     `gorm:"column:total;not null;default:0" json:"total"`
	Available int     `gorm:"column:available;not null;default:0" json:"available"`
}

// Restock adjusts Total by delta (negative delta removes unsold stock).
// Available follows the same delta so reserved units are never touched.
func (s *Stock) Restock(delta int) error {
	if s.Total+delta < 0 || s.Available+delta < 0 {
		return ErrInvalidQuantity
	}
	s.Total += delta
	s.Available += delta
	return nil
}

// Reserve takes qty units out of the available pool
func (s *Stock) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Available < qty {
		return ErrInsufficientCapacity
	}
	s.Available -= qty
	return nil
}

// Release returns qty units to the available pool
func (s *Stock) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Available+qty > s.Total {
		return ErrInvalidQuantity
	}
	s.Available += qty
	return nil
}

// SetPrice updates the unit price
func (s *Stock) SetPrice(price float64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	s.Price = price
	return nil
}

// Cpu is a processor model in the hardware catalog
type Cpu struct {
	Model     string `gorm:"column:model;primaryKey;size:100" json:"model"`
	Stock     `gorm:"embedded"`
	Cores     int     `gorm:"column:cores;not null" json:"cores"`
	Frequency float64 `gorm:"column:frequency;not null" json:"frequency"` // GHz

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Gpu is a graphics card model in the hardware catalog
type Gpu struct {
	Model     string `gorm:"column:model;primaryKey;size:100" json:"model"`
	Stock     `gorm:"embedded"`
	Frequency float64 `gorm:"column:frequency;not null" json:"frequency"` // GHz
	Memory    int64   `gorm:"column:memory;not null" json:"memory"`       // GB per unit

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Ram is a memory module model in the hardware catalog
type Ram struct {
	Model    string `gorm:"column:model;primaryKey;size:100" json:"model"`
	Stock    `gorm:"embedded"`
	Capacity int64 `gorm:"column:capacity;not null" json:"capacity"` // GB per unit

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Hd is a disk model in the hardware catalog
type Hd struct {
	Model    string `gorm:"column:model;primaryKey;size:100" json:"model"`
	Stock    `gorm:"embedded"`
	Capacity int64 `gorm:"column:capacity;not null" json:"capacity"` // GB per unit
	IsSSD    bool  `gorm:"column:is_ssd;default:false" json:"is_ssd"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Os is an operating system offered with plans and installed on servers
type Os struct {
	Name      string    `gorm:"column:name;primaryKey;size:100" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Cpu) TableName() string {
	return "cpus"
}

func (Gpu) TableName() string {
	return "gpus"
}

func (Ram) TableName() string {
	return "rams"
}

func (Hd) TableName() string {
	return "hds"
}

func (Os) TableName() string {
	return "oses"
}

package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/models"
)

// InventoryService manages the hardware component catalog
type InventoryService struct{}

// NewInventoryService creates a new inventory service
func NewInventoryService() *InventoryService {
	return &InventoryService{}
}

// stockFor loads the component row for kind/model into dst and returns
// a pointer to its embedded stock ledger. dst must be one of the four
// catalog types.
func stockFor(tx *gorm.DB, kind models.ComponentKind, model string) (interface{}, *models.Stock, error) {
	var row interface{}
	var stock *models.Stock
	switch kind {
	case models.ComponentKindCpu:
		c := &models.Cpu{}
		row, stock = c, &c.Stock
	case models.ComponentKindGpu:
		g := &models.Gpu{}
		row, stock = g, &g.Stock
	case models.ComponentKindRam:
		r := &models.Ram{}
		row, stock = r, &r.Stock
	case models.ComponentKindHd:
		h := &models.Hd{}
		row, stock = h, &h.Stock
	default:
		return nil, nil, models.ErrNotFound
	}
	if err := tx.Where("model = ?", model).First(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load component %s: %w", model, err)
	}
	return row, stock, nil
}

// CreateCpu adds a CPU model to the catalog
func (s *InventoryService) CreateCpu(cpu *models.Cpu) error {
	if cpu.Price < 0 {
		return models.ErrInvalidPrice
	}
	if cpu.Total < 0 || cpu.Cores <= 0 {
		return models.ErrInvalidQuantity
	}
	cpu.Available = cpu.Total
	if err := database.DB.Create(cpu).Error; err != nil {
		return fmt.Errorf("failed to create cpu: %w", err)
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Created CPU %s (cores=%d, total=%d)", cpu.Model, cpu.Cores, cpu.Total)
	return nil
}

// CreateGpu adds a GPU model to the catalog
func (s *InventoryService) CreateGpu(gpu *models.Gpu) error {
	if gpu.Price < 0 {
		return models.ErrInvalidPrice
	}
	if gpu.Total < 0 || gpu.Memory <= 0 {
		return models.ErrInvalidQuantity
	}
	gpu.Available = gpu.Total
	if err := database.DB.Create(gpu).Error; err != nil {
		return fmt.Errorf("failed to create gpu: %w", err)
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Created GPU %s (memory=%dGB, total=%d)", gpu.Model, gpu.Memory, gpu.Total)
	return nil
}

// CreateRam adds a RAM model to the catalog
func (s *InventoryService) CreateRam(ram *models.Ram) error {
	if ram.Price < 0 {
		return models.ErrInvalidPrice
	}
	if ram.Total < 0 || ram.Capacity <= 0 {
		return models.ErrInvalidQuantity
	}
	ram.Available = ram.Total
	if err := database.DB.Create(ram).Error; err != nil {
		return fmt.Errorf("failed to create ram: %w", err)
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Created RAM %s (capacity=%dGB, total=%d)", ram.Model, ram.Capacity, ram.Total)
	return nil
}

// CreateHd adds a disk model to the catalog
func (s *InventoryService) CreateHd(hd *models.Hd) error {
	if hd.Price < 0 {
		return models.ErrInvalidPrice
	}
	if hd.Total < 0 || hd.Capacity <= 0 {
		return models.ErrInvalidQuantity
	}
	hd.Available = hd.Total
	if err := database.DB.Create(hd).Error; err != nil {
		return fmt.Errorf("failed to create hd: %w", err)
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Created HD %s (capacity=%dGB, ssd=%v, total=%d)", hd.Model, hd.Capacity, hd.IsSSD, hd.Total)
	return nil
}

// Restock adjusts a component's total stock by delta. Negative delta
// removes unsold units only.
func (s *InventoryService) Restock(kind models.ComponentKind, model string, delta int) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		row, stock, err := stockFor(tx, kind, model)
		if err != nil {
			return err
		}
		if err := stock.Restock(delta); err != nil {
			return err
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return err
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Restocked %s %s by %d", kind, model, delta)
	return nil
}

// SetPrice updates a component's unit price
func (s *InventoryService) SetPrice(kind models.ComponentKind, model string, price float64) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		row, stock, err := stockFor(tx, kind, model)
		if err != nil {
			return err
		}
		if err := stock.SetPrice(price); err != nil {
			return err
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return err
	}
	database.InvalidateComponentCache()
	database.InvalidatePlanCache()
	return nil
}

// Delete removes a component model from the catalog. Blocked while any
// unit is reserved by a server.
func (s *InventoryService) Delete(kind models.ComponentKind, model string) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		row, stock, err := stockFor(tx, kind, model)
		if err != nil {
			return err
		}
		if stock.Available != stock.Total {
			return models.ErrComponentInUse
		}
		return tx.Delete(row).Error
	})
	if err != nil {
		return err
	}
	database.InvalidateComponentCache()
	log.Printf("Inventory: Deleted %s %s", kind, model)
	return nil
}

// Catalog bundles the full component catalog for listing
type Catalog struct {
	Cpus []models.Cpu `json:"cpus"`
	Gpus []models.Gpu `json:"gpus"`
	Rams []models.Ram `json:"rams"`
	Hds  []models.Hd  `json:"hds"`
	Oses []models.Os  `json:"oses"`
}

// List returns the whole catalog, served from cache when possible
func (s *InventoryService) List() (*Catalog, error) {
	var catalog Catalog
	if err := database.CacheGet(database.CacheKeyComponents, &catalog); err == nil {
		return &catalog, nil
	}

	if err := database.DB.Order("model").Find(&catalog.Cpus).Error; err != nil {
		return nil, fmt.Errorf("failed to list cpus: %w", err)
	}
	if err := database.DB.Order("model").Find(&catalog.Gpus).Error; err != nil {
		return nil, fmt.Errorf("failed to list gpus: %w", err)
	}
	if err := database.DB.Order("model").Find(&catalog.Rams).Error; err != nil {
		return nil, fmt.Errorf("failed to list rams: %w", err)
	}
	if err := database.DB.Order("model").Find(&catalog.Hds).Error; err != nil {
		return nil, fmt.Errorf("failed to list hds: %w", err)
	}
	if err := database.DB.Order("name").Find(&catalog.Oses).Error; err != nil {
		return nil, fmt.Errorf("failed to list oses: %w", err)
	}

	database.CacheSet(database.CacheKeyComponents, catalog, database.CacheTTLComponents)
	return &catalog, nil
}

// CreateOs adds an operating system to the catalog
func (s *InventoryService) CreateOs(name string) error {
	if name == "" {
		return models.ErrInvalidQuantity
	}
	if err := database.DB.Create(&models.Os{Name: name}).Error; err != nil {
		return fmt.Errorf("failed to create os: %w", err)
	}
	database.InvalidateComponentCache()
	return nil
}

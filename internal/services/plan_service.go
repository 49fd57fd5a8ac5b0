package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/engine"
	"github.com/cloudshop/backend/internal/models"
)

// PlanService manages the plan catalog and auto pricing
type PlanService struct{}

// NewPlanService creates a new plan service
func NewPlanService() *PlanService {
	return &PlanService{}
}

// PlanLineItem is one component requirement in a plan create/update
// request.
type PlanLineItem struct {
	Kind     models.ComponentKind `json:"kind"`
	Model    string               `json:"model"`
	Quantity int                  `json:"quantity"`
}

// Create builds a plan from its line items. With autoPrice set the
// price is computed from current component prices; otherwise price is
// taken as given.
func (s *PlanService) Create(title, cpuModel, osName string, items []PlanLineItem, durationMonths int, autoPrice bool, price float64) (*models.Plan, error) {
	if durationMonths <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	if !autoPrice && price < 0 {
		return nil, models.ErrInvalidPrice
	}
	plan := &models.Plan{
		Title:          title,
		AutoPrice:      autoPrice,
		Price:          price,
		DurationMonths: durationMonths,
		CpuModel:       cpuModel,
		OsName:         osName,
		IsPublic:       true,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var cpu models.Cpu
		if err := tx.Where("model = ?", cpuModel).First(&cpu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		var count int64
		if err := tx.Model(&models.Os{}).Where("name = ?", osName).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.ErrNotFound
		}
		if err := tx.Create(plan).Error; err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}
		for _, it := range items {
			if err := s.addLineItem(tx, plan, it); err != nil {
				return err
			}
		}
		if plan.AutoPrice {
			price, err := s.computePrice(tx, plan)
			if err != nil {
				return err
			}
			plan.Price = price
		}
		return tx.Save(plan).Error
	})
	if err != nil {
		return nil, err
	}
	database.InvalidatePlanCache()
	log.Printf("PlanCatalog: Created plan %d %q (price=%.2f, auto=%v)", plan.ID, plan.Title, plan.Price, plan.AutoPrice)
	return plan, nil
}

// AddLineItem appends one line item to an existing plan. An auto-priced
// plan recomputes its price in the same transaction so it never holds a
// stale value.
func (s *PlanService) AddLineItem(planID uint, item PlanLineItem) (*models.Plan, error) {
	var plan models.Plan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", planID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		if err := s.addLineItem(tx, &plan, item); err != nil {
			return err
		}
		if plan.AutoPrice {
			price, err := s.computePrice(tx, &plan)
			if err != nil {
				return err
			}
			plan.Price = price
		}
		return tx.Save(&plan).Error
	})
	if err != nil {
		return nil, err
	}
	database.InvalidatePlanCache()
	return &plan, nil
}

func (s *PlanService) addLineItem(tx *gorm.DB, plan *models.Plan, it PlanLineItem) error {
	if it.Quantity <= 0 {
		return models.ErrInvalidQuantity
	}
	switch it.Kind {
	case models.ComponentKindGpu:
		var gpu models.Gpu
		if err := tx.Where("model = ?", it.Model).First(&gpu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		return tx.Create(&models.PlanGpu{PlanID: plan.ID, GpuModel: it.Model, Quantity: it.Quantity}).Error
	case models.ComponentKindRam:
		var ram models.Ram
		if err := tx.Where("model = ?", it.Model).First(&ram).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		return tx.Create(&models.PlanRam{PlanID: plan.ID, RamModel: it.Model, Quantity: it.Quantity}).Error
	case models.ComponentKindHd:
		var hd models.Hd
		if err := tx.Where("model = ?", it.Model).First(&hd).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		return tx.Create(&models.PlanHd{PlanID: plan.ID, HdModel: it.Model, Quantity: it.Quantity}).Error
	}
	return models.ErrNotFound
}

// computePrice reads all current line items and component prices
func (s *PlanService) computePrice(tx *gorm.DB, plan *models.Plan) (float64, error) {
	var cpu models.Cpu
	if err := tx.Where("model = ?", plan.CpuModel).First(&cpu).Error; err != nil {
		return 0, err
	}
	var items []models.PriceItem

	var gpus []models.PlanGpu
	if err := tx.Where("plan_id = ?", plan.ID).Find(&gpus).Error; err != nil {
		return 0, err
	}
	for _, g := range gpus {
		var gpu models.Gpu
		if err := tx.Where("model = ?", g.GpuModel).First(&gpu).Error; err != nil {
			return 0, err
		}
		items = append(items, models.PriceItem{UnitPrice: gpu.Price, Quantity: g.Quantity})
	}

	var rams []models.PlanRam
	if err := tx.Where("plan_id = ?", plan.ID).Find(&rams).Error; err != nil {
		return 0, err
	}
	for _, r := range rams {
		var ram models.Ram
		if err := tx.Where("model = ?", r.RamModel).First(&ram).Error; err != nil {
			return 0, err
		}
		items = append(items, models.PriceItem{UnitPrice: ram.Price, Quantity: r.Quantity})
	}

	var hds []models.PlanHd
	if err := tx.Where("plan_id = ?", plan.ID).Find(&hds).Error; err != nil {
		return 0, err
	}
	for _, h := range hds {
		var hd models.Hd
		if err := tx.Where("model = ?", h.HdModel).First(&hd).Error; err != nil {
			return 0, err
		}
		items = append(items, models.PriceItem{UnitPrice: hd.Price, Quantity: h.Quantity})
	}

	return models.ComputePlanPrice(cpu.Price, plan.DurationMonths, items), nil
}

// SetPrice pins a manual price on a plan and turns auto pricing off
func (s *PlanService) SetPrice(planID uint, price float64) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var plan models.Plan
		if err := tx.Where("id = ?", planID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		if err := plan.SetManualPrice(price); err != nil {
			return err
		}
		return tx.Save(&plan).Error
	})
	if err != nil {
		return err
	}
	database.InvalidatePlanCache()
	return nil
}

// Get returns one plan with its line items preloaded
func (s *PlanService) Get(planID uint) (*models.Plan, error) {
	var plan models.Plan
	err := database.DB.Preload("Gpus").Preload("Rams").Preload("Hds").
		Where("id = ?", planID).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListPublic returns the public plan catalog, served from Redis when
// the cache is warm.
func (s *PlanService) ListPublic() ([]models.Plan, error) {
	var plans []models.Plan
	if err := database.CacheGet(database.CacheKeyPublicPlans, &plans); err == nil {
		return plans, nil
	}
	err := database.DB.Preload("Gpus").Preload("Rams").Preload("Hds").
		Where("is_public = ?", true).Order("id").Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	database.CacheSet(database.CacheKeyPublicPlans, plans, database.CacheTTLPlans)
	return plans, nil
}

// Delete removes a plan. Blocked while subscriptions reference it.
func (s *PlanService) Delete(planID uint) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subscription{}).Where("plan_id = ?", planID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrComponentInUse
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanGpu{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanRam{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanHd{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", planID).Delete(&models.Plan{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	database.InvalidatePlanCache()
	log.Printf("PlanCatalog: Deleted plan %d", planID)
	return nil
}

// BuildSpec resolves a plan's line items against the component catalog
// into the matcher's input form, preserving line-item declaration
// order.
func (s *PlanService) BuildSpec(tx *gorm.DB, planID uint) (engine.PlanSpec, error) {
	var plan models.Plan
	if err := tx.Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.PlanSpec{}, models.ErrNotFound
		}
		return engine.PlanSpec{}, err
	}
	var cpu models.Cpu
	if err := tx.Where("model = ?", plan.CpuModel).First(&cpu).Error; err != nil {
		return engine.PlanSpec{}, err
	}
	spec := engine.PlanSpec{
		PlanID:   plan.ID,
		CpuCores: cpu.Cores,
		OsName:   plan.OsName,
	}

	var planGpus []models.PlanGpu
	if err := tx.Where("plan_id = ?", planID).Order("gpu_model").Find(&planGpus).Error; err != nil {
		return engine.PlanSpec{}, err
	}
	for _, pg := range planGpus {
		var gpu models.Gpu
		if err := tx.Where("model = ?", pg.GpuModel).First(&gpu).Error; err != nil {
			return engine.PlanSpec{}, err
		}
		spec.Gpus = append(spec.Gpus, engine.GpuLine{
			Model:     gpu.Model,
			Frequency: gpu.Frequency,
			MemoryGB:  gpu.Memory,
			Quantity:  pg.Quantity,
		})
	}

	var planRams []models.PlanRam
	if err := tx.Where("plan_id = ?", planID).Order("ram_model").Find(&planRams).Error; err != nil {
		return engine.PlanSpec{}, err
	}
	for _, pr := range planRams {
		var ram models.Ram
		if err := tx.Where("model = ?", pr.RamModel).First(&ram).Error; err != nil {
			return engine.PlanSpec{}, err
		}
		spec.Rams = append(spec.Rams, engine.RamLine{
			Model:      ram.Model,
			CapacityGB: ram.Capacity,
			Quantity:   pr.Quantity,
		})
	}

	var planHds []models.PlanHd
	if err := tx.Where("plan_id = ?", planID).Order("hd_model").Find(&planHds).Error; err != nil {
		return engine.PlanSpec{}, err
	}
	for _, ph := range planHds {
		var hd models.Hd
		if err := tx.Where("model = ?", ph.HdModel).First(&hd).Error; err != nil {
			return engine.PlanSpec{}, err
		}
		spec.Hds = append(spec.Hds, engine.HdLine{
			Model:      hd.Model,
			CapacityGB: hd.Capacity,
			IsSSD:      hd.IsSSD,
			Quantity:   ph.Quantity,
		})
	}

	return spec, nil
}

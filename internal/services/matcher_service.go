package services

import (
	"gorm.io/gorm"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/engine"
	"github.com/cloudshop/backend/internal/models"
)

// MatcherService loads ledger snapshots and runs the allocation
// matcher over them. Matching itself never writes; commits re-validate
// under a row lock (see SubscriptionService).
type MatcherService struct {
	plans *PlanService
}

// NewMatcherService creates a new matcher service
func NewMatcherService(plans *PlanService) *MatcherService {
	return &MatcherService{plans: plans}
}

// loadServerViews snapshots every server's spare capacity, in id order
func loadServerViews(tx *gorm.DB) ([]engine.ServerView, error) {
	var servers []models.Server
	if err := tx.Order("id").Find(&servers).Error; err != nil {
		return nil, err
	}
	views := make([]engine.ServerView, 0, len(servers))
	for _, srv := range servers {
		var atts []models.ServerGpu
		if err := tx.Where("server_id = ?", srv.ID).Order("gpu_model").Find(&atts).Error; err != nil {
			return nil, err
		}
		view := engine.ServerView{
			ID:             srv.ID,
			OsName:         srv.OsName,
			CoresAvailable: srv.CoresAvailable,
			RamAvailableGB: srv.RamAvailable,
			HdAvailableGB:  srv.HdAvailable,
			SsdAvailableGB: srv.SsdAvailable,
		}
		for _, a := range atts {
			view.Gpus = append(view.Gpus, engine.GpuAttachment{
				Model:       a.GpuModel,
				Frequency:   a.Frequency,
				AvailableGB: a.AvailableCapacity,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// FindServers returns every server that can host the plan, or with
// firstOnly just the first, each with its computed reservation.
func (s *MatcherService) FindServers(planID, exactServerID uint, firstOnly bool) ([]engine.Match, error) {
	spec, err := s.plans.BuildSpec(database.DB, planID)
	if err != nil {
		return nil, err
	}
	views, err := loadServerViews(database.DB)
	if err != nil {
		return nil, err
	}
	return engine.FindServers(views, spec, exactServerID, firstOnly), nil
}

// findWithin runs the matcher against snapshots taken inside tx, so a
// committing caller sees capacity as of its own transaction.
func findWithin(tx *gorm.DB, plans *PlanService, planID, exactServerID uint) (*engine.Match, engine.PlanSpec, error) {
	spec, err := plans.BuildSpec(tx, planID)
	if err != nil {
		return nil, engine.PlanSpec{}, err
	}
	views, err := loadServerViews(tx)
	if err != nil {
		return nil, engine.PlanSpec{}, err
	}
	matches := engine.FindServers(views, spec, exactServerID, true)
	if len(matches) == 0 {
		return nil, spec, nil
	}
	return &matches[0], spec, nil
}

package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/engine"
	"github.com/cloudshop/backend/internal/models"
)

// SubscriptionService drives the purchase/renew/reassign/release
// lifecycle. Every mutating operation is one transaction: match is a
// snapshot read, commit re-validates under FOR UPDATE row locks, and a
// lock wait past the configured timeout surfaces as
// ErrAllocationTimeout for the caller to retry.
type SubscriptionService struct {
	plans             *PlanService
	lockTimeoutMillis int
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(plans *PlanService, lockTimeoutMillis int) *SubscriptionService {
	if lockTimeoutMillis <= 0 {
		lockTimeoutMillis = 3000
	}
	return &SubscriptionService{plans: plans, lockTimeoutMillis: lockTimeoutMillis}
}

// lockServerWithGpus locks a server row and its GPU attachments for
// update, returning the attachments keyed by GPU model.
func lockServerWithGpus(tx *gorm.DB, serverID uint) (*models.Server, map[string]*models.ServerGpu, error) {
	var server models.Server
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", serverID).First(&server).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, mapLockError(err)
	}
	var atts []models.ServerGpu
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("server_id = ?", serverID).Find(&atts).Error
	if err != nil {
		return nil, nil, mapLockError(err)
	}
	gpus := make(map[string]*models.ServerGpu, len(atts))
	for i := range atts {
		gpus[atts[i].GpuModel] = &atts[i]
	}
	return &server, gpus, nil
}

func saveServerWithGpus(tx *gorm.DB, server *models.Server, gpus map[string]*models.ServerGpu) error {
	if err := tx.Save(server).Error; err != nil {
		return err
	}
	for _, att := range gpus {
		if err := tx.Save(att).Error; err != nil {
			return err
		}
	}
	return nil
}

// commitMatch debits a matched server under its row lock. Capacity can
// shrink between the snapshot match and the lock, so a failed debit
// triggers exactly one rematch before giving up.
func (s *SubscriptionService) commitMatch(tx *gorm.DB, planID uint, match *engine.Match) (*engine.Match, error) {
	for attempt := 0; attempt < 2; attempt++ {
		server, gpus, err := lockServerWithGpus(tx, match.ServerID)
		if err != nil {
			return nil, err
		}
		err = engine.ApplyReservation(server, gpus, match.Reservation)
		if err == nil {
			if err := saveServerWithGpus(tx, server, gpus); err != nil {
				return nil, err
			}
			return match, nil
		}
		if !errors.Is(err, models.ErrInsufficientCapacity) || attempt == 1 {
			break
		}
		rematch, _, err := findWithin(tx, s.plans, planID, 0)
		if err != nil {
			return nil, err
		}
		if rematch == nil {
			break
		}
		match = rematch
	}
	return nil, models.ErrNoServerAvailable
}

// Purchase buys a plan for a user. The first purchase matches a server
// and binds a new subscription; a purchase against an already active
// subscription is a renewal that only extends the end date.
func (s *SubscriptionService) Purchase(userID, planID uint, paymentRef string) (*models.Subscription, *models.Purchase, error) {
	if paymentRef == "" {
		paymentRef = uuid.New().String()
	}
	var sub models.Subscription
	var purchase models.Purchase

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeoutMillis)).Error; err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		var plan models.Plan
		if err := tx.Where("id = ?", planID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}

		now := time.Now()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND plan_id = ?", userID, planID).
			First(&sub).Error
		switch {
		case err == nil && sub.Active(now):
			// Renewal: no re-matching, no capacity change
			if err := sub.Renew(plan.DurationMonths); err != nil {
				return err
			}
			if err := tx.Save(&sub).Error; err != nil {
				return err
			}
			purchase = models.Purchase{
				UserID:         userID,
				PlanID:         planID,
				SubscriptionID: sub.ID,
				PaymentRef:     paymentRef,
				Amount:         plan.Price,
				IsRenewal:      true,
			}
			return tx.Create(&purchase).Error
		case err == nil:
			// Lapsed subscription rebinds as a fresh match. If the sweep
			// has not released it yet, credit the old server first.
			if sub.ServerID != nil {
				server, gpus, err := lockServerWithGpus(tx, *sub.ServerID)
				if err != nil {
					return err
				}
				if err := engine.CreditReservation(server, gpus, sub.Reservation); err != nil {
					return err
				}
				if err := saveServerWithGpus(tx, server, gpus); err != nil {
					return err
				}
				sub.ServerID = nil
				sub.Reservation = models.Reservation{}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub = models.Subscription{}
		default:
			return mapLockError(err)
		}

		match, _, err := findWithin(tx, s.plans, planID, 0)
		if err != nil {
			return err
		}
		if match == nil {
			return models.ErrNoServerAvailable
		}
		match, err = s.commitMatch(tx, planID, match)
		if err != nil {
			return err
		}

		serverID := match.ServerID
		sub.UserID = userID
		sub.PlanID = planID
		sub.ServerID = &serverID
		sub.Status = models.SubscriptionBound
		sub.StartDate = now
		sub.EndDate = now.AddDate(0, plan.DurationMonths, 0)
		sub.Reservation = match.Reservation
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}
		purchase = models.Purchase{
			UserID:         userID,
			PlanID:         planID,
			SubscriptionID: sub.ID,
			PaymentRef:     paymentRef,
			Amount:         plan.Price,
		}
		return tx.Create(&purchase).Error
	})
	if err != nil {
		// Two first purchases can race past the locked read; the unique
		// (user_id, plan_id) index fails the loser, which retries and
		// lands on the renewal path.
		if isUniqueViolation(err) {
			return nil, nil, models.ErrAllocationTimeout
		}
		return nil, nil, mapLockError(err)
	}
	if purchase.IsRenewal {
		log.Printf("Subscription: Renewed subscription %d for user %d until %s", sub.ID, userID, sub.EndDate.Format("2006-01-02"))
	} else {
		log.Printf("Subscription: Bound subscription %d (user=%d, plan=%d, server=%d)", sub.ID, userID, planID, *sub.ServerID)
	}
	return &sub, &purchase, nil
}

// ReassignServer moves a bound subscription to a specific server,
// crediting the old server and debiting the new one atomically.
func (s *SubscriptionService) ReassignServer(subscriptionID, newServerID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeoutMillis)).Error; err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", subscriptionID).First(&sub).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return mapLockError(err)
		}
		if sub.ServerID == nil || !sub.Active(time.Now()) {
			return models.ErrNotFound
		}
		if *sub.ServerID == newServerID {
			return nil
		}

		match, _, err := findWithin(tx, s.plans, sub.PlanID, newServerID)
		if err != nil {
			return err
		}
		if match == nil {
			return models.ErrServerIncompatible
		}

		// Credit the old server with the original reservation
		oldServer, oldGpus, err := lockServerWithGpus(tx, *sub.ServerID)
		if err != nil {
			return err
		}
		if err := engine.CreditReservation(oldServer, oldGpus, sub.Reservation); err != nil {
			return err
		}
		if err := saveServerWithGpus(tx, oldServer, oldGpus); err != nil {
			return err
		}

		newServer, newGpus, err := lockServerWithGpus(tx, newServerID)
		if err != nil {
			return err
		}
		if err := engine.ApplyReservation(newServer, newGpus, match.Reservation); err != nil {
			if errors.Is(err, models.ErrInsufficientCapacity) {
				return models.ErrServerIncompatible
			}
			return err
		}
		if err := saveServerWithGpus(tx, newServer, newGpus); err != nil {
			return err
		}

		sub.ServerID = &newServerID
		sub.Status = models.SubscriptionReassigned
		sub.Reservation = match.Reservation
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	log.Printf("Subscription: Reassigned subscription %d to server %d", subscriptionID, newServerID)
	return &sub, nil
}

// Release credits a subscription's reservation back to its server and
// marks it released.
func (s *SubscriptionService) Release(subscriptionID uint) error {
	return s.release(subscriptionID, models.SubscriptionReleased)
}

func (s *SubscriptionService) release(subscriptionID uint, status models.SubscriptionStatus) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeoutMillis)).Error; err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		var sub models.Subscription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", subscriptionID).First(&sub).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return mapLockError(err)
		}
		if sub.ServerID == nil {
			return models.ErrNotFound
		}

		server, gpus, err := lockServerWithGpus(tx, *sub.ServerID)
		if err != nil {
			return err
		}
		if err := engine.CreditReservation(server, gpus, sub.Reservation); err != nil {
			return err
		}
		if err := saveServerWithGpus(tx, server, gpus); err != nil {
			return err
		}

		sub.ServerID = nil
		sub.Status = status
		sub.Reservation = models.Reservation{}
		return tx.Save(&sub).Error
	})
	if err != nil {
		return mapLockError(err)
	}
	log.Printf("Subscription: Released subscription %d (%s)", subscriptionID, status)
	return nil
}

// Get returns one subscription
func (s *SubscriptionService) Get(subscriptionID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := database.DB.Where("id = ?", subscriptionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// ListForUser returns a user's subscriptions, newest first
func (s *SubscriptionService) ListForUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := database.DB.Where("user_id = ?", userID).Order("id DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// ListPurchasesForUser returns a user's purchase history, newest first
func (s *SubscriptionService) ListPurchasesForUser(userID uint) ([]models.Purchase, error) {
	var purchases []models.Purchase
	if err := database.DB.Where("user_id = ?", userID).Order("id DESC").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

package services

import (
	"log"
	"sync"
	"time"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/models"
)

// ExpirySweepService periodically releases the capacity held by
// subscriptions whose end date has passed.
type ExpirySweepService struct {
	subs          *SubscriptionService
	checkInterval time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
}

// NewExpirySweepService creates a new expiry sweep service
func NewExpirySweepService(subs *SubscriptionService, intervalMinutes int) *ExpirySweepService {
	if intervalMinutes <= 0 {
		intervalMinutes = 10
	}
	return &ExpirySweepService{
		subs:          subs,
		checkInterval: time.Duration(intervalMinutes) * time.Minute,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the sweep service
func (s *ExpirySweepService) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	log.Printf("ExpirySweep: started (interval: %v)", s.checkInterval)
}

// Stop stops the sweep service
func (s *ExpirySweepService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	log.Println("ExpirySweep: stopped")
}

func (s *ExpirySweepService) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep releases every bound subscription that has expired. Each
// release is its own transaction so one contended row does not stall
// the rest.
func (s *ExpirySweepService) Sweep() {
	if database.DB == nil {
		return
	}

	var expired []models.Subscription
	err := database.DB.
		Where("server_id IS NOT NULL AND end_date < ? AND status NOT IN ?",
			time.Now(), []models.SubscriptionStatus{models.SubscriptionExpired, models.SubscriptionReleased}).
		Find(&expired).Error
	if err != nil {
		log.Printf("ExpirySweep: Error loading expired subscriptions: %v", err)
		return
	}

	released := 0
	for _, sub := range expired {
		if err := s.subs.release(sub.ID, models.SubscriptionExpired); err != nil {
			log.Printf("ExpirySweep: Error releasing subscription %d: %v", sub.ID, err)
			continue
		}
		released++
	}
	if released > 0 {
		log.Printf("ExpirySweep: Released %d expired subscriptions", released)
	}
}

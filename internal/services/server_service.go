package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/models"
)

// ServerService manages the server ledger. Attach/detach and capacity
// debits against the same server row serialize on a FOR UPDATE lock,
// bounded by a per-transaction lock timeout.
type ServerService struct {
	lockTimeoutMillis int
}

// NewServerService creates a new server service
func NewServerService(lockTimeoutMillis int) *ServerService {
	if lockTimeoutMillis <= 0 {
		lockTimeoutMillis = 3000
	}
	return &ServerService{lockTimeoutMillis: lockTimeoutMillis}
}

// beginLocked sets the transaction's lock timeout and locks the server
// row for update.
func (s *ServerService) beginLocked(tx *gorm.DB, serverID uint) (*models.Server, error) {
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeoutMillis)).Error; err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}
	var server models.Server
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", serverID).First(&server).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, mapLockError(err)
	}
	return &server, nil
}

// mapLockError converts a Postgres lock_timeout failure (SQLSTATE
// 55P03) into the retryable allocation timeout error.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return models.ErrAllocationTimeout
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique
// constraint failure (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateServer builds a server around one CPU unit from inventory
func (s *ServerService) CreateServer(cpuModel, osName string, ramSlotTotal int, ramMax int64, gpuSlotTotal, hdSlotTotal int) (*models.Server, error) {
	var server *models.Server
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var cpu models.Cpu
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("model = ?", cpuModel).First(&cpu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return mapLockError(err)
		}
		var count int64
		if err := tx.Model(&models.Os{}).Where("name = ?", osName).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.ErrNotFound
		}
		srv, err := models.NewServer(&cpu, osName, ramSlotTotal, ramMax, gpuSlotTotal, hdSlotTotal)
		if err != nil {
			return err
		}
		if err := tx.Save(&cpu).Error; err != nil {
			return fmt.Errorf("failed to reserve cpu: %w", err)
		}
		if err := tx.Create(srv).Error; err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		server = srv
		return nil
	})
	if err != nil {
		return nil, err
	}
	database.InvalidateComponentCache()
	log.Printf("ServerLedger: Created server %d (cpu=%s, os=%s)", server.ID, cpuModel, osName)
	return server, nil
}

// AttachComponent installs qty units of a component model on a server
func (s *ServerService) AttachComponent(serverID uint, kind models.ComponentKind, model string, qty int) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		server, err := s.beginLocked(tx, serverID)
		if err != nil {
			return err
		}
		switch kind {
		case models.ComponentKindGpu:
			var gpu models.Gpu
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&gpu).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadGpuAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			att, err = server.AttachGpu(&gpu, qty, att)
			if err != nil {
				return err
			}
			if err := tx.Save(&gpu).Error; err != nil {
				return err
			}
			if err := saveAttachment(tx, att, existing); err != nil {
				return err
			}
		case models.ComponentKindRam:
			var ram models.Ram
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&ram).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadRamAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			att, err = server.AttachRam(&ram, qty, att)
			if err != nil {
				return err
			}
			if err := tx.Save(&ram).Error; err != nil {
				return err
			}
			if err := saveAttachment(tx, att, existing); err != nil {
				return err
			}
		case models.ComponentKindHd:
			var hd models.Hd
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&hd).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadHdAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			att, err = server.AttachHd(&hd, qty, att)
			if err != nil {
				return err
			}
			if err := tx.Save(&hd).Error; err != nil {
				return err
			}
			if err := saveAttachment(tx, att, existing); err != nil {
				return err
			}
		default:
			return models.ErrNotFound
		}
		return tx.Save(server).Error
	})
	if err != nil {
		return mapLockError(err)
	}
	database.InvalidateComponentCache()
	log.Printf("ServerLedger: Attached %d x %s %s to server %d", qty, kind, model, serverID)
	return nil
}

// DetachComponent removes a component attachment from a server.
// Blocked while any of the attachment's capacity is reserved.
func (s *ServerService) DetachComponent(serverID uint, kind models.ComponentKind, model string) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		server, err := s.beginLocked(tx, serverID)
		if err != nil {
			return err
		}
		switch kind {
		case models.ComponentKindGpu:
			var gpu models.Gpu
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&gpu).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadGpuAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			if !existing {
				return models.ErrNotFound
			}
			if err := server.DetachGpu(&gpu, att); err != nil {
				return err
			}
			if err := tx.Save(&gpu).Error; err != nil {
				return err
			}
			if err := tx.Delete(att).Error; err != nil {
				return err
			}
		case models.ComponentKindRam:
			var ram models.Ram
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&ram).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadRamAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			if !existing {
				return models.ErrNotFound
			}
			if err := server.DetachRam(&ram, att); err != nil {
				return err
			}
			if err := tx.Save(&ram).Error; err != nil {
				return err
			}
			if err := tx.Delete(att).Error; err != nil {
				return err
			}
		case models.ComponentKindHd:
			var hd models.Hd
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("model = ?", model).First(&hd).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return mapLockError(err)
			}
			att, existing, err := loadHdAttachment(tx, serverID, model)
			if err != nil {
				return err
			}
			if !existing {
				return models.ErrNotFound
			}
			if err := server.DetachHd(&hd, att); err != nil {
				return err
			}
			if err := tx.Save(&hd).Error; err != nil {
				return err
			}
			if err := tx.Delete(att).Error; err != nil {
				return err
			}
		default:
			return models.ErrNotFound
		}
		return tx.Save(server).Error
	})
	if err != nil {
		return mapLockError(err)
	}
	database.InvalidateComponentCache()
	log.Printf("ServerLedger: Detached %s %s from server %d", kind, model, serverID)
	return nil
}

// ChangeCpu swaps a server's CPU to a different model
func (s *ServerService) ChangeCpu(serverID uint, newModel string) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		server, err := s.beginLocked(tx, serverID)
		if err != nil {
			return err
		}
		if server.CpuModel == newModel {
			return nil
		}
		var oldCpu, newCpu models.Cpu
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("model = ?", server.CpuModel).First(&oldCpu).Error; err != nil {
			return mapLockError(err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("model = ?", newModel).First(&newCpu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return mapLockError(err)
		}
		if err := server.ChangeCpu(&oldCpu, &newCpu); err != nil {
			return err
		}
		if err := tx.Save(&oldCpu).Error; err != nil {
			return err
		}
		if err := tx.Save(&newCpu).Error; err != nil {
			return err
		}
		return tx.Save(server).Error
	})
	if err != nil {
		return mapLockError(err)
	}
	database.InvalidateComponentCache()
	log.Printf("ServerLedger: Server %d CPU changed to %s", serverID, newModel)
	return nil
}

// Get returns one server with its attachment rows
func (s *ServerService) Get(serverID uint) (*models.Server, []models.ServerGpu, []models.ServerRam, []models.ServerHd, error) {
	var server models.Server
	if err := database.DB.Where("id = ?", serverID).First(&server).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, nil, models.ErrNotFound
		}
		return nil, nil, nil, nil, err
	}
	var gpus []models.ServerGpu
	var rams []models.ServerRam
	var hds []models.ServerHd
	if err := database.DB.Where("server_id = ?", serverID).Find(&gpus).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	if err := database.DB.Where("server_id = ?", serverID).Find(&rams).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	if err := database.DB.Where("server_id = ?", serverID).Find(&hds).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	return &server, gpus, rams, hds, nil
}

// List returns all servers in the ledger
func (s *ServerService) List() ([]models.Server, error) {
	var servers []models.Server
	if err := database.DB.Order("id").Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// CheckInvariants validates the ledger consistency rules for a server
func (s *ServerService) CheckInvariants(serverID uint) error {
	server, gpus, rams, hds, err := s.Get(serverID)
	if err != nil {
		return err
	}
	return server.CheckInvariants(gpus, rams, hds)
}

func loadGpuAttachment(tx *gorm.DB, serverID uint, model string) (*models.ServerGpu, bool, error) {
	var att models.ServerGpu
	err := tx.Where("server_id = ? AND gpu_model = ?", serverID, model).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &att, true, nil
}

func loadRamAttachment(tx *gorm.DB, serverID uint, model string) (*models.ServerRam, bool, error) {
	var att models.ServerRam
	err := tx.Where("server_id = ? AND ram_model = ?", serverID, model).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &att, true, nil
}

func loadHdAttachment(tx *gorm.DB, serverID uint, model string) (*models.ServerHd, bool, error) {
	var att models.ServerHd
	err := tx.Where("server_id = ? AND hd_model = ?", serverID, model).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &att, true, nil
}

func saveAttachment(tx *gorm.DB, att interface{}, existing bool) error {
	if existing {
		return tx.Save(att).Error
	}
	return tx.Create(att).Error
}

package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all engine tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&User{},
		&Cpu{},
		&Gpu{},
		&Ram{},
		&Hd{},
		&Os{},
		&Server{},
		&ServerGpu{},
		&ServerRam{},
		&ServerHd{},
		&Plan{},
		&PlanGpu{},
		&PlanRam{},
		&PlanHd{},
		&Subscription{},
		&Purchase{},
		&ResourceRequest{},
	); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

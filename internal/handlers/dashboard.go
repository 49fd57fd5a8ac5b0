package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/models"
)

// DashboardHandler serves admin overview statistics
type DashboardHandler struct{}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Stats returns ledger-wide counts and capacity totals
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	var serverCount, planCount, userCount, activeSubCount int64
	database.DB.Model(&models.Server{}).Count(&serverCount)
	database.DB.Model(&models.Plan{}).Count(&planCount)
	database.DB.Model(&models.User{}).Count(&userCount)
	database.DB.Model(&models.Subscription{}).
		Where("server_id IS NOT NULL AND end_date > ?", time.Now()).
		Count(&activeSubCount)

	type capacityRow struct {
		RamTotal     int64
		RamAvailable int64
		HdTotal      int64
		HdAvailable  int64
		SsdTotal     int64
		SsdAvailable int64
		GpuTotal     int64
		GpuAvailable int64
	}
	var capacity capacityRow
	database.DB.Model(&models.Server{}).
		Select("COALESCE(SUM(ram_total),0) as ram_total, COALESCE(SUM(ram_available),0) as ram_available, " +
			"COALESCE(SUM(hd_total),0) as hd_total, COALESCE(SUM(hd_available),0) as hd_available, " +
			"COALESCE(SUM(ssd_total),0) as ssd_total, COALESCE(SUM(ssd_available),0) as ssd_available, " +
			"COALESCE(SUM(gpu_total),0) as gpu_total, COALESCE(SUM(gpu_available),0) as gpu_available").
		Scan(&capacity)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"servers":              serverCount,
			"plans":                planCount,
			"users":                userCount,
			"active_subscriptions": activeSubCount,
			"capacity":             capacity,
		},
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/services"
)

// PlanHandler exposes the plan catalog
type PlanHandler struct {
	plans   *services.PlanService
	matcher *services.MatcherService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans *services.PlanService, matcher *services.MatcherService) *PlanHandler {
	return &PlanHandler{plans: plans, matcher: matcher}
}

// CreatePlanRequest is the plan creation body
type CreatePlanRequest struct {
	Title          string                  `json:"title"`
	CpuModel       string                  `json:"cpu_model"`
	OsName         string                  `json:"os_name"`
	Items          []services.PlanLineItem `json:"items"`
	DurationMonths int                     `json:"duration_months"`
	AutoPrice      bool                    `json:"auto_price"`
	Price          float64                 `json:"price"`
}

// Create adds a plan to the catalog
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var req CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	plan, err := h.plans.Create(req.Title, req.CpuModel, req.OsName, req.Items, req.DurationMonths, req.AutoPrice, req.Price)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

// ListPublic returns the public plan catalog
func (h *PlanHandler) ListPublic(c *fiber.Ctx) error {
	plans, err := h.plans.ListPublic()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plans,
	})
}

// Get returns one plan with line items
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	plan, err := h.plans.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

// AddLineItem appends a line item to a plan
func (h *PlanHandler) AddLineItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var item services.PlanLineItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	plan, err := h.plans.AddLineItem(id, item)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

// SetPrice pins a manual price on a plan
func (h *PlanHandler) SetPrice(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req SetPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.plans.SetPrice(id, req.Price); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Price updated",
	})
}

// Delete removes a plan
func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.plans.Delete(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Plan deleted",
	})
}

// Matches lists every server currently able to host a plan
func (h *PlanHandler) Matches(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	matches, err := h.matcher.FindServers(id, 0, false)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    matches,
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/models"
	"github.com/cloudshop/backend/internal/services"
)

// ComponentHandler exposes the hardware component catalog
type ComponentHandler struct {
	inventory *services.InventoryService
}

// NewComponentHandler creates a new component handler
func NewComponentHandler(inventory *services.InventoryService) *ComponentHandler {
	return &ComponentHandler{inventory: inventory}
}

// List returns the full component catalog
func (h *ComponentHandler) List(c *fiber.Ctx) error {
	catalog, err := h.inventory.List()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    catalog,
	})
}

// CreateCpu adds a CPU model
func (h *ComponentHandler) CreateCpu(c *fiber.Ctx) error {
	var cpu models.Cpu
	if err := c.BodyParser(&cpu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.CreateCpu(&cpu); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    cpu,
	})
}

// CreateGpu adds a GPU model
func (h *ComponentHandler) CreateGpu(c *fiber.Ctx) error {
	var gpu models.Gpu
	if err := c.BodyParser(&gpu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.CreateGpu(&gpu); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    gpu,
	})
}

// CreateRam adds a RAM model
func (h *ComponentHandler) CreateRam(c *fiber.Ctx) error {
	var ram models.Ram
	if err := c.BodyParser(&ram); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.CreateRam(&ram); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ram,
	})
}

// CreateHd adds a disk model
func (h *ComponentHandler) CreateHd(c *fiber.Ctx) error {
	var hd models.Hd
	if err := c.BodyParser(&hd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.CreateHd(&hd); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    hd,
	})
}

// CreateOs adds an operating system
func (h *ComponentHandler) CreateOs(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.CreateOs(req.Name); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "OS created",
	})
}

// RestockRequest adjusts a component's total stock
type RestockRequest struct {
	Delta int `json:"delta"`
}

// Restock adjusts a component's total stock by a delta
func (h *ComponentHandler) Restock(c *fiber.Ctx) error {
	kind := models.ComponentKind(c.Params("kind"))
	model := c.Params("model")
	var req RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.Restock(kind, model, req.Delta); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Stock updated",
	})
}

// SetPriceRequest updates a component's unit price
type SetPriceRequest struct {
	Price float64 `json:"price"`
}

// SetPrice updates a component's unit price
func (h *ComponentHandler) SetPrice(c *fiber.Ctx) error {
	kind := models.ComponentKind(c.Params("kind"))
	model := c.Params("model")
	var req SetPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.inventory.SetPrice(kind, model, req.Price); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Price updated",
	})
}

// Delete removes a component model from the catalog
func (h *ComponentHandler) Delete(c *fiber.Ctx) error {
	kind := models.ComponentKind(c.Params("kind"))
	model := c.Params("model")
	if err := h.inventory.Delete(kind, model); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Component deleted",
	})
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/models"
	"github.com/cloudshop/backend/internal/services"
)

// ServerHandler exposes the server ledger
type ServerHandler struct {
	servers *services.ServerService
}

// NewServerHandler creates a new server handler
func NewServerHandler(servers *services.ServerService) *ServerHandler {
	return &ServerHandler{servers: servers}
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil {
		return 0, models.ErrNotFound
	}
	return uint(id), nil
}

// CreateServerRequest is the server creation body
type CreateServerRequest struct {
	CpuModel     string `json:"cpu_model"`
	OsName       string `json:"os_name"`
	RamSlotTotal int    `json:"ram_slot_total"`
	RamMax       int64  `json:"ram_max"`
	GpuSlotTotal int    `json:"gpu_slot_total"`
	HdSlotTotal  int    `json:"hd_slot_total"`
}

// Create adds a server to the ledger
func (h *ServerHandler) Create(c *fiber.Ctx) error {
	var req CreateServerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	server, err := h.servers.CreateServer(req.CpuModel, req.OsName, req.RamSlotTotal, req.RamMax, req.GpuSlotTotal, req.HdSlotTotal)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    server,
	})
}

// List returns all servers
func (h *ServerHandler) List(c *fiber.Ctx) error {
	servers, err := h.servers.List()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    servers,
	})
}

// Get returns one server with its attachments
func (h *ServerHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	server, gpus, rams, hds, err := h.servers.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"server": server,
			"gpus":   gpus,
			"rams":   rams,
			"hds":    hds,
		},
	})
}

// AttachRequest is the attach component body
type AttachRequest struct {
	Kind     models.ComponentKind `json:"kind"`
	Model    string               `json:"model"`
	Quantity int                  `json:"quantity"`
}

// Attach installs component units on a server
func (h *ServerHandler) Attach(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req AttachRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.servers.AttachComponent(id, req.Kind, req.Model, req.Quantity); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Component attached",
	})
}

// DetachRequest is the detach component body
type DetachRequest struct {
	Kind  models.ComponentKind `json:"kind"`
	Model string               `json:"model"`
}

// Detach removes a component attachment from a server
func (h *ServerHandler) Detach(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req DetachRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.servers.DetachComponent(id, req.Kind, req.Model); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Component detached",
	})
}

// ChangeCpuRequest is the CPU swap body
type ChangeCpuRequest struct {
	Model string `json:"model"`
}

// ChangeCpu swaps a server's CPU model
func (h *ServerHandler) ChangeCpu(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req ChangeCpuRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.servers.ChangeCpu(id, req.Model); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "CPU changed",
	})
}

// Invariants audits one server's bookkeeping against its attachment rows
func (h *ServerHandler) Invariants(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.servers.CheckInvariants(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, err)
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Server ledger is consistent",
	})
}

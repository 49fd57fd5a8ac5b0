package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/middleware"
	"github.com/cloudshop/backend/internal/services"
)

// SubscriptionHandler exposes the subscription lifecycle
type SubscriptionHandler struct {
	subs *services.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subs *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// PurchaseRequest is the purchase body
type PurchaseRequest struct {
	PlanID     uint   `json:"plan_id"`
	PaymentRef string `json:"payment_ref"`
}

// Purchase buys a plan for the current user. A purchase against an
// already active subscription renews it.
func (h *SubscriptionHandler) Purchase(c *fiber.Ctx) error {
	userID := middleware.GetCurrentUserID(c)
	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	sub, purchase, err := h.subs.Purchase(userID, req.PlanID, req.PaymentRef)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"subscription": sub,
			"purchase":     purchase,
		},
	})
}

// List returns the current user's subscriptions
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetCurrentUserID(c)
	subs, err := h.subs.ListForUser(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    subs,
	})
}

// Purchases returns the current user's purchase history
func (h *SubscriptionHandler) Purchases(c *fiber.Ctx) error {
	userID := middleware.GetCurrentUserID(c)
	purchases, err := h.subs.ListPurchasesForUser(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    purchases,
	})
}

// ReassignRequest is the reassignment body
type ReassignRequest struct {
	ServerID uint `json:"server_id"`
}

// Reassign moves a subscription to a specific server
func (h *SubscriptionHandler) Reassign(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	sub, err := h.subs.ReassignServer(id, req.ServerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sub,
	})
}

// Release credits a subscription's capacity back to its server
func (h *SubscriptionHandler) Release(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.subs.Release(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Subscription released",
	})
}

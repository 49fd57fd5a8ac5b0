package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/models"
)

// statusFor maps engine errors to HTTP status codes. Capacity
// violations are conflicts, bad admin input is a bad request, and a
// lock timeout tells the client to retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidPrice):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientCapacity),
		errors.Is(err, models.ErrInsufficientSlots),
		errors.Is(err, models.ErrInsufficientCores),
		errors.Is(err, models.ErrRamCeilingExceeded),
		errors.Is(err, models.ErrComponentInUse),
		errors.Is(err, models.ErrNoCpuAvailable),
		errors.Is(err, models.ErrNoServerAvailable),
		errors.Is(err, models.ErrServerIncompatible):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrAllocationTimeout):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// fail writes the standard error envelope for an engine error
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	resp := fiber.Map{
		"success": false,
		"message": message,
	}
	if errors.Is(err, models.ErrAllocationTimeout) {
		resp["retryable"] = true
	}
	return c.Status(status).JSON(resp)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/middleware"
	"github.com/cloudshop/backend/internal/models"
)

// RequestHandler handles customer resource questions
type RequestHandler struct{}

// NewRequestHandler creates a new request handler
func NewRequestHandler() *RequestHandler {
	return &RequestHandler{}
}

// Create submits a question from the current user
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.BodyParser(&req); err != nil || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Question is required",
		})
	}
	rr := models.ResourceRequest{
		UserID:   middleware.GetCurrentUserID(c),
		Question: req.Question,
	}
	if err := database.DB.Create(&rr).Error; err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    rr,
	})
}

// List returns the current user's questions; admins see all of them
func (h *RequestHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	query := database.DB.Order("id DESC")
	if user == nil || !user.IsAdmin() {
		query = query.Where("user_id = ?", middleware.GetCurrentUserID(c))
	}
	var requests []models.ResourceRequest
	if err := query.Find(&requests).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
	})
}

// Answer records an admin answer to a question
func (h *RequestHandler) Answer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.BodyParser(&req); err != nil || req.Answer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Answer is required",
		})
	}
	var rr models.ResourceRequest
	if err := database.DB.First(&rr, id).Error; err != nil {
		return fail(c, models.ErrNotFound)
	}
	rr.Answer = req.Answer
	rr.Answered = true
	if err := database.DB.Save(&rr).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    rr,
	})
}

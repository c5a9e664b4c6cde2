package payment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/sahilchouksey/learnhub-api/utils/middleware"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"github.com/sahilchouksey/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// PaymentHandler records payment-collaborator signals. It owns no payment
// logic; a completed record simply unlocks enrollment for paid courses.
type PaymentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// RecordPaymentRequest represents the request body for recording a payment
type RecordPaymentRequest struct {
	UserID   uint    `json:"user_id" validate:"required,min=1"`
	Amount   float64 `json:"amount" validate:"required,min=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Status   string  `json:"status" validate:"required,oneof=pending completed failed refunded"`
}

// RecordPayment handles POST /api/v1/courses/:id/payments (admin)
func (h *PaymentHandler) RecordPayment(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	payment := model.CoursePayment{
		UserID:    req.UserID,
		CourseID:  course.ID,
		Reference: uuid.New().String(),
		Amount:    req.Amount,
		Currency:  currency,
		Status:    model.PaymentStatus(req.Status),
	}
	if err := h.db.Create(&payment).Error; err != nil {
		return response.InternalServerError(c, "Failed to record payment")
	}

	return response.Created(c, payment)
}

// MyPayments handles GET /api/v1/me/payments
func (h *PaymentHandler) MyPayments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var payments []model.CoursePayment
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, payments)
}

package review

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/services"
	"github.com/sahilchouksey/learnhub-api/utils/middleware"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"github.com/sahilchouksey/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// ReviewHandler exposes course reviews over HTTP
type ReviewHandler struct {
	db        *gorm.DB
	reviews   *services.ReviewService
	validator *validation.Validator
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(db *gorm.DB, reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		db:        db,
		reviews:   reviews,
		validator: validation.NewValidator(),
	}
}

// SubmitReviewRequest represents the request body for submitting a review
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}

// SubmitReview handles POST /api/v1/courses/:id/reviews. A second submission
// by the same student replaces the first.
func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	review, err := h.reviews.SubmitReview(c.Context(), uint(courseID), studentID,
		req.Rating, validation.SanitizeString(req.Comment))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, review)
}

// ListReviews handles GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	reviews, err := h.reviews.ListByCourse(c.Context(), uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to list reviews")
	}

	return response.Success(c, reviews)
}

// DeleteReview handles DELETE /api/v1/courses/:id/reviews
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	if err := h.reviews.DeleteReview(c.Context(), uint(courseID), studentID); err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.NoContent(c)
}

// RatingStats handles GET /api/v1/courses/:id/rating-stats
func (h *ReviewHandler) RatingStats(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	stats, err := h.reviews.RecomputeRatingStats(c.Context(), uint(courseID))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, stats)
}

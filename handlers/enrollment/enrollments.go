package enrollment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/sahilchouksey/learnhub-api/services"
	"github.com/sahilchouksey/learnhub-api/utils/middleware"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"github.com/sahilchouksey/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// EnrollmentHandler exposes the approval workflow over HTTP
type EnrollmentHandler struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:          db,
		enrollments: enrollments,
		validator:   validation.NewValidator(),
	}
}

// RequestEnrollment handles POST /api/v1/courses/:id/enroll
func (h *EnrollmentHandler) RequestEnrollment(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	enrollment, err := h.enrollments.RequestEnrollment(c.Context(), uint(courseID), studentID)
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Created(c, enrollment)
}

// Approve handles POST /api/v1/enrollments/:id/approve (admin)
func (h *EnrollmentHandler) Approve(c *fiber.Ctx) error {
	enrollmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid enrollment id")
	}

	enrollment, err := h.enrollments.Approve(c.Context(), uint(enrollmentID))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, enrollment)
}

// RejectRequest represents the request body for rejecting an enrollment
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=1000"`
}

// Reject handles POST /api/v1/enrollments/:id/reject (admin)
func (h *EnrollmentHandler) Reject(c *fiber.Ctx) error {
	enrollmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid enrollment id")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	enrollment, err := h.enrollments.Reject(c.Context(), uint(enrollmentID), validation.SanitizeString(req.Reason))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, enrollment)
}

// BulkApproveRequest represents the request body for bulk approval
type BulkApproveRequest struct {
	EnrollmentIDs []uint `json:"enrollment_ids" validate:"required,min=1,max=500"`
}

// BulkApprove handles POST /api/v1/enrollments/bulk-approve (admin).
// Always returns 200 with a per-item report; individual failures never
// abort the batch.
func (h *EnrollmentHandler) BulkApprove(c *fiber.Ctx) error {
	var req BulkApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	report := h.enrollments.BulkApprove(c.Context(), req.EnrollmentIDs)
	return response.Success(c, report)
}

// ListByCourse handles GET /api/v1/courses/:id/enrollments (admin)
func (h *EnrollmentHandler) ListByCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	status := model.EnrollmentStatus(c.Query("status", ""))
	enrollments, err := h.enrollments.ListByCourse(c.Context(), uint(courseID), status)
	if err != nil {
		return response.InternalServerError(c, "Failed to list enrollments")
	}

	return response.Success(c, enrollments)
}

// MyEnrollments handles GET /api/v1/me/enrollments
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ListByStudent(c.Context(), studentID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list enrollments")
	}

	return response.Success(c, enrollments)
}

// QuizScoreRequest represents the request body for recording a quiz score
type QuizScoreRequest struct {
	QuizID     uint    `json:"quiz_id" validate:"required,min=1"`
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

// RecordQuizScore handles POST /api/v1/courses/:id/quiz-scores
func (h *EnrollmentHandler) RecordQuizScore(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req QuizScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	enrollment, err := h.enrollments.RecordQuizScore(c.Context(), uint(courseID), studentID, req.QuizID, req.Percentage)
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, enrollment)
}

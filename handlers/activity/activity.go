package activity

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

// ActivityHandler records student activity and serves progress views
type ActivityHandler struct {
	db        *gorm.DB
	progress  *services.ProgressService
	validator *validation.Validator
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(db *gorm.DB, progress *services.ProgressService) *ActivityHandler {
	return &ActivityHandler{
		db:        db,
		progress:  progress,
		validator: validation.NewValidator(),
	}
}

// RecordActivityRequest represents the request body for recording activity
type RecordActivityRequest struct {
	ActivityType string `json:"activity_type" validate:"required"`
	ModuleID     *uint  `json:"module_id"`
	LessonID     *uint  `json:"lesson_id"`
	VideoID      *uint  `json:"video_id"`
	QuizID       *uint  `json:"quiz_id"`
	Duration     int    `json:"duration_seconds" validate:"min=0"`
}

// RecordActivity handles POST /api/v1/courses/:id/activity. The event always
// lands in the activity log; progress moves only for approved enrollments.
func (h *ActivityHandler) RecordActivity(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req RecordActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	event, err := h.progress.RecordActivity(c.Context(), services.ActivityInput{
		CourseID:     uint(courseID),
		StudentID:    studentID,
		ActivityType: model.ActivityType(req.ActivityType),
		ModuleID:     req.ModuleID,
		LessonID:     req.LessonID,
		VideoID:      req.VideoID,
		QuizID:       req.QuizID,
		Duration:     req.Duration,
	})
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Created(c, event)
}

// MyProgress handles GET /api/v1/courses/:id/progress
func (h *ActivityHandler) MyProgress(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	progress, err := h.progress.GetStudentProgress(c.Context(), uint(courseID), studentID)
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, progress)
}

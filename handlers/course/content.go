package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"github.com/sahilchouksey/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// CreateModuleRequest represents the request body for adding a module
type CreateModuleRequest struct {
	Title    string `json:"title" validate:"required,min=2,max=255"`
	Position int    `json:"position" validate:"min=0"`
}

// CreateModule handles POST /api/v1/courses/:id/modules
func (h *CourseHandler) CreateModule(c *fiber.Ctx) error {
	courseID := c.Params("id")

	var req CreateModuleRequest
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

	module := model.CourseModule{
		CourseID: course.ID,
		Title:    validation.SanitizeString(req.Title),
		Position: req.Position,
	}
	if err := h.db.Create(&module).Error; err != nil {
		return response.InternalServerError(c, "Failed to create module")
	}

	return response.Created(c, module)
}

// CreateLessonRequest represents the request body for adding a lesson
type CreateLessonRequest struct {
	Title            string `json:"title" validate:"required,min=2,max=255"`
	Position         int    `json:"position" validate:"min=0"`
	EstimatedMinutes int    `json:"estimated_minutes" validate:"min=0"`
}

// CreateLesson handles POST /api/v1/modules/:id/lessons
func (h *CourseHandler) CreateLesson(c *fiber.Ctx) error {
	moduleID := c.Params("id")

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var module model.CourseModule
	if err := h.db.First(&module, moduleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	lesson := model.Lesson{
		ModuleID:         module.ID,
		Title:            validation.SanitizeString(req.Title),
		Position:         req.Position,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// CreateQuizRequest represents the request body for adding a quiz
type CreateQuizRequest struct {
	Title    string         `json:"title" validate:"required,min=2,max=255"`
	Kind     model.QuizKind `json:"kind" validate:"omitempty,oneof=quiz final_exam assignment"`
	ModuleID *uint          `json:"module_id"`
}

// CreateQuiz handles POST /api/v1/courses/:id/quizzes
func (h *CourseHandler) CreateQuiz(c *fiber.Ctx) error {
	courseID := c.Params("id")

	var req CreateQuizRequest
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

	kind := req.Kind
	if kind == "" {
		kind = model.QuizKindQuiz
	}

	quiz := model.Quiz{
		CourseID: course.ID,
		ModuleID: req.ModuleID,
		Title:    validation.SanitizeString(req.Title),
		Kind:     kind,
	}
	if err := h.db.Create(&quiz).Error; err != nil {
		return response.InternalServerError(c, "Failed to create quiz")
	}

	return response.Created(c, quiz)
}

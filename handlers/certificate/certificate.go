package certificate

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/services"
	"github.com/sahilchouksey/learnhub-api/utils/middleware"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"gorm.io/gorm"
)

// CertificateHandler exposes certificate eligibility checks
type CertificateHandler struct {
	db           *gorm.DB
	certificates *services.CertificateService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(db *gorm.DB, certificates *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		db:           db,
		certificates: certificates,
	}
}

// CheckEligibility handles GET /api/v1/courses/:id/certificate. The verdict
// is derived fresh on every call; it is never cached or persisted.
func (h *CertificateHandler) CheckEligibility(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	result, err := h.certificates.Check(c.Context(), uint(courseID), studentID)
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, result)
}

package handler

import (
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/access"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
)

// TemplateHandler handles onboarding template routes.
type TemplateHandler struct {
	db     *gorm.DB
	access *access.Checker
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(db *gorm.DB, checker *access.Checker) *TemplateHandler {
	return &TemplateHandler{db: db, access: checker}
}

type createTemplateRequest struct {
	Name          string  `json:"name" validate:"required"`
	DurationWeeks int     `json:"durationWeeks" validate:"required,min=1"`
	Description   *string `json:"description"`
}

// ListByCompany handles GET /api/v1/templates/{companyId}.
func (h *TemplateHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var templates []model.OnboardingTemplate
	err := h.db.WithContext(r.Context()).
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&templates).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, templates)
}

// Create handles POST /api/v1/templates/{companyId}.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var req createTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	tpl := &model.OnboardingTemplate{
		CompanyID:     companyID,
		Name:          req.Name,
		DurationWeeks: req.DurationWeeks,
		Description:   req.Description,
	}
	if err := h.db.WithContext(r.Context()).Create(tpl).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, tpl)
}

func (h *TemplateHandler) requireCompany(w http.ResponseWriter, r *http.Request, userID, companyID string) bool {
	ok, err := h.access.CanAccessCompany(r.Context(), userID, companyID)
	if err != nil {
		respond.Internal(w)
		return false
	}
	if !ok {
		respond.Forbidden(w, "You do not have access to this company")
		return false
	}
	return true
}

package handler

import (
	"errors"
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/access"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModuleHandler handles learning module content routes.
type ModuleHandler struct {
	db     *gorm.DB
	access *access.Checker
}

// NewModuleHandler creates a ModuleHandler.
func NewModuleHandler(db *gorm.DB, checker *access.Checker) *ModuleHandler {
	return &ModuleHandler{db: db, access: checker}
}

type upsertModuleRequest struct {
	Type    string  `json:"type" validate:"required,oneof=company_overview product competitive tools culture"`
	Title   string  `json:"title" validate:"required"`
	Content *string `json:"content"`
	Order   *int    `json:"order" validate:"omitempty,gte=0"`
}

// ListByCompany handles GET /api/v1/modules/{companyId}.
func (h *ModuleHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var modules []model.ModuleContent
	err := h.db.WithContext(r.Context()).
		Where("company_id = ?", companyID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Find(&modules).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, modules)
}

// Upsert handles POST /api/v1/modules/{companyId}. At most one module of each
// type exists per company, so posting an existing type replaces its content.
func (h *ModuleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var req upsertModuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	var existing int64
	if err := h.db.WithContext(r.Context()).Model(&model.ModuleContent{}).
		Where("company_id = ? AND type = ?", companyID, req.Type).
		Count(&existing).Error; err != nil {
		respond.Internal(w)
		return
	}

	mod := &model.ModuleContent{
		CompanyID: companyID,
		Type:      model.ModuleType(req.Type),
		Title:     req.Title,
		Content:   req.Content,
	}
	if req.Order != nil {
		mod.Order = *req.Order
	}

	// The unique index on (company_id, type) makes concurrent posts converge
	// on a single row instead of racing a check-then-insert.
	err := h.db.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "order"}),
	}).Create(mod).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	var saved model.ModuleContent
	if err := h.db.WithContext(r.Context()).
		First(&saved, "company_id = ? AND type = ?", companyID, req.Type).Error; err != nil {
		respond.Internal(w)
		return
	}

	if existing > 0 {
		respond.OK(w, saved)
	} else {
		respond.Created(w, saved)
	}
}

// GetByType handles GET /api/v1/modules/{companyId}/{type}.
func (h *ModuleHandler) GetByType(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")
	moduleType := r.PathValue("type")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var mod model.ModuleContent
	err := h.db.WithContext(r.Context()).
		First(&mod, "company_id = ? AND type = ?", companyID, moduleType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Module not found")
		} else {
			respond.Internal(w)
		}
		return
	}

	respond.OK(w, mod)
}

// Delete handles DELETE /api/v1/modules/{id}.
func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	id := r.PathValue("id")

	var mod model.ModuleContent
	if err := h.db.WithContext(r.Context()).First(&mod, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Module not found")
		} else {
			respond.Internal(w)
		}
		return
	}

	if !h.requireCompany(w, r, c.UserID, mod.CompanyID) {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(&mod).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.NoContent(w)
}

func (h *ModuleHandler) requireCompany(w http.ResponseWriter, r *http.Request, userID, companyID string) bool {
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

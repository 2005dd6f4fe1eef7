package handler

import (
	"errors"
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/access"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
)

// CompanyHandler handles /api/v1/companies routes.
type CompanyHandler struct {
	db     *gorm.DB
	access *access.Checker
}

// NewCompanyHandler creates a CompanyHandler.
func NewCompanyHandler(db *gorm.DB, checker *access.Checker) *CompanyHandler {
	return &CompanyHandler{db: db, access: checker}
}

type createCompanyRequest struct {
	Name        string  `json:"name" validate:"required"`
	Industry    *string `json:"industry"`
	Size        *string `json:"size"`
	Description *string `json:"description"`
	Website     *string `json:"website" validate:"omitempty,url"`
}

type updateCompanyRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Industry    *string `json:"industry"`
	Size        *string `json:"size"`
	Description *string `json:"description"`
	Website     *string `json:"website" validate:"omitempty,url"`
}

// Create handles POST /api/v1/companies. The creator becomes the company's
// admin member in the same transaction.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	var req createCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	company := &model.Company{
		Name:        req.Name,
		Industry:    req.Industry,
		Size:        req.Size,
		Description: req.Description,
		Website:     req.Website,
	}
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		// Membership is granted through the same checker the request path
		// consults, bound to this transaction.
		return access.New(tx, false).GrantMembership(r.Context(), c.UserID, company.ID, "admin")
	})
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, company)
}

// Get handles GET /api/v1/companies/{id}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	id := r.PathValue("id")

	ok, err := h.access.CanAccessCompany(r.Context(), c.UserID, id)
	if err != nil {
		respond.Internal(w)
		return
	}
	if !ok {
		respond.Forbidden(w, "You do not have access to this company")
		return
	}

	var company model.Company
	if err := h.db.WithContext(r.Context()).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Company not found")
		} else {
			respond.Internal(w)
		}
		return
	}

	respond.OK(w, company)
}

// Update handles PATCH /api/v1/companies/{id}. Partial update: absent fields
// are left untouched.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	id := r.PathValue("id")

	ok, err := h.access.CanAccessCompany(r.Context(), c.UserID, id)
	if err != nil {
		respond.Internal(w)
		return
	}
	if !ok {
		respond.Forbidden(w, "You do not have access to this company")
		return
	}

	var req updateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	var company model.Company
	if err := h.db.WithContext(r.Context()).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Company not found")
		} else {
			respond.Internal(w)
		}
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(&company).Updates(updates).Error; err != nil {
			respond.Internal(w)
			return
		}
	}

	respond.OK(w, company)
}

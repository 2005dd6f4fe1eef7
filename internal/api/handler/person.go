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

// PersonHandler handles the important-people directory routes.
type PersonHandler struct {
	db     *gorm.DB
	access *access.Checker
}

// NewPersonHandler creates a PersonHandler.
func NewPersonHandler(db *gorm.DB, checker *access.Checker) *PersonHandler {
	return &PersonHandler{db: db, access: checker}
}

type createPersonRequest struct {
	Name     string  `json:"name" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Role     string  `json:"role" validate:"required,oneof=manager buddy stakeholder team_member"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,url"`
	Bio      *string `json:"bio"`
	Order    *int    `json:"order" validate:"omitempty,gte=0"`
}

type updatePersonRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Title    *string `json:"title" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=manager buddy stakeholder team_member"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,url"`
	Bio      *string `json:"bio"`
	Order    *int    `json:"order" validate:"omitempty,gte=0"`
}

// ListByCompany handles GET /api/v1/people/{companyId}.
func (h *PersonHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var people []model.ImportantPerson
	err := h.db.WithContext(r.Context()).
		Where("company_id = ?", companyID).
		Order("\"order\" asc").
		Find(&people).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, people)
}

// Create handles POST /api/v1/people/{companyId}.
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	companyID := r.PathValue("companyId")

	if !h.requireCompany(w, r, c.UserID, companyID) {
		return
	}

	var req createPersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	person := &model.ImportantPerson{
		CompanyID: companyID,
		Name:      req.Name,
		Title:     req.Title,
		Email:     req.Email,
		Role:      model.PersonRole(req.Role),
		PhotoURL:  req.PhotoURL,
		Bio:       req.Bio,
	}
	if req.Order != nil {
		person.Order = *req.Order
	}
	if err := h.db.WithContext(r.Context()).Create(person).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, person)
}

// Update handles PATCH /api/v1/people/{id}.
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	person := h.load(w, r, c.UserID)
	if person == nil {
		return
	}

	var req updatePersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Order != nil {
		updates["order"] = *req.Order
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(person).Updates(updates).Error; err != nil {
			respond.Internal(w)
			return
		}
	}

	respond.OK(w, person)
}

// Delete handles DELETE /api/v1/people/{id}.
func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	person := h.load(w, r, c.UserID)
	if person == nil {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(person).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.NoContent(w)
}

// load fetches the person by path id and checks company access, writing the
// error response itself when either step fails.
func (h *PersonHandler) load(w http.ResponseWriter, r *http.Request, userID string) *model.ImportantPerson {
	id := r.PathValue("id")

	var person model.ImportantPerson
	if err := h.db.WithContext(r.Context()).First(&person, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Person not found")
		} else {
			respond.Internal(w)
		}
		return nil
	}

	if !h.requireCompany(w, r, userID, person.CompanyID) {
		return nil
	}
	return &person
}

func (h *PersonHandler) requireCompany(w http.ResponseWriter, r *http.Request, userID, companyID string) bool {
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

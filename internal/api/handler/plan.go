package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rjirving6-commits/rampright/internal/access"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/progress"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
)

// PlanHandler handles onboarding plan routes.
type PlanHandler struct {
	db     *gorm.DB
	access *access.Checker
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(db *gorm.DB, checker *access.Checker) *PlanHandler {
	return &PlanHandler{db: db, access: checker}
}

type createPlanTask struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	WeekNumber  int     `json:"weekNumber" validate:"required,min=1"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

type createPlanRequest struct {
	UserID     string           `json:"userId" validate:"required,uuid"`
	CompanyID  string           `json:"companyId" validate:"required,uuid"`
	TemplateID *string          `json:"templateId" validate:"omitempty,uuid"`
	StartDate  string           `json:"startDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Tasks      []createPlanTask `json:"tasks" validate:"omitempty,dive"`
}

type updatePlanRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=not_started in_progress completed paused"`
	CurrentWeek *int    `json:"currentWeek" validate:"omitempty,min=1"`
	StartDate   *string `json:"startDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// planUser is the trimmed user shape embedded in plan responses. The full
// user model is never exposed here.
type planUser struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

type planResponse struct {
	model.OnboardingPlan
	Company *model.Company `json:"company,omitempty"`
	User    *planUser      `json:"user,omitempty"`
}

// Create handles POST /api/v1/onboarding/plans. The plan and any inline
// tasks are created in one transaction so a half-built plan never survives.
// The plan may be created on behalf of another user (a manager onboarding a
// new hire); the caller needs company access, and the created plan then
// gives the hire access to the company.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	var req createPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	ok, err := h.access.CanAccessCompany(r.Context(), c.UserID, req.CompanyID)
	if err != nil {
		respond.Internal(w)
		return
	}
	if !ok {
		respond.Forbidden(w, "You do not have access to this company")
		return
	}

	var planUserCount int64
	if err := h.db.WithContext(r.Context()).Model(&model.User{}).
		Where("id = ?", req.UserID).Count(&planUserCount).Error; err != nil {
		respond.Internal(w)
		return
	}
	if planUserCount == 0 {
		respond.NotFound(w, "User not found")
		return
	}

	startDate, _ := time.Parse(time.RFC3339, req.StartDate)

	plan := &model.OnboardingPlan{
		UserID:     req.UserID,
		CompanyID:  req.CompanyID,
		TemplateID: req.TemplateID,
		StartDate:  startDate,
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i, t := range req.Tasks {
			task := model.Task{
				PlanID:      plan.ID,
				Title:       t.Title,
				Description: t.Description,
				Category:    t.Category,
				WeekNumber:  t.WeekNumber,
				Order:       i,
			}
			if t.Order != nil {
				task.Order = *t.Order
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, plan)
}

// Get handles GET /api/v1/onboarding/plans/{id}. The response embeds the
// plan's company and a trimmed view of its user.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("id"), c.UserID)
	if plan == nil {
		return
	}

	resp, err := h.expand(r, plan)
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, resp)
}

// Update handles PATCH /api/v1/onboarding/plans/{id}.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("id"), c.UserID)
	if plan == nil {
		return
	}

	var req updatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	updates := map[string]any{}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.CurrentWeek != nil {
		updates["current_week"] = *req.CurrentWeek
	}
	if req.StartDate != nil {
		startDate, _ := time.Parse(time.RFC3339, *req.StartDate)
		updates["start_date"] = startDate
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(plan).Updates(updates).Error; err != nil {
			respond.Internal(w)
			return
		}
	}

	respond.OK(w, plan)
}

// GetForUser handles GET /api/v1/onboarding/plans/user/{userId}. Users can
// only look up their own plan.
func (h *PlanHandler) GetForUser(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}
	userID := r.PathValue("userId")

	if userID != c.UserID {
		respond.Forbidden(w, "You do not have access to this plan")
		return
	}

	var plan model.OnboardingPlan
	err := h.db.WithContext(r.Context()).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "No onboarding plan found for this user")
		} else {
			respond.Internal(w)
		}
		return
	}

	resp, err := h.expand(r, &plan)
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, resp)
}

// Progress handles GET /api/v1/onboarding/plans/{id}/progress.
func (h *PlanHandler) Progress(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("id"), c.UserID)
	if plan == nil {
		return
	}

	var tasks []model.Task
	if err := h.db.WithContext(r.Context()).
		Where("plan_id = ?", plan.ID).
		Find(&tasks).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, progress.Compute(tasks))
}

// expand attaches the plan's company and trimmed user to the response.
func (h *PlanHandler) expand(r *http.Request, plan *model.OnboardingPlan) (*planResponse, error) {
	resp := &planResponse{OnboardingPlan: *plan}

	var company model.Company
	if err := h.db.WithContext(r.Context()).First(&company, "id = ?", plan.CompanyID).Error; err == nil {
		resp.Company = &company
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user model.User
	if err := h.db.WithContext(r.Context()).First(&user, "id = ?", plan.UserID).Error; err == nil {
		resp.User = &planUser{ID: user.ID, Name: user.Name, Email: user.Email, Image: user.Image}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return resp, nil
}

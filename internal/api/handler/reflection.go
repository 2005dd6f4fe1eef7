package handler

import (
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
)

// ReflectionHandler handles weekly reflection routes.
type ReflectionHandler struct {
	db *gorm.DB
}

// NewReflectionHandler creates a ReflectionHandler.
func NewReflectionHandler(db *gorm.DB) *ReflectionHandler {
	return &ReflectionHandler{db: db}
}

type createReflectionRequest struct {
	WeekNumber          int     `json:"weekNumber" validate:"required,min=1"`
	GoalsProgress       *string `json:"goalsProgress"`
	Challenges          *string `json:"challenges"`
	ClarificationNeeded *string `json:"clarificationNeeded"`
	ConfidenceLevel     *int    `json:"confidenceLevel" validate:"omitempty,gte=1,lte=5"`
	AdditionalComments  *string `json:"additionalComments"`
}

// ListByPlan handles GET /api/v1/reflections/{planId}. Newest first.
func (h *ReflectionHandler) ListByPlan(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("planId"), c.UserID)
	if plan == nil {
		return
	}

	var reflections []model.WeeklyReflection
	err := h.db.WithContext(r.Context()).
		Where("plan_id = ?", plan.ID).
		Order("submitted_at desc").
		Find(&reflections).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, reflections)
}

// Create handles POST /api/v1/reflections/{planId}.
func (h *ReflectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("planId"), c.UserID)
	if plan == nil {
		return
	}

	var req createReflectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	reflection := &model.WeeklyReflection{
		PlanID:              plan.ID,
		WeekNumber:          req.WeekNumber,
		GoalsProgress:       req.GoalsProgress,
		Challenges:          req.Challenges,
		ClarificationNeeded: req.ClarificationNeeded,
		ConfidenceLevel:     req.ConfidenceLevel,
		AdditionalComments:  req.AdditionalComments,
	}
	if err := h.db.WithContext(r.Context()).Create(reflection).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, reflection)
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/validate"
	"gorm.io/gorm"
)

// TaskHandler handles onboarding task routes.
type TaskHandler struct {
	db *gorm.DB
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	WeekNumber  int     `json:"weekNumber" validate:"required,min=1"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

// ListByPlan handles GET /api/v1/tasks/plan/{planId}. Tasks come back in
// plan order: week first, then position within the week.
func (h *TaskHandler) ListByPlan(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("planId"), c.UserID)
	if plan == nil {
		return
	}

	var tasks []model.Task
	err := h.db.WithContext(r.Context()).
		Where("plan_id = ?", plan.ID).
		Order("week_number asc").
		Order("\"order\" asc").
		Find(&tasks).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, tasks)
}

// Create handles POST /api/v1/tasks/plan/{planId}.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	plan := ownedPlan(r.Context(), w, h.db, r.PathValue("planId"), c.UserID)
	if plan == nil {
		return
	}

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validate.Struct(req); errs != nil {
		respond.ValidationError(w, errs)
		return
	}

	task := &model.Task{
		PlanID:      plan.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		WeekNumber:  req.WeekNumber,
	}
	if req.Order != nil {
		task.Order = *req.Order
	}
	if err := h.db.WithContext(r.Context()).Create(task).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.Created(w, task)
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	task := h.ownedTask(w, r, c.UserID)
	if task == nil {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(task).Error; err != nil {
		respond.Internal(w)
		return
	}

	respond.NoContent(w)
}

// Toggle handles PATCH /api/v1/tasks/{id}/toggle. Completing a task stamps
// CompletedAt; un-completing clears it, so the pair always stays in sync.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	c := claims(w, r)
	if c == nil {
		return
	}

	task := h.ownedTask(w, r, c.UserID)
	if task == nil {
		return
	}

	task.Completed = !task.Completed
	if task.Completed {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	err := h.db.WithContext(r.Context()).Model(task).
		Select("completed", "completed_at").
		Updates(map[string]any{"completed": task.Completed, "completed_at": task.CompletedAt}).Error
	if err != nil {
		respond.Internal(w)
		return
	}

	respond.OK(w, task)
}

// ownedTask loads the task by path id and verifies the caller owns its plan.
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request, userID string) *model.Task {
	id := r.PathValue("id")

	var task model.Task
	if err := h.db.WithContext(r.Context()).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Task not found")
		} else {
			respond.Internal(w)
		}
		return nil
	}

	if ownedPlan(r.Context(), w, h.db, task.PlanID, userID) == nil {
		return nil
	}
	return &task
}

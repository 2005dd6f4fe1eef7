// Package handler contains HTTP handlers grouped by resource. Every protected
// handler runs the same pipeline: session claims → path params → access or
// ownership check → body validation → the single data-access operation →
// response envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/api/middleware"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/auth"
	"github.com/rjirving6-commits/rampright/internal/model"
	"gorm.io/gorm"
)

// decodeJSON parses the request body into dst. A false return means the 400
// envelope has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}

// claims returns the authenticated session claims. RequireAuth guarantees
// presence on protected routes; a nil result means the route was wired
// without the middleware and the 401 envelope has been written.
func claims(w http.ResponseWriter, r *http.Request) *auth.Claims {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		respond.Unauthorized(w)
	}
	return c
}

// ownedPlan loads a plan and enforces the ownership invariant: only the
// plan's user may touch the plan or anything scoped under it. On failure the
// 404 or 403 envelope has been written and nil is returned. The missing-plan
// case is reported before ownership so a 403 never reveals nonexistence.
func ownedPlan(ctx context.Context, w http.ResponseWriter, db *gorm.DB, planID, userID string) *model.OnboardingPlan {
	var plan model.OnboardingPlan
	if err := db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.NotFound(w, "Plan not found")
		} else {
			respond.Internal(w)
		}
		return nil
	}
	if plan.UserID != userID {
		respond.Forbidden(w, "You do not have access to this plan")
		return nil
	}
	return &plan
}

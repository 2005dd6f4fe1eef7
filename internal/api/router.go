// Package api wires all API routes onto the provided ServeMux.
package api

import (
	"net/http"

	"github.com/rjirving6-commits/rampright/internal/api/handler"
	"github.com/rjirving6-commits/rampright/internal/api/middleware"
	"github.com/rjirving6-commits/rampright/internal/api/respond"
	"github.com/rjirving6-commits/rampright/internal/health"
)

// Handlers bundles every route handler the router needs.
type Handlers struct {
	Health      *health.Handler
	Auth        *handler.AuthHandler
	Companies   *handler.CompanyHandler
	Templates   *handler.TemplateHandler
	Modules     *handler.ModuleHandler
	People      *handler.PersonHandler
	Plans       *handler.PlanHandler
	Tasks       *handler.TaskHandler
	Reflections *handler.ReflectionHandler
}

// RegisterRoutes registers all application routes on mux.
func RegisterRoutes(mux *http.ServeMux, h Handlers, jwtSecret string) {
	metrics := middleware.Metrics()
	protected := func(fn http.HandlerFunc) http.Handler {
		return metrics(middleware.RequireAuth(jwtSecret)(fn))
	}
	public := func(fn http.HandlerFunc) http.Handler {
		return metrics(fn)
	}

	// Public health endpoints (no auth required)
	mux.Handle("GET /api/v1/health", public(h.Health.ServeHealth))
	mux.Handle("GET /api/v1/ready", public(h.Health.ServeReady))

	// Auth endpoints (no auth required)
	mux.Handle("POST /api/v1/auth/register", public(h.Auth.Register))
	mux.Handle("POST /api/v1/auth/login", public(h.Auth.Login))
	mux.Handle("POST /api/v1/auth/refresh", public(h.Auth.Refresh))
	mux.Handle("POST /api/v1/auth/logout", protected(h.Auth.Logout))

	// Companies
	mux.Handle("POST /api/v1/companies", protected(h.Companies.Create))
	mux.Handle("GET /api/v1/companies/{id}", protected(h.Companies.Get))
	mux.Handle("PATCH /api/v1/companies/{id}", protected(h.Companies.Update))

	// Templates
	mux.Handle("GET /api/v1/templates/{companyId}", protected(h.Templates.ListByCompany))
	mux.Handle("POST /api/v1/templates/{companyId}", protected(h.Templates.Create))

	// Learning modules
	mux.Handle("GET /api/v1/modules/{companyId}", protected(h.Modules.ListByCompany))
	mux.Handle("POST /api/v1/modules/{companyId}", protected(h.Modules.Upsert))
	mux.Handle("GET /api/v1/modules/{companyId}/{type}", protected(h.Modules.GetByType))
	mux.Handle("DELETE /api/v1/modules/{id}", protected(h.Modules.Delete))

	// Important people
	mux.Handle("GET /api/v1/people/{companyId}", protected(h.People.ListByCompany))
	mux.Handle("POST /api/v1/people/{companyId}", protected(h.People.Create))
	mux.Handle("PATCH /api/v1/people/{id}", protected(h.People.Update))
	mux.Handle("DELETE /api/v1/people/{id}", protected(h.People.Delete))

	// Onboarding plans. A literal {id}/progress pattern conflicts with
	// user/{userId} in the ServeMux, so the action segment is matched by hand.
	mux.Handle("POST /api/v1/onboarding/plans", protected(h.Plans.Create))
	mux.Handle("GET /api/v1/onboarding/plans/{id}", protected(h.Plans.Get))
	mux.Handle("PATCH /api/v1/onboarding/plans/{id}", protected(h.Plans.Update))
	mux.Handle("GET /api/v1/onboarding/plans/user/{userId}", protected(h.Plans.GetForUser))
	mux.Handle("GET /api/v1/onboarding/plans/{id}/{action}", protected(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("action") != "progress" {
			respond.NotFound(w, "")
			return
		}
		h.Plans.Progress(w, r)
	}))

	// Tasks
	mux.Handle("GET /api/v1/tasks/plan/{planId}", protected(h.Tasks.ListByPlan))
	mux.Handle("POST /api/v1/tasks/plan/{planId}", protected(h.Tasks.Create))
	mux.Handle("DELETE /api/v1/tasks/{id}", protected(h.Tasks.Delete))
	mux.Handle("PATCH /api/v1/tasks/{id}/toggle", protected(h.Tasks.Toggle))

	// Weekly reflections
	mux.Handle("GET /api/v1/reflections/{planId}", protected(h.Reflections.ListByPlan))
	mux.Handle("POST /api/v1/reflections/{planId}", protected(h.Reflections.Create))

	// Catch-all 404, instrumented like every other route.
	mux.Handle("/", public(func(w http.ResponseWriter, r *http.Request) {
		respond.NotFound(w, "")
	}))
}

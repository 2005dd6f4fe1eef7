package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rjirving6-commits/rampright/internal/access"
	"github.com/rjirving6-commits/rampright/internal/api"
	"github.com/rjirving6-commits/rampright/internal/api/handler"
	"github.com/rjirving6-commits/rampright/internal/auth"
	"github.com/rjirving6-commits/rampright/internal/db"
	"github.com/rjirving6-commits/rampright/internal/health"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	db  *gorm.DB
	mux *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(model.All()...))

	checker := access.New(gdb, false)
	handlers := api.Handlers{
		Health:      health.New(db.NewPinger(gdb)),
		Auth:        handler.NewAuthHandler(gdb, testSecret, 15*time.Minute, 24*time.Hour),
		Companies:   handler.NewCompanyHandler(gdb, checker),
		Templates:   handler.NewTemplateHandler(gdb, checker),
		Modules:     handler.NewModuleHandler(gdb, checker),
		People:      handler.NewPersonHandler(gdb, checker),
		Plans:       handler.NewPlanHandler(gdb, checker),
		Tasks:       handler.NewTaskHandler(gdb),
		Reflections: handler.NewReflectionHandler(gdb),
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handlers, testSecret)
	return &testEnv{db: gdb, mux: mux}
}

// newUser inserts a user directly and returns it with a valid bearer token.
func (e *testEnv) newUser(t *testing.T, email, role string) (*model.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Name: "Test User", Email: email, Role: role, PasswordHash: string(hash)}
	require.NoError(t, e.db.Create(u).Error)

	token, err := auth.IssueAccessToken(u.ID, u.Email, u.Role, testSecret, time.Hour)
	require.NoError(t, err)
	return u, token
}

// do sends a JSON request through the router. An empty token omits the
// Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// createCompany creates a company through the API, granting the caller
// admin membership as a side effect.
func (e *testEnv) createCompany(t *testing.T, token, name string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/companies", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

// createPlan creates an onboarding plan for userID in companyID on behalf of
// the token's user.
func (e *testEnv) createPlan(t *testing.T, token, userID, companyID string, tasks []map[string]any) string {
	t.Helper()
	body := map[string]any{
		"userId":    userID,
		"companyId": companyID,
		"startDate": time.Now().UTC().Format(time.RFC3339),
	}
	if tasks != nil {
		body["tasks"] = tasks
	}
	w := e.do(t, http.MethodPost, "/api/v1/onboarding/plans", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

func TestAuthRegisterLoginRefreshLogout(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Riley", "email": "riley@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "new_hire", user["role"])
	assert.NotContains(t, user, "passwordHash")

	// Duplicate email is rejected.
	w = e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Riley", "email": "riley@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong password gets a generic 401.
	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "riley@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "email or password is incorrect", decodeBody(t, w)["error"])

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "riley@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	refreshToken := decodeBody(t, w)["refresh_token"].(string)

	// Refresh rotates: the old token stops working after one use.
	w = e.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decodeBody(t, w)["refresh_token"].(string)
	assert.NotEqual(t, refreshToken, rotated)

	w = e.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "", "email": "not-an-email", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Validation failed", body["error"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")

	w = e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Riley", "email": "riley@example.com", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "password")
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/companies", "", map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, w)["error"])

	// The rejected request must not have written anything.
	var count int64
	require.NoError(t, e.db.Model(&model.Company{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCompanyCreateGrantsMembership(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "owner@example.com", model.RoleManager)
	_, strangerToken := e.newUser(t, "stranger@example.com", model.RoleNewHire)

	companyID := e.createCompany(t, token, "Acme")

	var member model.CompanyMember
	require.NoError(t, e.db.First(&member, "company_id = ? AND user_id = ?", companyID, u.ID).Error)
	assert.Equal(t, "admin", member.Role)

	w := e.do(t, http.MethodGet, "/api/v1/companies/"+companyID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme", decodeBody(t, w)["name"])

	w = e.do(t, http.MethodGet, "/api/v1/companies/"+companyID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have access to this company", decodeBody(t, w)["error"])
}

func TestCompanyPatchPartialUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "owner@example.com", model.RoleManager)
	companyID := e.createCompany(t, token, "Acme")

	w := e.do(t, http.MethodPatch, "/api/v1/companies/"+companyID, token, map[string]any{
		"industry": "Fintech",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "Fintech", body["industry"])
}

func TestModuleUpsertUpdatesInsteadOfDuplicating(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "owner@example.com", model.RoleManager)
	companyID := e.createCompany(t, token, "Acme")

	path := "/api/v1/modules/" + companyID
	w := e.do(t, http.MethodPost, path, token, map[string]any{
		"type": "product", "title": "Product 101", "content": "v1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, path, token, map[string]any{
		"type": "product", "title": "Product 102", "content": "v2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Product 102", decodeBody(t, w)["title"])

	var count int64
	require.NoError(t, e.db.Model(&model.ModuleContent{}).
		Where("company_id = ? AND type = ?", companyID, "product").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = e.do(t, http.MethodGet, path+"/product", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Product 102", decodeBody(t, w)["title"])

	w = e.do(t, http.MethodPost, path, token, map[string]any{
		"type": "unknown_type", "title": "x",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "type")
}

func TestPeopleCRUD(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "owner@example.com", model.RoleManager)
	companyID := e.createCompany(t, token, "Acme")

	path := "/api/v1/people/" + companyID
	w := e.do(t, http.MethodPost, path, token, map[string]any{
		"name": "Morgan", "title": "Engineering Manager", "email": "morgan@acme.test", "role": "manager",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	personID := decodeBody(t, w)["id"].(string)

	// Missing required fields collect per-field messages.
	w = e.do(t, http.MethodPost, path, token, map[string]any{"name": "No Title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeBody(t, w)["errors"].(map[string]any)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "role")

	w = e.do(t, http.MethodPatch, "/api/v1/people/"+personID, token, map[string]any{
		"title": "Director of Engineering",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var people []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &people))
	require.Len(t, people, 1)
	assert.Equal(t, "Director of Engineering", people[0]["title"])

	w = e.do(t, http.MethodDelete, "/api/v1/people/"+personID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/people/"+personID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplates(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "owner@example.com", model.RoleManager)
	companyID := e.createCompany(t, token, "Acme")

	path := "/api/v1/templates/" + companyID
	w := e.do(t, http.MethodPost, path, token, map[string]any{
		"name": "Engineer 30-60-90", "durationWeeks": 12,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, path, token, map[string]any{"name": "Broken"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "durationWeeks")

	w = e.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var templates []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &templates))
	assert.Len(t, templates, 1)
}

func TestPlanCreateWithTasksIsOrdered(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")

	planID := e.createPlan(t, token, u.ID, companyID, []map[string]any{
		{"title": "Meet the team", "weekNumber": 2},
		{"title": "Laptop setup", "weekNumber": 1},
		{"title": "Read the handbook", "weekNumber": 1},
	})

	w := e.do(t, http.MethodGet, "/api/v1/tasks/plan/"+planID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)

	// Week ascending, then insertion order within the week.
	assert.Equal(t, "Laptop setup", tasks[0]["title"])
	assert.Equal(t, "Read the handbook", tasks[1]["title"])
	assert.Equal(t, "Meet the team", tasks[2]["title"])
}

func TestPlanGetEmbedsCompanyAndTrimmedUser(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, nil)

	w := e.do(t, http.MethodGet, "/api/v1/onboarding/plans/"+planID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)

	company := body["company"].(map[string]any)
	assert.Equal(t, "Acme", company["name"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "hire@example.com", user["email"])
	assert.NotContains(t, user, "role")
	assert.NotContains(t, user, "passwordHash")
}

func TestPlanOwnershipEnforced(t *testing.T) {
	e := newTestEnv(t)
	owner, ownerToken := e.newUser(t, "hire@example.com", model.RoleNewHire)
	_, otherToken := e.newUser(t, "other@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, ownerToken, "Acme")
	planID := e.createPlan(t, ownerToken, owner.ID, companyID, nil)

	w := e.do(t, http.MethodGet, "/api/v1/onboarding/plans/"+planID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have access to this plan", decodeBody(t, w)["error"])

	w = e.do(t, http.MethodGet, "/api/v1/onboarding/plans/does-not-exist", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Plan not found", decodeBody(t, w)["error"])
}

func TestPlanPatchAndStatusValidation(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, nil)

	w := e.do(t, http.MethodPatch, "/api/v1/onboarding/plans/"+planID, token, map[string]any{
		"status": "paused", "currentWeek": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "paused", body["status"])
	assert.Equal(t, float64(3), body["currentWeek"])

	w = e.do(t, http.MethodPatch, "/api/v1/onboarding/plans/"+planID, token, map[string]any{
		"status": "abandoned",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "status")
}

func TestPlanForUserIsSelfOnly(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	other, _ := e.newUser(t, "other@example.com", model.RoleNewHire)

	// No plan yet.
	w := e.do(t, http.MethodGet, "/api/v1/onboarding/plans/user/"+u.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No onboarding plan found for this user", decodeBody(t, w)["error"])

	companyID := e.createCompany(t, token, "Acme")
	e.createPlan(t, token, u.ID, companyID, nil)

	w = e.do(t, http.MethodGet, "/api/v1/onboarding/plans/user/"+u.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, u.ID, decodeBody(t, w)["userId"])

	// Someone else's plan is off limits even when it exists.
	w = e.do(t, http.MethodGet, "/api/v1/onboarding/plans/user/"+other.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskToggleStampsAndClearsCompletedAt(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, []map[string]any{
		{"title": "Laptop setup", "weekNumber": 1},
	})

	var task model.Task
	require.NoError(t, e.db.First(&task, "plan_id = ?", planID).Error)

	w := e.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["completed"])
	assert.NotNil(t, body["completedAt"])

	w = e.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["completed"])
	assert.Nil(t, body["completedAt"])
}

func TestTaskCreateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, nil)

	w := e.do(t, http.MethodPost, "/api/v1/tasks/plan/"+planID, token, map[string]any{
		"title": "Ship something small", "weekNumber": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	taskID := decodeBody(t, w)["id"].(string)

	w = e.do(t, http.MethodDelete, "/api/v1/tasks/"+taskID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&model.Task{}).Where("id = ?", taskID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPlanProgress(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, []map[string]any{
		{"title": "a", "weekNumber": 1},
		{"title": "b", "weekNumber": 1},
		{"title": "c", "weekNumber": 2},
	})

	var task model.Task
	require.NoError(t, e.db.First(&task, "plan_id = ? AND title = ?", planID, "a").Error)
	w := e.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/onboarding/plans/%s/progress", planID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["totalTasks"])
	assert.Equal(t, float64(1), body["completedTasks"])
	assert.Equal(t, float64(33), body["percentage"])

	byWeek := body["byWeek"].(map[string]any)
	week1 := byWeek["1"].(map[string]any)
	assert.Equal(t, float64(50), week1["percentage"])
}

func TestReflections(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, token, "Acme")
	planID := e.createPlan(t, token, u.ID, companyID, nil)

	path := "/api/v1/reflections/" + planID
	w := e.do(t, http.MethodPost, path, token, map[string]any{
		"weekNumber": 1, "goalsProgress": "Settled in", "confidenceLevel": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody(t, w)["submittedAt"])

	// Confidence is a 1-5 scale.
	w = e.do(t, http.MethodPost, path, token, map[string]any{
		"weekNumber": 2, "confidenceLevel": 6,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "confidenceLevel")

	w = e.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reflections []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reflections))
	assert.Len(t, reflections, 1)
}

func TestPlanCreateForAnotherUser(t *testing.T) {
	e := newTestEnv(t)
	_, managerToken := e.newUser(t, "manager@example.com", model.RoleManager)
	hire, hireToken := e.newUser(t, "hire@example.com", model.RoleNewHire)
	companyID := e.createCompany(t, managerToken, "Acme")

	// Before the plan exists the hire has no way into the company.
	w := e.do(t, http.MethodGet, "/api/v1/companies/"+companyID, hireToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	planID := e.createPlan(t, managerToken, hire.ID, companyID, []map[string]any{
		{"title": "Laptop setup", "weekNumber": 1},
	})

	// The plan belongs to the hire, not to the manager who created it.
	var plan model.OnboardingPlan
	require.NoError(t, e.db.First(&plan, "id = ?", planID).Error)
	assert.Equal(t, hire.ID, plan.UserID)

	// The plan bootstraps the hire's company access and plan ownership.
	w = e.do(t, http.MethodGet, "/api/v1/companies/"+companyID, hireToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/v1/onboarding/plans/"+planID, hireToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Plan-scoped resources stay with the plan's user.
	w = e.do(t, http.MethodGet, "/api/v1/onboarding/plans/"+planID, managerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPlanCreateRequiresExistingUser(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "manager@example.com", model.RoleManager)
	companyID := e.createCompany(t, token, "Acme")

	w := e.do(t, http.MethodPost, "/api/v1/onboarding/plans", token, map[string]any{
		"userId":    uuid.New().String(),
		"companyId": companyID,
		"startDate": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeBody(t, w)["error"])

	w = e.do(t, http.MethodPost, "/api/v1/onboarding/plans", token, map[string]any{
		"companyId": companyID,
		"startDate": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"], "userId")
}

func TestManagerRoleGrantsNoCompanyAccess(t *testing.T) {
	e := newTestEnv(t)
	_, ownerToken := e.newUser(t, "owner@example.com", model.RoleManager)
	companyID := e.createCompany(t, ownerToken, "Acme")

	// A manager-role account with no membership is still a stranger.
	_, managerToken := e.newUser(t, "rival@example.com", model.RoleManager)
	w := e.do(t, http.MethodGet, "/api/v1/companies/"+companyID, managerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnknownRouteReturnsJSONEnvelope(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", decodeBody(t, w)["error"])
}

func TestUnmatchedRequestsAreCounted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	// The env is built after swapping the provider so the router's metrics
	// middleware binds to the manual reader.
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var counted int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("status")); ok && v.AsString() == "404" {
					counted += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), counted)
}

func TestMalformedJSONBody(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.newUser(t, "owner@example.com", model.RoleManager)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body must be valid JSON", decodeBody(t, w)["error"])
}

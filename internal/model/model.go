// Package model contains GORM model definitions shared across packages.
// All models are driver-agnostic: they work with both PostgreSQL and SQLite.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanStatus enumerates the lifecycle states of an onboarding plan.
type PlanStatus string

const (
	PlanNotStarted PlanStatus = "not_started"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanPaused     PlanStatus = "paused"
)

// ModuleType enumerates the fixed learning-content categories. A company has
// at most one module_content row per type.
type ModuleType string

const (
	ModuleCompanyOverview ModuleType = "company_overview"
	ModuleProduct         ModuleType = "product"
	ModuleCompetitive     ModuleType = "competitive"
	ModuleTools           ModuleType = "tools"
	ModuleCulture         ModuleType = "culture"
)

// PersonRole enumerates the roles an important person can hold for a new hire.
type PersonRole string

const (
	PersonManager     PersonRole = "manager"
	PersonBuddy       PersonRole = "buddy"
	PersonStakeholder PersonRole = "stakeholder"
	PersonTeamMember  PersonRole = "team_member"
)

// User roles carried as JWT claims. Clients never set these themselves.
const (
	RoleManager = "manager"
	RoleNewHire = "new_hire"
)

// User is the GORM model for the users table.
type User struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	Email         string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	Image         *string   `gorm:"type:text" json:"image"`
	Role          string    `gorm:"type:text;not null;default:'new_hire'" json:"role"`
	PasswordHash  string    `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// RefreshToken is the GORM model for the refresh_tokens table.
type RefreshToken struct {
	ID        string    `gorm:"type:text;primaryKey"`
	UserID    string    `gorm:"type:text;not null;index"`
	TokenHash string    `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

// BeforeCreate generates a UUID primary key if not set.
func (rt *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	return nil
}

// Company is the root of multi-tenancy. Every business entity except User
// belongs to exactly one company, directly or through its plan.
type Company struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Industry    *string   `gorm:"type:text" json:"industry"`
	Size        *string   `gorm:"type:text" json:"size"`
	Description *string   `gorm:"type:text" json:"description"`
	Website     *string   `gorm:"type:text" json:"website"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (c *Company) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// CompanyMember links a user to a company. The access checker treats any
// membership row as company access; role distinguishes admins from members.
type CompanyMember struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CompanyID string    `gorm:"type:text;not null;uniqueIndex:idx_company_members_pair" json:"companyId"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_company_members_pair;index" json:"userId"`
	Role      string    `gorm:"type:text;not null;default:'member'" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (m *CompanyMember) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// OnboardingTemplate is a reusable plan blueprint owned by a company.
type OnboardingTemplate struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	CompanyID     string    `gorm:"type:text;not null;index" json:"companyId"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	DurationWeeks int       `gorm:"not null" json:"durationWeeks"`
	Description   *string   `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (t *OnboardingTemplate) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// OnboardingPlan ties one new-hire user to one company's onboarding program.
type OnboardingPlan struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	UserID      string     `gorm:"type:text;not null;index" json:"userId"`
	CompanyID   string     `gorm:"type:text;not null;index" json:"companyId"`
	TemplateID  *string    `gorm:"type:text" json:"templateId"`
	Status      PlanStatus `gorm:"type:text;not null;default:'not_started'" json:"status"`
	StartDate   time.Time  `gorm:"not null" json:"startDate"`
	CurrentWeek int        `gorm:"not null;default:1" json:"currentWeek"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (p *OnboardingPlan) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Task is a single onboarding checklist item, ordered within its plan by
// (week_number, "order"). CompletedAt is non-nil iff Completed is true.
type Task struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	PlanID      string     `gorm:"type:text;not null;index" json:"planId"`
	Title       string     `gorm:"type:text;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Category    *string    `gorm:"type:text" json:"category"`
	WeekNumber  int        `gorm:"not null" json:"weekNumber"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	Order       int        `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// ModuleContent is a company-scoped piece of learning content. The unique
// index on (company_id, type) backs the atomic upsert in the module handler.
type ModuleContent struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	CompanyID string     `gorm:"type:text;not null;uniqueIndex:idx_module_content_company_type" json:"companyId"`
	Type      ModuleType `gorm:"type:text;not null;uniqueIndex:idx_module_content_company_type" json:"type"`
	Title     string     `gorm:"type:text;not null" json:"title"`
	Content   *string    `gorm:"type:text" json:"content"`
	Order     int        `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (m *ModuleContent) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ImportantPerson is a company-scoped directory entry shown to new hires.
type ImportantPerson struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	CompanyID string     `gorm:"type:text;not null;index" json:"companyId"`
	Name      string     `gorm:"type:text;not null" json:"name"`
	Title     string     `gorm:"type:text;not null" json:"title"`
	Email     string     `gorm:"type:text;not null" json:"email"`
	Role      PersonRole `gorm:"type:text;not null" json:"role"`
	PhotoURL  *string    `gorm:"type:text" json:"photoUrl"`
	Bio       *string    `gorm:"type:text" json:"bio"`
	Order     int        `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (p *ImportantPerson) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// WeeklyReflection is a new hire's self-reported weekly check-in.
type WeeklyReflection struct {
	ID                  string    `gorm:"type:text;primaryKey" json:"id"`
	PlanID              string    `gorm:"type:text;not null;index" json:"planId"`
	WeekNumber          int       `gorm:"not null" json:"weekNumber"`
	SubmittedAt         time.Time `gorm:"not null" json:"submittedAt"`
	GoalsProgress       *string   `gorm:"type:text" json:"goalsProgress"`
	Challenges          *string   `gorm:"type:text" json:"challenges"`
	ClarificationNeeded *string   `gorm:"type:text" json:"clarificationNeeded"`
	ConfidenceLevel     *int      `json:"confidenceLevel"`
	AdditionalComments  *string   `gorm:"type:text" json:"additionalComments"`
}

// BeforeCreate generates a UUID primary key and stamps SubmittedAt if unset.
func (r *WeeklyReflection) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}

// All returns every model in AutoMigrate order (owners before children).
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Company{},
		&CompanyMember{},
		&OnboardingTemplate{},
		&OnboardingPlan{},
		&Task{},
		&ModuleContent{},
		&ImportantPerson{},
		&WeeklyReflection{},
	}
}

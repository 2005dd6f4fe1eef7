// Package access decides whether an authenticated user may act on a company.
// Plan ownership is a separate, per-handler check and does not live here.
package access

import (
	"context"
	"fmt"

	"github.com/rjirving6-commits/rampright/internal/model"
	"gorm.io/gorm"
)

// Checker answers company-scoped authorization questions.
type Checker struct {
	db *gorm.DB
	// open disables the membership check entirely (historical permit-all
	// behaviour). Never enable outside a demo environment.
	open bool
}

// New creates a Checker. Set open to restore the legacy permit-all policy.
func New(db *gorm.DB, open bool) *Checker {
	return &Checker{db: db, open: open}
}

// CanAccessCompany reports whether userID belongs to companyID: either a
// company_members row exists for the pair, or the user has an onboarding
// plan under the company.
func (c *Checker) CanAccessCompany(ctx context.Context, userID, companyID string) (bool, error) {
	if c.open {
		return true, nil
	}

	var n int64
	err := c.db.WithContext(ctx).Model(&model.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count memberships: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	err = c.db.WithContext(ctx).Model(&model.OnboardingPlan{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count plans: %w", err)
	}
	return n > 0, nil
}

// GrantMembership inserts a membership row for the pair, ignoring an existing
// one. Used when a company is created (the creator becomes its admin).
func (c *Checker) GrantMembership(ctx context.Context, userID, companyID, role string) error {
	m := &model.CompanyMember{CompanyID: companyID, UserID: userID, Role: role}
	err := c.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		FirstOrCreate(m).Error
	if err != nil {
		return fmt.Errorf("grant membership: %w", err)
	}
	return nil
}

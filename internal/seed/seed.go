// Package seed creates a default manager user on first boot when the users
// table is empty.
package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/rjirving6-commits/rampright/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ManagerOptions configures the seed manager user.
type ManagerOptions struct {
	Email    string
	Password string // if empty, a random password is generated
}

// EnsureManager creates a seed manager user if no users exist.
// It prints a generated password to stdout exactly once; a supplied password
// is used directly and never printed. Safe to call on every startup.
func EnsureManager(ctx context.Context, db *gorm.DB, opts ManagerOptions, log *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Info("seed manager already exists")
		return nil
	}

	password := opts.Password
	if password == "" {
		var err error
		password, err = generatePassword()
		if err != nil {
			return fmt.Errorf("generate seed password: %w", err)
		}
		fmt.Printf("[rampright] seed manager password: %s\n", password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	u := &model.User{
		Email:        opts.Email,
		Name:         "Seed Manager",
		PasswordHash: string(hash),
		Role:         model.RoleManager,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("insert seed manager: %w", err)
	}

	log.Info("seed manager created", "email", opts.Email)
	return nil
}

func generatePassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

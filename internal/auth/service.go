package auth

import (
	"context"
	"errors"
	"strings"

	"studio-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminFinder looks up an admin by credentials (GORM in production, fakes in tests).
type AdminFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.AdminUser, error)
}

// GormAdminFinder implements AdminFinder with GORM and bcrypt.
type GormAdminFinder struct{ DB *gorm.DB }

func (g *GormAdminFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.AdminUser, error) {
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	var u domain.AdminUser
	if err := g.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAdmin
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrUnknownAdmin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return &u, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet. An existing
// account keeps its password. Empty email or password does nothing.
func EnsureAdmin(ctx context.Context, db *gorm.DB, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Studio Admin"
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&domain.AdminUser{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleAdmin})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Info().Str("email", email).Msg("Bootstrap admin created")
	}
	return nil
}

package auth

import (
	"context"
	"testing"

	"studio-backend/internal/domain"
	"studio-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestEnsureAdmin_CreatesOnce(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureAdmin(ctx, db, "", "Owner@Studio.test", "first-password"))
	require.NoError(t, EnsureAdmin(ctx, db, "", "owner@studio.test", "second-password"))

	var admins []domain.AdminUser
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "owner@studio.test", admins[0].Email)
	assert.Equal(t, domain.RoleAdmin, admins[0].Role)

	finder := &GormAdminFinder{DB: db}
	_, err := finder.FindByEmailAndPassword(ctx, "owner@studio.test", "first-password")
	assert.NoError(t, err, "existing password is kept")
}

func TestEnsureAdmin_NoCredentials(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, EnsureAdmin(context.Background(), db, "Owner", "", ""))
	var n int64
	require.NoError(t, db.Model(&domain.AdminUser{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGormAdminFinder(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, EnsureAdmin(ctx, db, "Owner", "owner@studio.test", "password123"))
	finder := &GormAdminFinder{DB: db}

	u, err := finder.FindByEmailAndPassword(ctx, " OWNER@studio.test", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Owner", u.Name)

	_, err = finder.FindByEmailAndPassword(ctx, "owner@studio.test", "wrong")
	assert.Equal(t, ErrWrongPassword, err)

	_, err = finder.FindByEmailAndPassword(ctx, "nobody@studio.test", "password123")
	assert.Equal(t, ErrUnknownAdmin, err)

	_, err = finder.FindByEmailAndPassword(ctx, "", "")
	assert.Equal(t, ErrCredentialsRequired, err)
}

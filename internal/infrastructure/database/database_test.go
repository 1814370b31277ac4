package database

import (
	"context"
	"fmt"
	"testing"

	"studio-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, GormPing(context.Background(), db))
	for _, table := range []interface{}{&domain.AdminUser{}, &domain.Client{}, &domain.Project{}, &domain.Payment{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestClose(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, Close(db))
	assert.Error(t, GormPing(context.Background(), db))
}

type countingWriter struct{ lines []string }

func (w *countingWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	w := &countingWriter{}
	quiet := db.Session(&gorm.Session{Logger: newLogger(w)})
	var c domain.Client
	err = quiet.Where("email = ?", "nobody@example.com").First(&c).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, w.lines)

	// real failures are still reported
	_ = quiet.Exec("SELECT * FROM no_such_table").Error
	assert.NotEmpty(t, w.lines)
}

func TestSQLite_DeletingClientCascades(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	client := &domain.Client{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(client).Error)
	project := &domain.Project{ClientID: client.ID, ProjectType: domain.ProjectLanding, Status: domain.StatusApproved}
	require.NoError(t, db.Create(project).Error)
	payment := &domain.Payment{ProjectID: project.ID, Currency: "aud", PaymentMethod: domain.MethodStripe,
		PaymentStatus: domain.PaymentCompleted, GatewayReference: "pi_cascade"}
	require.NoError(t, db.Create(payment).Error)

	require.NoError(t, db.Delete(&domain.Client{}, "id = ?", client.ID).Error)

	var projects, payments int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&projects).Error)
	require.NoError(t, db.Model(&domain.Payment{}).Count(&payments).Error)
	assert.Zero(t, projects)
	assert.Zero(t, payments)
}

func TestSQLite_RejectsOrphanProject(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	err = db.Create(&domain.Project{ClientID: uuid.New(), ProjectType: domain.ProjectLanding}).Error
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", sqliteDSN(":memory:"))
	assert.Equal(t, "studio.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", sqliteDSN("studio.db?_pragma=busy_timeout(5000)"))
}

package bookings

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"studio-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows ListProjects. Zero values mean "any".
type ProjectFilter struct {
	Status domain.ProjectStatus
	Month  string
	Limit  int
	Offset int
}

// Store is the persistence the booking lifecycle needs. Methods called on the Store
// passed into WithinTx / WithinMonthLock run inside that transaction.
type Store interface {
	FindClientByEmail(ctx context.Context, email string) (*domain.Client, error)
	CreateClient(ctx context.Context, name, email string, phone *string) (*domain.Client, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, int64, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, from, to domain.ProjectStatus) (bool, error)
	CountProjectsForMonth(ctx context.Context, month string, exclude []domain.ProjectStatus) (int64, error)
	FindPaymentByReference(ctx context.Context, ref string) (*domain.Payment, error)
	UpsertPayment(ctx context.Context, p *domain.Payment) error
	WithinTx(ctx context.Context, fn func(Store) error) error
	WithinMonthLock(ctx context.Context, month string, fn func(Store) error) error
}

// GormStore implements Store on GORM (Postgres in production, SQLite in dev and tests).
type GormStore struct {
	DB    *gorm.DB
	locks *monthLocks
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db, locks: &monthLocks{m: map[string]*sync.Mutex{}}}
}

func (s *GormStore) withTx(tx *gorm.DB) *GormStore {
	return &GormStore{DB: tx, locks: s.locks}
}

// FindClientByEmail returns nil, nil when no client has that email.
func (s *GormStore) FindClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var c domain.Client
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client or, when the email already exists, returns the stored row unchanged.
func (s *GormStore) CreateClient(ctx context.Context, name, email string, phone *string) (*domain.Client, error) {
	c := domain.Client{Name: name, Email: strings.ToLower(email), Phone: phone}
	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&c).Error; err != nil {
		return nil, err
	}
	var stored domain.Client
	if err := db.Where("email = ?", c.Email).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *GormStore) CreateProject(ctx context.Context, p *domain.Project) error {
	return s.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// GetProject loads a project with its client and payments.
func (s *GormStore) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Month != "" {
			db = db.Where("booking_month = ?", f.Month)
		}
		return db
	}
	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.Project{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var projects []domain.Project
	if err := db.Scopes(scope).
		Preload("Client").
		Order("created_at DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// UpdateProjectStatus moves id from `from` to `to` only if it is still in `from`.
// It reports whether a row changed.
func (s *GormStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, from, to domain.ProjectStatus) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountProjectsForMonth counts bookings holding a slot in month. Service-only projects
// never hold a slot.
func (s *GormStore) CountProjectsForMonth(ctx context.Context, month string, exclude []domain.ProjectStatus) (int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("booking_month = ?", month).
		Where("project_type <> ?", domain.ProjectServiceOnly)
	if len(exclude) > 0 {
		q = q.Where("status NOT IN ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// FindPaymentByReference returns nil, nil when no payment has that gateway reference.
func (s *GormStore) FindPaymentByReference(ctx context.Context, ref string) (*domain.Payment, error) {
	var p domain.Payment
	err := s.DB.WithContext(ctx).Where("gateway_reference = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPayment inserts p or overwrites the mutable columns of the row with the same gateway reference.
func (s *GormStore) UpsertPayment(ctx context.Context, p *domain.Payment) error {
	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "currency", "payment_status", "raw_event", "updated_at"}),
	}).Create(p).Error; err != nil {
		return err
	}
	var stored domain.Payment
	if err := db.Where("gateway_reference = ?", p.GatewayReference).First(&stored).Error; err != nil {
		return err
	}
	*p = stored
	return nil
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.withTx(tx))
	})
}

// WithinMonthLock runs fn in a transaction that holds the month's lock, so the
// count-then-insert for a slot cannot interleave with another booking for that month.
func (s *GormStore) WithinMonthLock(ctx context.Context, month string, fn func(Store) error) error {
	unlock := s.locks.lock(month)
	defer unlock()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", monthLockKey(month)).Error; err != nil {
				return err
			}
		}
		return fn(s.withTx(tx))
	})
}

// monthLocks serializes bookings per month within this process; the advisory lock covers
// other instances sharing the database.
type monthLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *monthLocks) lock(month string) func() {
	l.mu.Lock()
	mu, ok := l.m[month]
	if !ok {
		mu = &sync.Mutex{}
		l.m[month] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}

func monthLockKey(month string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("booking_month:" + month))
	return int64(h.Sum64())
}

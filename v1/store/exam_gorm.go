package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
)

const (
	defaultExamTableName = "lounge_examinations"
	defaultGormOpTimeout = 5 * time.Second
)

// GormExam implements ExamStore using a GORM backend.
type GormExam struct {
	db        *gorm.DB
	tableName string
	timeout   time.Duration
}

// GormExamOption configures a GormExam store.
type GormExamOption func(*gormExamOptions)

type gormExamOptions struct {
	tableName string
	timeout   time.Duration
}

// WithExamTableName sets the table name for examination records.
func WithExamTableName(name string) GormExamOption {
	return func(o *gormExamOptions) {
		o.tableName = name
	}
}

// WithExamTimeout sets the operation timeout for GORM calls.
func WithExamTimeout(d time.Duration) GormExamOption {
	return func(o *gormExamOptions) {
		o.timeout = d
	}
}

// NewGormExam returns a new GormExam using the provided GORM DB connection.
func NewGormExam(db *gorm.DB, opts ...GormExamOption) *GormExam {
	o := gormExamOptions{tableName: defaultExamTableName, timeout: defaultGormOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure the table exists
	if !db.Migrator().HasTable(o.tableName) {
		_ = db.Table(o.tableName).AutoMigrate(&Examination{})
	}

	return &GormExam{db: db, tableName: o.tableName, timeout: o.timeout}
}

// Create implements ExamStore.Create.
func (s *GormExam) Create(ctx context.Context, e *Examination) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(cctx).Table(s.tableName).Create(e).Error
	if errors.Is(err, context.DeadlineExceeded) {
		return loungeerrors.ErrTimeout
	}
	return err
}

func (s *GormExam) findInProgress(ctx context.Context, query string, args ...any) (Examination, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var e Examination
	err := s.db.WithContext(cctx).Table(s.tableName).
		Where("status = ?", StatusInProgress).
		Where(query, args...).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Examination{}, loungeerrors.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Examination{}, loungeerrors.ErrTimeout
	}
	if err != nil {
		return Examination{}, err
	}
	return e, nil
}

// InProgressByProvider implements ExamStore.InProgressByProvider.
func (s *GormExam) InProgressByProvider(ctx context.Context, providerID string) (Examination, error) {
	return s.findInProgress(ctx, "provider_id = ?", providerID)
}

// InProgressByVisitor implements ExamStore.InProgressByVisitor.
func (s *GormExam) InProgressByVisitor(ctx context.Context, visitorID string) (Examination, error) {
	return s.findInProgress(ctx, "visitor_id = ?", visitorID)
}

// InProgress implements ExamStore.InProgress.
func (s *GormExam) InProgress(ctx context.Context, providerID, visitorID string) (Examination, error) {
	return s.findInProgress(ctx, "provider_id = ? AND visitor_id = ?", providerID, visitorID)
}

// Transition implements ExamStore.Transition.
func (s *GormExam) Transition(ctx context.Context, id string, from, to ExamStatus, endedAt time.Time) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(cctx).Table(s.tableName).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "ended_at": endedAt})
	if res.Error != nil {
		if errors.Is(res.Error, context.DeadlineExceeded) {
			return loungeerrors.ErrTimeout
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loungeerrors.ErrNotInProgress
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
	"gorm.io/gorm"
)

type gormDiagnosticRepo struct {
	db *gorm.DB
}

// NewGormDiagnosticRepo migrates the diagnostics table and appends through gorm.
func NewGormDiagnosticRepo(db *gorm.DB) (DiagnosticRepository, error) {
	if err := db.AutoMigrate(&diagnostic.Record{}); err != nil {
		return nil, fmt.Errorf("migrate diagnostics: %w", err)
	}
	return &gormDiagnosticRepo{db: db}, nil
}

func (r *gormDiagnosticRepo) Append(ctx context.Context, rec diagnostic.Record) error {
	rec = stampRecord(rec)
	return r.db.WithContext(ctx).Create(&rec).Error
}

package repository

import (
	"sigsync/internal/runlog/domain"

	"gorm.io/gorm"
)

// RunReportRepository persists dispatch run summaries.
type RunReportRepository interface {
	Save(report *domain.RunReport) error
	Recent(limit int) ([]domain.RunReport, error)
}

type runReportRepository struct {
	db *gorm.DB
}

func NewRunReportRepository(db *gorm.DB) RunReportRepository {
	return &runReportRepository{db: db}
}

func (r *runReportRepository) Save(report *domain.RunReport) error {
	return r.db.Save(report).Error
}

func (r *runReportRepository) Recent(limit int) ([]domain.RunReport, error) {
	var reports []domain.RunReport
	err := r.db.Order("started_at DESC").Limit(limit).Find(&reports).Error
	return reports, err
}

package repository

import (
	"github.com/guildforge/guildforge/internal/models"
	"gorm.io/gorm"
)

// RunRepository persists provisioning run records
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record
func (r *RunRepository) Create(run *models.ProvisionRun) error {
	return r.db.Create(run).Error
}

// Update saves changes to an existing run record
func (r *RunRepository) Update(run *models.ProvisionRun) error {
	return r.db.Save(run).Error
}

// FindByRunID returns the run with the given run ID
func (r *RunRepository) FindByRunID(runID string) (*models.ProvisionRun, error) {
	var run models.ProvisionRun
	if err := r.db.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByGuild returns runs for a guild, newest first
func (r *RunRepository) FindByGuild(guildID string, limit int) ([]models.ProvisionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.ProvisionRun
	err := r.db.Where("guild_id = ?", guildID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// FindRecent returns the most recent runs across all guilds
func (r *RunRepository) FindRecent(limit int) ([]models.ProvisionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.ProvisionRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// CountByStatus returns the number of runs in the given status
func (r *RunRepository) CountByStatus(status models.RunStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProvisionRun{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

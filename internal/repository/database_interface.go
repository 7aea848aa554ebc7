package repository

import (
	"github.com/guildforge/guildforge/internal/models"
	"gorm.io/gorm"
)

// DatabaseProvider abstracts the backing database so tests can swap it out.
type DatabaseProvider interface {
	GetDB() *gorm.DB
	Migrate(models ...interface{}) error
	Close() error
	Ping() error
}

// PostgreSQLProvider implements DatabaseProvider for PostgreSQL
type PostgreSQLProvider struct {
	db *gorm.DB
}

func (p *PostgreSQLProvider) GetDB() *gorm.DB {
	return p.db
}

func (p *PostgreSQLProvider) Migrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

func (p *PostgreSQLProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *PostgreSQLProvider) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// RunRepositoryInterface lets services depend on run persistence without the
// concrete gorm type.
type RunRepositoryInterface interface {
	Create(run *models.ProvisionRun) error
	Update(run *models.ProvisionRun) error
	FindByRunID(runID string) (*models.ProvisionRun, error)
	FindByGuild(guildID string, limit int) ([]models.ProvisionRun, error)
	FindRecent(limit int) ([]models.ProvisionRun, error)
	CountByStatus(status models.RunStatus) (int64, error)
}

// Ensure RunRepository implements the interface
var _ RunRepositoryInterface = (*RunRepository)(nil)

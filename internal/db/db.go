package db

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"pncp/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// InitDB opens the process-wide pool. logLevel follows LOG_LEVEL; SQL is only
// echoed at debug.
func InitDB(dsn string, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}

	return nil
}

// Migrate creates or updates every table the pipeline writes or reads.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.APIResponseMetadata{},
		&models.Contratacao{},
		&models.OportunidadeAberta{},
		&models.AtaRegistroPreco{},
		&models.ModalidadeContratacao{},
		&models.ModoDisputa{},
		&models.SituacaoContratacao{},
	)
}

// SeedDomainTables upserts the reference rows by id, refreshing their names.
// The ativo flag is left untouched on existing rows.
func SeedDomainTables(ctx context.Context, db *gorm.DB) error {
	refreshName := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nome"}),
	}

	modalidades := slices.Clone(models.Modalidades)
	if err := gorm.G[models.ModalidadeContratacao](db, refreshName).CreateInBatches(ctx, &modalidades, 100); err != nil {
		return fmt.Errorf("seed modalidades: %w", err)
	}

	modos := slices.Clone(models.ModosDisputa)
	if err := gorm.G[models.ModoDisputa](db, refreshName).CreateInBatches(ctx, &modos, 100); err != nil {
		return fmt.Errorf("seed modos de disputa: %w", err)
	}

	situacoes := slices.Clone(models.Situacoes)
	if err := gorm.G[models.SituacaoContratacao](db, refreshName).CreateInBatches(ctx, &situacoes, 100); err != nil {
		return fmt.Errorf("seed situacoes: %w", err)
	}

	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return logger.Info
	case "info", "warn", "warning":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

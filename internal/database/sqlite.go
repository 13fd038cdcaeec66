package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/solvras/file-usage-overview/internal/content"
	"github.com/solvras/file-usage-overview/internal/relations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations
// for the content tables and the owned rich-text relation table.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&content.Element{},
		&content.Entry{},
		&content.Asset{},
		&content.Category{},
		&content.CategoryGroup{},
		&content.MatrixBlock{},
		&content.NativeRelation{},
		&relations.RichTextRelation{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

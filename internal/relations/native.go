package relations

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var errReaderMissingDatabase = errors.New("relations: database handle is required")

// NativeReader queries the platform's structured relation table. The rows
// are owned by the platform; this subsystem only reads them.
type NativeReader struct {
	db *gorm.DB
}

// NewNativeReader returns a NativeReader over the given database handle.
func NewNativeReader(db *gorm.DB) (*NativeReader, error) {
	if db == nil {
		return nil, errReaderMissingDatabase
	}
	return &NativeReader{db: db}, nil
}

type nativeReferenceRow struct {
	ElementID int64  `gorm:"column:elementId"`
	SiteID    *int64 `gorm:"column:siteId"`
}

// ReferencesToAsset returns every structured relation targeting the asset
// whose source element is already canonical. Draft and revision sources have
// a canonical parent and are excluded here; their canonical counterparts
// carry their own relation rows.
func (r *NativeReader) ReferencesToAsset(ctx context.Context, assetID int64) ([]Reference, error) {
	var rows []nativeReferenceRow
	err := r.db.WithContext(ctx).
		Table("relations").
		Select("relations.sourceId AS elementId, relations.sourceSiteId AS siteId").
		Joins("LEFT JOIN elements ON elements.id = relations.sourceId").
		Where("relations.targetId = ? AND elements.canonicalId IS NULL", assetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("relations: native reference query for asset %d: %w", assetID, err)
	}

	references := make([]Reference, 0, len(rows))
	for _, row := range rows {
		reference := Reference{ElementID: row.ElementID}
		if row.SiteID != nil {
			reference.SiteID = *row.SiteID
		}
		references = append(references, reference)
	}
	return references, nil
}

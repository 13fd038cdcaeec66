// Package relations owns the durable rich-text relation rows and the
// read-only queries over the platform's structured relation table. Together
// these are the two reference sources the usage resolver unions.
package relations

import (
	"time"

	"github.com/solvras/file-usage-overview/internal/content"
)

// RichTextRelation is one observed reference from an entry's rich-text
// content to an asset. At most one row exists per (entryId, assetId) pair;
// repeated references update the site context and timestamp in place.
type RichTextRelation struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntryID     int64     `gorm:"column:entryId;not null;index:idx_redactor_relations_entry"`
	AssetID     int64     `gorm:"column:assetId;not null;index:idx_redactor_relations_asset"`
	EntrySiteID *int64    `gorm:"column:entrySiteId"`
	DateCreated time.Time `gorm:"column:dateCreated;not null"`
	DateUpdated time.Time `gorm:"column:dateUpdated;not null"`
	UID         string    `gorm:"column:uid;size:36;not null"`

	Entry *content.Entry `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntryID;references:ID"`
	Asset *content.Asset `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssetID;references:ID"`
}

// TableName provides the explicit table binding for GORM.
func (RichTextRelation) TableName() string {
	return "redactor-relations"
}

// Reference is one (element, site) pair pointing at an asset, as produced by
// either reference source. A zero SiteID means the source row carried no
// site context.
type Reference struct {
	ElementID int64
	SiteID    int64
}

// Package content models the host platform's element graph as far as the
// usage subsystem needs to read it: elements with canonical/draft/revision
// identity, entries, assets, categories, matrix blocks, and the platform's
// structured relation rows.
package content

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/solvras/file-usage-overview/internal/fields"
)

// Element kinds stored in the elements table.
const (
	KindEntry    = "entry"
	KindAsset    = "asset"
	KindCategory = "category"
	KindBlock    = "block"
)

// Element is one row of the platform's element identity table. Drafts and
// revisions carry a non-null canonicalId pointing at the live element;
// nested block elements carry an ownerId pointing at the owning entry.
type Element struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Kind        string    `gorm:"column:type;size:64;not null;index"`
	CanonicalID *int64    `gorm:"column:canonicalId;index"`
	DraftID     *int64    `gorm:"column:draftId"`
	RevisionID  *int64    `gorm:"column:revisionId"`
	OwnerID     *int64    `gorm:"column:ownerId;index"`
	SiteID      int64     `gorm:"column:siteId;not null;default:1"`
	Enabled     bool      `gorm:"column:enabled;not null"`
	DateCreated time.Time `gorm:"column:dateCreated"`
	DateUpdated time.Time `gorm:"column:dateUpdated"`
}

// TableName provides the explicit table binding for GORM.
func (Element) TableName() string {
	return "elements"
}

// IsCanonical reports whether the element is the live identity rather than a
// draft or revision copy.
func (e *Element) IsCanonical() bool {
	return e.CanonicalID == nil
}

// IsDraft reports whether the element is a draft copy.
func (e *Element) IsDraft() bool {
	return e.DraftID != nil
}

// IsRevision reports whether the element is a revision copy.
func (e *Element) IsRevision() bool {
	return e.RevisionID != nil
}

// Entry is one row of the entries table, keyed by element id. The field
// layout and field values are runtime state carried through the save
// pipeline; they are not persisted by this subsystem.
type Entry struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	SectionHandle string `gorm:"column:sectionHandle;size:190;not null;index"`
	Title         string `gorm:"column:title;size:255;not null"`
	URL           string `gorm:"column:url;size:255"`

	Element     *Element       `gorm:"-"`
	FieldLayout *fields.Layout `gorm:"-"`
	FieldValues fields.Values  `gorm:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "entries"
}

// CanonicalID returns the live entry identity: the element's canonical
// parent when the save fired on a draft or revision, the entry's own id
// otherwise.
func (e *Entry) CanonicalID() int64 {
	if e.Element != nil && e.Element.CanonicalID != nil {
		return *e.Element.CanonicalID
	}
	return e.ID
}

// CpEditURL returns the control-panel edit URL for the entry.
func (e *Entry) CpEditURL() string {
	return fmt.Sprintf("/admin/entries/%s/%d", e.SectionHandle, e.ID)
}

// Asset is one row of the assets table, keyed by element id.
type Asset struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Title        string    `gorm:"column:title;size:255;not null"`
	Filename     string    `gorm:"column:filename;size:255;not null"`
	URL          string    `gorm:"column:url;size:255"`
	Size         int64     `gorm:"column:size;not null;default:0"`
	DateModified time.Time `gorm:"column:dateModified"`
}

// TableName provides the explicit table binding for GORM.
func (Asset) TableName() string {
	return "assets"
}

// Extension returns the filename extension without the leading dot.
func (a *Asset) Extension() string {
	return strings.TrimPrefix(filepath.Ext(a.Filename), ".")
}

// Category is one row of the categories table, keyed by element id.
type Category struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	GroupID int64  `gorm:"column:groupId;not null;index"`
	Title   string `gorm:"column:title;size:255;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Category) TableName() string {
	return "categories"
}

// CategoryGroup is one row of the category group lookup table.
type CategoryGroup struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Handle string `gorm:"column:handle;size:190;not null;uniqueIndex"`
	Name   string `gorm:"column:name;size:255;not null"`
}

// TableName provides the explicit table binding for GORM.
func (CategoryGroup) TableName() string {
	return "categorygroups"
}

// MatrixBlock is one persisted block instance of a matrix field, keyed by
// element id and owned by an entry.
type MatrixBlock struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	EntryID     int64  `gorm:"column:entryId;not null;index"`
	FieldHandle string `gorm:"column:fieldHandle;size:190;not null"`
	TypeHandle  string `gorm:"column:typeHandle;size:190;not null;index"`
	SortOrder   int    `gorm:"column:sortOrder;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (MatrixBlock) TableName() string {
	return "matrixblocks"
}

// NativeRelation is one row of the platform's structured relation table. The
// usage subsystem consumes these rows and never writes them.
type NativeRelation struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	SourceID     int64  `gorm:"column:sourceId;not null;index"`
	SourceSiteID *int64 `gorm:"column:sourceSiteId"`
	TargetID     int64  `gorm:"column:targetId;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (NativeRelation) TableName() string {
	return "relations"
}

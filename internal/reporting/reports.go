// Package reporting implements the two read-only aggregate queries exposed
// over the JSON surface: the flat file listing for "filesList" content
// blocks, and the per-category file count for the document category group.
package reporting

import (
	"context"
	"errors"
	"fmt"

	"github.com/solvras/file-usage-overview/internal/content"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// filesListBlockType is the matrix block type whose attached assets
	// appear in the file listing.
	filesListBlockType = "filesList"
	// documentCategoryGroupHandle identifies the category group counted by
	// the category usage report.
	documentCategoryGroupHandle = "documentCategories"

	dateChangedLayout = "2006-01-02 15:04:05"
)

var errReportsMissingDatabase = errors.New("reporting: database handle is required")

// CategoryRef labels one category attached to a file record.
type CategoryRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// FileRecord is one row of the file listing report.
type FileRecord struct {
	EntryID           int64         `json:"entryId"`
	EntryTitle        string        `json:"entryTitle"`
	FileTitle         string        `json:"fileTitle"`
	SectionHandle     string        `json:"sectionHandle"`
	DocumentName      string        `json:"documentName"`
	DocumentURL       string        `json:"documentUrl"`
	DocumentExtension string        `json:"documentExtension"`
	DocumentSize      int64         `json:"documentSize"`
	DateChanged       string        `json:"dateChanged"`
	DocumentCategory  []CategoryRef `json:"documentCategory"`
}

// CategoryUsage is one row of the category usage report.
type CategoryUsage struct {
	ID            int64  `json:"id" gorm:"column:id"`
	CategoryTitle string `json:"categoryTitle" gorm:"column:categoryTitle"`
	FileCount     int64  `json:"fileCount" gorm:"column:fileCount"`
}

// Service runs the reporting queries. It holds no state beyond the database
// handle.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// ServiceConfig carries the dependencies for NewService.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// NewService validates the configuration and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errReportsMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// FileList walks every entry's "filesList" content blocks and emits one flat
// record per attached file asset, with its document category labels.
func (s *Service) FileList(ctx context.Context) ([]FileRecord, error) {
	var entries []content.Entry
	err := s.db.WithContext(ctx).
		Table("entries").
		Select("entries.*").
		Joins("INNER JOIN elements ON elements.id = entries.id").
		Where("elements.canonicalId IS NULL AND elements.draftId IS NULL AND elements.revisionId IS NULL AND elements.enabled = ?", true).
		Order("entries.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("reporting: entry listing: %w", err)
	}

	records := make([]FileRecord, 0)
	for _, entry := range entries {
		var blocks []content.MatrixBlock
		err := s.db.WithContext(ctx).
			Where("entryId = ? AND typeHandle = ?", entry.ID, filesListBlockType).
			Order("sortOrder ASC").
			Find(&blocks).Error
		if err != nil {
			return nil, fmt.Errorf("reporting: block listing for entry %d: %w", entry.ID, err)
		}

		for _, block := range blocks {
			assets, err := s.blockAssets(ctx, block.ID)
			if err != nil {
				return nil, err
			}
			for _, asset := range assets {
				categories, err := s.assetCategories(ctx, asset.ID)
				if err != nil {
					return nil, err
				}
				records = append(records, FileRecord{
					EntryID:           entry.ID,
					EntryTitle:        entry.Title,
					FileTitle:         asset.Title,
					SectionHandle:     entry.SectionHandle,
					DocumentName:      asset.Filename,
					DocumentURL:       asset.URL,
					DocumentExtension: asset.Extension(),
					DocumentSize:      asset.Size,
					DateChanged:       asset.DateModified.Format(dateChangedLayout),
					DocumentCategory:  categories,
				})
			}
		}
	}
	return records, nil
}

// blockAssets returns the assets attached to a block through the platform's
// structured relations, in relation order.
func (s *Service) blockAssets(ctx context.Context, blockID int64) ([]content.Asset, error) {
	var assets []content.Asset
	err := s.db.WithContext(ctx).
		Table("assets").
		Select("assets.*").
		Joins("INNER JOIN relations ON relations.sourceId = ? AND relations.targetId = assets.id", blockID).
		Order("relations.id ASC").
		Scan(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("reporting: asset listing for block %d: %w", blockID, err)
	}
	return assets, nil
}

// assetCategories returns the document categories related to an asset, or
// nil when there are none so the JSON field renders as null.
func (s *Service) assetCategories(ctx context.Context, assetID int64) ([]CategoryRef, error) {
	var categories []CategoryRef
	err := s.db.WithContext(ctx).
		Table("categories").
		Select("categories.id AS id, categories.title AS title").
		Joins("INNER JOIN relations ON relations.sourceId = ? AND relations.targetId = categories.id", assetID).
		Order("relations.id ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("reporting: category listing for asset %d: %w", assetID, err)
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return categories, nil
}

// CategoryUsageCounts reports, for every category in the document category
// group, how many file relations attach to it.
func (s *Service) CategoryUsageCounts(ctx context.Context) ([]CategoryUsage, error) {
	var group content.CategoryGroup
	err := s.db.WithContext(ctx).
		Where("handle = ?", documentCategoryGroupHandle).
		Take(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("category group missing, category report empty",
			zap.String("handle", documentCategoryGroupHandle))
		return []CategoryUsage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reporting: category group lookup: %w", err)
	}

	var rows []CategoryUsage
	err = s.db.WithContext(ctx).Raw(`
		SELECT categories.id AS id,
		       categories.title AS categoryTitle,
		       COUNT(files.id) AS fileCount
		FROM categories
		INNER JOIN elements ON categories.id = elements.id
		LEFT JOIN relations ON relations.targetId = categories.id
		LEFT JOIN assets AS files ON relations.sourceId = files.id
		WHERE categories.groupId = ?
		GROUP BY categories.id, categories.title
		ORDER BY categories.id ASC`, group.ID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reporting: category usage query: %w", err)
	}
	return rows, nil
}

package relations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errStoreMissingDatabase = errors.New("relations: database handle is required")

// Store persists rich-text relation rows. Rows are only ever inserted or
// updated here; removal happens through the cascading foreign keys when the
// owning entry or asset is deleted.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// StoreConfig carries the dependencies for NewStore.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// NewStore validates the configuration and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errStoreMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Upsert records one rich-text reference from an entry to an asset. An
// existing (entryId, assetId) row has its site context and timestamp updated
// in place, so repeated calls with identical arguments are idempotent.
//
// The existence check and the write are not wrapped in a transaction: the
// host platform serializes saves of the same entry, which is the only writer
// of a given (entryId, assetId) pair.
func (s *Store) Upsert(ctx context.Context, entryID, assetID, siteID int64) error {
	now := s.clock().UTC()

	var existing RichTextRelation
	err := s.db.WithContext(ctx).
		Where("entryId = ? AND assetId = ?", entryID, assetID).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := RichTextRelation{
			EntryID:     entryID,
			AssetID:     assetID,
			EntrySiteID: &siteID,
			DateCreated: now,
			DateUpdated: now,
			UID:         uuid.NewString(),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("relations: insert for entry %d asset %d: %w", entryID, assetID, err)
		}
		s.logger.Debug("rich text relation created",
			zap.Int64("entry_id", entryID),
			zap.Int64("asset_id", assetID),
			zap.Int64("site_id", siteID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("relations: lookup for entry %d asset %d: %w", entryID, assetID, err)
	}

	updates := map[string]any{
		"entrySiteId": siteID,
		"dateUpdated": now,
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("relations: update for entry %d asset %d: %w", entryID, assetID, err)
	}
	return nil
}

// ReferencesToAsset returns every stored rich-text reference pointing at the
// asset. Order is not significant.
func (s *Store) ReferencesToAsset(ctx context.Context, assetID int64) ([]Reference, error) {
	var rows []RichTextRelation
	if err := s.db.WithContext(ctx).Where("assetId = ?", assetID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("relations: stored reference query for asset %d: %w", assetID, err)
	}

	references := make([]Reference, 0, len(rows))
	for _, row := range rows {
		reference := Reference{ElementID: row.EntryID}
		if row.EntrySiteID != nil {
			reference.SiteID = *row.EntrySiteID
		}
		references = append(references, reference)
	}
	return references, nil
}

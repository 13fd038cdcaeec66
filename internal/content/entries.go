package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errEntriesMissingDatabase = errors.New("content: database handle is required")
	errSaveMissingEntry       = errors.New("content: entry is required")
)

// AfterEntrySaveHook observes entry saves. Hooks run synchronously after the
// save has committed; whatever they do must not affect the save outcome, so
// the interface exposes no error return.
type AfterEntrySaveHook interface {
	EntrySaved(ctx context.Context, entry *Entry)
}

// EntryService persists entries and drives the after-save pipeline. Hooks
// are wired explicitly at startup rather than through a global event bus.
type EntryService struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
	hooks  []AfterEntrySaveHook
}

// EntryServiceConfig carries the dependencies for NewEntryService.
type EntryServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// NewEntryService validates the configuration and returns an EntryService.
func NewEntryService(cfg EntryServiceConfig) (*EntryService, error) {
	if cfg.Database == nil {
		return nil, errEntriesMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{db: cfg.Database, clock: clock, logger: logger}, nil
}

// RegisterAfterSaveHook appends a hook to the save pipeline. Registration is
// a startup-time concern and is not safe to interleave with saves.
func (s *EntryService) RegisterAfterSaveHook(hook AfterEntrySaveHook) {
	if hook == nil {
		return
	}
	s.hooks = append(s.hooks, hook)
}

// SaveEntry persists the entry's element identity and entry row in one
// transaction, then invokes the after-save hooks. Hook work happens after
// the commit and can no longer fail the save.
func (s *EntryService) SaveEntry(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errSaveMissingEntry
	}

	now := s.clock().UTC()
	if entry.Element == nil {
		entry.Element = &Element{Kind: KindEntry, SiteID: 1, Enabled: true}
	}
	entry.Element.Kind = KindEntry
	if entry.Element.DateCreated.IsZero() {
		entry.Element.DateCreated = now
	}
	entry.Element.DateUpdated = now

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry.Element).Error; err != nil {
			return fmt.Errorf("content: element save: %w", err)
		}
		entry.ID = entry.Element.ID
		if err := tx.Save(entry).Error; err != nil {
			return fmt.Errorf("content: entry save: %w", err)
		}
		return nil
	})
	if txErr != nil {
		s.logger.Error("entry save failed", zap.Int64("entry_id", entry.ID), zap.Error(txErr))
		return txErr
	}

	for _, hook := range s.hooks {
		hook.EntrySaved(ctx, entry)
	}
	return nil
}

// Package indexing keeps stored rich-text relations in sync with entry
// content, one save at a time.
package indexing

import (
	"context"
	"errors"

	"github.com/solvras/file-usage-overview/internal/content"
	"github.com/solvras/file-usage-overview/internal/richtext"
	"go.uber.org/zap"
)

var errMissingRelationStore = errors.New("indexing: relation store is required")

// RelationUpserter records one rich-text reference from an entry to an
// asset.
type RelationUpserter interface {
	Upsert(ctx context.Context, entryID, assetID, siteID int64) error
}

// Listener re-extracts rich-text references whenever an entry is saved and
// upserts them into the relation store. It satisfies the entry save
// pipeline's after-save hook.
type Listener struct {
	store  RelationUpserter
	logger *zap.Logger
}

// ListenerConfig carries the dependencies for NewListener.
type ListenerConfig struct {
	Store  RelationUpserter
	Logger *zap.Logger
}

// NewListener validates the configuration and returns a Listener.
func NewListener(cfg ListenerConfig) (*Listener, error) {
	if cfg.Store == nil {
		return nil, errMissingRelationStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{store: cfg.Store, logger: logger}, nil
}

// EntrySaved walks the saved entry's rich-text-capable fields, extracts
// embedded asset references, and upserts each one keyed to the entry's
// canonical identity. The triggering save has already committed, so store
// failures are logged and swallowed here.
func (l *Listener) EntrySaved(ctx context.Context, entry *content.Entry) {
	if entry == nil || entry.FieldLayout == nil {
		return
	}

	canonicalID := entry.CanonicalID()
	for _, provider := range entry.FieldLayout.RichTextProviders() {
		for _, markup := range provider.RichTextContents(entry.FieldValues) {
			for _, reference := range richtext.ExtractReferences(markup) {
				if err := l.store.Upsert(ctx, canonicalID, reference.AssetID, reference.SiteID); err != nil {
					l.logger.Error("rich text relation upsert failed",
						zap.Int64("entry_id", canonicalID),
						zap.Int64("asset_id", reference.AssetID),
						zap.String("field", provider.Handle()),
						zap.Error(err))
				}
			}
		}
	}
}

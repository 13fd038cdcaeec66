package content

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errGraphMissingDatabase = errors.New("content: database handle is required")
	// ErrOwnerCycle indicates a nested element whose owner chain never
	// reaches a top-level element.
	ErrOwnerCycle = errors.New("content: element owner chain exceeds depth limit")
)

// maxOwnerDepth bounds the ownerId walk; real layouts nest at most a few
// levels (entry > matrix block > nested block).
const maxOwnerDepth = 8

// Graph reads the platform's element tables: element lookup by identity and
// site, root-entry resolution for nested elements, and the asset listing.
type Graph struct {
	db     *gorm.DB
	logger *zap.Logger
}

// GraphConfig carries the dependencies for NewGraph.
type GraphConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// NewGraph validates the configuration and returns a Graph.
func NewGraph(cfg GraphConfig) (*Graph, error) {
	if cfg.Database == nil {
		return nil, errGraphMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{db: cfg.Database, logger: logger}, nil
}

// ElementByID loads the element with the given identity. A zero siteID
// matches any site. A missing element returns (nil, nil): deleted or
// inaccessible elements are an expected outcome for the caller, not an
// error.
func (g *Graph) ElementByID(ctx context.Context, elementID int64, siteID int64) (*Element, error) {
	query := g.db.WithContext(ctx).Where("id = ?", elementID)
	if siteID != 0 {
		query = query.Where("siteId = ?", siteID)
	}

	var element Element
	err := query.Take(&element).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: element lookup for %d: %w", elementID, err)
	}
	return &element, nil
}

// RootEntry resolves the top-level entry that owns the given element,
// walking the owner chain for nested block elements. It returns (nil, nil)
// when the chain does not terminate at an entry or the entry row is gone.
func (g *Graph) RootEntry(ctx context.Context, element *Element) (*Entry, error) {
	if element == nil {
		return nil, nil
	}

	current := element
	for depth := 0; current.OwnerID != nil; depth++ {
		if depth >= maxOwnerDepth {
			return nil, fmt.Errorf("%w: element %d", ErrOwnerCycle, element.ID)
		}
		owner, err := g.ElementByID(ctx, *current.OwnerID, 0)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, nil
		}
		current = owner
	}

	if current.Kind != KindEntry {
		return nil, nil
	}

	var entry Entry
	err := g.db.WithContext(ctx).Where("id = ?", current.ID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: entry lookup for %d: %w", current.ID, err)
	}
	entry.Element = current
	return &entry, nil
}

// Assets returns every asset row, ordered by identity.
func (g *Graph) Assets(ctx context.Context) ([]Asset, error) {
	var assets []Asset
	if err := g.db.WithContext(ctx).Order("id ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("content: asset listing: %w", err)
	}
	return assets, nil
}

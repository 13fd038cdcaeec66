// Package usage resolves which live content entries reference an asset and
// aggregates the result into counts and "used in" listings.
package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/solvras/file-usage-overview/internal/content"
	"github.com/solvras/file-usage-overview/internal/relations"
	"go.uber.org/zap"
)

var (
	errMissingNativeSource = errors.New("usage: native relation source is required")
	errMissingStoredSource = errors.New("usage: stored relation source is required")
	errMissingElementGraph = errors.New("usage: element graph is required")
)

// ReferenceSource yields (element, site) pairs pointing at an asset. Both
// the platform's structured relations and the stored rich-text relations
// satisfy it.
type ReferenceSource interface {
	ReferencesToAsset(ctx context.Context, assetID int64) ([]relations.Reference, error)
}

// ElementGraph resolves elements and their owning root entries.
type ElementGraph interface {
	ElementByID(ctx context.Context, elementID int64, siteID int64) (*content.Element, error)
	RootEntry(ctx context.Context, element *content.Element) (*content.Entry, error)
}

// ResolutionError tags a failure inside the usage computation with the stage
// it occurred in. Public resolver operations log it and degrade to an empty
// result; usage display must never break the page rendering it.
type ResolutionError struct {
	Stage   string
	AssetID int64
	Err     error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("usage: %s for asset %d: %v", e.Stage, e.AssetID, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// UsageEntry is one referencing entry in the "used in" listing. Count is the
// number of surviving reference pairs that rooted to the entry, not a
// distinct-entry count.
type UsageEntry struct {
	EntryID   int64  `json:"entryId"`
	Title     string `json:"elementTitle"`
	URL       string `json:"elementUrl"`
	CpEditURL string `json:"cpEditUrl"`
	Count     int    `json:"count"`
}

// Resolver aggregates both reference sources into per-asset usage. It owns
// no state of its own; it is a read-side view over the relation sources and
// the element graph.
type Resolver struct {
	native   ReferenceSource
	stored   ReferenceSource
	elements ElementGraph
	assets   AssetLister
	logger   *zap.Logger
}

// AssetLister enumerates the platform's assets for the overview listing.
type AssetLister interface {
	Assets(ctx context.Context) ([]content.Asset, error)
}

// ResolverConfig carries the dependencies for NewResolver.
type ResolverConfig struct {
	Native   ReferenceSource
	Stored   ReferenceSource
	Elements ElementGraph
	Assets   AssetLister
	Logger   *zap.Logger
}

// NewResolver validates the configuration and returns a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Native == nil {
		return nil, errMissingNativeSource
	}
	if cfg.Stored == nil {
		return nil, errMissingStoredSource
	}
	if cfg.Elements == nil {
		return nil, errMissingElementGraph
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		native:   cfg.Native,
		stored:   cfg.Stored,
		elements: cfg.Elements,
		assets:   cfg.Assets,
		logger:   logger,
	}, nil
}

// ResolveUsage returns the live entries referencing the asset, one row per
// canonical root entry, in first-reference order. Any internal failure is
// logged and collapsed to an empty listing.
func (r *Resolver) ResolveUsage(ctx context.Context, assetID int64) []UsageEntry {
	entries, _, err := r.resolve(ctx, assetID)
	if err != nil {
		r.logResolutionFailure(err)
		return []UsageEntry{}
	}
	return entries
}

// CountUsage returns the asset's usage as a display string: "" for zero,
// "Used 1 time" for one, "Used N times" otherwise. The count is the number
// of surviving reference pairs. Failures degrade to the empty string.
func (r *Resolver) CountUsage(ctx context.Context, assetID int64) string {
	_, pairCount, err := r.resolve(ctx, assetID)
	if err != nil {
		r.logResolutionFailure(err)
		return ""
	}
	return FormatUsageCount(pairCount)
}

// AssetUsage is one row of the asset overview listing.
type AssetUsage struct {
	AssetID    int64  `json:"assetId"`
	AssetURL   string `json:"assetUrl"`
	AssetTitle string `json:"assetTitle"`
	UsedIn     string `json:"usedIn"`
}

// AssetOverview lists every asset together with its usage-count string.
func (r *Resolver) AssetOverview(ctx context.Context) ([]AssetUsage, error) {
	if r.assets == nil {
		return nil, errors.New("usage: asset lister is required for the overview listing")
	}
	assets, err := r.assets.Assets(ctx)
	if err != nil {
		return nil, err
	}

	overview := make([]AssetUsage, 0, len(assets))
	for _, asset := range assets {
		overview = append(overview, AssetUsage{
			AssetID:    asset.ID,
			AssetURL:   asset.URL,
			AssetTitle: asset.Title,
			UsedIn:     r.CountUsage(ctx, asset.ID),
		})
	}
	return overview, nil
}

// resolve runs the shared resolution algorithm: union both sources, resolve
// each pair to its live root entry, drop drafts, revisions and disabled
// entries, and group survivors by root entry identity.
func (r *Resolver) resolve(ctx context.Context, assetID int64) ([]UsageEntry, int, error) {
	nativeReferences, err := r.native.ReferencesToAsset(ctx, assetID)
	if err != nil {
		return nil, 0, &ResolutionError{Stage: "native relation query", AssetID: assetID, Err: err}
	}
	storedReferences, err := r.stored.ReferencesToAsset(ctx, assetID)
	if err != nil {
		return nil, 0, &ResolutionError{Stage: "stored relation query", AssetID: assetID, Err: err}
	}

	allReferences := make([]relations.Reference, 0, len(nativeReferences)+len(storedReferences))
	allReferences = append(allReferences, nativeReferences...)
	allReferences = append(allReferences, storedReferences...)

	grouped := make(map[int64]int)
	ordered := make([]UsageEntry, 0, len(allReferences))
	pairCount := 0

	for _, reference := range allReferences {
		element, err := r.elements.ElementByID(ctx, reference.ElementID, reference.SiteID)
		if err != nil {
			return nil, 0, &ResolutionError{Stage: "element resolution", AssetID: assetID, Err: err}
		}
		if element == nil {
			continue
		}

		root, err := r.elements.RootEntry(ctx, element)
		if err != nil {
			return nil, 0, &ResolutionError{Stage: "root entry resolution", AssetID: assetID, Err: err}
		}
		if root == nil || root.Element == nil {
			continue
		}
		if root.Element.IsDraft() || root.Element.IsRevision() || !root.Element.Enabled {
			continue
		}

		pairCount++
		if index, seen := grouped[root.ID]; seen {
			ordered[index].Count++
			continue
		}
		grouped[root.ID] = len(ordered)
		ordered = append(ordered, UsageEntry{
			EntryID:   root.ID,
			Title:     root.Title,
			URL:       root.URL,
			CpEditURL: root.CpEditURL(),
			Count:     1,
		})
	}

	return ordered, pairCount, nil
}

func (r *Resolver) logResolutionFailure(err error) {
	var resolutionErr *ResolutionError
	if errors.As(err, &resolutionErr) {
		r.logger.Warn("usage resolution degraded to empty result",
			zap.String("stage", resolutionErr.Stage),
			zap.Int64("asset_id", resolutionErr.AssetID),
			zap.Error(resolutionErr.Err))
		return
	}
	r.logger.Warn("usage resolution degraded to empty result", zap.Error(err))
}

// FormatUsageCount renders a usage count for display. The exact phrasing is
// part of the external contract.
func FormatUsageCount(count int) string {
	switch {
	case count == 0:
		return ""
	case count == 1:
		return "Used 1 time"
	default:
		return fmt.Sprintf("Used %d times", count)
	}
}

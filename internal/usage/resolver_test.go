package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/solvras/file-usage-overview/internal/content"
	"github.com/solvras/file-usage-overview/internal/relations"
)

type staticSource struct {
	references []relations.Reference
	err        error
}

func (s *staticSource) ReferencesToAsset(ctx context.Context, assetID int64) ([]relations.Reference, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.references, nil
}

type fakeGraph struct {
	elements map[int64]*content.Element
	entries  map[int64]*content.Entry
	err      error
}

func (g *fakeGraph) ElementByID(ctx context.Context, elementID int64, siteID int64) (*content.Element, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.elements[elementID], nil
}

func (g *fakeGraph) RootEntry(ctx context.Context, element *content.Element) (*content.Entry, error) {
	if g.err != nil {
		return nil, g.err
	}
	current := element
	for current != nil && current.OwnerID != nil {
		current = g.elements[*current.OwnerID]
	}
	if current == nil {
		return nil, nil
	}
	entry := g.entries[current.ID]
	if entry == nil {
		return nil, nil
	}
	entry.Element = current
	return entry, nil
}

func liveElement(id int64) *content.Element {
	return &content.Element{ID: id, Kind: content.KindEntry, Enabled: true, SiteID: 1}
}

func liveEntry(id int64, title string) *content.Entry {
	return &content.Entry{ID: id, Title: title, SectionHandle: "news", URL: "https://example.test/" + title}
}

func newTestResolver(t *testing.T, native, stored ReferenceSource, graph ElementGraph) *Resolver {
	t.Helper()
	resolver, err := NewResolver(ResolverConfig{
		Native:   native,
		Stored:   stored,
		Elements: graph,
	})
	if err != nil {
		t.Fatalf("failed to construct resolver: %v", err)
	}
	return resolver
}

func TestResolveUsageUnionsBothSources(t *testing.T) {
	graph := &fakeGraph{
		elements: map[int64]*content.Element{
			100: liveElement(100),
			200: liveElement(200),
		},
		entries: map[int64]*content.Entry{
			100: liveEntry(100, "first"),
			200: liveEntry(200, "second"),
		},
	}
	native := &staticSource{references: []relations.Reference{{ElementID: 100, SiteID: 1}}}
	stored := &staticSource{references: []relations.Reference{{ElementID: 200, SiteID: 1}}}
	resolver := newTestResolver(t, native, stored, graph)

	entries := resolver.ResolveUsage(context.Background(), 7)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EntryID != 100 || entries[1].EntryID != 200 {
		t.Fatalf("unexpected entry order: %+v", entries)
	}
	if entries[0].Count != 1 || entries[1].Count != 1 {
		t.Fatalf("expected per-entry count 1, got %+v", entries)
	}
}

func TestResolveUsageCollapsesPairsByRootEntry(t *testing.T) {
	nestedOwner := int64(100)
	graph := &fakeGraph{
		elements: map[int64]*content.Element{
			100: liveElement(100),
			300: {ID: 300, Kind: content.KindBlock, Enabled: true, OwnerID: &nestedOwner},
		},
		entries: map[int64]*content.Entry{
			100: liveEntry(100, "owner"),
		},
	}
	native := &staticSource{references: []relations.Reference{{ElementID: 300, SiteID: 1}}}
	stored := &staticSource{references: []relations.Reference{{ElementID: 100, SiteID: 1}}}
	resolver := newTestResolver(t, native, stored, graph)

	entries := resolver.ResolveUsage(context.Background(), 7)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].EntryID != 100 {
		t.Fatalf("expected entry 100, got %d", entries[0].EntryID)
	}
	if entries[0].Count != 2 {
		t.Fatalf("expected reference count 2, got %d", entries[0].Count)
	}
	if got := resolver.CountUsage(context.Background(), 7); got != "Used 2 times" {
		t.Fatalf("expected 'Used 2 times', got %q", got)
	}
}

func TestResolveUsageSkipsDraftsRevisionsAndDisabled(t *testing.T) {
	draftOf := int64(900)
	draftID := int64(1)
	revisionID := int64(2)
	graph := &fakeGraph{
		elements: map[int64]*content.Element{
			100: {ID: 100, Kind: content.KindEntry, Enabled: true, CanonicalID: &draftOf, DraftID: &draftID},
			200: {ID: 200, Kind: content.KindEntry, Enabled: true, RevisionID: &revisionID},
			300: {ID: 300, Kind: content.KindEntry, Enabled: false},
			400: liveElement(400),
		},
		entries: map[int64]*content.Entry{
			100: liveEntry(100, "draft"),
			200: liveEntry(200, "revision"),
			300: liveEntry(300, "disabled"),
			400: liveEntry(400, "live"),
		},
	}
	native := &staticSource{references: []relations.Reference{
		{ElementID: 100, SiteID: 1},
		{ElementID: 200, SiteID: 1},
		{ElementID: 300, SiteID: 1},
		{ElementID: 400, SiteID: 1},
	}}
	stored := &staticSource{}
	resolver := newTestResolver(t, native, stored, graph)

	entries := resolver.ResolveUsage(context.Background(), 7)
	if len(entries) != 1 {
		t.Fatalf("expected only the live entry, got %+v", entries)
	}
	if entries[0].EntryID != 400 {
		t.Fatalf("expected entry 400, got %d", entries[0].EntryID)
	}
	if got := resolver.CountUsage(context.Background(), 7); got != "Used 1 time" {
		t.Fatalf("expected 'Used 1 time', got %q", got)
	}
}

func TestResolveUsageSkipsUnresolvableElements(t *testing.T) {
	graph := &fakeGraph{
		elements: map[int64]*content.Element{100: liveElement(100)},
		entries:  map[int64]*content.Entry{100: liveEntry(100, "live")},
	}
	native := &staticSource{references: []relations.Reference{
		{ElementID: 100, SiteID: 1},
		{ElementID: 555, SiteID: 1},
	}}
	resolver := newTestResolver(t, native, &staticSource{}, graph)

	entries := resolver.ResolveUsage(context.Background(), 7)
	if len(entries) != 1 {
		t.Fatalf("expected deleted element to be skipped, got %+v", entries)
	}
}

func TestResolutionFailureDegradesToEmptyResult(t *testing.T) {
	graph := &fakeGraph{err: errors.New("element service unavailable")}
	native := &staticSource{references: []relations.Reference{{ElementID: 100, SiteID: 1}}}
	resolver := newTestResolver(t, native, &staticSource{}, graph)

	entries := resolver.ResolveUsage(context.Background(), 7)
	if len(entries) != 0 {
		t.Fatalf("expected empty listing on failure, got %+v", entries)
	}
	if got := resolver.CountUsage(context.Background(), 7); got != "" {
		t.Fatalf("expected empty count string on failure, got %q", got)
	}
}

func TestSourceFailureDegradesToEmptyResult(t *testing.T) {
	graph := &fakeGraph{}
	native := &staticSource{err: errors.New("relations table gone")}
	resolver := newTestResolver(t, native, &staticSource{}, graph)

	if entries := resolver.ResolveUsage(context.Background(), 7); len(entries) != 0 {
		t.Fatalf("expected empty listing, got %+v", entries)
	}
	if got := resolver.CountUsage(context.Background(), 7); got != "" {
		t.Fatalf("expected empty count string, got %q", got)
	}
}

func TestFormatUsageCount(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{count: 0, want: ""},
		{count: 1, want: "Used 1 time"},
		{count: 3, want: "Used 3 times"},
	}
	for _, testCase := range cases {
		if got := FormatUsageCount(testCase.count); got != testCase.want {
			t.Fatalf("count %d: expected %q, got %q", testCase.count, testCase.want, got)
		}
	}
}

type keyedSource struct {
	byAsset map[int64][]relations.Reference
}

func (s *keyedSource) ReferencesToAsset(ctx context.Context, assetID int64) ([]relations.Reference, error) {
	return s.byAsset[assetID], nil
}

type staticAssetLister struct {
	assets []content.Asset
}

func (l *staticAssetLister) Assets(ctx context.Context) ([]content.Asset, error) {
	return l.assets, nil
}

func TestAssetOverviewPairsAssetsWithCounts(t *testing.T) {
	graph := &fakeGraph{
		elements: map[int64]*content.Element{100: liveElement(100)},
		entries:  map[int64]*content.Entry{100: liveEntry(100, "live")},
	}
	native := &keyedSource{byAsset: map[int64][]relations.Reference{
		7: {{ElementID: 100, SiteID: 1}},
	}}
	lister := &staticAssetLister{assets: []content.Asset{
		{ID: 7, Title: "Report", URL: "https://cdn.example.test/report.pdf"},
		{ID: 9, Title: "Unused"},
	}}
	resolver, err := NewResolver(ResolverConfig{
		Native:   native,
		Stored:   &staticSource{},
		Elements: graph,
		Assets:   lister,
	})
	if err != nil {
		t.Fatalf("failed to construct resolver: %v", err)
	}

	overview, err := resolver.AssetOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overview) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(overview))
	}
	if overview[0].UsedIn != "Used 1 time" {
		t.Fatalf("expected 'Used 1 time' for referenced asset, got %q", overview[0].UsedIn)
	}
	if overview[1].UsedIn != "" {
		t.Fatalf("expected empty count for unused asset, got %q", overview[1].UsedIn)
	}
}

func TestResolutionErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := &ResolutionError{Stage: "element resolution", AssetID: 7, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
}

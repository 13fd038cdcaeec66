package content

import (
	"context"
	"testing"
	"time"
)

type recordingHook struct {
	saved []*Entry
}

func (h *recordingHook) EntrySaved(ctx context.Context, entry *Entry) {
	h.saved = append(h.saved, entry)
}

func newTestEntryService(t *testing.T) (*EntryService, *recordingHook) {
	t.Helper()
	db := newTestDatabase(t)
	service, err := NewEntryService(EntryServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1750000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to construct entry service: %v", err)
	}
	hook := &recordingHook{}
	service.RegisterAfterSaveHook(hook)
	return service, hook
}

func TestSaveEntryPersistsElementAndEntry(t *testing.T) {
	service, hook := newTestEntryService(t)

	entry := &Entry{SectionHandle: "news", Title: "Launch"}
	if err := service.SaveEntry(context.Background(), entry); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if entry.ID == 0 {
		t.Fatalf("expected entry id assigned from element identity")
	}
	if entry.Element == nil || entry.Element.Kind != KindEntry {
		t.Fatalf("expected entry element, got %+v", entry.Element)
	}

	var storedElement Element
	if err := service.db.Where("id = ?", entry.ID).Take(&storedElement).Error; err != nil {
		t.Fatalf("failed to load element row: %v", err)
	}
	var storedEntry Entry
	if err := service.db.Where("id = ?", entry.ID).Take(&storedEntry).Error; err != nil {
		t.Fatalf("failed to load entry row: %v", err)
	}
	if storedEntry.Title != "Launch" {
		t.Fatalf("unexpected stored title %q", storedEntry.Title)
	}

	if len(hook.saved) != 1 {
		t.Fatalf("expected 1 hook invocation, got %d", len(hook.saved))
	}
	if hook.saved[0] != entry {
		t.Fatalf("expected hook to receive the saved entry")
	}
}

func TestSaveEntryUpdatesExistingRow(t *testing.T) {
	service, hook := newTestEntryService(t)

	entry := &Entry{SectionHandle: "news", Title: "Before"}
	if err := service.SaveEntry(context.Background(), entry); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	entry.Title = "After"
	if err := service.SaveEntry(context.Background(), entry); err != nil {
		t.Fatalf("unexpected second save error: %v", err)
	}

	var count int64
	if err := service.db.Model(&Entry{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entry row, got %d", count)
	}
	var stored Entry
	if err := service.db.Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload entry: %v", err)
	}
	if stored.Title != "After" {
		t.Fatalf("expected updated title, got %q", stored.Title)
	}
	if len(hook.saved) != 2 {
		t.Fatalf("expected hook fired per save, got %d", len(hook.saved))
	}
}

func TestSaveEntryRejectsNil(t *testing.T) {
	service, hook := newTestEntryService(t)

	if err := service.SaveEntry(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil entry")
	}
	if len(hook.saved) != 0 {
		t.Fatalf("expected no hook invocations, got %d", len(hook.saved))
	}
}

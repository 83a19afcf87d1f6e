package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func sampleRecord(id, fileName string) *VideoRecord {
	return &VideoRecord{
		ID:           id,
		SourcePath:   "/videos/" + fileName,
		FileName:     fileName,
		BaseName:     "movie",
		FriendlyName: "movie",
		MimeType:     "video/mp4",
		FileSize:     1024,
		Tags:         []string{},
		Subtitles:    []string{"en"},
	}
}

func TestInsertAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("id-1", "movie.mp4")
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	byID, err := store.FindByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !reflect.DeepEqual(byID, rec) {
		t.Errorf("FindByID = %+v, want %+v", byID, rec)
	}

	byName, err := store.FindByFileName(ctx, "movie.mp4")
	if err != nil {
		t.Fatalf("FindByFileName: %v", err)
	}
	if byName.ID != "id-1" {
		t.Errorf("FindByFileName id = %q, want id-1", byName.ID)
	}
}

func TestFindNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.FindByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID error = %v, want ErrNotFound", err)
	}
	if _, err := store.FindByFileName(ctx, "nope.mp4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByFileName error = %v, want ErrNotFound", err)
	}
}

func TestInsertDuplicateFileName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, sampleRecord("id-1", "movie.mp4")); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	err := store.Insert(ctx, sampleRecord("id-2", "movie.mp4"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Insert error = %v, want ErrDuplicate", err)
	}

	// The original record survives the rejected insert.
	rec, err := store.FindByFileName(ctx, "movie.mp4")
	if err != nil {
		t.Fatalf("FindByFileName: %v", err)
	}
	if rec.ID != "id-1" {
		t.Errorf("surviving id = %q, want id-1", rec.ID)
	}
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("id-1", "movie.mp4")
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec.FileSize = 2048
	rec.Subtitles = []string{"de", "en"}
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.FindByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.FileSize != 2048 {
		t.Errorf("FileSize = %d, want 2048", got.FileSize)
	}
	if !reflect.DeepEqual(got.Subtitles, []string{"de", "en"}) {
		t.Errorf("Subtitles = %v, want [de en]", got.Subtitles)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), sampleRecord("ghost", "ghost.mp4"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestListAllOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, f := range []struct{ id, name string }{
		{"id-1", "zebra.mp4"},
		{"id-2", "Apple.mkv"},
		{"id-3", "mango.mp4"},
	} {
		if err := store.Insert(ctx, sampleRecord(f.id, f.name)); err != nil {
			t.Fatalf("Insert %s: %v", f.name, err)
		}
	}

	records, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	var names []string
	for _, r := range records {
		names = append(names, r.FileName)
	}
	want := []string{"Apple.mkv", "mango.mp4", "zebra.mp4"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListAll order = %v, want %v", names, want)
	}
}

func TestListAllEmpty(t *testing.T) {
	store := newTestStore(t)

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListAll = %v, want empty", records)
	}
}

func TestNilListsRoundTripEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("id-1", "movie.mp4")
	rec.Tags = nil
	rec.Subtitles = nil
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.FindByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Tags == nil || got.Subtitles == nil {
		t.Errorf("nil lists did not round-trip as empty: tags=%v subtitles=%v", got.Tags, got.Subtitles)
	}
}

func TestHasSubtitle(t *testing.T) {
	rec := &VideoRecord{Subtitles: []string{"en", "de"}}

	if !rec.HasSubtitle("en") {
		t.Error("HasSubtitle(en) = false, want true")
	}
	if rec.HasSubtitle("fr") {
		t.Error("HasSubtitle(fr) = true, want false")
	}
	// Codes are opaque; no case folding.
	if rec.HasSubtitle("EN") {
		t.Error("HasSubtitle(EN) = true, want false")
	}
}

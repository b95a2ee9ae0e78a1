package category

import (
	"testing"

	"dlrouter/internal/settings"
)

func cats() []settings.Category {
	return []settings.Category{
		{ID: "vid", Name: "Video", Folder: "Video", Extensions: []string{".mp4", ".mkv"}},
		{ID: "doc", Name: "Documents", Folder: "Docs", Extensions: []string{".pdf", ".xlsx"}},
		{ID: "img", Name: "Images", Folder: "Pics", Extensions: []string{".png", ".jpg"}},
	}
}

func TestMatchDisjoint(t *testing.T) {
	cs := cats()
	if got := Match(".pdf", cs); got == nil || got.ID != "doc" {
		t.Fatalf("got %+v", got)
	}
	if got := Match(".exe", cs); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	if Match("", cats()) != nil {
		t.Fatal("empty extension must not match")
	}
	if Match(".mp4", nil) != nil {
		t.Fatal("empty list must not match")
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	cs := []settings.Category{{ID: "v", Extensions: []string{".MP4"}}}
	if got := Match(".mp4", cs); got == nil {
		t.Fatal("stored uppercase extension should match")
	}
	if got := Match(".MP4", cats()); got == nil || got.ID != "vid" {
		t.Fatalf("uppercase input should match, got %+v", got)
	}
}

func TestMatchFirstWinsAndReorder(t *testing.T) {
	cs := []settings.Category{
		{ID: "a", Extensions: []string{".zip"}},
		{ID: "b", Extensions: []string{".zip"}},
	}
	if got := Match(".zip", cs); got.ID != "a" {
		t.Fatalf("expected a, got %s", got.ID)
	}
	// Swapping order changes the winner.
	cs[0], cs[1] = cs[1], cs[0]
	if got := Match(".zip", cs); got.ID != "b" {
		t.Fatalf("expected b after reorder, got %s", got.ID)
	}
}

func TestFilter(t *testing.T) {
	cs := cats()
	if got := Filter("", cs); len(got) != len(cs) {
		t.Fatalf("empty term should return all, got %d", len(got))
	}
	got := Filter("video", cs)
	if len(got) != 1 || got[0].ID != "vid" {
		t.Fatalf("got %+v", got)
	}
	got = Filter(".pdf", cs)
	if len(got) != 1 || got[0].ID != "doc" {
		t.Fatalf("extension filter: got %+v", got)
	}
}

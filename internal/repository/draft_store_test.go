package repository

import (
	"context"
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"testing"
	"time"
)

func TestMemoryDraftStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, err := store.Load(ctx, "admin"); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}

	draft := &model.AssignmentDraft{
		AdminID:    "admin",
		Step:       model.DraftSelectingMistakes,
		StudentIDs: []string{"s1", "s2"},
	}
	if err := store.Save(ctx, draft); err != nil {
		t.Fatalf("Save: %v", err)
	}

	draft.StudentIDs[0] = "mutated"
	loaded, err := store.Load(ctx, "admin")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Step != model.DraftSelectingMistakes || loaded.StudentIDs[0] != "s1" {
		t.Fatalf("stored draft should be a snapshot, got %+v", loaded)
	}

	now = now.Add(2 * time.Hour)
	if _, err := store.Load(ctx, "admin"); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("expired draft should be gone, got %v", err)
	}

	store.Save(ctx, draft)
	store.Delete(ctx, "admin")
	if _, err := store.Load(ctx, "admin"); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("deleted draft should be gone, got %v", err)
	}
}

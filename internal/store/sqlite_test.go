package store

import (
	"context"
	"path/filepath"
	"testing"

	"replybot/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.GetOrCreate(ctx, "+15550001")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if rec.Identity != "+15550001" {
		t.Errorf("expected identity +15550001, got %q", rec.Identity)
	}
	if len(rec.Memory) != 0 || len(rec.CRMFields) != 0 || len(rec.ReplyRules) != 0 {
		t.Error("expected empty maps on a fresh record")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	// Second call returns the same record, not a new one.
	again, err := s.GetOrCreate(ctx, "+15550001")
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if !again.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("expected stable created_at, got %v vs %v", again.CreatedAt, rec.CreatedAt)
	}
}

func TestGetAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Get(ctx, "+19998887")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for unknown identity, got %+v", rec)
	}

	// A read must not create the record.
	rec, err = s.Get(ctx, "+19998887")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Error("read created a record")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.GetOrCreate(ctx, "+15550002")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	before := rec.UpdatedAt

	rec.Memory["favorite_color"] = "blue"
	rec.CRMFields["city"] = "Lagos"
	id := model.RuleID("hi")
	rec.ReplyRules[id] = model.ReplyRule{Trigger: "hi", Response: "hello", UsageCount: 3}

	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !rec.UpdatedAt.After(before) {
		t.Errorf("expected updated_at to advance, %v -> %v", before, rec.UpdatedAt)
	}

	got, err := s.Get(ctx, "+15550002")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Memory["favorite_color"] != "blue" {
		t.Errorf("memory lost: %+v", got.Memory)
	}
	if got.CRMFields["city"] != "Lagos" {
		t.Errorf("crm field lost: %+v", got.CRMFields)
	}
	rule, ok := got.ReplyRules[id]
	if !ok {
		t.Fatalf("rule lost: %+v", got.ReplyRules)
	}
	if rule.Trigger != "hi" || rule.Response != "hello" || rule.UsageCount != 3 {
		t.Errorf("rule mangled: %+v", rule)
	}
}

func TestSaveNilMaps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.GetOrCreate(ctx, "+15550003")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	rec.Memory = nil
	rec.CRMFields = nil
	rec.ReplyRules = nil
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save with nil maps: %v", err)
	}

	got, err := s.Get(ctx, "+15550003")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Memory == nil || got.CRMFields == nil || got.ReplyRules == nil {
		t.Error("expected empty maps after saving nil maps")
	}
}

func TestSaveUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Save(ctx, &model.UserRecord{Identity: "+10000000"})
	if err == nil {
		t.Fatal("expected error saving a record that was never created")
	}
}

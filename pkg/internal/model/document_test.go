package model

import (
	"testing"
	"time"
)

func TestLifecycleTransitions(t *testing.T) {
	doc := &Document{ID: NewDocumentID(), Title: "t", Owner: "a@b.c"}

	if doc.Lifecycle() != LifecycleActive {
		t.Fatalf("new document should be active, got %s", doc.Lifecycle())
	}

	now := time.Now()
	if err := doc.SoftDelete("a@b.c", now); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	if doc.Lifecycle() != LifecycleDeleted {
		t.Fatalf("expected deleted state, got %s", doc.Lifecycle())
	}
	if !doc.IsDeleted || doc.DeletedAt == nil || doc.DeletedBy != "a@b.c" {
		t.Fatalf("soft delete fields inconsistent: %+v", doc)
	}

	// 重复删除拒绝
	if err := doc.SoftDelete("a@b.c", now); err != ErrAlreadyDeleted {
		t.Fatalf("expected ErrAlreadyDeleted, got %v", err)
	}

	if err := doc.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if doc.IsDeleted || doc.DeletedAt != nil || doc.DeletedBy != "" {
		t.Fatalf("restore should clear all delete fields: %+v", doc)
	}

	// 未删除状态恢复拒绝
	if err := doc.Restore(); err != ErrNotDeleted {
		t.Fatalf("expected ErrNotDeleted, got %v", err)
	}
}

func TestPurgeDue(t *testing.T) {
	grace := 30 * 24 * time.Hour
	now := time.Now()

	doc := &Document{ID: NewDocumentID()}
	if doc.PurgeDue(grace, now) {
		t.Fatal("active document should never be purge-due")
	}

	_ = doc.SoftDelete("x", now.Add(-31*24*time.Hour))
	if !doc.PurgeDue(grace, now) {
		t.Fatal("document deleted 31 days ago should be purge-due")
	}

	fresh := &Document{ID: NewDocumentID()}
	_ = fresh.SoftDelete("x", now.Add(-time.Hour))
	if fresh.PurgeDue(grace, now) {
		t.Fatal("recently deleted document should not be purge-due")
	}
	if d := fresh.DaysUntilPurge(grace, now); d != 30 {
		t.Fatalf("expected 30 days until purge, got %d", d)
	}
}

func TestNewShortID(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}

	for range 100 {
		id := NewShortID(now)
		if len(id) != shortIDLen {
			t.Fatalf("short id length = %d, want %d", len(id), shortIDLen)
		}
		for _, c := range id {
			if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z') {
				t.Fatalf("short id %q contains non-alphanumeric %q", id, c)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate short id %q", id)
		}
		seen[id] = true
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []DocumentStatus{StatusDraft, StatusPublished, StatusArchived} {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if DocumentStatus("bogus").Valid() {
		t.Fatal("bogus status should not be valid")
	}
}

func TestTagDisplayName(t *testing.T) {
	tag := &Tag{Key: "project", Value: "alpha"}
	if got := tag.DisplayName(); got != "project: alpha" {
		t.Fatalf("display name = %q", got)
	}
}

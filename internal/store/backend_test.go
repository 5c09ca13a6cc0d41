package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"folio-cli/internal/model"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := OpenBackend(context.Background(), filepath.Join(t.TempDir(), "backend.sqlite"))
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_FolderLifecycle(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)

	parent, err := b.InsertFolder(ctx, model.FolderInput{Name: "Parent", WorkspaceID: "ws-1", UserID: "u-1"})
	if err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	if !IsEntityID(parent.ID) {
		t.Fatalf("unexpected id: %q", parent.ID)
	}
	child, err := b.InsertFolder(ctx, model.FolderInput{Name: "Child", WorkspaceID: "ws-1", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}

	kids, err := b.FolderChildren(ctx, parent.ID)
	if err != nil || len(kids) != 1 || kids[0].ID != child.ID {
		t.Fatalf("children: %v %v", kids, err)
	}

	desc := "notes"
	updated, err := b.UpdateFolder(ctx, parent.ID, model.FolderInput{Name: "Renamed", Description: &desc, Icon: "📁"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || model.StrOrEmpty(updated.Description) != "notes" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := b.DeleteFolder(ctx, parent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf NotFoundError
	if _, err := b.GetFolder(ctx, child.ID); !errors.As(err, &nf) {
		t.Fatalf("expected child removed with parent; got %v", err)
	}
	if _, err := b.DeleteFolder(ctx, parent.ID); !errors.As(err, &nf) {
		t.Fatalf("expected not found on second delete; got %v", err)
	}
}

func TestBackend_InsertFolderValidation(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	if _, err := b.InsertFolder(ctx, model.FolderInput{Name: "  ", WorkspaceID: "ws"}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := b.InsertFolder(ctx, model.FolderInput{Name: "x"}); err == nil {
		t.Fatalf("expected error for missing workspace")
	}
	missing := "fld-missing"
	if _, err := b.InsertFolder(ctx, model.FolderInput{Name: "x", WorkspaceID: "ws", ParentID: &missing}); err == nil {
		t.Fatalf("expected error for unknown parent")
	}
}

func TestBackend_DocumentsVisibility(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)

	own, err := b.InsertDocument(ctx, model.DocumentInput{Title: "Mine", WorkspaceID: "ws", UserID: "alice"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	shared, err := b.InsertDocument(ctx, model.DocumentInput{WorkspaceID: "ws", UserID: "bob"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if shared.Title != "Untitled" {
		t.Fatalf("expected default title; got %q", shared.Title)
	}
	if err := b.GrantAccess(ctx, shared.ID, "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	docs, _ := b.ListDocuments(ctx, "ws", "alice")
	if len(docs) != 2 {
		t.Fatalf("alice should see 2 docs; got %d", len(docs))
	}

	n, err := b.RemoveAccess(ctx, shared.ID, "alice")
	if err != nil || n != 1 {
		t.Fatalf("remove access: n=%d err=%v", n, err)
	}
	if count, _ := b.CountDocuments(ctx, "ws", "alice"); count != 1 {
		t.Fatalf("after removing access alice should see 1 doc; got %d", count)
	}

	if _, err := b.SoftDeleteDocument(ctx, own.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if count, _ := b.CountDocuments(ctx, "ws", ""); count != 1 {
		t.Fatalf("soft-deleted doc still counted; got %d", count)
	}
	got, err := b.GetDocument(ctx, own.ID)
	if err != nil || !got.Deleted {
		t.Fatalf("expected deleted flag; got %+v %v", got, err)
	}
}

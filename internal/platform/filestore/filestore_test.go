package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDiskStore_SaveAndOpen(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hid, rid := uuid.New(), uuid.New()
	path, err := store.Save(context.Background(), hid, rid, "tax_card", ".pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, err := store.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "content" {
		t.Errorf("expected 'content', got %q", data)
	}
}

func TestDiskStore_SavePathIsDeterministic(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), 1024)
	hid, rid := uuid.New(), uuid.New()

	p1, err := store.Save(context.Background(), hid, rid, "license", ".pdf", strings.NewReader("v1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2, err := store.Save(context.Background(), hid, rid, "license", ".pdf", strings.NewReader("v2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1 != p2 {
		t.Errorf("expected the same path for the same slot, got %q and %q", p1, p2)
	}

	rc, _ := store.Open(context.Background(), p2)
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "v2" {
		t.Errorf("re-upload should replace content, got %q", data)
	}
}

func TestDiskStore_SaveKeepsOtherExtension(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), 1024)
	hid, rid := uuid.New(), uuid.New()

	p1, _ := store.Save(context.Background(), hid, rid, "procedure_video", ".pdf", strings.NewReader("doc"))
	p2, err := store.Save(context.Background(), hid, rid, "procedure_video", ".mp4", strings.NewReader("video"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The old extension survives the save; swapping the slot is the
	// caller's responsibility once its record points at the new path.
	if _, err := store.Open(context.Background(), p1); err != nil {
		t.Errorf("expected old extension file to remain: %v", err)
	}
	if _, err := store.Open(context.Background(), p2); err != nil {
		t.Errorf("expected new file to exist: %v", err)
	}

	if err := store.Delete(context.Background(), p1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Open(context.Background(), p1); err != ErrFileNotFound {
		t.Errorf("expected old extension file to be gone, got err=%v", err)
	}
}

func TestDiskStore_TooLarge(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), 4)
	_, err := store.Save(context.Background(), uuid.New(), uuid.New(), "x", ".pdf", strings.NewReader("too big"))
	if err != ErrFileTooLarge {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDiskStore_DeleteMissingIsNoop(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), 1024)
	if err := store.Delete(context.Background(), "nope/nope/nope.pdf"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDiskStore_DeleteRequest(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), 1024)
	hid, rid := uuid.New(), uuid.New()
	p1, _ := store.Save(context.Background(), hid, rid, "a", ".pdf", strings.NewReader("1"))
	p2, _ := store.Save(context.Background(), hid, rid, "b", ".pdf", strings.NewReader("2"))

	if err := store.DeleteRequest(context.Background(), hid, rid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []string{p1, p2} {
		if _, err := store.Open(context.Background(), p); err != ErrFileNotFound {
			t.Errorf("expected %s to be gone, got err=%v", p, err)
		}
	}
}

func TestMemStore_RoundTrip(t *testing.T) {
	store := NewMemStore()
	hid, rid := uuid.New(), uuid.New()

	path, err := store.Save(context.Background(), hid, rid, "tax_card", ".pdf", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rc, err := store.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "data" {
		t.Errorf("expected 'data', got %q", data)
	}

	if err := store.DeleteRequest(context.Background(), hid, rid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d files", store.Len())
	}
}

package storage

import (
	"context"
	"testing"
)

func TestLinkRepoReplaceSuppliersForCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewLinkRepo(db, nil)

	catID := mustCategory(t, db, "LinkCat")
	supA := mustSupplier(t, db, "LinkSupA")
	supB := mustSupplier(t, db, "LinkSupB")
	supC := mustSupplier(t, db, "LinkSupC")

	if err := repo.ReplaceSuppliersForCategory(ctx, catID, []int64{supA, supB}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	linked, err := repo.SuppliersForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("got %d links, want 2", len(linked))
	}

	// The full set is replaced, not merged.
	if err := repo.ReplaceSuppliersForCategory(ctx, catID, []int64{supC}); err != nil {
		t.Fatalf("replace with smaller set: %v", err)
	}
	linked, err = repo.SuppliersForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(linked) != 1 || linked[0].ID != supC {
		t.Fatalf("links = %+v, want only LinkSupC", linked)
	}

	if err := repo.ReplaceSuppliersForCategory(ctx, catID, nil); err != nil {
		t.Fatalf("replace with empty set: %v", err)
	}
	linked, err = repo.SuppliersForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(linked) != 0 {
		t.Fatalf("links = %+v, want none", linked)
	}
}

func TestLinkRepoReplaceIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewLinkRepo(db, nil)

	catID := mustCategory(t, db, "AtomicCat")
	supA := mustSupplier(t, db, "AtomicSup")

	if err := repo.ReplaceSuppliersForCategory(ctx, catID, []int64{supA}); err != nil {
		t.Fatalf("seed links: %v", err)
	}

	// A nonexistent supplier id violates the foreign key; the old set must
	// survive untouched.
	if err := repo.ReplaceSuppliersForCategory(ctx, catID, []int64{supA, 999999}); err == nil {
		t.Fatal("expected foreign key failure")
	}

	linked, err := repo.SuppliersForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(linked) != 1 || linked[0].ID != supA {
		t.Fatalf("links after failed replace = %+v, want original set", linked)
	}
}

func TestLinkRepoCategoriesForSupplier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewLinkRepo(db, nil)

	catA := mustCategory(t, db, "BothWaysA")
	catB := mustCategory(t, db, "BothWaysB")
	supID := mustSupplier(t, db, "BothWaysSup")

	if err := repo.ReplaceCategoriesForSupplier(ctx, supID, []int64{catA, catB}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	linked, err := repo.CategoriesForSupplier(ctx, supID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("got %d categories, want 2", len(linked))
	}
}

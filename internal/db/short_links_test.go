package db

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/models"
)

func TestCreateShortLink(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "linker")
	first := createTestRecipe(t, db, user, "First")
	second := createTestRecipe(t, db, user, "Second")

	link, err := db.CreateShortLink(ctx, first.ID, "abc123")
	if err != nil {
		t.Fatalf("CreateShortLink() error = %v", err)
	}
	if link.Code != "abc123" || link.RecipeID != first.ID {
		t.Errorf("CreateShortLink() = %+v", link)
	}

	tests := []struct {
		name     string
		recipeID int64
		code     string
	}{
		{"code taken", second.ID, "abc123"},
		{"recipe already linked", first.ID, "zzz999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateShortLink(ctx, tt.recipeID, tt.code)
			if !errors.Is(err, ErrDuplicateShortLink) {
				t.Errorf("CreateShortLink() error = %v, want %v", err, ErrDuplicateShortLink)
			}
		})
	}

	got, err := db.GetShortLinkByCode(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetShortLinkByCode() error = %v", err)
	}
	if got.RecipeID != first.ID {
		t.Errorf("GetShortLinkByCode() recipe = %d, want %d", got.RecipeID, first.ID)
	}
}

func TestCreateShortLink_InsideTxKeepsTxUsable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "linker")
	taken := createTestRecipe(t, db, user, "Taken")
	if _, err := db.CreateShortLink(ctx, taken.ID, "dup001"); err != nil {
		t.Fatalf("CreateShortLink() error = %v", err)
	}

	err := db.WithTx(ctx, func(tx *DB) error {
		recipe := &models.Recipe{AuthorID: user.ID, Name: "New", Text: "t", CookingTime: 1, Image: "img"}
		if err := tx.InsertRecipe(ctx, recipe); err != nil {
			return err
		}
		if _, err := tx.CreateShortLink(ctx, recipe.ID, "dup001"); !errors.Is(err, ErrDuplicateShortLink) {
			t.Errorf("CreateShortLink() error = %v, want %v", err, ErrDuplicateShortLink)
		}
		_, err := tx.CreateShortLink(ctx, recipe.ID, "new001")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	if _, err := db.GetShortLinkByCode(ctx, "new001"); err != nil {
		t.Errorf("GetShortLinkByCode() error = %v", err)
	}
}

func TestShortLinkLookups(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for _, n := range []int64{1, 2} {
		if err := db.IncrementShortLinkLookup(ctx, "abc123", models.OutcomeResolved, n); err != nil {
			t.Fatalf("IncrementShortLinkLookup() error = %v", err)
		}
	}

	lookups, err := db.GetAllShortLinkLookups(ctx)
	if err != nil {
		t.Fatalf("GetAllShortLinkLookups() error = %v", err)
	}
	if len(lookups) != 1 || lookups[0].Count != 3 {
		t.Errorf("GetAllShortLinkLookups() = %+v, want one row with count 3", lookups)
	}
}

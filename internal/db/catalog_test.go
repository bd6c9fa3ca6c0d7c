package db

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/models"
)

func TestListIngredients_Prefix(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	createTestIngredient(t, database, "sugar", models.UnitGram)
	createTestIngredient(t, database, "salt", models.UnitPinch)
	createTestIngredient(t, database, "sal_mix", models.UnitGram)
	createTestIngredient(t, database, "butter", models.UnitGram)

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "", want: []string{"butter", "sal_mix", "salt", "sugar"}},
		{prefix: "s", want: []string{"sal_mix", "salt", "sugar"}},
		{prefix: "sal_", want: []string{"sal_mix"}},
		{prefix: "%", want: nil},
		{prefix: "x", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := database.ListIngredients(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("ListIngredients(%q) error = %v", tt.prefix, err)
			}
			if got == nil {
				t.Fatal("ListIngredients returned nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListIngredients(%q) returned %d rows, want %d", tt.prefix, len(got), len(tt.want))
			}
			for i, ing := range got {
				if ing.Name != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, ing.Name, tt.want[i])
				}
			}
		})
	}
}

func TestInsertIngredientIfAbsent(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	inserted, err := database.InsertIngredientIfAbsent(ctx, "rice", models.UnitGram)
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}
	inserted, err = database.InsertIngredientIfAbsent(ctx, "rice", models.UnitKilogram)
	if err != nil || inserted {
		t.Fatalf("second insert = (%v, %v), want (false, nil)", inserted, err)
	}

	list, err := database.ListIngredients(ctx, "rice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].MeasurementUnit != models.UnitGram {
		t.Errorf("ingredients = %+v, want one rice in grams", list)
	}

	if _, err := database.GetIngredientByID(ctx, list[0].ID+1000); !errors.Is(err, ErrIngredientNotFound) {
		t.Errorf("GetIngredientByID(missing) error = %v, want ErrIngredientNotFound", err)
	}
}

func TestUpsertTag(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := database.UpsertTag(ctx, "Breakfast", "breakfast")
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := database.UpsertTag(ctx, "Morning", "breakfast")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.ID != first.ID {
		t.Errorf("upsert created a new tag: %d != %d", renamed.ID, first.ID)
	}

	got, err := database.GetTagByID(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Morning" {
		t.Errorf("tag name = %q, want Morning", got.Name)
	}

	missing, err := database.MissingTagIDs(ctx, []int64{first.ID, first.ID + 1000})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0] != first.ID+1000 {
		t.Errorf("MissingTagIDs = %v, want [%d]", missing, first.ID+1000)
	}

	if _, err := database.GetTagByID(ctx, first.ID+1000); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("GetTagByID(missing) error = %v, want ErrTagNotFound", err)
	}
}

package shoppinglist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/models"
)

var generatedAt = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func sampleLines() []models.CartIngredientLine {
	return []models.CartIngredientLine{
		{RecipeID: 1, Name: "flour", MeasurementUnit: "g", Amount: 100},
		{RecipeID: 1, Name: "eggs", MeasurementUnit: "pcs", Amount: 2},
		{RecipeID: 2, Name: "flour", MeasurementUnit: "g", Amount: 50},
	}
}

func TestAggregate_SumsSharedIngredients(t *testing.T) {
	list := Aggregate("alice", sampleLines(), generatedAt)

	want := []Item{
		{Number: 1, Name: "eggs", Unit: "pcs", Amount: 2},
		{Number: 2, Name: "flour", Unit: "g", Amount: 150},
	}
	assert.Equal(t, want, list.Items)
	assert.Equal(t, "alice", list.Owner)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	lines := sampleLines()
	reversed := []models.CartIngredientLine{lines[2], lines[1], lines[0]}

	assert.Equal(t, Aggregate("a", lines, generatedAt).Items, Aggregate("a", reversed, generatedAt).Items)
}

func TestAggregate_SameNameDifferentUnits(t *testing.T) {
	list := Aggregate("a", []models.CartIngredientLine{
		{Name: "milk", MeasurementUnit: "ml", Amount: 200},
		{Name: "milk", MeasurementUnit: "cup", Amount: 1},
		{Name: "milk", MeasurementUnit: "ml", Amount: 300},
	}, generatedAt)

	require.Len(t, list.Items, 2)
	assert.Equal(t, Item{Number: 1, Name: "milk", Unit: "cup", Amount: 1}, list.Items[0])
	assert.Equal(t, Item{Number: 2, Name: "milk", Unit: "ml", Amount: 500}, list.Items[1])
}

func TestAggregate_Empty(t *testing.T) {
	list := Aggregate("a", nil, generatedAt)
	assert.Empty(t, list.Items)
	assert.NotNil(t, list.Items)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPDF, false},
		{"pdf", FormatPDF, false},
		{"TXT", FormatTXT, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
		{"docx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := NewExporter(PDFOptions{})
	require.NoError(t, err)
	return e
}

func TestExport_TXT(t *testing.T) {
	doc, err := newExporter(t).Export(Aggregate("alice", sampleLines(), generatedAt), FormatTXT)
	require.NoError(t, err)

	assert.Equal(t, "shopping_list_alice_20240309_140507.txt", doc.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	assert.Equal(t, "Shopping list:\n\n1. eggs — 2 pcs\n2. flour — 150 g\n", string(doc.Body))
}

func TestExport_CSV(t *testing.T) {
	doc, err := newExporter(t).Export(Aggregate("alice", sampleLines(), generatedAt), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "shopping_list_alice_20240309_140507.csv", doc.Filename)

	records, err := csv.NewReader(bytes.NewReader(doc.Body)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"No.", "Name", "Unit", "Total amount"},
		{"1", "eggs", "pcs", "2"},
		{"2", "flour", "g", "150"},
	}, records)
}

func TestExport_PDF(t *testing.T) {
	doc, err := newExporter(t).Export(Aggregate("alice", sampleLines(), generatedAt), FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(doc.Body))
}

func TestExport_PDFBreaksPages(t *testing.T) {
	lines := make([]models.CartIngredientLine, 0, 80)
	for i := 0; i < 80; i++ {
		lines = append(lines, models.CartIngredientLine{Name: fmt.Sprintf("ingredient %02d", i), MeasurementUnit: "g", Amount: 1})
	}

	doc, err := newExporter(t).Export(Aggregate("bob", lines, generatedAt), FormatPDF)
	require.NoError(t, err)
	assert.Greater(t, pageCount(doc.Body), 1)
}

func TestExport_EmptyListEveryFormat(t *testing.T) {
	list := Aggregate("empty", nil, generatedAt)
	e := newExporter(t)

	for _, f := range []Format{FormatTXT, FormatCSV, FormatPDF} {
		t.Run(string(f), func(t *testing.T) {
			doc, err := e.Export(list, f)
			require.NoError(t, err)
			assert.NotEmpty(t, doc.Body)
			assert.True(t, strings.HasSuffix(doc.Filename, "."+string(f)))
		})
	}

	doc, err := e.Export(list, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\n\n", string(doc.Body))
}

func TestExport_Unsupported(t *testing.T) {
	_, err := newExporter(t).Export(Aggregate("a", nil, generatedAt), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewExporter_MissingFont(t *testing.T) {
	_, err := NewExporter(PDFOptions{FontPath: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}

func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("/Type /Page\n"))
}

type fakeCartStore struct {
	carts map[int64]int64
	lines map[int64][]models.CartIngredientLine
}

func (f fakeCartStore) GetCartByOwner(_ context.Context, userID int64) (*models.Cart, error) {
	id, ok := f.carts[userID]
	if !ok {
		return nil, errors.New("cart not found")
	}
	return &models.Cart{ID: id, OwnerID: userID}, nil
}

func (f fakeCartStore) GetCartIngredientLines(_ context.Context, cartID int64) ([]models.CartIngredientLine, error) {
	return f.lines[cartID], nil
}

func TestBuild(t *testing.T) {
	store := fakeCartStore{
		carts: map[int64]int64{1: 10},
		lines: map[int64][]models.CartIngredientLine{10: sampleLines()},
	}

	list, err := Build(context.Background(), store, &models.User{ID: 1, Username: "alice"}, generatedAt)
	require.NoError(t, err)
	assert.Equal(t, "alice", list.Owner)
	assert.Len(t, list.Items, 2)

	_, err = Build(context.Background(), store, &models.User{ID: 2}, generatedAt)
	assert.Error(t, err)
}

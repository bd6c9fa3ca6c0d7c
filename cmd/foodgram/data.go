package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/models"
	"foodgram/internal/validation"
)

var importIngredientsCmd = &cobra.Command{
	Use:   "import-ingredients <file.csv>",
	Short: "Load ingredients from a name,unit CSV file",
	Long: `Reads rows of "name,measurement_unit" and inserts every ingredient whose
name is not in the catalog yet. Malformed rows are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportIngredients,
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load tags and ingredients from the YAML reference file",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML file to load (defaults to $CONFIG_FILE or config.yaml)")
}

func runImportIngredients(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, skipped, err := readIngredientRows(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	for _, s := range skipped {
		slog.Warn("skipping ingredient row", "line", s.line, "reason", s.reason)
	}

	ctx := cmd.Context()
	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	added, err := insertIngredients(ctx, database, rows)
	if err != nil {
		return err
	}
	slog.Info("ingredients imported", "added", added, "existing", len(rows)-added, "skipped", len(skipped))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	var (
		ref *config.YAMLConfig
		err error
	)
	if seedFile != "" {
		ref, err = config.LoadYAMLConfigFile(seedFile)
	} else {
		ref, err = config.LoadYAMLConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}
	if ref == nil {
		return errors.New("no reference data file found")
	}

	ctx := cmd.Context()
	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	tags := usableTags(ref)
	for _, tag := range tags {
		if _, err := database.UpsertTag(ctx, tag.Name, tag.Slug); err != nil {
			return fmt.Errorf("failed to save tag %q: %w", tag.Slug, err)
		}
	}

	var rows []config.IngredientConfig
	for _, ing := range ref.Ingredients {
		if reason := checkIngredient(ing); reason != "" {
			slog.Warn("skipping ingredient", "name", ing.Name, "reason", reason)
			continue
		}
		rows = append(rows, ing)
	}
	added, err := insertIngredients(ctx, database, rows)
	if err != nil {
		return err
	}

	slog.Info("reference data loaded", "tags", len(tags), "ingredients_added", added)
	return nil
}

// usableTags drops tags with an empty name or invalid slug, and every tag
// whose slug was already used by an earlier entry.
func usableTags(ref *config.YAMLConfig) []config.TagConfig {
	var tags []config.TagConfig
	for i, tag := range ref.Tags {
		if tag.Name == "" || !validation.ValidateTagSlug(tag.Slug) {
			slog.Warn("skipping tag", "name", tag.Name, "slug", tag.Slug)
			continue
		}
		if first := ref.GetTagBySlug(tag.Slug); first != &ref.Tags[i] {
			slog.Warn("skipping tag with duplicate slug", "name", tag.Name, "slug", tag.Slug, "kept", first.Name)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

type skippedRow struct {
	line   int
	reason string
}

// readIngredientRows parses name,unit records. Rows that are not exactly two
// fields or fail validation are returned as skipped instead of failing the
// whole file.
func readIngredientRows(r io.Reader) ([]config.IngredientConfig, []skippedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows    []config.IngredientConfig
		skipped []skippedRow
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(record) != 2 {
			skipped = append(skipped, skippedRow{line: line, reason: fmt.Sprintf("expected 2 fields, got %d", len(record))})
			continue
		}

		ing := config.IngredientConfig{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		}
		if reason := checkIngredient(ing); reason != "" {
			skipped = append(skipped, skippedRow{line: line, reason: reason})
			continue
		}
		rows = append(rows, ing)
	}
	return rows, skipped, nil
}

func checkIngredient(ing config.IngredientConfig) string {
	switch {
	case ing.Name == "":
		return "empty name"
	case len(ing.Name) > validation.MaxNameLength:
		return "name too long"
	case !models.IsValidUnit(ing.MeasurementUnit):
		return fmt.Sprintf("unknown unit %q", ing.MeasurementUnit)
	}
	return ""
}

func insertIngredients(ctx context.Context, database *db.DB, rows []config.IngredientConfig) (int, error) {
	added := 0
	for _, ing := range rows {
		inserted, err := database.InsertIngredientIfAbsent(ctx, ing.Name, ing.MeasurementUnit)
		if err != nil {
			return added, fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

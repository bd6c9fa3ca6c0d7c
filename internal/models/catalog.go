package models

// Tag is static reference data attached to recipes.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Ingredient is a catalog entry with its measurement unit.
type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Measurement units accepted by the catalog.
const (
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMillilitre = "ml"
	UnitLitre      = "l"
	UnitPiece      = "pcs"
	UnitTeaspoon   = "tsp"
	UnitTablespoon = "tbsp"
	UnitCup        = "cup"
	UnitPinch      = "pinch"
	UnitDrop       = "drop"
	UnitHandful    = "handful"
	UnitSprig      = "sprig"
	UnitSlice      = "slice"
	UnitCan        = "can"
	UnitLoaf       = "loaf"
	UnitToTaste    = "to taste"
)

// MeasurementUnits lists every valid unit, in display order.
var MeasurementUnits = []string{
	UnitGram, UnitKilogram, UnitMillilitre, UnitLitre, UnitPiece,
	UnitTeaspoon, UnitTablespoon, UnitCup, UnitPinch, UnitDrop,
	UnitHandful, UnitSprig, UnitSlice, UnitCan, UnitLoaf, UnitToTaste,
}

// IsValidUnit returns true if unit is one of MeasurementUnits.
func IsValidUnit(unit string) bool {
	for _, u := range MeasurementUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// CartIngredientLine is one ingredient row of one recipe in a cart,
// before aggregation.
type CartIngredientLine struct {
	RecipeID        int64
	Name            string
	MeasurementUnit string
	Amount          int64
}

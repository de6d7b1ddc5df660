package services

import (
	"github.com/shopspring/decimal"
)

var kgPerTon = decimal.NewFromInt(1000)

// kgPlaces is the precision of the stored weighings (grams).
const kgPlaces = 3

// NetWeightTons derives the net load from the two weighings. It fails when the
// loaded weight does not strictly exceed the empty weight.
func NetWeightTons(emptyKg, loadedKg decimal.Decimal) (decimal.Decimal, error) {
	if emptyKg.IsNegative() {
		return decimal.Zero, invalid("empty_weight_kg", "must not be negative")
	}
	if loadedKg.IsNegative() {
		return decimal.Zero, invalid("loaded_weight_kg", "must not be negative")
	}
	if !loadedKg.GreaterThan(emptyKg) {
		return decimal.Zero, invalid("loaded_weight_kg", "must be greater than the empty weight")
	}
	return loadedKg.Sub(emptyKg).Div(kgPerTon), nil
}

// requireWeight unwraps an optional decimal input. Weights finer than a gram
// are rejected so the stored kg values are exactly those net weight was
// computed from.
func requireWeight(field string, v decimal.NullDecimal) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Zero, invalid(field, "is required")
	}
	if !v.Decimal.Equal(v.Decimal.Truncate(kgPlaces)) {
		return decimal.Zero, invalid(field, "must have at most %d decimal places", kgPlaces)
	}
	return v.Decimal, nil
}

package pricing

import (
	"encoding/json"
	"fmt"
	"os"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Cacao tier labels, ordered from the richest band down.
const (
	Tier100  = "100"
	Tier705  = "70.5"
	Tier579  = "57.9"
	TierMilk = "MILK"
)

// MaxShots is the largest shot count a drink can be ordered with.
const MaxShots = 10

// Tiers lists every tier label a record can carry.
var Tiers = []string{Tier100, Tier705, Tier579, TierMilk}

// Table holds every amount used to price a drink, in the smallest currency unit.
type Table struct {
	BasePrices    map[string]int `json:"basePrices" validate:"required,dive,gte=0"`
	SizeAddons    map[string]int `json:"sizeAddons" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	IceAddon      int            `json:"iceAddon" validate:"gte=0"`
	ToppingAddon  int            `json:"toppingAddon" validate:"gte=0"`
	ShotAddon     int            `json:"shotAddon" validate:"gte=0"`
	IncludedShots int            `json:"includedShots" validate:"gte=0,lte=10"`
	DefaultSize   string         `json:"defaultSize" validate:"required"`
}

// DefaultTable returns the canonical stand configuration.
func DefaultTable() Table {
	return Table{
		BasePrices: map[string]int{
			Tier100:  8300,
			Tier705:  7300,
			Tier579:  6800,
			TierMilk: 6800,
		},
		SizeAddons: map[string]int{
			"M":  0,
			"L":  500,
			"XL": 1000,
		},
		IceAddon:     700,
		ToppingAddon: 0,
		DefaultSize:  "M",
	}
}

// LoadTable reads a JSON price table from path and validates it with v.
func LoadTable(path string, v *validatorv10.Validate) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read price table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return Table{}, fmt.Errorf("decode price table: %w", err)
	}
	if err := v.Struct(t); err != nil {
		return Table{}, fmt.Errorf("invalid price table: %w", err)
	}
	return t, nil
}

// TableStructValidation checks the cross-field rules of a Table: every tier
// priced, and the default size present in the size addons.
func TableStructValidation(sl validatorv10.StructLevel) {
	t := sl.Current().Interface().(Table)

	for _, tier := range Tiers {
		if _, ok := t.BasePrices[tier]; !ok {
			sl.ReportError(t.BasePrices, "basePrices", "BasePrices", "tier_priced", tier)
		}
	}
	if t.DefaultSize != "" {
		if _, ok := t.SizeAddons[t.DefaultSize]; !ok {
			sl.ReportError(t.DefaultSize, "defaultSize", "DefaultSize", "size_known", t.DefaultSize)
		}
	}
}

// Package pos maps order records onto a point-of-sale catalog's product and
// option ids. Matching is exact on configured labels; anything else is an
// error for the operator to fix in the catalog file.
package pos

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/vg-orderflow/internal/orders"
	"github.com/imrishuroy/vg-orderflow/internal/pricing"
)

// ErrUnmappedOption is returned when a record carries a label the catalog
// has no option id for.
var ErrUnmappedOption = errors.New("pos option not mapped")

// Catalog option label groups.
const (
	GroupCacao       = "cacao"
	GroupTemperature = "temperature"
	GroupSize        = "size"
	GroupTopping     = "topping"

	TemperatureIced = "ICED"
	TemperatureHot  = "HOT"
	ToppingAdded    = "YES"
)

// Catalog is the operator-maintained mapping of one POS product.
type Catalog struct {
	ProductID string                       `json:"productId" validate:"required"`
	Options   map[string]map[string]string `json:"options" validate:"required,dive,keys,oneof=cacao temperature size topping,endkeys,required,dive,keys,required,endkeys,required"`
}

// LineItem is what gets inserted into the POS.
type LineItem struct {
	OrderID   string   `json:"orderId"`
	ProductID string   `json:"productId"`
	OptionIDs []string `json:"optionIds"`
	Price     int      `json:"price"`
}

// LoadCatalog reads a JSON catalog from path and validates it with v.
func LoadCatalog(path string, v *validatorv10.Validate) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read pos catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode pos catalog: %w", err)
	}
	if err := v.Struct(c); err != nil {
		return Catalog{}, fmt.Errorf("invalid pos catalog: %w", err)
	}
	return c, nil
}

// CatalogStructValidation requires every cacao tier to be mapped.
func CatalogStructValidation(sl validatorv10.StructLevel) {
	c := sl.Current().Interface().(Catalog)
	for _, tier := range pricing.Tiers {
		if _, ok := c.Options[GroupCacao][tier]; !ok {
			sl.ReportError(c.Options, "options", "Options", "tier_mapped", tier)
		}
	}
}

// Resolve maps rec onto a line item. Groups the catalog leaves out entirely
// are skipped; a group that is present must map the record's label.
func Resolve(c Catalog, rec orders.Record) (LineItem, error) {
	temperature := TemperatureHot
	if rec.IsIced {
		temperature = TemperatureIced
	}
	wanted := map[string]string{
		GroupCacao:       rec.CacaoNormalized,
		GroupTemperature: temperature,
		GroupSize:        rec.Size,
	}
	if rec.HasTopping {
		wanted[GroupTopping] = ToppingAdded
	}

	groups := make([]string, 0, len(wanted))
	for g := range wanted {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	item := LineItem{OrderID: rec.OrderID, ProductID: c.ProductID, Price: rec.Price}
	for _, g := range groups {
		opts, ok := c.Options[g]
		if !ok {
			continue
		}
		id, ok := opts[wanted[g]]
		if !ok {
			return LineItem{}, fmt.Errorf("%w: %s=%s", ErrUnmappedOption, g, wanted[g])
		}
		item.OptionIDs = append(item.OptionIDs, id)
	}
	return item, nil
}

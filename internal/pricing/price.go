// Package pricing maps a drink selection onto an integer price using a
// fixed, data-driven table.
package pricing

// Input is an already-coerced drink selection.
type Input struct {
	Cacao   any
	Iced    bool
	Size    string
	Topping bool
	Shots   int
}

// Quote is the priced, normalized form of an Input.
type Quote struct {
	Tier  string
	Size  string
	Price int
}

// TierFor bands a cacao percentage. Values without a finite numeric reading
// land in the MILK tier.
func TierFor(cacao any) string {
	v, ok := Number(cacao)
	if !ok {
		return TierMilk
	}
	switch {
	case v >= 85:
		return Tier100
	case v >= 65:
		return Tier705
	case v >= 45:
		return Tier579
	default:
		return TierMilk
	}
}

// NormalizeSize returns size when the table knows it, else the default size.
func (t Table) NormalizeSize(size string) string {
	if _, ok := t.SizeAddons[size]; ok {
		return size
	}
	return t.DefaultSize
}

// Price computes the quote for in. It never fails: every lookup falls back
// to a zero addon.
func (t Table) Price(in Input) Quote {
	tier := TierFor(in.Cacao)
	size := t.NormalizeSize(in.Size)

	price := t.BasePrices[tier] + t.SizeAddons[size]
	if in.Iced {
		price += t.IceAddon
	}
	if in.Topping {
		price += t.ToppingAddon
	}
	if extra := min(in.Shots, MaxShots) - t.IncludedShots; extra > 0 {
		price += extra * t.ShotAddon
	}

	return Quote{Tier: tier, Size: size, Price: price}
}

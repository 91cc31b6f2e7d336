package subscription

import (
	"fmt"
	"strings"
)

// Tier is a named service level. The set is closed.
type Tier string

const (
	TierFree     Tier = "Free"
	TierBasic    Tier = "Basic"
	TierStandard Tier = "Standard"
	TierPremium  Tier = "Premium"
)

// DefaultPaidTier is granted when a provider price cannot be mapped to a tier.
const DefaultPaidTier = TierStandard

var allTiers = []Tier{TierFree, TierBasic, TierStandard, TierPremium}

// Tiers returns every tier ordered from cheapest to most expensive.
func Tiers() []Tier {
	out := make([]Tier, len(allTiers))
	copy(out, allTiers)
	return out
}

// ParseTier converts a case-insensitive tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	for _, t := range allTiers {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

func (t Tier) Valid() bool {
	for _, v := range allTiers {
		if v == t {
			return true
		}
	}
	return false
}

// IsPaid reports whether the tier is billed through the provider.
func (t Tier) IsPaid() bool {
	return t.Valid() && t != TierFree
}

func (t Tier) String() string {
	return string(t)
}

// PriceTable is the static mapping between provider price identifiers and
// paid tiers. It is immutable after construction and safe for concurrent use.
type PriceTable struct {
	byPrice map[string]Tier
	byTier  map[Tier]string
}

// NewPriceTable builds a table from tier -> price id pairs.
// Only paid tiers may carry a price and price ids must be unique.
func NewPriceTable(prices map[Tier]string) (*PriceTable, error) {
	pt := &PriceTable{
		byPrice: make(map[string]Tier, len(prices)),
		byTier:  make(map[Tier]string, len(prices)),
	}
	for tier, price := range prices {
		if !tier.IsPaid() {
			return nil, fmt.Errorf("%w: tier %q cannot have a price", ErrInvalidPriceTable, tier)
		}
		price = strings.TrimSpace(price)
		if price == "" {
			continue
		}
		if other, dup := pt.byPrice[price]; dup {
			return nil, fmt.Errorf("%w: price %q used by %s and %s", ErrInvalidPriceTable, price, other, tier)
		}
		pt.byPrice[price] = tier
		pt.byTier[tier] = price
	}
	return pt, nil
}

// MustPriceTable is NewPriceTable that panics on error.
func MustPriceTable(prices map[Tier]string) *PriceTable {
	pt, err := NewPriceTable(prices)
	if err != nil {
		panic(err)
	}
	return pt
}

// TierForPrice returns the tier mapped to priceID.
func (p *PriceTable) TierForPrice(priceID string) (Tier, bool) {
	t, ok := p.byPrice[priceID]
	return t, ok
}

// PriceFor returns the provider price id configured for tier.
func (p *PriceTable) PriceFor(tier Tier) (string, bool) {
	price, ok := p.byTier[tier]
	return price, ok
}

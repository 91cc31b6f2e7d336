package calendar

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/billingkit/pkg/discount"
)

// Entry is one row of a product's holiday discount plan. Stored entries come
// from the discount schedule; the rest are calendar holidays with defaults.
type Entry struct {
	ID                 *uuid.UUID `json:"id,omitempty"`
	HolidayDate        string     `json:"holidayDate"`
	HolidayName        string     `json:"holidayName"`
	StartBefore        int        `json:"startBefore"`
	EndAfter           int        `json:"endAfter"`
	DiscountPercentage *int       `json:"discountPercentage"`
	CouponCode         *string    `json:"couponCode"`
	Stored             bool       `json:"stored"`
}

// Merge combines stored records with calendar holidays. A stored record wins
// over any holiday on the same date. The result is ordered by date.
func Merge(stored []discount.Record, holidays []Holiday, d Defaults) []Entry {
	out := make([]Entry, 0, len(stored)+len(holidays))
	seen := make(map[string]struct{}, len(stored)+len(holidays))

	for _, r := range stored {
		id := r.ID
		out = append(out, Entry{
			ID:                 &id,
			HolidayDate:        r.Date(),
			HolidayName:        r.HolidayName,
			StartBefore:        r.StartBefore,
			EndAfter:           r.EndAfter,
			DiscountPercentage: r.DiscountPercentage,
			CouponCode:         r.CouponCode,
			Stored:             true,
		})
		seen[r.Date()] = struct{}{}
	}

	for _, h := range holidays {
		if _, dup := seen[h.Date]; dup {
			continue
		}
		seen[h.Date] = struct{}{}

		name := h.Name
		if name == "" {
			name = h.LocalName
		}
		pct := d.DiscountPercentage
		out = append(out, Entry{
			HolidayDate:        h.Date,
			HolidayName:        name,
			StartBefore:        d.StartBefore,
			EndAfter:           d.EndAfter,
			DiscountPercentage: &pct,
		})
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.HolidayDate, b.HolidayDate)
	})
	return out
}

// DiscountLister reads a product's stored schedule.
type DiscountLister interface {
	List(ctx context.Context, productID string) ([]discount.Record, error)
}

// HolidaySource returns public holidays for a year and country.
type HolidaySource interface {
	Holidays(ctx context.Context, year int, country string) ([]Holiday, error)
}

// Planner builds the merged discount plan shown to operators.
type Planner struct {
	discounts DiscountLister
	source    HolidaySource
	defaults  Defaults
}

func NewPlanner(discounts DiscountLister, source HolidaySource, defaults Defaults) *Planner {
	if discounts == nil || source == nil {
		panic("calendar: planner requires a discount lister and a holiday source")
	}
	return &Planner{discounts: discounts, source: source, defaults: defaults}
}

// Plan merges the product's stored records for year with the holidays of
// country. An empty product id yields only calendar entries.
func (p *Planner) Plan(ctx context.Context, productID string, year int, country string) ([]Entry, error) {
	var (
		stored   []discount.Record
		holidays []Holiday
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if productID == "" {
			return nil
		}
		records, err := p.discounts.List(gctx, productID)
		if err != nil {
			return err
		}
		for _, r := range records {
			if r.HolidayDate.Year() == year {
				stored = append(stored, r)
			}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holidays, err = p.source.Holidays(gctx, year, country)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(stored, holidays, p.defaults), nil
}

package discount

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of holiday dates.
const DateLayout = "2006-01-02"

// MaxWindowDays bounds StartBefore and EndAfter.
const MaxWindowDays = 365

// Record schedules a discount around a holiday for one product.
type Record struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          string    `json:"productId"`
	HolidayDate        time.Time `json:"-"`
	HolidayName        string    `json:"holidayName"`
	StartBefore        int       `json:"startBefore"`
	EndAfter           int       `json:"endAfter"`
	DiscountPercentage *int      `json:"discountPercentage"`
	CouponCode         *string   `json:"couponCode"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Date returns the holiday date in DateLayout.
func (r Record) Date() string {
	return r.HolidayDate.Format(DateLayout)
}

// MarshalJSON renders HolidayDate in DateLayout.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		HolidayDate string `json:"holidayDate"`
	}{plain(r), r.Date()})
}

// Window returns the first and last day of the discount, both inclusive.
func (r Record) Window() (start, end time.Time) {
	return r.HolidayDate.AddDate(0, 0, -r.StartBefore), r.HolidayDate.AddDate(0, 0, r.EndAfter)
}

// ActiveAt reports whether the calendar day of t (in UTC) falls in the window.
func (r Record) ActiveAt(t time.Time) bool {
	day := truncateDay(t)
	start, end := r.Window()
	return !day.Before(start) && !day.After(end)
}

// Input is a create-or-override request for one holiday.
type Input struct {
	ProductID          string  `json:"productId"`
	HolidayDate        string  `json:"holidayDate"`
	HolidayName        string  `json:"holidayName"`
	StartBefore        int     `json:"startBefore"`
	EndAfter           int     `json:"endAfter"`
	DiscountPercentage *int    `json:"discountPercentage"`
	CouponCode         *string `json:"couponCode"`
}

// IsEmpty reports whether the input carries no discount at all. A blank
// coupon code counts as absent.
func (in Input) IsEmpty() bool {
	return in.DiscountPercentage == nil && normalizeCoupon(in.CouponCode) == nil
}

// ParseDate accepts DateLayout or RFC 3339 timestamps and returns the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return truncateDay(t), nil
}

// toRecord validates the input and builds the mutable part of a record.
func (in Input) toRecord() (*Record, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, ErrMissingProduct
	}
	date, err := ParseDate(in.HolidayDate)
	if err != nil {
		return nil, err
	}
	if in.StartBefore < 0 || in.EndAfter < 0 || in.StartBefore > MaxWindowDays || in.EndAfter > MaxWindowDays {
		return nil, ErrInvalidWindow
	}
	if p := in.DiscountPercentage; p != nil && (*p < 1 || *p > 100) {
		return nil, ErrInvalidPercentage
	}

	var pct *int
	if in.DiscountPercentage != nil {
		v := *in.DiscountPercentage
		pct = &v
	}

	return &Record{
		ProductID:          productID,
		HolidayDate:        date,
		HolidayName:        strings.TrimSpace(in.HolidayName),
		StartBefore:        in.StartBefore,
		EndAfter:           in.EndAfter,
		DiscountPercentage: pct,
		CouponCode:         normalizeCoupon(in.CouponCode),
	}, nil
}

func normalizeCoupon(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

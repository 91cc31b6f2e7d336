package discount_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/discount"
)

func day(s string) time.Time {
	t, err := time.Parse(discount.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := discount.ParseDate("2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, day("2025-12-25"), got)

	got, err = discount.ParseDate("2025-12-25T18:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, day("2025-12-25"), got)

	_, err = discount.ParseDate("25/12/2025")
	assert.ErrorIs(t, err, discount.ErrInvalidDate)

	_, err = discount.ParseDate("")
	assert.ErrorIs(t, err, discount.ErrInvalidDate)
}

func TestRecord_Window(t *testing.T) {
	t.Parallel()

	r := discount.Record{HolidayDate: day("2025-12-25"), StartBefore: 7, EndAfter: 3}

	start, end := r.Window()
	assert.Equal(t, day("2025-12-18"), start)
	assert.Equal(t, day("2025-12-28"), end)

	assert.True(t, r.ActiveAt(day("2025-12-18")))
	assert.True(t, r.ActiveAt(day("2025-12-28").Add(23*time.Hour)))
	assert.False(t, r.ActiveAt(day("2025-12-17")))
	assert.False(t, r.ActiveAt(day("2025-12-29")))
}

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	pct := 40
	r := discount.Record{
		ID:                 uuid.MustParse("0b7c1c1e-4f51-4c55-9f3f-5b0f6a2f3e11"),
		ProductID:          "prod_1",
		HolidayDate:        day("2025-07-04"),
		HolidayName:        "Independence Day",
		StartBefore:        7,
		EndAfter:           3,
		DiscountPercentage: &pct,
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "2025-07-04", got["holidayDate"])
	assert.Equal(t, "prod_1", got["productId"])
	assert.EqualValues(t, 40, got["discountPercentage"])
	assert.Nil(t, got["couponCode"])
}

func TestInput_IsEmpty(t *testing.T) {
	t.Parallel()

	blank := "   "
	code := "XMAS"
	pct := 10

	assert.True(t, discount.Input{}.IsEmpty())
	assert.True(t, discount.Input{CouponCode: &blank}.IsEmpty())
	assert.False(t, discount.Input{CouponCode: &code}.IsEmpty())
	assert.False(t, discount.Input{DiscountPercentage: &pct}.IsEmpty())
}

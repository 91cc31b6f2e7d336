package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/calendar"
	"github.com/dmitrymomot/billingkit/pkg/discount"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func record(t *testing.T, date, name string, pct *int, coupon *string) discount.Record {
	t.Helper()
	d, err := discount.ParseDate(date)
	require.NoError(t, err)
	return discount.Record{
		ID:                 uuid.New(),
		ProductID:          "prod_1",
		HolidayDate:        d,
		HolidayName:        name,
		StartBefore:        2,
		EndAfter:           1,
		DiscountPercentage: pct,
		CouponCode:         coupon,
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("stored wins on the same date", func(t *testing.T) {
		t.Parallel()
		stored := []discount.Record{record(t, "2025-07-04", "Summer sale", nil, strPtr("JULY"))}
		holidays := []calendar.Holiday{
			{Date: "2025-12-25", Name: "Christmas Day"},
			{Date: "2025-07-04", Name: "Independence Day"},
			{Date: "2025-01-01", LocalName: "Neujahr"},
		}

		entries := calendar.Merge(stored, holidays, calendar.DefaultDefaults)
		require.Len(t, entries, 3)

		assert.Equal(t, "2025-01-01", entries[0].HolidayDate)
		assert.Equal(t, "Neujahr", entries[0].HolidayName)
		assert.False(t, entries[0].Stored)
		assert.Nil(t, entries[0].ID)
		assert.Equal(t, 7, entries[0].StartBefore)
		assert.Equal(t, 3, entries[0].EndAfter)
		assert.Equal(t, intPtr(40), entries[0].DiscountPercentage)
		assert.Nil(t, entries[0].CouponCode)

		assert.Equal(t, "2025-07-04", entries[1].HolidayDate)
		assert.True(t, entries[1].Stored)
		assert.Equal(t, stored[0].ID, *entries[1].ID)
		assert.Equal(t, "Summer sale", entries[1].HolidayName)
		assert.Equal(t, 2, entries[1].StartBefore)
		assert.Nil(t, entries[1].DiscountPercentage)
		assert.Equal(t, strPtr("JULY"), entries[1].CouponCode)

		assert.Equal(t, "2025-12-25", entries[2].HolidayDate)
	})

	t.Run("stored dates outside the calendar are kept", func(t *testing.T) {
		t.Parallel()
		stored := []discount.Record{record(t, "2025-03-14", "Pi day", intPtr(14), nil)}

		entries := calendar.Merge(stored, nil, calendar.DefaultDefaults)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Stored)
	})

	t.Run("duplicate holidays collapse", func(t *testing.T) {
		t.Parallel()
		holidays := []calendar.Holiday{
			{Date: "2025-04-18", Name: "Good Friday"},
			{Date: "2025-04-18", Name: "Good Friday"},
		}
		assert.Len(t, calendar.Merge(nil, holidays, calendar.DefaultDefaults), 1)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		entries := calendar.Merge(nil, nil, calendar.DefaultDefaults)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

type mockLister struct{ mock.Mock }

func (m *mockLister) List(ctx context.Context, productID string) ([]discount.Record, error) {
	args := m.Called(ctx, productID)
	records, _ := args.Get(0).([]discount.Record)
	return records, args.Error(1)
}

type mockSource struct{ mock.Mock }

func (m *mockSource) Holidays(ctx context.Context, year int, country string) ([]calendar.Holiday, error) {
	args := m.Called(ctx, year, country)
	holidays, _ := args.Get(0).([]calendar.Holiday)
	return holidays, args.Error(1)
}

func TestPlanner_Plan(t *testing.T) {
	t.Parallel()

	t.Run("filters stored records by year", func(t *testing.T) {
		t.Parallel()
		lister := &mockLister{}
		source := &mockSource{}
		lister.On("List", mock.Anything, "prod_1").Return([]discount.Record{
			record(t, "2024-12-25", "Last year", intPtr(10), nil),
			record(t, "2025-12-25", "Xmas", intPtr(25), nil),
		}, nil)
		source.On("Holidays", mock.Anything, 2025, "US").Return([]calendar.Holiday{
			{Date: "2025-12-25", Name: "Christmas Day"},
			{Date: "2025-07-04", Name: "Independence Day"},
		}, nil)

		entries, err := calendar.NewPlanner(lister, source, calendar.DefaultDefaults).
			Plan(context.Background(), "prod_1", 2025, "US")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "2025-07-04", entries[0].HolidayDate)
		assert.Equal(t, "Xmas", entries[1].HolidayName)
		assert.Equal(t, intPtr(25), entries[1].DiscountPercentage)

		lister.AssertExpectations(t)
		source.AssertExpectations(t)
	})

	t.Run("without product", func(t *testing.T) {
		t.Parallel()
		lister := &mockLister{}
		source := &mockSource{}
		source.On("Holidays", mock.Anything, 2025, "US").Return([]calendar.Holiday{{Date: "2025-07-04"}}, nil)

		entries, err := calendar.NewPlanner(lister, source, calendar.DefaultDefaults).
			Plan(context.Background(), "", 2025, "US")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		lister.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("source error", func(t *testing.T) {
		t.Parallel()
		lister := &mockLister{}
		source := &mockSource{}
		lister.On("List", mock.Anything, "prod_1").Return([]discount.Record{}, nil).Maybe()
		source.On("Holidays", mock.Anything, 2025, "US").Return(nil, calendar.ErrUpstream)

		_, err := calendar.NewPlanner(lister, source, calendar.DefaultDefaults).
			Plan(context.Background(), "prod_1", 2025, "US")
		assert.ErrorIs(t, err, calendar.ErrUpstream)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		lister := &mockLister{}
		source := &mockSource{}
		boom := errors.New("db down")
		lister.On("List", mock.Anything, "prod_1").Return(nil, boom)
		source.On("Holidays", mock.Anything, 2025, "US").Return([]calendar.Holiday{}, nil).Maybe()

		_, err := calendar.NewPlanner(lister, source, calendar.DefaultDefaults).
			Plan(context.Background(), "prod_1", 2025, "US")
		assert.ErrorIs(t, err, boom)
	})
}

func TestPrefetcher(t *testing.T) {
	t.Parallel()

	t.Run("warms current and next year", func(t *testing.T) {
		t.Parallel()
		source := &mockSource{}
		for _, y := range []int{2025, 2026} {
			for _, c := range []string{"US", "DE"} {
				source.On("Holidays", mock.Anything, y, c).Return([]calendar.Holiday{}, nil).Once()
			}
		}

		p, err := calendar.NewPrefetcher(source, []string{"US", "DE"}, "@daily",
			calendar.WithPrefetchClock(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }))
		require.NoError(t, err)
		require.NoError(t, p.RunOnce(context.Background()))
		source.AssertExpectations(t)
	})

	t.Run("joins failures", func(t *testing.T) {
		t.Parallel()
		source := &mockSource{}
		source.On("Holidays", mock.Anything, 2025, "US").Return(nil, calendar.ErrUpstream)
		source.On("Holidays", mock.Anything, 2026, "US").Return([]calendar.Holiday{}, nil)

		p, err := calendar.NewPrefetcher(source, []string{"US"}, "0 3 * * *",
			calendar.WithPrefetchClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }))
		require.NoError(t, err)
		assert.ErrorIs(t, p.RunOnce(context.Background()), calendar.ErrUpstream)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		t.Parallel()
		_, err := calendar.NewPrefetcher(&mockSource{}, []string{"US"}, "every tuesday")
		assert.ErrorIs(t, err, calendar.ErrInvalidSchedule)
	})

	t.Run("start and stop", func(t *testing.T) {
		t.Parallel()
		p, err := calendar.NewPrefetcher(&mockSource{}, nil, "@hourly")
		require.NoError(t, err)
		p.Start()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, p.Stop(ctx))
	})
}

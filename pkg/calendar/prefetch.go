package calendar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Prefetcher periodically warms the holiday cache for the current and the
// next year of every configured country.
type Prefetcher struct {
	source    HolidaySource
	countries []string
	cron      *cron.Cron
	log       *slog.Logger
	now       func() time.Time
}

// PrefetcherOption configures a Prefetcher.
type PrefetcherOption func(*Prefetcher)

func WithPrefetchLogger(log *slog.Logger) PrefetcherOption {
	return func(p *Prefetcher) {
		if log != nil {
			p.log = log
		}
	}
}

func WithPrefetchClock(now func() time.Time) PrefetcherOption {
	return func(p *Prefetcher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPrefetcher registers the warm-up job on schedule (standard cron syntax
// or descriptors like @daily).
func NewPrefetcher(source HolidaySource, countries []string, schedule string, opts ...PrefetcherOption) (*Prefetcher, error) {
	if source == nil {
		panic("calendar: prefetcher requires a holiday source")
	}

	p := &Prefetcher{
		source:    source,
		countries: countries,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		log:       logger.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := p.cron.AddFunc(schedule, func() {
		if err := p.RunOnce(context.Background()); err != nil {
			p.log.Error("holiday prefetch failed", logger.Error(err))
		}
	}); err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return p, nil
}

// RunOnce fetches every (year, country) pair and joins the failures.
func (p *Prefetcher) RunOnce(ctx context.Context) error {
	year := p.now().UTC().Year()
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(4)
	errs := make([]error, len(p.countries)*2)
	for i, country := range p.countries {
		for j, y := range []int{year, year + 1} {
			g.Go(func() error {
				if _, err := p.source.Holidays(ctx, y, country); err != nil {
					errs[i*2+j] = err
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	p.log.InfoContext(ctx, "holiday prefetch finished",
		logger.Component("calendar"),
		slog.Int("countries", len(p.countries)),
		logger.Duration(time.Since(start)),
		slog.Bool("ok", err == nil),
	)
	return err
}

// Start runs the scheduler in the background.
func (p *Prefetcher) Start() {
	p.cron.Start()
}

// Stop halts the scheduler and waits for a running job or ctx.
func (p *Prefetcher) Stop(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package discount

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Service manages the holiday discount schedule.
type Service interface {
	// Submit creates or overrides the record for the input's product and
	// date. Inputs without a coupon and without a percentage are skipped and
	// return (nil, nil).
	Submit(ctx context.Context, in Input) (*Record, error)

	// SubmitAll applies Submit to every input and returns the stored records.
	// It stops at the first invalid input.
	SubmitAll(ctx context.Context, in []Input) ([]Record, error)

	// List returns the schedule of a product. An empty product id yields an
	// empty list.
	List(ctx context.Context, productID string) ([]Record, error)

	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Active returns the product's records whose window contains at.
	Active(ctx context.Context, productID string, at time.Time) ([]Record, error)
}

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a discount Service. Panics if store is nil.
func NewService(store Store, opts ...ServiceOption) Service {
	if store == nil {
		panic("discount: Store is required")
	}
	s := &service{
		store: store,
		log:   logger.Noop(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, in Input) (*Record, error) {
	if in.IsEmpty() {
		s.log.DebugContext(ctx, "holiday discount skipped",
			logger.ProductID(in.ProductID), slog.String("holiday_date", in.HolidayDate))
		return nil, nil
	}

	rec, err := in.toRecord()
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec.ID = uuid.New()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "holiday discount saved",
		logger.ProductID(stored.ProductID),
		slog.String("holiday_date", stored.Date()),
		slog.String("discount_id", stored.ID.String()),
	)
	return stored, nil
}

func (s *service) SubmitAll(ctx context.Context, in []Input) ([]Record, error) {
	out := make([]Record, 0, len(in))
	for _, item := range in {
		rec, err := s.Submit(ctx, item)
		if err != nil {
			return out, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *service) List(ctx context.Context, productID string) ([]Record, error) {
	if productID == "" {
		return []Record{}, nil
	}
	return s.store.List(ctx, productID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in Input) (*Record, error) {
	if in.IsEmpty() {
		return nil, ErrEmptyDiscount
	}
	rec, err := in.toRecord()
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.UpdatedAt = s.now()

	return s.store.Update(ctx, rec)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.log.ErrorContext(ctx, "failed to delete holiday discount",
				slog.String("discount_id", id.String()), logger.Error(err))
		}
		return err
	}
	return nil
}

func (s *service) Active(ctx context.Context, productID string, at time.Time) ([]Record, error) {
	all, err := s.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if r.ActiveAt(at) {
			out = append(out, r)
		}
	}
	return out, nil
}

package discount

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/billingkit/pkg/pg"
)

const recordColumns = `id, product_id, holiday_date, holiday_name, start_before, end_after,
	discount_percentage, coupon_code, created_at, updated_at`

// PostgresStore keeps records in the holiday_discounts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("discount: postgres pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO holiday_discounts (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (product_id, holiday_date) DO UPDATE SET
			holiday_name = EXCLUDED.holiday_name,
			start_before = EXCLUDED.start_before,
			end_after = EXCLUDED.end_after,
			discount_percentage = EXCLUDED.discount_percentage,
			coupon_code = EXCLUDED.coupon_code,
			updated_at = EXCLUDED.updated_at
		RETURNING `+recordColumns,
		rec.ID, rec.ProductID, rec.HolidayDate, rec.HolidayName, rec.StartBefore, rec.EndAfter,
		rec.DiscountPercentage, rec.CouponCode, rec.CreatedAt, rec.UpdatedAt,
	)
	out, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("upsert holiday discount: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, productID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM holiday_discounts WHERE product_id = $1 ORDER BY holiday_date`, productID)
	if err != nil {
		return nil, fmt.Errorf("list holiday discounts: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holiday discount: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list holiday discounts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM holiday_discounts WHERE id = $1`, id)
	r, err := scanRecord(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get holiday discount: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *Record) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE holiday_discounts SET
			product_id = $2,
			holiday_date = $3,
			holiday_name = $4,
			start_before = $5,
			end_after = $6,
			discount_percentage = $7,
			coupon_code = $8,
			updated_at = $9
		WHERE id = $1
		RETURNING `+recordColumns,
		rec.ID, rec.ProductID, rec.HolidayDate, rec.HolidayName, rec.StartBefore, rec.EndAfter,
		rec.DiscountPercentage, rec.CouponCode, rec.UpdatedAt,
	)
	r, err := scanRecord(row)
	switch {
	case pg.IsNotFoundError(err):
		return nil, ErrRecordNotFound
	case pg.IsDuplicateKeyError(err):
		return nil, ErrDuplicateRecord
	case err != nil:
		return nil, fmt.Errorf("update holiday discount: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM holiday_discounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(
		&r.ID, &r.ProductID, &r.HolidayDate, &r.HolidayName, &r.StartBefore, &r.EndAfter,
		&r.DiscountPercentage, &r.CouponCode, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.HolidayDate = truncateDay(r.HolidayDate)
	return &r, nil
}

package discount

import (
	"context"

	"github.com/google/uuid"
)

// Store persists holiday discounts. (ProductID, HolidayDate) is unique.
type Store interface {
	// Upsert inserts rec or overwrites the record with the same product and
	// date, keeping that record's ID and CreatedAt.
	Upsert(ctx context.Context, rec *Record) (*Record, error)

	// List returns the product's records ordered by holiday date.
	List(ctx context.Context, productID string) ([]Record, error)

	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// Update replaces the record with rec.ID. Moving it onto another
	// record's product and date fails with ErrDuplicateRecord.
	Update(ctx context.Context, rec *Record) (*Record, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

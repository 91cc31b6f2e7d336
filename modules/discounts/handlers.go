package discounts

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/discount"
)

type listRequest struct {
	ProductID string `query:"productId"`
}

type batchRequest struct {
	Items []discount.Input `json:"items"`
}

type activeRequest struct {
	ProductID string `query:"productId"`
	At        string `query:"at"`
}

type calendarRequest struct {
	ProductID string `query:"productId"`
	Year      int    `query:"year"`
	Country   string `query:"country"`
}

type idRequest struct {
	ID string `path:"id"`
}

type updateRequest struct {
	ID string `path:"id" json:"-"`
	discount.Input
}

func (m *module) list(ctx handler.Context, req listRequest) handler.Response {
	records, err := m.svc.List(ctx, req.ProductID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(records)
}

func (m *module) submit(ctx handler.Context, in discount.Input) handler.Response {
	rec, err := m.svc.Submit(ctx, in)
	if err != nil {
		return handler.Error(err)
	}
	if rec == nil {
		return handler.Empty()
	}
	return handler.JSON(rec, handler.WithJSONStatus(http.StatusCreated))
}

func (m *module) submitAll(ctx handler.Context, req batchRequest) handler.Response {
	records, err := m.svc.SubmitAll(ctx, req.Items)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(records, handler.WithJSONMeta(map[string]any{
		"submitted": len(req.Items),
		"saved":     len(records),
	}))
}

func (m *module) active(ctx handler.Context, req activeRequest) handler.Response {
	at := m.now()
	if req.At != "" {
		t, err := discount.ParseDate(req.At)
		if err != nil {
			return handler.Error(err)
		}
		at = t
	}
	records, err := m.svc.Active(ctx, req.ProductID, at)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(records)
}

func (m *module) calendar(ctx handler.Context, req calendarRequest) handler.Response {
	year := req.Year
	if year == 0 {
		year = m.now().UTC().Year()
	}
	country := req.Country
	if country == "" {
		country = m.country
	}

	entries, err := m.planner.Plan(ctx, req.ProductID, year, country)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(entries, handler.WithJSONMeta(map[string]any{
		"year":    year,
		"country": country,
	}))
}

func (m *module) get(ctx handler.Context, req idRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errInvalidID)
	}
	rec, err := m.svc.Get(ctx, id)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(rec)
}

func (m *module) update(ctx handler.Context, req updateRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errInvalidID)
	}
	rec, err := m.svc.Update(ctx, id, req.Input)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(rec)
}

func (m *module) delete(ctx handler.Context, req idRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errInvalidID)
	}
	if err := m.svc.Delete(ctx, id); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

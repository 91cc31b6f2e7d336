// Package handler turns typed request handlers into http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request value populated by the
// configured binders, and returns a Response (JSON, Empty or Redirect).
// Binding and rendering errors go to an ErrorHandler; NewErrorHandler maps
// domain sentinels to HTTP statuses through ErrorMapper values and renders
// a JSON error envelope:
//
//	errs := handler.NewErrorHandler(log, handler.MapErrors(
//		handler.ErrorMapping{Err: discount.ErrRecordNotFound, HTTP: handler.ErrNotFound},
//	))
//
//	r.Get("/holiday-discounts/{id}", handler.Wrap(getDiscount,
//		handler.WithBinders[handler.Context, getRequest](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, getRequest](errs),
//	))
package handler

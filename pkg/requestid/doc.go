// Package requestid tags every inbound request with a correlation id.
//
// The id is taken from a trusted header when present and valid, otherwise a
// UUIDv7 is generated. It is stored in the request context, echoed in the
// X-Request-ID response header and injected into slog records through
// LoggerExtractor:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware(requestid.WithTrustedHeaders("X-Request-ID", "Request-Id")))
package requestid

// Package logger builds *slog.Logger instances for the billing service with a
// single factory, New, configured through Option functions.
//
// Options select the output format (text or json), the minimum level, static
// attributes, and ContextExtractor callbacks that copy request-scoped values
// (request id, account id) from context.Context into every record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "billingd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "subscription updated",
//	    logger.AccountID(sub.AccountID),
//	    logger.Tier(string(sub.Tier)),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Helpers taking identifiers return an empty slog.Attr for empty input, and
// Error returns an empty slog.Attr for a nil error, so they can be passed
// unconditionally.
package logger

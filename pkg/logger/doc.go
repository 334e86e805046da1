// Package logger builds the process *slog.Logger and provides attribute helpers
// that keep key names consistent across the streaming server.
//
// New applies Option values (format, level, static attributes, environment
// defaults). Context extractors registered with WithContextExtractors add
// attributes taken from the record's context:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "streamhub"),
//	    logger.WithContextExtractors(server.RequestIDExtractor),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelInfo, "stream connection opened",
//	    logger.ConnectionID(conn.ID()),
//	    logger.AccountID(conn.AccountID()),
//	)
//
// Error, ConnectionID, AccountID and RequestID return an empty attribute for
// empty input, so they can be passed without checks.
package logger

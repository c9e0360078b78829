// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a named child logger so that log lines can be traced back
// to the inspector, the fetcher or the overlay stream:
//
//	logger := logging.NewDefault()
//	fetchLog := logger.Component("fetch")
//	fetchLog.Info("Fetched document", logging.URL(u), zap.Int("status", 200))
package logging

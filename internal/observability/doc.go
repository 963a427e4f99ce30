// Package observability provides logging and metrics support for the ArxivChat
// service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//
// Handlers enrich the base logger with the identifiers carried by the request
// context:
//
//	log := observability.LoggerFromContext(r.Context(), logger)
//	log = observability.WithPaperContext(log, paperID)
//
// # Metrics
//
//	metrics := observability.NewMetrics("arxivchat")
//	metrics.RecordSearchCompleted("arxiv", len(papers), elapsed.Seconds())
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests and CLI commands.
//
// # Standard Fields
//
//   - request_id: chi request identifier
//   - correlation_id: X-Correlation-ID header value
//   - query: search query text
//   - source: paper source name
//   - paper_id: arXiv identifier
//   - provider, model: language model backend
package observability

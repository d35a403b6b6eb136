// Package logging defines the Logger interface shared by tools, the fetch
// aggregator and the agent runner, together with a slog backed
// implementation and a NoOpLogger.
//
//	logger := logging.NewSlogLogger(func(o *logging.Options) {
//		o.Level = logging.LogLevelDebug
//		o.Format = "text"
//	})
//	agg := fetch.New(func(o *fetch.Options) { o.Logger = logger })
//
// Event names are dotted lower case identifiers such as
// "fetch.batch.complete" or "tool.call.error", followed by key/value pairs.
package logging

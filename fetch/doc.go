// Package fetch implements a bounded concurrent fetch-and-aggregate batch.
//
// An Aggregator takes an ordered list of URLs, issues one GET per URL
// concurrently, bounds every request with its own timeout and returns a
// Report holding one Outcome per URL in input order together with aggregate
// counts and the wall-clock duration of the batch.
//
// Individual failures (timeouts, DNS errors, refused connections, malformed
// URLs) are recorded as data on the corresponding Outcome. RunBatch itself
// only fails on invalid arguments, before anything is dispatched.
//
// Usage:
//
//	agg := fetch.New()
//	report, err := agg.RunBatch(ctx, []string{"https://example.com", "https://example.org"})
//	if err != nil {
//		return err
//	}
//	for _, r := range report.Results {
//		fmt.Println(r.URL, r.Success)
//	}
//
// The HTTP transport is a collaborator behind the Client interface. By default
// each batch acquires a fresh HTTPClient and closes its idle connections once
// every request has resolved.
package fetch

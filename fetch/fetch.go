package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentdemos/logging"
)

const (
	// DefaultTimeout bounds every individual request of a batch.
	DefaultTimeout = 10 * time.Second
	// PreviewLength is the number of characters kept in Outcome.Preview.
	PreviewLength = 200
	// PreviewMarker is appended to a preview cut at PreviewLength.
	PreviewMarker = "..."
)

// Outcome is the result of fetching one target. Exactly one of Preview and
// Error is set.
type Outcome struct {
	URL           string  `json:"url"`
	Status        *int    `json:"status"`
	Success       bool    `json:"success"`
	ContentLength int     `json:"content_length"`
	Preview       *string `json:"preview"`
	Error         *string `json:"error"`
}

// Report aggregates the outcomes of one batch. Results are in input order.
type Report struct {
	Results          []Outcome     `json:"results"`
	TotalURLs        int           `json:"total_urls"`
	Successful       int           `json:"successful"`
	Failed           int           `json:"failed"`
	TotalTimeSeconds float64       `json:"total_time_seconds"`
	Elapsed          time.Duration `json:"-"`
}

// Options configures an Aggregator.
type Options struct {
	// Timeout applied to every request of a batch. Must be positive.
	Timeout time.Duration
	// NewClient acquires the Client shared by one batch. When the returned
	// value implements io.Closer it is closed after every request resolved.
	NewClient func() Client
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Aggregator runs fetch batches. It holds no state between calls and is safe
// for concurrent use.
type Aggregator struct {
	opts Options
}

// New creates an Aggregator with a 10 second per-request timeout and a fresh
// HTTPClient per batch unless overridden.
func New(optFns ...func(o *Options)) *Aggregator {
	opts := Options{
		Timeout:   DefaultTimeout,
		NewClient: newDefaultClient,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Aggregator{opts: opts}
}

// Timeout returns the per-request timeout.
func (a *Aggregator) Timeout() time.Duration { return a.opts.Timeout }

// RunBatch fetches every target concurrently and waits for all of them.
//
// Each target gets its own deadline derived from ctx; a slow or failing
// target never cancels its siblings. The returned error is non-nil only for
// invalid arguments, in which case nothing was dispatched.
func (a *Aggregator) RunBatch(ctx context.Context, targets []string) (*Report, error) {
	if a.opts.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidArgument, a.opts.Timeout)
	}

	if a.opts.NewClient == nil {
		return nil, fmt.Errorf("%w: no client factory configured", ErrInvalidArgument)
	}

	logger := a.opts.Logger
	start := time.Now()
	results := make([]Outcome, len(targets))

	if len(targets) > 0 {
		logger.Debug("fetch.batch.start", "targets", len(targets), "timeout", a.opts.Timeout.String())

		client := a.opts.NewClient()
		defer a.release(client)

		var g errgroup.Group
		for i, target := range targets {
			g.Go(func() error {
				results[i] = a.fetchOne(ctx, client, target)
				return nil
			})
		}

		_ = g.Wait()
	}

	report := newReport(results, time.Since(start))

	logger.Info(
		"fetch.batch.complete",
		"total", report.TotalURLs,
		"successful", report.Successful,
		"failed", report.Failed,
		"duration_ms", report.Elapsed.Milliseconds(),
	)

	return report, nil
}

var errNoResponse = errors.New("client returned no response")

type fetchResult struct {
	resp *Response
	err  error
}

// fetchOne races a single request against its deadline. The request runs in
// its own goroutine so a client that ignores ctx is abandoned on timeout.
func (a *Aggregator) fetchOne(parent context.Context, client Client, target string) Outcome {
	ctx, cancel := context.WithTimeout(parent, a.opts.Timeout)
	defer cancel()

	done := make(chan fetchResult, 1)

	go func() {
		var res fetchResult
		defer func() {
			if r := recover(); r != nil {
				res = fetchResult{err: &panicError{val: r}}
				a.opts.Logger.Error("fetch.target.panic", "url", target, "recover", r)
			}
			done <- res
		}()

		resp, err := client.Get(ctx, target)
		res = fetchResult{resp: resp, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = fetchResult{err: ctx.Err()}
	}

	if res.err == nil && res.resp == nil {
		res.err = errNoResponse
	}

	if res.err != nil {
		msg := describeFailure(parent, res.err, a.opts.Timeout)
		a.opts.Logger.Debug("fetch.target.failed", "url", target, "error", msg)
		return failedOutcome(target, msg)
	}

	a.opts.Logger.Debug("fetch.target.succeeded", "url", target, "status", res.resp.StatusCode, "bytes", len(res.resp.Body))

	return succeededOutcome(target, res.resp)
}

// release closes the batch client if it supports it.
func (a *Aggregator) release(client Client) {
	closer, ok := client.(io.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		a.opts.Logger.Warn("fetch.client.close_failed", "error", err.Error())
	}
}

func succeededOutcome(target string, resp *Response) Outcome {
	status := resp.StatusCode
	length, preview := Preview(string(resp.Body))

	return Outcome{
		URL:           target,
		Status:        &status,
		Success:       true,
		ContentLength: length,
		Preview:       &preview,
	}
}

func failedOutcome(target, msg string) Outcome {
	return Outcome{
		URL:   target,
		Error: &msg,
	}
}

// Preview returns the character count of body and its preview: the first
// PreviewLength characters followed by PreviewMarker, or the whole body when
// it is not longer than PreviewLength.
func Preview(body string) (int, string) {
	n := utf8.RuneCountInString(body)
	if n <= PreviewLength {
		return n, body
	}

	count := 0
	for i := range body {
		if count == PreviewLength {
			return n, body[:i] + PreviewMarker
		}
		count++
	}

	return n, body
}

func newReport(results []Outcome, elapsed time.Duration) *Report {
	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	return &Report{
		Results:          results,
		TotalURLs:        len(results),
		Successful:       successful,
		Failed:           len(results) - successful,
		TotalTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
		Elapsed:          elapsed,
	}
}

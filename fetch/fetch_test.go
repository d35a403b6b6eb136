package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closingClient wraps a ClientFunc and records Close calls.
type closingClient struct {
	ClientFunc
	closed atomic.Int32
}

func (c *closingClient) Close() error {
	c.closed.Add(1)
	return nil
}

func newTestAggregator(timeout time.Duration, c Client) *Aggregator {
	return New(func(o *Options) {
		o.Timeout = timeout
		o.NewClient = func() Client { return c }
	})
}

func echoClient() ClientFunc {
	return func(_ context.Context, url string) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte("body of " + url)}, nil
	}
}

func assertOutcomeInvariants(t *testing.T, r *Report) {
	t.Helper()

	assert.Equal(t, r.TotalURLs, len(r.Results))
	assert.Equal(t, r.TotalURLs, r.Successful+r.Failed)

	for _, o := range r.Results {
		assert.True(t, (o.Preview == nil) != (o.Error == nil), "exactly one of preview/error for %s", o.URL)
		if o.Success {
			assert.NotNil(t, o.Status)
			assert.NotNil(t, o.Preview)
		} else {
			assert.Nil(t, o.Status)
			assert.Zero(t, o.ContentLength)
			assert.NotNil(t, o.Error)
		}
	}
}

func TestRunBatch_EmptyInput(t *testing.T) {
	var acquired atomic.Int32
	agg := New(func(o *Options) {
		o.NewClient = func() Client {
			acquired.Add(1)
			return echoClient()
		}
	})

	for _, targets := range [][]string{nil, {}} {
		report, err := agg.RunBatch(context.Background(), targets)
		require.NoError(t, err)

		assert.NotNil(t, report.Results)
		assert.Empty(t, report.Results)
		assert.Zero(t, report.TotalURLs)
		assert.Zero(t, report.Successful)
		assert.Zero(t, report.Failed)
		assert.Less(t, report.Elapsed, 50*time.Millisecond)
	}

	assert.Zero(t, acquired.Load(), "empty batches must not acquire a client")
}

func TestRunBatch_PreservesInputOrder(t *testing.T) {
	targets := []string{"a", "b", "c", "d", "e", "a", "c"}

	// Earlier targets finish later so completion order is reversed.
	delays := map[string]time.Duration{
		"a": 60 * time.Millisecond,
		"b": 45 * time.Millisecond,
		"c": 30 * time.Millisecond,
		"d": 15 * time.Millisecond,
		"e": 0,
	}

	client := ClientFunc(func(ctx context.Context, url string) (*Response, error) {
		select {
		case <-time.After(delays[url]):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &Response{StatusCode: http.StatusOK, Body: []byte(url)}, nil
	})

	report, err := newTestAggregator(time.Second, client).RunBatch(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, report.Results, len(targets))

	for i, target := range targets {
		assert.Equal(t, target, report.Results[i].URL)
		require.NotNil(t, report.Results[i].Preview)
		assert.Equal(t, target, *report.Results[i].Preview)
	}

	assert.Equal(t, len(targets), report.Successful)
	assertOutcomeInvariants(t, report)
}

func TestRunBatch_AnyStatusIsSuccess(t *testing.T) {
	client := ClientFunc(func(_ context.Context, url string) (*Response, error) {
		return &Response{StatusCode: http.StatusInternalServerError, Body: []byte("boom")}, nil
	})

	report, err := newTestAggregator(time.Second, client).RunBatch(context.Background(), []string{"x"})
	require.NoError(t, err)

	o := report.Results[0]
	assert.True(t, o.Success)
	require.NotNil(t, o.Status)
	assert.Equal(t, http.StatusInternalServerError, *o.Status)
	assert.Equal(t, 4, o.ContentLength)
	assert.Equal(t, 1, report.Successful)
}

func TestRunBatch_TimeoutIsolation(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	const timeout = 100 * time.Millisecond

	// The slow target ignores ctx entirely; the aggregator must abandon it.
	client := ClientFunc(func(_ context.Context, url string) (*Response, error) {
		if url == "slow" {
			<-release
		}
		return &Response{StatusCode: http.StatusOK, Body: []byte("ok")}, nil
	})

	targets := []string{"fast-1", "slow", "fast-2", "fast-3", "fast-4"}

	start := time.Now()
	report, err := newTestAggregator(timeout, client).RunBatch(context.Background(), targets)
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 2*timeout, "batch must take about one timeout, not one per target")

	assert.Equal(t, 4, report.Successful)
	assert.Equal(t, 1, report.Failed)

	slow := report.Results[1]
	assert.False(t, slow.Success)
	require.NotNil(t, slow.Error)
	assert.Equal(t, "Request timed out after 0.1 seconds", *slow.Error)

	assertOutcomeInvariants(t, report)
}

func TestRunBatch_FailuresAreData(t *testing.T) {
	client := ClientFunc(func(_ context.Context, url string) (*Response, error) {
		switch url {
		case "refused":
			return nil, fmt.Errorf("dial tcp: %w", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})
		case "dns":
			return nil, &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
		case "panic":
			panic("client exploded")
		case "nil":
			return nil, nil
		}
		return &Response{StatusCode: http.StatusOK, Body: []byte("fine")}, nil
	})

	report, err := newTestAggregator(time.Second, client).RunBatch(context.Background(), []string{"refused", "dns", "panic", "nil", "ok"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 4, report.Failed)

	assert.True(t, strings.HasPrefix(*report.Results[0].Error, CategoryConnectionRefused+": "))
	assert.Contains(t, *report.Results[0].Error, "refused")
	assert.True(t, strings.HasPrefix(*report.Results[1].Error, CategoryDNS+": "))
	assert.Equal(t, "Panic: client exploded", *report.Results[2].Error)
	assert.True(t, strings.HasPrefix(*report.Results[3].Error, CategoryRequest+": "))
	assert.True(t, report.Results[4].Success)

	assertOutcomeInvariants(t, report)
}

func TestRunBatch_ReleasesClient(t *testing.T) {
	t.Run("mixed outcomes", func(t *testing.T) {
		c := &closingClient{ClientFunc: func(_ context.Context, url string) (*Response, error) {
			if url == "bad" {
				return nil, errors.New("broken")
			}
			return &Response{StatusCode: http.StatusOK}, nil
		}}

		_, err := newTestAggregator(time.Second, c).RunBatch(context.Background(), []string{"good", "bad"})
		require.NoError(t, err)
		assert.Equal(t, int32(1), c.closed.Load())
	})

	t.Run("all failed", func(t *testing.T) {
		c := &closingClient{ClientFunc: func(context.Context, string) (*Response, error) {
			return nil, errors.New("broken")
		}}

		report, err := newTestAggregator(time.Second, c).RunBatch(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Failed)
		assert.Equal(t, int32(1), c.closed.Load())
	})
}

func TestRunBatch_InvalidArguments(t *testing.T) {
	var acquired atomic.Int32
	factory := func() Client {
		acquired.Add(1)
		return echoClient()
	}

	for _, timeout := range []time.Duration{0, -time.Second} {
		agg := New(func(o *Options) {
			o.Timeout = timeout
			o.NewClient = factory
		})
		_, err := agg.RunBatch(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	agg := New(func(o *Options) { o.NewClient = nil })
	_, err := agg.RunBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, acquired.Load())
}

func TestRunBatch_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := ClientFunc(func(ctx context.Context, _ string) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	report, err := newTestAggregator(time.Second, client).RunBatch(ctx, []string{"a"})
	require.NoError(t, err)
	require.NotNil(t, report.Results[0].Error)
	assert.True(t, strings.HasPrefix(*report.Results[0].Error, CategoryCanceled+": "))
}

func TestRunBatch_ParentDeadlineShorterThanTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := ClientFunc(func(ctx context.Context, _ string) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	report, err := newTestAggregator(10*time.Second, client).RunBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, 2, report.Failed)
	for _, o := range report.Results {
		require.NotNil(t, o.Error)
		assert.Equal(t, CategoryCanceled+": "+context.DeadlineExceeded.Error(), *o.Error)
		assert.NotContains(t, *o.Error, "Request timed out")
	}

	assertOutcomeInvariants(t, report)
}

func TestRunBatch_HTTPScenario(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))
	defer ok.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()

	refused := closedAddress(t)

	agg := New(func(o *Options) { o.Timeout = 300 * time.Millisecond })
	report, err := agg.RunBatch(context.Background(), []string{ok.URL, refused, slow.URL})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	r0 := report.Results[0]
	assert.True(t, r0.Success)
	require.NotNil(t, r0.Status)
	assert.Equal(t, http.StatusOK, *r0.Status)
	assert.Equal(t, 2, r0.ContentLength)
	require.NotNil(t, r0.Preview)
	assert.Equal(t, "hi", *r0.Preview)
	assert.Nil(t, r0.Error)

	r1 := report.Results[1]
	assert.False(t, r1.Success)
	require.NotNil(t, r1.Error)
	assert.Contains(t, *r1.Error, "refused")

	r2 := report.Results[2]
	assert.False(t, r2.Success)
	require.NotNil(t, r2.Error)
	assert.Contains(t, *r2.Error, "timed out")

	assert.Equal(t, 3, report.TotalURLs)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 2, report.Failed)
	assertOutcomeInvariants(t, report)
}

func TestReport_JSONShape(t *testing.T) {
	client := ClientFunc(func(_ context.Context, url string) (*Response, error) {
		if url == "bad" {
			return nil, errors.New("nope")
		}
		return &Response{StatusCode: http.StatusOK, Body: []byte("hi")}, nil
	})

	report, err := newTestAggregator(time.Second, client).RunBatch(context.Background(), []string{"good", "bad"})
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	for _, key := range []string{"results", "total_urls", "successful", "failed", "total_time_seconds"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "Elapsed")

	results := doc["results"].([]any)
	good := results[0].(map[string]any)
	bad := results[1].(map[string]any)

	assert.Equal(t, map[string]any{
		"url":            "good",
		"status":         float64(200),
		"success":        true,
		"content_length": float64(2),
		"preview":        "hi",
		"error":          nil,
	}, good)

	assert.Nil(t, bad["status"])
	assert.Nil(t, bad["preview"])
	assert.Equal(t, "RequestError: nope", bad["error"])
}

func TestPreview(t *testing.T) {
	t.Run("short body verbatim", func(t *testing.T) {
		n, p := Preview("hello")
		assert.Equal(t, 5, n)
		assert.Equal(t, "hello", p)
	})

	t.Run("exactly the limit", func(t *testing.T) {
		body := strings.Repeat("a", PreviewLength)
		n, p := Preview(body)
		assert.Equal(t, PreviewLength, n)
		assert.Equal(t, body, p)
	})

	t.Run("one over the limit", func(t *testing.T) {
		body := strings.Repeat("a", PreviewLength+1)
		n, p := Preview(body)
		assert.Equal(t, PreviewLength+1, n)
		assert.Equal(t, strings.Repeat("a", PreviewLength)+PreviewMarker, p)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		body := strings.Repeat("é", PreviewLength+10)
		n, p := Preview(body)
		assert.Equal(t, PreviewLength+10, n)
		assert.Equal(t, strings.Repeat("é", PreviewLength)+PreviewMarker, p)
	})

	t.Run("empty body", func(t *testing.T) {
		n, p := Preview("")
		assert.Zero(t, n)
		assert.Equal(t, "", p)
	})
}

// closedAddress returns an http URL nothing listens on.
func closedAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return "http://" + addr
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCmd(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "async-tools-agent")
	assert.Contains(t, out, "fetch_multiple_urls")
	assert.Contains(t, out, "add, subtract, multiply, divide, power")
}

func TestFetchCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	out, err := execute(t, "fetch", srv.URL, "not a url")
	require.NoError(t, err)

	var report struct {
		TotalURLs  int `json:"total_urls"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
		Results    []struct {
			URL     string  `json:"url"`
			Preview *string `json:"preview"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalURLs)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "pong", *report.Results[0].Preview)
}

func TestToolCmd(t *testing.T) {
	out, err := execute(t, "tool", "hello-agent", "say_hello", "--args", `{"name":"Alice"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `"Hello, Alice! Nice to meet you!"`, out)

	out, err = execute(t, "tool", "calculator-agent", "divide", "--args", `{"a":1,"b":0}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Cannot divide by zero")

	_, err = execute(t, "tool", "hello-agent", "nope")
	assert.Error(t, err)

	_, err = execute(t, "tool", "no-agent", "say_hello")
	assert.Error(t, err)
}

func TestRunCmd_MockProvider(t *testing.T) {
	out, err := execute(t, "run", "--provider", "mock", "hello-agent", "hi", "there")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi there\n", out)
}

func TestChatCmd_MockProvider(t *testing.T) {
	out, err := executeWithInput(t, "hi\n\nhow are you\n/exit\nignored\n", "chat", "--provider", "mock", "hello-agent")
	require.NoError(t, err)
	assert.Equal(t, "> Mock response to: hi\n> > Mock response to: how are you\n> ", out)
}

func TestChatCmd_EOF(t *testing.T) {
	out, err := executeWithInput(t, "hello", "chat", "--provider", "mock", "memory-agent")
	require.NoError(t, err)
	assert.Equal(t, "> Mock response to: hello\n> \n", out)
}

func TestChatCmd_UnknownAgent(t *testing.T) {
	_, err := executeWithInput(t, "hi\n", "chat", "--provider", "mock", "nobody")
	assert.Error(t, err)
}

func TestInvalidProvider(t *testing.T) {
	_, err := execute(t, "--provider", "cohere", "list")
	assert.Error(t, err)
}

package restyutil

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.messages[id] = contents
}

func TestInstrumentClientDumpsMessages(t *testing.T) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("hello body"))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, nil, out)

	res, err := client.R().Get(server.URL + "/usr/alice")
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode())

	require.Len(t, out.messages, 1)
	message := out.messages["1"]
	require.Contains(t, message, "---- REQUEST ----")
	require.Contains(t, message, "GET "+server.URL+"/usr/alice")
	require.Contains(t, message, "X-Test: yes")
	require.True(t, strings.HasSuffix(message, "hello body"))
}

func TestInstrumentClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)
	_, err := client.R().Get(url)
	require.Error(t, err)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("7", "contents")
	written, err := os.ReadFile(out.Path("7"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFilesystemOutputKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scores.txt"), []byte("keep me"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.txt"), []byte("keep me too"), 0644))

	first, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	second, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.NotEqual(t, first.Path("1"), second.Path("1"))

	first.Write("1", "first run")
	second.Write("1", "second run")
	// a second write of the same id never replaces the first dump
	first.Write("1", "ignored")

	contents, err := os.ReadFile(filepath.Join(dir, "scores.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep me", string(contents))
	contents, err = os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep me too", string(contents))

	contents, err = os.ReadFile(first.Path("1"))
	require.NoError(t, err)
	require.Equal(t, "first run", string(contents))
	contents, err = os.ReadFile(second.Path("1"))
	require.NoError(t, err)
	require.Equal(t, "second run", string(contents))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(nil))
	require.Equal(t, "A: 1\nB: 2\nB: 3", formatHeaders(http.Header{
		"B": {"2", "3"},
		"A": {"1"},
	}))
}

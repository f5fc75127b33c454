package watch

import (
	"context"
	"errors"
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/notify"
	"feedback-notifier/lib/scrapers/ebay"
	"feedback-notifier/lib/snapshot"
	"feedback-notifier/lib/testutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	sent []*email.Email
	err  error
}

func (f *fakeTransport) Send(ctx context.Context, mail *email.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, mail)
	return nil
}

type fixture struct {
	path      string
	transport *fakeTransport
	service   Service
	now       time.Time
}

func setup(t testing.TB, pages map[string]string) *fixture {
	cleanup := testutil.Setup(t, "services/watch")
	t.Cleanup(cleanup)

	server := testutil.ProfileServer(t, pages)
	client, err := ebay.NewClient(ebay.ClientOptions{BaseUrl: server.URL + "/usr/"})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		path:      filepath.Join(t.TempDir(), "scores.txt"),
		transport: &fakeTransport{},
		now:       time.Date(2024, time.May, 1, 8, 30, 0, 0, time.UTC),
	}
	f.service = NewService(Options{
		Fetcher:   client,
		Extractor: ebay.NewPatternExtractor(),
		Notifier: notify.NewNotifier(notify.MessageConfig{
			From: "sender@email.com",
			To:   "recipient@email.com",
		}, f.transport),
		Now: func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) writeSnapshot(t testing.TB, record feedback.Record) {
	err := snapshot.Save(context.Background(), f.path, record, f.now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) readSnapshot(t testing.TB) string {
	contents, err := os.ReadFile(f.path)
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}

func profile(username, overall, positive, neutral, negative string) map[string]string {
	return map[string]string{
		username: testutil.ProfilePage(username, testutil.ProfileScores{
			Overall:  overall,
			Positive: positive,
			Neutral:  neutral,
			Negative: negative,
		}),
	}
}

func TestFirstRun(t *testing.T) {
	f := setup(t, profile("alice", "12345", "12,001", "30", "4"))

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.False(t, report.HasOld)
	require.Empty(t, report.Changes)
	require.False(t, report.Notified)
	require.Empty(t, report.Diagnostics)
	require.Empty(t, f.transport.sent)

	expected := feedback.Record{Overall: "12,345", Positive: "12,001", Neutral: "30", Negative: "4"}
	require.Equal(t, expected, report.New)
	require.Equal(t, snapshot.Format(expected, f.now), f.readSnapshot(t))
}

func TestOverallChanged(t *testing.T) {
	f := setup(t, profile("alice", "105", "90", "5", "5"))
	f.writeSnapshot(t, feedback.Record{Overall: "100", Positive: "90", Neutral: "5", Negative: "5"})

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.True(t, report.HasOld)

	diff := cmp.Diff([]feedback.Change{
		{Field: feedback.Overall, Old: "100", New: "105"},
	}, report.Changes)
	if diff != "" {
		t.Fatal("unexpected changes", diff)
	}

	require.True(t, report.Notified)
	require.Len(t, f.transport.sent, 1)
	body := string(f.transport.sent[0].Text)
	require.Equal(t, "alice's feedback changes:\n\noverall: 100 -> 105\n", body)
	require.Equal(t, 1, strings.Count(body, " -> "))

	require.Equal(t, snapshot.Format(report.New, f.now), f.readSnapshot(t))
}

func TestUnchangedStillRewritesSnapshot(t *testing.T) {
	f := setup(t, profile("alice", "100", "90", "5", "5"))
	old := feedback.Record{Overall: "100", Positive: "90", Neutral: "5", Negative: "5"}
	f.writeSnapshot(t, old)
	before := f.readSnapshot(t)

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.Empty(t, report.Changes)
	require.False(t, report.Notified)
	require.Empty(t, f.transport.sent)

	after := f.readSnapshot(t)
	require.NotEqual(t, before, after)
	require.Equal(t, snapshot.Format(old, f.now), after)
}

func TestFetchFailureLeavesSnapshotAlone(t *testing.T) {
	f := setup(t, profile("alice", "100", "90", "5", "5"))

	closed := httptest.NewServer(http.NotFoundHandler())
	baseUrl := closed.URL + "/usr/"
	closed.Close()
	client, err := ebay.NewClient(ebay.ClientOptions{BaseUrl: baseUrl})
	require.NoError(t, err)
	service := NewService(Options{
		Fetcher:  client,
		Notifier: notify.NewNotifier(notify.MessageConfig{}, f.transport),
	})

	// first run: nothing may be created
	_, err = service.Check(context.Background(), "alice", f.path)
	var fetchErr *ebay.FetchError
	require.True(t, errors.As(err, &fetchErr))
	_, statErr := os.Stat(f.path)
	require.True(t, os.IsNotExist(statErr))

	// later run: the previous snapshot must be untouched
	f.writeSnapshot(t, feedback.Record{Overall: "1", Positive: "1", Neutral: "0", Negative: "0"})
	before := f.readSnapshot(t)
	_, err = service.Check(context.Background(), "alice", f.path)
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, before, f.readSnapshot(t))
	require.Empty(t, f.transport.sent)
}

func TestUnknownProfileIsFetchFailure(t *testing.T) {
	f := setup(t, map[string]string{})
	_, err := f.service.Check(context.Background(), "ghost", f.path)
	var fetchErr *ebay.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestNotificationFailureStillSaves(t *testing.T) {
	f := setup(t, profile("alice", "105", "90", "5", "5"))
	f.transport.err = errors.New("connection refused")
	f.writeSnapshot(t, feedback.Record{Overall: "100", Positive: "90", Neutral: "5", Negative: "5"})

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.False(t, report.Notified)
	require.Len(t, report.Diagnostics, 1)
	var notifyErr *notify.NotificationError
	require.True(t, errors.As(report.Diagnostics[0], &notifyErr))

	require.Equal(t, snapshot.Format(report.New, f.now), f.readSnapshot(t))
}

func TestPartialExtraction(t *testing.T) {
	f := setup(t, profile("alice", "", "90", "", "5"))
	f.writeSnapshot(t, feedback.Record{Overall: "100", Positive: "90", Neutral: "5", Negative: "5"})

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.Equal(t, feedback.Record{Overall: "0", Positive: "90", Neutral: "0", Negative: "5"}, report.New)

	var missing []feedback.Field
	for _, d := range report.Diagnostics {
		var extractErr *ebay.ExtractionError
		require.True(t, errors.As(d, &extractErr))
		missing = append(missing, extractErr.Field)
	}
	require.Equal(t, []feedback.Field{feedback.Overall, feedback.Neutral}, missing)

	require.Equal(t, []feedback.Change{
		{Field: feedback.Overall, Old: "100", New: "0"},
		{Field: feedback.Neutral, Old: "5", New: "0"},
	}, report.Changes)
	require.True(t, report.Notified)
}

func TestBrokenOldSnapshotField(t *testing.T) {
	f := setup(t, profile("alice", "100", "90", "5", "5"))
	err := os.WriteFile(f.path, []byte("2024-04-30 08:30:00\n\noverall: 100\npositive: ninety\nneutral: 5\nnegative: 5"), 0644)
	require.NoError(t, err)

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)

	require.Len(t, report.Diagnostics, 1)
	var parseErr *snapshot.ParseError
	require.True(t, errors.As(report.Diagnostics[0], &parseErr))
	require.Equal(t, feedback.Positive, parseErr.Field)

	// the unreadable field compares as 0
	require.Equal(t, []feedback.Change{
		{Field: feedback.Positive, Old: "0", New: "90"},
	}, report.Changes)
	require.True(t, report.Notified)
}

func TestUnreadableSnapshotAbortsBeforeFetch(t *testing.T) {
	fetcher := &countingFetcher{}
	service := NewService(Options{Fetcher: fetcher})

	_, err := service.Check(context.Background(), "alice", t.TempDir())
	require.Error(t, err)
	require.Equal(t, 0, fetcher.calls)
}

type countingFetcher struct {
	calls int
}

func (c *countingFetcher) FetchProfile(ctx context.Context, username string) (string, error) {
	c.calls++
	return "", nil
}

func TestOversizedSnapshotLineIsRecovered(t *testing.T) {
	f := setup(t, profile("alice", "100", "90", "5", "5"))
	garbage := "2024-04-30 08:30:00\n\noverall: 100\n" + strings.Repeat("x", 100_000) + "\nneutral: 5\nnegative: 5"
	require.NoError(t, os.WriteFile(f.path, []byte(garbage), 0644))

	report, err := f.service.Check(context.Background(), "alice", f.path)
	require.NoError(t, err)
	require.True(t, report.HasOld)
	require.Len(t, report.Diagnostics, 1)

	// the next run starts from a clean snapshot
	require.Equal(t, snapshot.Format(report.New, f.now), f.readSnapshot(t))
}

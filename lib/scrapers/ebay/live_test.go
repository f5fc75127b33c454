package ebay

import (
	"context"
	devenv "feedback-notifier/dev/env"
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLiveProfile(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/ebay")
	defer cleanup()

	cfg, err := devenv.GetStateConfig[devenv.LiveConfig](devenv.LiveConfigPath)
	if err != nil || cfg.Username == "" {
		t.Skip("live test config not found, run `go run ./dev` and fill in dev/.state/" + devenv.LiveConfigPath)
	}

	client, err := NewClient(ClientOptions{
		BaseUrl:          cfg.BaseUrl,
		CloudflareBypass: cfg.CloudflareBypass,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	body, err := client.FetchProfile(ctx, cfg.Username)
	require.NoError(t, err)

	record, errs := Extract(ctx, NewPatternExtractor(), NewPage(cfg.Username, body))
	for _, err := range errs {
		t.Log(err)
	}
	require.NotEqual(t, feedback.MissingValue, record.Overall)
}

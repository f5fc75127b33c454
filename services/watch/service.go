package watch

import (
	"context"
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/scrapers/ebay"
	"feedback-notifier/lib/snapshot"
	"feedback-notifier/lib/timezone"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type Fetcher interface {
	FetchProfile(ctx context.Context, username string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, username string, changes []feedback.Change) (bool, error)
}

type Options struct {
	Fetcher   Fetcher
	Extractor ebay.Extractor
	Notifier  Notifier
	// defaults to timezone.Now
	Now func() time.Time
}

type Service struct {
	fetcher   Fetcher
	extractor ebay.Extractor
	notifier  Notifier
	now       func() time.Time
}

func NewService(opts Options) Service {
	if opts.Extractor == nil {
		opts.Extractor = ebay.NewPatternExtractor()
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return Service{
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		notifier:  opts.Notifier,
		now:       opts.Now,
	}
}

// Report describes the outcome of a single check.
type Report struct {
	Username  string
	Timestamp time.Time
	// false on the first run against a snapshot path
	HasOld  bool
	Old     feedback.Record
	New     feedback.Record
	Changes []feedback.Change
	// whether an email went out
	Notified bool
	// non-fatal problems: *ebay.ExtractionError, *snapshot.ParseError
	// and *notify.NotificationError
	Diagnostics []error
}

// Check runs one fetch, comparison and (if anything changed) notification
// for `username` against the snapshot at `path`, then rewrites the
// snapshot.
//
// The returned error is only set for failures that abort the run: reading
// an existing snapshot, fetching the profile (nothing is written in either
// case) or writing the new snapshot. Everything else ends up in
// Report.Diagnostics.
func (s Service) Check(ctx context.Context, username, path string) (Report, error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()
	span.SetAttributes(
		attribute.String("username", username),
		attribute.String("path", path),
	)
	checkCounter.Add(ctx, 1)

	report := Report{
		Username:  username,
		Timestamp: s.now(),
	}

	old, hasOld, parseErrs, err := snapshot.Load(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load snapshot")
		return report, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	report.HasOld = hasOld
	report.Old = old
	report.Diagnostics = append(report.Diagnostics, parseErrs...)
	if hasOld {
		slog.InfoContext(ctx, "loaded old scores", "path", path, "scores", old)
	} else {
		slog.InfoContext(ctx, "no previous snapshot, this run only records scores", "path", path)
	}

	body, err := s.fetcher.FetchProfile(ctx, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile")
		return report, err
	}

	record, extractErrs := ebay.Extract(ctx, s.extractor, ebay.NewPage(username, body))
	report.New = record
	report.Diagnostics = append(report.Diagnostics, extractErrs...)

	if hasOld {
		report.Changes = feedback.Diff(old, record)
		changeCounter.Add(ctx, int64(len(report.Changes)))
		if len(parseErrs) > 0 && len(report.Changes) > 0 {
			// a field missing from the old snapshot compares as
			// feedback.MissingValue and is reported as changed
			slog.WarnContext(ctx, "old snapshot had unreadable fields, they are reported as changed from 0", "fields", len(parseErrs))
		}

		if len(report.Changes) == 0 {
			slog.InfoContext(ctx, "feedback has not changed")
		} else {
			sent, err := s.notifier.Notify(ctx, username, report.Changes)
			report.Notified = sent
			if err != nil {
				span.RecordError(err)
				slog.ErrorContext(ctx, "failed to send notification", "err", err)
				report.Diagnostics = append(report.Diagnostics, err)
			}
		}
	}

	err = snapshot.Save(ctx, path, record, report.Timestamp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save snapshot")
		return report, fmt.Errorf("save snapshot %s: %w", path, err)
	}

	diagnosticCounter.Add(ctx, int64(len(report.Diagnostics)), metric.WithAttributes(
		attribute.Bool("first_run", !hasOld),
	))
	span.SetAttributes(
		attribute.Int("changes", len(report.Changes)),
		attribute.Bool("notified", report.Notified),
		attribute.Int("diagnostics", len(report.Diagnostics)),
	)
	return report, nil
}

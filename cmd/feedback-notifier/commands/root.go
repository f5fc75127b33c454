package commands

import (
	"context"
	"errors"
	"feedback-notifier/lib/notify"
	"feedback-notifier/lib/restyutil"
	"feedback-notifier/lib/scrapers/ebay"
	"feedback-notifier/lib/telemetry"
	"feedback-notifier/lib/timezone"
	"feedback-notifier/services/watch"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	username  string
	file      string
	config    string
	timeout   time.Duration
	extractor string
	debug     bool
	dumpHttp  string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "feedback-notifier -u <username> [-f <scores.txt>]",
		Short: "feedback-notifier emails you when an eBay user's feedback scores change.",
		Long: "feedback-notifier downloads the profile page of an eBay user, compares its " +
			"feedback scores with the ones stored by the previous run and sends an email " +
			"listing every score that changed.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.InitSlog(opts.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.config, "config", "config.json5", "The configuration file, a .local variant next to it overrides it.")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging.")

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "The eBay user to check.")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "scores.txt", "The file the scores are stored in between runs.")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Timeout of the profile download, defaults to ebay.timeout_seconds of the config.")
	cmd.Flags().StringVar(&opts.extractor, "extractor", "regex", "How scores are read from the page: regex or dom.")
	cmd.Flags().StringVar(&opts.dumpHttp, "dump-http", "", "Write http requests and responses to this directory (requires --debug).")
	cmd.MarkFlagRequired("username")

	cmd.AddCommand(newShowCommand(opts))
	return cmd
}

func newService(opts *rootOptions, cfg Config) (watch.Service, error) {
	extractor, err := ebay.ExtractorByName(opts.extractor)
	if err != nil {
		return watch.Service{}, err
	}

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Ebay.Timeout()
	}

	var output restyutil.InstrumentOutput
	switch {
	case opts.dumpHttp != "" && !opts.debug:
		slog.Warn("http messages are only dumped with --debug", "dir", opts.dumpHttp)
	case opts.dumpHttp != "":
		fsOutput, err := restyutil.NewFilesystemOutput(opts.dumpHttp)
		if err != nil {
			return watch.Service{}, err
		}
		slog.Debug("dumping http messages", "dir", fsOutput.Directory())
		output = fsOutput
	}

	client, err := ebay.NewClient(ebay.ClientOptions{
		BaseUrl:          cfg.Ebay.BaseUrl,
		Timeout:          timeout,
		UserAgent:        cfg.Ebay.UserAgent,
		CloudflareBypass: cfg.Ebay.CloudflareBypass,
		Output:           output,
	})
	if err != nil {
		return watch.Service{}, err
	}

	return watch.NewService(watch.Options{
		Fetcher:   client,
		Extractor: extractor,
		Notifier:  notify.NewNotifier(cfg.Message, notify.NewSmtpTransport(cfg.Smtp)),
	}), nil
}

func runCheck(ctx context.Context, out io.Writer, opts *rootOptions) error {
	cfg, err := LoadConfig(opts.config)
	if err != nil {
		return fmt.Errorf("read config %s: %w", opts.config, err)
	}
	err = timezone.SetLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	service, err := newService(opts, cfg)
	if err != nil {
		return err
	}

	report, err := service.Check(ctx, opts.username, opts.file)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s @ %s", report.Username, report.Timestamp.Format(time.DateTime))
	if report.HasOld {
		renderComparison(out, title, report.Old, report.New, report.Changes)
	} else {
		renderRecord(out, title, report.New)
	}
	switch {
	case report.Notified:
		fmt.Fprintf(out, "%d change(s), notification sent to %s\n", len(report.Changes), cfg.Message.To)
	case len(report.Changes) > 0:
		fmt.Fprintf(out, "%d change(s), notification not sent\n", len(report.Changes))
	}

	if len(report.Diagnostics) > 0 {
		slog.WarnContext(ctx, "finished with problems", "err", errors.Join(report.Diagnostics...))
	}
	return nil
}

func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

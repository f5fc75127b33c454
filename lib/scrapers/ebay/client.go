package ebay

import (
	"context"
	"feedback-notifier/lib/restyutil"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseUrl = "https://www.ebay.com/usr/"
const DefaultTimeout = time.Second * 30
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// the profile url is BaseUrl followed by the username
	BaseUrl   string
	Timeout   time.Duration
	UserAgent string
	// wraps the transport in a cloudflare bot-check bypass
	CloudflareBypass bool
	// receives a dump of every http message while debug logging is on
	Output restyutil.InstrumentOutput
}

type Client struct {
	BaseUrl string
	Http    *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if baseUrl.Scheme != "http" && baseUrl.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", opts.BaseUrl)
	}

	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	restyutil.InstrumentClient(client, tracer, opts.Output)

	return &Client{
		BaseUrl: opts.BaseUrl,
		Http:    client,
	}, nil
}

func (c *Client) ProfileUrl(username string) string {
	return c.BaseUrl + url.PathEscape(username)
}

// FetchProfile downloads the profile page of `username` and returns its body
// as text. Any failure is a *FetchError.
func (c *Client) FetchProfile(ctx context.Context, username string) (string, error) {
	link := c.ProfileUrl(username)

	ctx, span := tracer.Start(ctx, "FetchProfile")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	if strings.TrimSpace(username) == "" {
		err := &FetchError{Url: link, Err: fmt.Errorf("empty username")}
		span.SetStatus(codes.Error, "empty username")
		return "", err
	}

	slog.InfoContext(ctx, "downloading profile", "url", link)
	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile")
		return "", &FetchError{Url: link, Err: err}
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status code")
		return "", &FetchError{Url: link, StatusCode: res.StatusCode()}
	}

	return res.String(), nil
}

package commands

import (
	"feedback-notifier/lib/configutil"
	"feedback-notifier/lib/notify"
	"feedback-notifier/lib/scrapers/ebay"
	"time"
)

const (
	SmtpUsernameEnv = "FEEDBACK_SMTP_USERNAME"
	SmtpPasswordEnv = "FEEDBACK_SMTP_PASSWORD"
)

type EbayConfig struct {
	BaseUrl          string `json:"base_url"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

func (c EbayConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return ebay.DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	Smtp    notify.SmtpConfig    `json:"smtp"`
	Message notify.MessageConfig `json:"message"`
	// IANA zone the snapshot timestamp is written in, empty means local
	Timezone string     `json:"timezone"`
	Ebay     EbayConfig `json:"ebay"`
}

func DefaultConfig() Config {
	defaults := notify.DefaultConfig()
	return Config{
		Smtp:    defaults.Smtp,
		Message: defaults.Message,
		Ebay: EbayConfig{
			BaseUrl:        ebay.DefaultBaseUrl,
			TimeoutSeconds: int(ebay.DefaultTimeout / time.Second),
			UserAgent:      ebay.DefaultUserAgent,
		},
	}
}

// LoadConfig reads `path` (and its .local variant) over DefaultConfig, then
// applies the smtp credentials from the environment.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, DefaultConfig())
	if err != nil {
		return Config{}, err
	}
	configutil.StringFromEnv(&cfg.Smtp.Username, SmtpUsernameEnv)
	configutil.StringFromEnv(&cfg.Smtp.Password, SmtpPasswordEnv)
	return cfg, nil
}

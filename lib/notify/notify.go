package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/telemetry"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("feedbacknotifier.lib.notify")

const DefaultSubject = "eBay feedback notification"
const DefaultServer = "mail.smtp2go.com"

// 8025, 587 and 25 are usually open as well
const DefaultPort = 2525
const DefaultTimeout = time.Second * 30

type SmtpConfig struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	// bounds the whole smtp conversation, defaults to 30 seconds
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (c SmtpConfig) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

func (c SmtpConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MessageConfig struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

type Config struct {
	Smtp    SmtpConfig    `json:"smtp"`
	Message MessageConfig `json:"message"`
}

func DefaultConfig() Config {
	return Config{
		Smtp: SmtpConfig{
			Server:         DefaultServer,
			Port:           DefaultPort,
			TimeoutSeconds: int(DefaultTimeout / time.Second),
		},
		Message: MessageConfig{
			Subject: DefaultSubject,
		},
	}
}

// NotificationError wraps a failure to hand the message to the mail relay.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to send notification: %s", e.Err.Error())
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// Transport delivers a composed message.
type Transport interface {
	Send(ctx context.Context, mail *email.Email) error
}

// SmtpTransport sends through an smtp relay, upgrading the connection with
// STARTTLS when the relay offers it and authenticating with PLAIN auth.
type SmtpTransport struct {
	Config SmtpConfig
}

func NewSmtpTransport(config SmtpConfig) SmtpTransport {
	return SmtpTransport{Config: config}
}

func (t SmtpTransport) auth() smtp.Auth {
	if t.Config.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", t.Config.Username, t.Config.Password, t.Config.Server)
}

func (t SmtpTransport) Send(ctx context.Context, mail *email.Email) error {
	ctx, cancel := context.WithTimeout(ctx, t.Config.Timeout())
	defer cancel()

	// the email package has no deadline of its own, the send is abandoned
	// (and the process moves on) once the context expires
	done := make(chan error, 1)
	go func() {
		done <- mail.SendWithStartTLS(
			t.Config.Address(),
			t.auth(),
			&tls.Config{ServerName: t.Config.Server},
		)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp %s: %w", t.Config.Address(), ctx.Err())
	}
}

type Notifier struct {
	config    MessageConfig
	transport Transport
}

func NewNotifier(config MessageConfig, transport Transport) *Notifier {
	if config.Subject == "" {
		config.Subject = DefaultSubject
	}
	return &Notifier{config: config, transport: transport}
}

// FormatBody renders one `<field>: <old> -> <new>` line per change below a
// header naming the user.
func FormatBody(username string, changes []feedback.Change) string {
	var body strings.Builder
	body.WriteString(username)
	body.WriteString("'s feedback changes:\n\n")
	for _, c := range changes {
		fmt.Fprintf(&body, "%s: %s -> %s\n", c.Field.String(), c.Old, c.New)
	}
	return body.String()
}

func (n *Notifier) Message(username string, changes []feedback.Change) *email.Email {
	mail := email.NewEmail()
	mail.From = n.config.From
	mail.To = []string{n.config.To}
	mail.Subject = n.config.Subject
	mail.Text = []byte(FormatBody(username, changes))
	return mail
}

// Notify mails the changes of `username`. Nothing is sent for an empty
// change set, the bool result reports whether a message went out.
func (n *Notifier) Notify(ctx context.Context, username string, changes []feedback.Change) (bool, error) {
	if len(changes) == 0 {
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()
	span.SetAttributes(
		attribute.String("username", username),
		attribute.Int("changes", len(changes)),
	)

	if n.config.From == "" || n.config.To == "" {
		err := &NotificationError{Err: errors.New("sender and recipient must be configured")}
		span.SetStatus(codes.Error, "missing sender or recipient")
		return false, err
	}

	slog.InfoContext(ctx, "feedback changed, sending email notification", "to", n.config.To, "changes", len(changes))
	err := n.transport.Send(ctx, n.Message(username, changes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return false, &NotificationError{Err: err}
	}
	return true, nil
}

package email

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// EnvVars lists the credentials each provider reads.
var EnvVars = map[Provider][]string{
	ProviderSendGrid: {"SENDGRID_API_KEY"},
	ProviderMailgun:  {"MAILGUN_DOMAIN", "MAILGUN_API_KEY"},
	ProviderSES:      {"AWS_REGION"},
	ProviderSMTP:     {"SMTP_HOST", "SMTP_USERNAME", "SMTP_PASSWORD"},
}

// ParseProvider accepts a provider name in any case.
func ParseProvider(name string) (provider Provider, e *xerr.Error) {
	provider = Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Providers {
		if provider == known {
			return provider, nil
		}
	}
	return provider, xerr.NewErrorEC(fmt.Errorf("unknown provider"), "parse email provider", "provider", name, false)
}

/*
NewSender builds the sender for provider with credentials from the environment.
*/
func NewSender(ctx context.Context, provider Provider) (sender Sender, e *xerr.Error) {
	for _, name := range EnvVars[provider] {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			return nil, xerr.NewErrorEC(fmt.Errorf("%s is not set", name), "create email sender", "provider", string(provider), false)
		}
	}

	switch provider {
	case ProviderSendGrid:
		sender = NewSendGridSender(os.Getenv("SENDGRID_API_KEY"))
	case ProviderMailgun:
		sender = NewMailgunSender(os.Getenv("MAILGUN_DOMAIN"), os.Getenv("MAILGUN_API_KEY"), Cfg.MailgunAPIBase)
	case ProviderSES:
		sender, e = NewSESSender(ctx, os.Getenv("AWS_REGION"))
	case ProviderSMTP:
		port := Cfg.SMTPPort
		if rawPort := os.Getenv("SMTP_PORT"); rawPort != "" {
			parsed, parseErr := strconv.Atoi(rawPort)
			if parseErr != nil {
				return nil, xerr.NewErrorEC(parseErr, "parse SMTP_PORT", "value", rawPort, false)
			}
			port = parsed
		}
		sender = NewSMTPSender(os.Getenv("SMTP_HOST"), port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))
	default:
		_, e = ParseProvider(string(provider))
	}
	if e != nil {
		return nil, e
	}

	tl.Log(tl.Info1, palette.Cyan, "Using %s email provider", provider)
	return sender, nil
}

/*
DryRunSender validates and logs requests without sending anything.
*/
type DryRunSender struct {
	sent atomic.Int64
}

func (sender *DryRunSender) Send(ctx context.Context, request Request) (id string, e *xerr.Error) {
	e = request.Validate()
	if e != nil {
		return "", e
	}
	count := sender.sent.Add(1)
	id = fmt.Sprintf("dry-run-%d", count)

	tl.Log(tl.Notice, palette.YellowBold, "%s: would send '%s' to '%s' (template '%s')", "Dry run", request.Subject, request.To, request.TemplateID)
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", request.BodyText)
	return id, nil
}

// Sent is the number of requests accepted so far.
func (sender *DryRunSender) Sent() int {
	return int(sender.sent.Load())
}

/*
SendMessage sends the same message to every recipient, one request each.
With sendEmails false it goes through DryRunSender instead.
*/
func SendMessage(provider Provider, sendEmails *bool, from string, recipients []string, subject, text, html string, attachments []Attachment) (e *xerr.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout()*time.Duration(max(len(recipients), 1)))
	defer cancel()

	var sender Sender = &DryRunSender{}
	if sendEmails != nil && *sendEmails {
		sender, e = NewSender(ctx, provider)
		if e != nil {
			return e
		}
	}

	for _, recipient := range recipients {
		request := Request{
			To:          strings.TrimSpace(recipient),
			From:        from,
			Subject:     subject,
			BodyText:    text,
			BodyHTML:    html,
			Attachments: attachments,
		}
		id, sendErr := sender.Send(ctx, request)
		if sendErr != nil {
			return sendErr
		}
		tl.Log(tl.Info1, palette.Green, "Sent email to '%s' via %s, id '%s'", request.To, provider, id)
	}
	return nil
}

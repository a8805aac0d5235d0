package email

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, username, password)}
}

/*
BuildMessage renders a request as a MIME message dated date: text/plain with
a text/html alternative, inline attachments embedded under their ContentID.
An empty To is left out.

Header values are passed through as-is, so callers validate first.
*/
func BuildMessage(request Request, date time.Time) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", request.From)
	if request.To != "" {
		message.SetHeader("To", request.To)
	}
	if request.ReplyTo != "" {
		message.SetHeader("Reply-To", request.ReplyTo)
	}
	message.SetHeader("Subject", request.Subject)
	message.SetHeader("Message-ID", messageID(request.From))
	message.SetDateHeader("Date", date)

	switch {
	case request.BodyText != "" && request.BodyHTML != "":
		message.SetBody("text/plain", request.BodyText)
		message.AddAlternative("text/html", request.BodyHTML)
	case request.BodyHTML != "":
		message.SetBody("text/html", request.BodyHTML)
	default:
		message.SetBody("text/plain", request.BodyText)
	}

	for _, attachment := range request.Attachments {
		content := attachment.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(writer io.Writer) error {
				_, err := writer.Write(content)
				return err
			}),
		}
		if attachment.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {attachment.ContentType}}))
		}
		if attachment.Inline {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-ID": {"<" + attachment.ContentID + ">"}}))
			message.Embed(attachment.Filename, settings...)
		} else {
			message.Attach(attachment.Filename, settings...)
		}
	}
	return message
}

func messageID(from string) string {
	domain := "localhost"
	if parsed, err := mail.ParseAddress(from); err == nil {
		if _, host, found := strings.Cut(parsed.Address, "@"); found && host != "" {
			domain = host
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// Send ignores ctx once the connection is dialed, gomail has no cancellation.
func (sender *SMTPSender) Send(ctx context.Context, request Request) (id string, e *xerr.Error) {
	e = request.Validate()
	if e != nil {
		return "", e
	}
	if ctx.Err() != nil {
		return "", xerr.NewError(ctx.Err(), "Unable to send email via smtp", request.To)
	}

	message := BuildMessage(request, time.Now())
	err := sender.dialer.DialAndSend(message)
	if err != nil {
		return "", xerr.NewErrorEC(err, "Unable to send email via smtp", "host", sender.dialer.Host, false)
	}

	if ids := message.GetHeader("Message-ID"); len(ids) > 0 {
		id = ids[0]
	}
	tl.Log(tl.Verbose, palette.GreenDim, "SMTP server %s accepted email to '%s'", sender.dialer.Host, request.To)
	return id, nil
}

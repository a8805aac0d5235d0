package email

import (
	"bytes"
	"context"
	"io"

	"github.com/mailgun/mailgun-go/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type MailgunSender struct {
	client *mailgun.MailgunImpl
}

// NewMailgunSender uses apiBase when set, e.g. mailgun.APIBaseEU.
func NewMailgunSender(domain, apiKey, apiBase string) *MailgunSender {
	client := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &MailgunSender{client: client}
}

/*
Mailgun has no SendGrid-style dynamic templates here, so the rendered
bodies are always sent and TemplateID is ignored.
*/
func (sender *MailgunSender) Send(ctx context.Context, request Request) (id string, e *xerr.Error) {
	e = request.Validate()
	if e != nil {
		return "", e
	}

	message := sender.client.NewMessage(request.From, request.Subject, request.BodyText, request.To)
	if request.BodyHTML != "" {
		message.SetHtml(request.BodyHTML)
	}
	if request.ReplyTo != "" {
		message.SetReplyTo(request.ReplyTo)
	}
	for _, attachment := range request.Attachments {
		content := io.NopCloser(bytes.NewReader(attachment.Content))
		if attachment.Inline {
			message.AddReaderInline(attachment.Filename, content)
		} else {
			message.AddBufferAttachment(attachment.Filename, attachment.Content)
		}
	}

	response, id, err := sender.client.Send(ctx, message)
	if err != nil {
		return "", xerr.NewError(err, "Unable to send email via mailgun", request.To)
	}
	tl.Log(tl.Verbose, palette.GreenDim, "Mailgun accepted email to '%s': %s", request.To, response)
	return id, nil
}

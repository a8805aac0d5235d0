package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// SendGridSender sends through the v3 mail/send endpoint.
type SendGridSender struct {
	APIKey string
	Host   string
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{APIKey: apiKey, Host: Cfg.SendGridHost}
}

/*
BuildSendGridMail converts a request into a v3 mail.

With a TemplateID the provider renders the body from TemplateData and no
content is attached. Inline attachments get disposition "inline" and their
ContentID, so a template can show them with src="cid:logo".
*/
func BuildSendGridMail(request Request) *sgmail.SGMailV3 {
	message := sgmail.NewV3Mail()
	message.SetFrom(sendGridAddress(request.From))
	if request.ReplyTo != "" {
		message.SetReplyTo(sendGridAddress(request.ReplyTo))
	}

	personalization := sgmail.NewPersonalization()
	personalization.AddTos(sendGridAddress(request.To))
	personalization.Subject = request.Subject

	if request.TemplateID != "" {
		message.SetTemplateID(request.TemplateID)
		for key, value := range request.TemplateData {
			personalization.SetDynamicTemplateData(key, value)
		}
		personalization.SetDynamicTemplateData("subject", request.Subject)
	} else {
		message.Subject = request.Subject
		if request.BodyText != "" {
			message.AddContent(sgmail.NewContent("text/plain", request.BodyText))
		}
		if request.BodyHTML != "" {
			message.AddContent(sgmail.NewContent("text/html", request.BodyHTML))
		}
	}
	message.AddPersonalizations(personalization)

	for _, attachment := range request.Attachments {
		sgAttachment := sgmail.NewAttachment().
			SetContent(base64.StdEncoding.EncodeToString(attachment.Content)).
			SetType(attachment.ContentType).
			SetFilename(attachment.Filename)
		if attachment.Inline {
			sgAttachment.SetDisposition("inline").SetContentID(attachment.ContentID)
		} else {
			sgAttachment.SetDisposition("attachment")
		}
		message.AddAttachment(sgAttachment)
	}
	return message
}

func sendGridAddress(raw string) *sgmail.Email {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return sgmail.NewEmail("", raw)
	}
	return sgmail.NewEmail(parsed.Name, parsed.Address)
}

func (sender *SendGridSender) Send(ctx context.Context, request Request) (id string, e *xerr.Error) {
	e = request.Validate()
	if e != nil {
		return "", e
	}

	apiRequest := sendgrid.GetRequest(sender.APIKey, "/v3/mail/send", sender.Host)
	apiRequest.Method = rest.Post
	apiRequest.Body = sgmail.GetRequestBody(BuildSendGridMail(request))

	response, err := sendgrid.MakeRequestWithContext(ctx, apiRequest)
	if err != nil {
		return "", xerr.NewError(err, "Unable to send email via sendgrid", request.To)
	}
	if response.StatusCode >= 300 {
		return "", xerr.NewErrorEC(fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body), "Unable to send email via sendgrid", "to", request.To, false)
	}

	if values := response.Headers["X-Message-Id"]; len(values) > 0 {
		id = values[0]
	}
	tl.Log(tl.Verbose, palette.GreenDim, "Sendgrid accepted email to '%s' with status %s", request.To, response.StatusCode)
	return id, nil
}

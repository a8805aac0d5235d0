/*
Send reminder emails through SendGrid, Mailgun, Amazon SES or plain SMTP.
*/
package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/tuumbleweed/xerr"
)

type Provider string

const (
	ProviderSendGrid Provider = "sendgrid"
	ProviderMailgun  Provider = "mailgun"
	ProviderSES      Provider = "ses"
	ProviderSMTP     Provider = "smtp"
)

// Providers lists every provider NewSender understands.
var Providers = []Provider{ProviderSendGrid, ProviderMailgun, ProviderSES, ProviderSMTP}

// Attachment is a file sent along with the message. Inline attachments are referenced as cid:ContentID.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId,omitempty"`
	Inline      bool   `json:"inline"`
	Content     []byte `json:"-"`
}

/*
Request is one message to one recipient.

TemplateID selects a provider-side dynamic template filled with TemplateData.
Providers without templates send BodyText and BodyHTML instead, so both
should always be filled.
*/
type Request struct {
	To           string         `json:"to"`
	From         string         `json:"from"`
	ReplyTo      string         `json:"replyTo,omitempty"`
	Subject      string         `json:"subject"`
	BodyText     string         `json:"bodyText,omitempty"`
	BodyHTML     string         `json:"bodyHtml,omitempty"`
	TemplateID   string         `json:"templateId,omitempty"`
	TemplateData map[string]any `json:"templateData,omitempty"`
	Attachments  []Attachment   `json:"attachments,omitempty"`
}

// Sender delivers a Request and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, request Request) (id string, e *xerr.Error)
}

/*
Validate checks what every provider needs: a parseable recipient and sender,
and header fields without line breaks.
*/
func (request Request) Validate() (e *xerr.Error) {
	if strings.TrimSpace(request.To) == "" || strings.TrimSpace(request.From) == "" {
		return xerr.NewError(fmt.Errorf("missing 'to' or 'from'"), "validate email request", request.To)
	}

	for name, value := range map[string]string{"to": request.To, "from": request.From, "replyTo": request.ReplyTo, "subject": request.Subject} {
		if strings.ContainsAny(value, "\r\n") {
			return xerr.NewErrorEC(fmt.Errorf("header contains a line break"), "validate email request", "field", name, false)
		}
	}

	for name, value := range map[string]string{"to": request.To, "from": request.From, "replyTo": request.ReplyTo} {
		if value == "" {
			continue
		}
		_, parseErr := mail.ParseAddress(value)
		if parseErr != nil {
			return xerr.NewErrorEC(parseErr, "validate email request", "field", name, false)
		}
	}

	if request.TemplateID == "" && request.BodyText == "" && request.BodyHTML == "" {
		return xerr.NewError(fmt.Errorf("no body and no template"), "validate email request", request.To)
	}
	return nil
}

// Template describes a provider-side or built-in template the operator can pick.
type Template struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	SubjectContext string `json:"subjectContext"`
	Builtin        bool   `json:"builtin,omitempty"`
}

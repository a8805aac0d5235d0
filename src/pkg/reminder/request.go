package reminder

import (
	"invoice-reminder/src/pkg/email"
)

/*
BuildRequest turns a payload into an email request from the given sender.

Both bodies are always filled so any provider can deliver it. When the
policy names a provider template, TemplateID and TemplateData are set too.
*/
func BuildRequest(payload *Payload, policy Policy, from string, year int) email.Request {
	policy.ReplyTo = SingleLine(policy.ReplyTo)

	request := email.Request{
		To:       SingleLine(payload.Email),
		From:     SingleLine(from),
		ReplyTo:  policy.ReplyTo,
		Subject:  SingleLine(payload.Subject),
		BodyText: RenderText(payload, policy),
		BodyHTML: RenderHTML(payload, policy),
	}
	if policy.TemplateID != "" {
		request.TemplateID = policy.TemplateID
		request.TemplateData = TemplateData(payload, policy, year)
	}
	return request
}

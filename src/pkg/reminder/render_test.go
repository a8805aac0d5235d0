package reminder

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/email"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"1234.5", "$1,234.50"},
		{"-123.45", "- $123.45"},
		{"0", "$0.00"},
		{"-0.001", "$0.00"},
		{"999.999", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"100", "$100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.amount), "$"))
		})
	}
	assert.Equal(t, "€12.00", FormatMoney(decimal.NewFromInt(12), "€"))
	assert.Equal(t, "1,000.00", FormatMoney(decimal.NewFromInt(1000), ""))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "12", GroupThousands("12", ","))
	assert.Equal(t, "123", GroupThousands("123", ","))
	assert.Equal(t, "1,234", GroupThousands("1234", ","))
	assert.Equal(t, "123 456 789", GroupThousands("123456789", " "))
}

func TestSubstitute(t *testing.T) {
	values := Values{TokenCustomerName: "Acme", TokenNetPayable: "$60.00", TokenBrand: "{{CustomerName}}"}

	assert.Equal(t, "Dear Acme, you owe $60.00.", Substitute("Dear {{CustomerName}}, you owe {{ NetPayable }}.", values))
	assert.Equal(t, "Hi {{Nickname}}", Substitute("Hi {{Nickname}}", values), "unknown tokens stay")
	assert.Equal(t, "{{Department}}", Substitute("{{Department}}", values), "known tokens without a value stay")
	assert.Equal(t, "{{CustomerName}}", Substitute("{{Brand}}", values), "replacements are not rescanned")
	assert.Equal(t, "", Substitute("", values))
}

func TestRenderText(t *testing.T) {
	payload := acmePayload(t)
	text := RenderText(payload, testPolicy)

	assert.Contains(t, text, "Hello Acme,")
	assert.Contains(t, text, "INV1")
	assert.Contains(t, text, "$100.00")
	assert.Contains(t, text, "Unapplied credits:")
	assert.Contains(t, text, "CR1")
	assert.Contains(t, text, "Net payable:   $60.00")
	assert.Contains(t, text, "Accounts Receivable\nParamount Liquor\n")
	assert.NotContains(t, text, "- $40.00")

	noCredits := *payload
	noCredits.CreditRows = nil
	assert.NotContains(t, RenderText(&noCredits, testPolicy), "Unapplied credits")
}

func TestRenderTextCustomBody(t *testing.T) {
	policy := testPolicy
	policy.BodyTemplate = "Hi {{CustomerName}},\n{{InvoiceCount}} invoice(s), net {{NetPayable}}. {{Unknown}}\n{{InvoiceTable}}"

	text := RenderText(acmePayload(t), policy)

	assert.True(t, strings.HasPrefix(text, "Hi Acme,\n1 invoice(s), net $60.00. {{Unknown}}\n"))
	assert.Contains(t, text, "INV1")
}

func TestRenderHTML(t *testing.T) {
	payload := acmePayload(t)
	payload.CustomerName = "Acme <Trading> & Co"
	policy := testPolicy
	policy.InlineLogo = true

	body := RenderHTML(payload, policy)

	assert.Contains(t, body, "Acme &lt;Trading&gt; &amp; Co")
	assert.NotContains(t, body, "<Trading>")
	assert.Contains(t, body, "Unapplied credits")
	assert.Contains(t, body, `src="cid:logo"`)
	assert.Contains(t, body, "mailto:ar@paramount.test?subject=")
	assert.Contains(t, body, "$60.00")

	policy.BodyTemplate = "Dear {{CustomerName}}\n{{InvoiceTable}}"
	custom := RenderHTML(payload, policy)
	assert.Contains(t, custom, "Dear Acme &lt;Trading&gt; &amp; Co<br><table")
}

func TestTemplateData(t *testing.T) {
	payload := acmePayload(t)
	data := TemplateData(payload, testPolicy, 2024)

	assert.Equal(t, "Acme", data["customerName"])
	assert.Equal(t, "$100.00", data["totalOverdue"])
	assert.Equal(t, "$40.00", data["totalCredits"])
	assert.Equal(t, "$60.00", data["netPayable"])
	assert.Equal(t, 2024, data["year"])
	assert.Contains(t, data["invoiceRows"], "<td")
	assert.Contains(t, data["creditSection"], "Unapplied credits")
	assert.Equal(t, "mailto:ar@paramount.test?subject=Paramount%20Liquor%20Overdue%20Invoices%20-%20Acme", data["replyHref"])

	payload.CreditRows = nil
	assert.Equal(t, "", TemplateData(payload, Policy{}, 2024)["creditSection"])
	assert.Equal(t, "#", TemplateData(payload, Policy{}, 2024)["replyHref"])
}

func TestRenderKeepsCustomerNameOnOneLine(t *testing.T) {
	payload := acmePayload(t)
	payload.CustomerName = "Evil\r\nBcc: x@y.z"

	text := RenderText(payload, testPolicy)
	assert.Contains(t, text, "Hello Evil Bcc: x@y.z,\n")
	assert.NotContains(t, text, "\r")
	assert.NotContains(t, text, "\nBcc:")

	body := RenderHTML(payload, testPolicy)
	assert.Contains(t, body, "Hello Evil Bcc: x@y.z,</p>")
	assert.NotContains(t, body, "\r")

	assert.Equal(t, "Evil Bcc: x@y.z", TemplateData(payload, testPolicy, 2024)["customerName"])

	policy := testPolicy
	policy.BodyTemplate = "Hi {{CustomerName}}"
	assert.Equal(t, "Hi Evil Bcc: x@y.z", RenderText(payload, policy))
}

func TestBuildRequest(t *testing.T) {
	payload := acmePayload(t)
	payload.Subject = "Overdue\r\nBcc: victim@example.test"

	request := BuildRequest(payload, testPolicy, "ar@paramount.test", 2024)

	assert.Equal(t, "ap@acme.test", request.To)
	assert.Equal(t, "ar@paramount.test", request.From)
	assert.Equal(t, "ar@paramount.test", request.ReplyTo)
	assert.Equal(t, "Overdue Bcc: victim@example.test", request.Subject)
	assert.NotEmpty(t, request.BodyText)
	assert.NotEmpty(t, request.BodyHTML)
	assert.Empty(t, request.TemplateID)
	assert.Nil(t, request.TemplateData)
	assert.Nil(t, request.Validate())

	policy := testPolicy
	policy.TemplateID = "d-123"
	templated := BuildRequest(payload, policy, "ar@paramount.test", 2024)
	assert.Equal(t, "d-123", templated.TemplateID)
	assert.Equal(t, 2024, templated.TemplateData["year"])
}

type fakeCatalog struct {
	templates []email.Template
	fail      bool
}

func (catalog fakeCatalog) Templates(ctx context.Context) ([]email.Template, *xerr.Error) {
	if catalog.fail {
		return nil, xerr.NewError(fmt.Errorf("boom"), "list templates", nil)
	}
	return catalog.templates, nil
}

func TestResolveTemplates(t *testing.T) {
	ctx := context.Background()
	remote := []email.Template{{ID: "d-1", Label: "Hosted", SubjectContext: "Payment Reminder"}}

	assert.Equal(t, DefaultTemplates(), ResolveTemplates(ctx, nil))
	assert.Equal(t, DefaultTemplates(), ResolveTemplates(ctx, fakeCatalog{fail: true}))
	assert.Equal(t, DefaultTemplates(), ResolveTemplates(ctx, fakeCatalog{}))
	assert.Equal(t, remote, ResolveTemplates(ctx, fakeCatalog{templates: remote}))
}

func TestPolicyFor(t *testing.T) {
	templates := append(DefaultTemplates(), email.Template{ID: "d-1", Label: "Hosted", SubjectContext: "Payment Reminder"})
	base := testPolicy
	base.TemplateID = "d-old"

	hosted := PolicyFor(templates, "d-1", base)
	assert.Equal(t, "d-1", hosted.TemplateID)
	assert.Equal(t, "Payment Reminder", hosted.SubjectContext)

	builtin := PolicyFor(templates, "builtin-final-notice", base)
	assert.Equal(t, "", builtin.TemplateID)
	assert.Equal(t, "Final Notice - Overdue Invoices", builtin.SubjectContext)

	assert.Equal(t, base, PolicyFor(templates, "missing", base))
	assert.Equal(t, base, PolicyFor(templates, "", base))

	payload := acmePayload(t)
	payload.Subject = Subject(payload, builtin)
	assert.Equal(t, "Paramount Liquor Final Notice - Overdue Invoices - Acme", payload.Subject)
	require.Equal(t, "Overdue Invoices", testPolicy.SubjectContext)
}

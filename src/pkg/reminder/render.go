package reminder

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"text/tabwriter"
)

const (
	borderColor = "#e5e7eb"
	subtleColor = "#f8fafc"
	mutedColor  = "#475569"
	footerColor = "#64748b"
)

/*
RenderText renders the plain-text body.

A custom BodyTemplate is substituted with TextValues. Otherwise the standard
letter lists the overdue invoices, any unapplied credits and the totals.
*/
func RenderText(payload *Payload, policy Policy) string {
	if policy.BodyTemplate != "" {
		return Substitute(policy.BodyTemplate, TextValues(payload, policy))
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Hello %s,\n\n", SingleLine(payload.CustomerName))
	buffer.WriteString("Our records show the following invoices are overdue:\n\n")
	buffer.WriteString(textInvoiceTable(payload, policy))

	if len(payload.CreditRows) > 0 {
		buffer.WriteString("\nUnapplied credits:\n\n")
		buffer.WriteString(textCreditTable(payload, policy))
	}

	buffer.WriteString("\n")
	fmt.Fprintf(&buffer, "Total overdue: %s\n", FormatMoney(payload.TotalOverdue, policy.CurrencySymbol))
	fmt.Fprintf(&buffer, "Total credits: %s\n", FormatMoney(payload.TotalCredits, policy.CurrencySymbol))
	fmt.Fprintf(&buffer, "Net payable:   %s\n\n", FormatMoney(payload.NetPayable, policy.CurrencySymbol))
	buffer.WriteString("Please arrange payment at your earliest convenience. If you have already paid or believe this is in error, just reply to this email.\n\n")
	buffer.WriteString("Kind regards,\n")
	for _, line := range nonEmpty(policy.Department, policy.Brand) {
		buffer.WriteString(line + "\n")
	}
	return buffer.String()
}

func textInvoiceTable(payload *Payload, policy Policy) string {
	var buffer bytes.Buffer
	writer := tabwriter.NewWriter(&buffer, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(writer, "Invoice\tAmount\tDue\t")
	for _, line := range payload.OverdueRows {
		fmt.Fprintf(writer, "%s\t%s\t%s\t\n", orDash(line.InvoiceRef), FormatMoney(line.Amount, policy.CurrencySymbol), orDash(line.DueDate))
	}
	_ = writer.Flush()
	return buffer.String()
}

func textCreditTable(payload *Payload, policy Policy) string {
	if len(payload.CreditRows) == 0 {
		return ""
	}
	var buffer bytes.Buffer
	writer := tabwriter.NewWriter(&buffer, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(writer, "Reference\tAmount\tDate\t")
	for _, line := range payload.CreditRows {
		fmt.Fprintf(writer, "%s\t%s\t%s\t\n", orDash(line.Reference), FormatMoney(line.Amount, policy.CurrencySymbol), orDash(line.Date))
	}
	_ = writer.Flush()
	return buffer.String()
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

const cellStyle = "padding:10px;border-bottom:1px solid " + borderColor + ";"

// htmlInvoiceRows renders <tr> elements only, the shape provider templates expect.
func htmlInvoiceRows(payload *Payload, policy Policy) string {
	if len(payload.OverdueRows) == 0 {
		return `<tr><td colspan="3" style="padding:10px;">(none)</td></tr>`
	}
	var buffer bytes.Buffer
	for _, line := range payload.OverdueRows {
		buffer.WriteString(`<tr>`)
		buffer.WriteString(`<td style="` + cellStyle + `">` + html.EscapeString(line.InvoiceRef) + `</td>`)
		buffer.WriteString(`<td style="` + cellStyle + `text-align:right;">` + html.EscapeString(FormatMoney(line.Amount, policy.CurrencySymbol)) + `</td>`)
		buffer.WriteString(`<td style="` + cellStyle + `text-align:right;">` + html.EscapeString(line.DueDate) + `</td>`)
		buffer.WriteString(`</tr>`)
	}
	return buffer.String()
}

func htmlInvoiceTable(payload *Payload, policy Policy) string {
	return tableOpen() + tableHead("Invoice", "Amount", "Due date") + `<tbody>` + htmlInvoiceRows(payload, policy) + `</tbody></table>`
}

// htmlCreditSection is empty when there are no credits.
func htmlCreditSection(payload *Payload, policy Policy) string {
	if len(payload.CreditRows) == 0 {
		return ""
	}
	primary := colorOr(policy.PrimaryColor, "#0f172a")

	var buffer bytes.Buffer
	buffer.WriteString(`<h3 style="margin:24px 0 8px 0;font-size:16px;color:` + primary + `;">Unapplied credits</h3>`)
	buffer.WriteString(tableOpen())
	buffer.WriteString(tableHead("Reference", "Amount", "Date"))
	buffer.WriteString(`<tbody>`)
	for _, line := range payload.CreditRows {
		buffer.WriteString(`<tr>`)
		buffer.WriteString(`<td style="` + cellStyle + `">` + html.EscapeString(line.Reference) + `</td>`)
		buffer.WriteString(`<td style="` + cellStyle + `text-align:right;">` + html.EscapeString(FormatMoney(line.Amount, policy.CurrencySymbol)) + `</td>`)
		buffer.WriteString(`<td style="` + cellStyle + `text-align:right;">` + html.EscapeString(line.Date) + `</td>`)
		buffer.WriteString(`</tr>`)
	}
	buffer.WriteString(`</tbody></table>`)
	return buffer.String()
}

func tableOpen() string {
	return `<table width="100%" cellpadding="0" cellspacing="0" style="border-collapse:collapse;background:#fff;border:1px solid ` + borderColor + `;border-radius:8px;overflow:hidden;">`
}

func tableHead(first, second, third string) string {
	headStyle := "padding:10px;font-size:12px;color:" + mutedColor + ";"
	return `<thead><tr style="background:` + subtleColor + `;">` +
		`<th align="left" style="` + headStyle + `">` + first + `</th>` +
		`<th align="right" style="` + headStyle + `">` + second + `</th>` +
		`<th align="right" style="` + headStyle + `">` + third + `</th>` +
		`</tr></thead>`
}

func colorOr(color, fallback string) string {
	if color == "" {
		return fallback
	}
	return color
}

/*
ReplyHref is a mailto link to the reply-to address with the subject prefilled,
or "#" when there is no reply-to address.
*/
func ReplyHref(replyTo, subject string) string {
	if replyTo == "" {
		return "#"
	}
	return "mailto:" + url.PathEscape(replyTo) + "?subject=" + url.PathEscape(subject)
}

/*
RenderHTML renders the HTML body using inline CSS only.

A custom BodyTemplate is escaped, substituted with HTMLValues and its line
breaks kept. The frame around it (logo, totals, footer) is always the same.
*/
func RenderHTML(payload *Payload, policy Policy) string {
	var buffer bytes.Buffer

	primary := colorOr(policy.PrimaryColor, "#0f172a")
	accent := colorOr(policy.AccentColor, "#0ea5e9")
	symbol := policy.CurrencySymbol

	buffer.WriteString("<!doctype html>")
	buffer.WriteString("<html>")
	buffer.WriteString("<head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:" + subtleColor + ";font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:" + primary + ";"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)

	// Outer wrapper table (email-safe centering).
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:` + subtleColor + `;">`)
	buffer.WriteString(`<tr><td align="center" style="padding:24px;">`)
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="640" style="border-collapse:separate;background-color:#ffffff;width:640px;max-width:640px;border:1px solid ` + borderColor + `;border-radius:12px;">`)
	buffer.WriteString(`<tr><td style="padding:24px;">`)

	// Header.
	buffer.WriteString(`<div style="border-bottom:3px solid ` + accent + `;padding-bottom:12px;margin-bottom:20px;">`)
	if policy.InlineLogo {
		buffer.WriteString(`<img src="cid:logo" alt="` + html.EscapeString(policy.Brand) + `" style="display:block;max-height:48px;margin-bottom:8px;">`)
	}
	if policy.Brand != "" {
		buffer.WriteString(`<div style="font-size:20px;font-weight:800;color:` + primary + `;">` + html.EscapeString(policy.Brand) + `</div>`)
	}
	if policy.Department != "" {
		buffer.WriteString(`<div style="font-size:13px;color:` + mutedColor + `;">` + html.EscapeString(policy.Department) + `</div>`)
	}
	buffer.WriteString(`</div>`)

	if policy.BodyTemplate != "" {
		custom := Substitute(html.EscapeString(policy.BodyTemplate), HTMLValues(payload, policy))
		custom = strings.ReplaceAll(custom, "\n", "<br>")
		buffer.WriteString(`<div style="font-size:14px;line-height:1.6;">` + custom + `</div>`)
	} else {
		buffer.WriteString(`<p style="font-size:14px;line-height:1.6;margin:0 0 12px 0;">Hello ` + html.EscapeString(SingleLine(payload.CustomerName)) + `,</p>`)
		buffer.WriteString(`<p style="font-size:14px;line-height:1.6;margin:0 0 16px 0;">Our records show the following invoices are overdue:</p>`)
		buffer.WriteString(htmlInvoiceTable(payload, policy))
		buffer.WriteString(htmlCreditSection(payload, policy))
	}

	// Totals.
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="margin-top:20px;border-collapse:collapse;font-size:14px;">`)
	buffer.WriteString(totalRow("Total overdue", FormatMoney(payload.TotalOverdue, symbol), false, primary))
	buffer.WriteString(totalRow("Total credits", FormatMoney(payload.TotalCredits, symbol), false, primary))
	buffer.WriteString(totalRow("Net payable", FormatMoney(payload.NetPayable, symbol), true, primary))
	buffer.WriteString(`</table>`)

	// Call to action.
	href := ReplyHref(policy.ReplyTo, payload.Subject)
	buffer.WriteString(`<p style="font-size:14px;line-height:1.6;margin:20px 0;">Please arrange payment at your earliest convenience. If you have already paid or believe this is in error, `)
	buffer.WriteString(`<a href="` + html.EscapeString(href) + `" style="color:` + accent + `;">reply to this email</a>.</p>`)

	// Footer.
	buffer.WriteString(`<div style="border-top:1px solid ` + borderColor + `;padding-top:12px;font-size:12px;color:` + footerColor + `;">`)
	buffer.WriteString(html.EscapeString(strings.Join(nonEmpty(policy.Department, policy.Brand), " · ")))
	buffer.WriteString(`</div>`)

	buffer.WriteString(`</td></tr>`)
	buffer.WriteString(`</table>`)
	buffer.WriteString(`</td></tr>`)
	buffer.WriteString(`</table>`)
	buffer.WriteString(`</body>`)
	buffer.WriteString(`</html>`)

	return buffer.String()
}

func totalRow(label, amount string, strong bool, color string) string {
	weight := "400"
	if strong {
		weight = "800"
	}
	return `<tr>` +
		`<td style="padding:4px 0;color:` + mutedColor + `;">` + label + `</td>` +
		`<td align="right" style="padding:4px 0;font-weight:` + weight + `;color:` + color + `;">` + html.EscapeString(amount) + `</td>` +
		`</tr>`
}

/*
TemplateData is the dynamic template data for provider-side templates.

The keys match the variables used by the hosted reminder template:
customerName, invoiceRows, creditSection, totalOverdue, totalCredits,
netPayable, replyHref, year. Structured rows are included for templates
that loop instead.
*/
func TemplateData(payload *Payload, policy Policy, year int) map[string]any {
	overdueRows := make([]map[string]string, 0, len(payload.OverdueRows))
	for _, line := range payload.OverdueRows {
		overdueRows = append(overdueRows, map[string]string{
			"inv": line.InvoiceRef,
			"amt": FormatMoney(line.Amount, policy.CurrencySymbol),
			"due": line.DueDate,
		})
	}
	creditRows := make([]map[string]string, 0, len(payload.CreditRows))
	for _, line := range payload.CreditRows {
		creditRows = append(creditRows, map[string]string{
			"ref":  line.Reference,
			"amt":  FormatMoney(line.Amount, policy.CurrencySymbol),
			"date": line.Date,
		})
	}

	return map[string]any{
		"subject":       payload.Subject,
		"customerName":  SingleLine(payload.CustomerName),
		"brand":         policy.Brand,
		"department":    policy.Department,
		"invoiceRows":   htmlInvoiceRows(payload, policy),
		"creditSection": htmlCreditSection(payload, policy),
		"overdueRows":   overdueRows,
		"creditRows":    creditRows,
		"totalOverdue":  FormatMoney(payload.TotalOverdue, policy.CurrencySymbol),
		"totalCredits":  FormatMoney(payload.TotalCredits, policy.CurrencySymbol),
		"netPayable":    FormatMoney(payload.NetPayable, policy.CurrencySymbol),
		"replyHref":     ReplyHref(policy.ReplyTo, payload.Subject),
		"year":          year,
	}
}

package main

import (
	"bytes"
	"fmt"
	"html"
	"strconv"

	"invoice-reminder/src/pkg/reminder"
)

/*
renderHTML converts an agingReport into a single HTML string using inline CSS only.
*/
func renderHTML(report agingReport) string {
	var buffer bytes.Buffer

	buffer.WriteString("<!doctype html>")
	buffer.WriteString("<html>")
	buffer.WriteString("<head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString(`<title>` + html.EscapeString(report.Title) + `</title>`)
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:#111827;"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)

	// Outer wrapper table (email-safe centering).
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#F3F4F6;">`)
	buffer.WriteString(`<tr>`)
	buffer.WriteString(`<td align="center" style="padding:24px;">`)

	// Main container.
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="680" style="border-collapse:separate;background-color:#F3F4F6;width:680px;max-width:680px;">`)
	buffer.WriteString(`<tr><td style="padding:0;">`)

	// Header.
	buffer.WriteString(`<div style="padding:8px 4px 18px 4px;">`)
	buffer.WriteString(`<div style="font-size:24px;font-weight:800;line-height:1.2;color:#111827;">` + html.EscapeString(report.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`As of <span style="font-weight:700;color:#111827;">` + report.AsOf.Format("2006-01-02") + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Customers: <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.Stats.Customers)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; File: <span style="font-weight:700;color:#111827;">` + html.EscapeString(report.FileName) + `</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	// Summary card.
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:18px 18px 6px 18px;">`)
	buffer.WriteString(`<div style="font-size:12px;letter-spacing:0.10em;text-transform:uppercase;color:#6B7280;">Outstanding</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:34px;font-weight:900;line-height:1.1;color:#111827;">` + html.EscapeString(reminder.FormatMoney(report.Outstanding, report.CurrencySymbol)) + `</div>`)
	buffer.WriteString(`<div style="margin-top:8px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Overdue <span style="font-weight:700;color:#111827;">` + html.EscapeString(reminder.FormatMoney(report.Stats.TotalOverdue, report.CurrencySymbol)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Credits <span style="font-weight:700;color:#111827;">` + html.EscapeString(reminder.FormatMoney(report.Stats.TotalCredits, report.CurrencySymbol)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; To remind <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.Stats.EligibleCustomers)) + `</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	writeSection(&buffer, "Aging", "Net payable by the oldest overdue invoice of each customer.", report.Buckets, report.CurrencySymbol, "Nothing is outstanding.")
	writeSection(&buffer, "Largest balances", "Share of the outstanding total.", report.Customers, report.CurrencySymbol, "No customer owes money.")
	buffer.WriteString(cardClose())

	// Notes card.
	buffer.WriteString(`<div style="padding:18px 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px 16px 18px;">`)
	buffer.WriteString(`<div style="font-size:13px;font-weight:900;color:#111827;">Notes</div>`)
	buffer.WriteString(`<div style="margin-top:10px;font-size:12px;line-height:1.7;color:#6B7280;">`)
	for _, note := range report.Notes {
		buffer.WriteString(`• ` + html.EscapeString(note) + `<br>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`<div style="margin-top:12px;font-size:11px;color:#9CA3AF;">Generated ` + html.EscapeString(report.GeneratedAt.Format("2006-01-02 15:04:05")) + `</div>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)

	// Close main container and wrappers.
	buffer.WriteString(`</td></tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</td>`)
	buffer.WriteString(`</tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</body>`)
	buffer.WriteString(`</html>`)

	return buffer.String()
}

func writeSection(buffer *bytes.Buffer, title, subtitle string, rows []barRow, currencySymbol, empty string) {
	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	buffer.WriteString(`<div style="height:1px;background-color:#E5E7EB;width:100%;"></div>`)
	buffer.WriteString(`<div style="margin-top:14px;font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">` + html.EscapeString(subtitle) + `</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	if len(rows) == 0 {
		buffer.WriteString(`<div style="padding:14px;border:1px dashed #D1D5DB;border-radius:12px;background-color:#FAFAFA;color:#6B7280;font-size:13px;line-height:1.6;">`)
		buffer.WriteString(html.EscapeString(empty))
		buffer.WriteString(`</div>`)
		buffer.WriteString(`</div>`)
		return
	}

	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
	for _, row := range rows {
		buffer.WriteString(`<tr>`)
		buffer.WriteString(`<td style="padding:12px 12px 12px 12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;">`)
		buffer.WriteString(`<tr>`)

		// Label with dot.
		buffer.WriteString(`<td style="vertical-align:top;padding-right:10px;">`)
		buffer.WriteString(`<div style="display:inline-block;width:10px;height:10px;border-radius:999px;background-color:` + row.Color + `;margin-right:8px;position:relative;top:1px;"></div>`)
		buffer.WriteString(`<span style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(row.Label) + `</span>`)
		buffer.WriteString(`<div style="margin-top:2px;margin-left:18px;font-size:12px;color:#6B7280;">` + html.EscapeString(row.Detail) + `</div>`)
		buffer.WriteString(`</td>`)

		// Amount.
		buffer.WriteString(`<td align="right" style="vertical-align:top;">`)
		buffer.WriteString(`<div style="font-size:14px;font-weight:900;color:#111827;">` + html.EscapeString(reminder.FormatMoney(row.Amount, currencySymbol)) + `</div>`)
		buffer.WriteString(`<div style="margin-top:2px;font-size:12px;font-weight:800;color:#6B7280;">` + fmt.Sprintf("%.1f%%", row.Percent) + `</div>`)
		buffer.WriteString(`</td>`)
		buffer.WriteString(`</tr>`)

		// Bar.
		buffer.WriteString(`<tr><td colspan="2" style="padding-top:10px;">`)
		buffer.WriteString(`<div style="width:100%;height:10px;border-radius:999px;background-color:#EEF2FF;overflow:hidden;border:1px solid #E5E7EB;">`)
		buffer.WriteString(`<div style="height:10px;width:` + strconv.Itoa(row.BarPercent) + `%;background-color:` + row.Color + `;border-radius:999px;"></div>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(`</td></tr>`)

		buffer.WriteString(`</table>`)
		buffer.WriteString(`</td>`)
		buffer.WriteString(`</tr>`)
	}
	buffer.WriteString(`</table>`)
	buffer.WriteString(`</div>`)
}

/*
cardOpen returns the opening HTML for a card-like container (email-safe).
*/
func cardOpen() string {
	return `<div style="background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:16px;box-shadow:0 8px 24px rgba(17,24,39,0.06);overflow:hidden;">`
}

/*
cardClose returns the closing HTML for a card-like container.
*/
func cardClose() string {
	return `</div>`
}

/*
formatIntHuman formats a count with comma separators for readability.
*/
func formatIntHuman(value int64) string {
	if value < 0 {
		return "-" + formatIntHuman(-value)
	}
	raw := strconv.FormatInt(value, 10)
	return reminder.GroupThousands(raw, ",")
}

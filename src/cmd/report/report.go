package main

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/ledger"
	"invoice-reminder/src/pkg/session"
)

/*
barRow is a rendered row with a proportional bar: an aging bucket or a customer.
*/
type barRow struct {
	Label      string          `json:"label"`
	Detail     string          `json:"detail"`
	Amount     decimal.Decimal `json:"amount"`
	Percent    float64         `json:"percent"`
	Color      string          `json:"color"`
	BarPercent int             `json:"bar_percent"`
}

/*
agingReport is the computed summary for the HTML report.
*/
type agingReport struct {
	Title          string          `json:"title"`
	FileName       string          `json:"file_name"`
	AsOf           time.Time       `json:"as_of"`
	GeneratedAt    time.Time       `json:"generated_at"`
	CurrencySymbol string          `json:"currency_symbol"`
	Stats          ledger.Stats    `json:"stats"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Buckets        []barRow        `json:"buckets"`
	Customers      []barRow        `json:"customers"`
	Notes          []string        `json:"notes"`
}

var bucketColors = []string{"#059669", "#D97706", "#DC2626", "#7C3AED"}

var customerColors = []string{
	"#2563EB", "#7C3AED", "#059669", "#DB2777", "#D97706",
	"#0EA5E9", "#65A30D", "#9333EA", "#F43F5E", "#14B8A6",
	"#4F46E5", "#B45309",
}

/*
buildAgingReport turns a portfolio into bucket and customer rows.

Only positive net balances count towards the outstanding total, so customers
in credit don't shrink other customers' share.
*/
func buildAgingReport(options reportOptions, upload session.Upload, portfolio ledger.Portfolio) agingReport {
	outstanding := portfolio.Aging.Total()

	buckets := make([]barRow, 0, len(portfolio.Aging.Buckets))
	for index, bucket := range portfolio.Aging.Buckets {
		buckets = append(buckets, newBarRow(
			bucket.Label+" days",
			fmt.Sprintf("%s customers", formatIntHuman(int64(bucket.Customers))),
			bucket.Total, outstanding, bucketColors[index%len(bucketColors)],
		))
	}

	report := agingReport{
		Title:          options.ReportTitle,
		FileName:       upload.FileName,
		AsOf:           options.AsOf,
		GeneratedAt:    time.Now(),
		CurrencySymbol: options.CurrencySymbol,
		Stats:          portfolio.Stats,
		Outstanding:    outstanding,
		Buckets:        buckets,
		Customers:      buildCustomerRows(portfolio.Ledgers, outstanding, options.MaxRows),
		Notes:          buildNotes(upload, portfolio),
	}

	tl.Log(tl.Info1, palette.Green, "Included %s customers and %s rows", formatIntHuman(int64(report.Stats.Customers)), formatIntHuman(int64(report.Stats.Rows)))
	return report
}

func buildNotes(upload session.Upload, portfolio ledger.Portfolio) []string {
	notes := []string{"Bucket totals use each customer's net payable (overdue minus credits), placed by the oldest due date."}
	if upload.Result.Skipped > 0 {
		notes = append(notes, fmt.Sprintf("%s rows had no customer and were left out.", formatIntHuman(int64(upload.Result.Skipped))))
	}
	if portfolio.Stats.UnparseableDueDateRows > 0 {
		notes = append(notes, fmt.Sprintf("%s rows have a due date that couldn't be read; they count as 0 days overdue.", formatIntHuman(int64(portfolio.Stats.UnparseableDueDateRows))))
	}
	if portfolio.Stats.EligibleWithoutEmail > 0 {
		notes = append(notes, fmt.Sprintf("%s customers with an overdue balance have no email address.", formatIntHuman(int64(portfolio.Stats.EligibleWithoutEmail))))
	}
	for _, similar := range ledger.SimilarNames(portfolio) {
		notes = append(notes, fmt.Sprintf("'%s' and '%s' may be the same customer (%s).", similar.Name, similar.Match, similar.Reason))
	}
	return notes
}

func newBarRow(label, detail string, amount, total decimal.Decimal, color string) barRow {
	percent := 0.0
	if total.IsPositive() {
		percent = amount.Div(total).InexactFloat64() * 100.0
	}

	barPercent := int(math.Round(percent))
	if amount.IsPositive() && barPercent == 0 {
		barPercent = 1
	}
	if barPercent > 100 {
		barPercent = 100
	}

	return barRow{Label: label, Detail: detail, Amount: amount, Percent: percent, Color: color, BarPercent: barPercent}
}

/*
buildCustomerRows lists customers that owe money, largest first, and groups overflow into "Other".
*/
func buildCustomerRows(ledgers []*ledger.Ledger, outstanding decimal.Decimal, maxRows int) []barRow {
	owing := make([]*ledger.Ledger, 0, len(ledgers))
	for _, customer := range ledgers {
		if customer.NetPayable.IsPositive() {
			owing = append(owing, customer)
		}
	}
	sort.SliceStable(owing, func(firstIndex int, secondIndex int) bool {
		return owing[firstIndex].NetPayable.GreaterThan(owing[secondIndex].NetPayable)
	})

	if maxRows < 3 {
		maxRows = 3
	}

	rows := make([]barRow, 0, min(len(owing), maxRows))
	for index, customer := range owing {
		if len(owing) > maxRows && index == maxRows-1 {
			otherAmount := decimal.Zero
			for _, rest := range owing[index:] {
				otherAmount = otherAmount.Add(rest.NetPayable)
			}
			detail := fmt.Sprintf("%s customers", formatIntHuman(int64(len(owing)-index)))
			rows = append(rows, newBarRow("Other", detail, otherAmount, outstanding, ""))
			break
		}
		detail := fmt.Sprintf("%s days oldest", formatIntHuman(int64(customer.OldestDaysOverdue)))
		rows = append(rows, newBarRow(customer.Name, detail, customer.NetPayable, outstanding, ""))
	}

	for index := 0; index < len(rows); index += 1 {
		rows[index].Color = customerColors[index%len(customerColors)]
	}
	return rows
}

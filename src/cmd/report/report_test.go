package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reminder/src/pkg/ledger"
	"invoice-reminder/src/pkg/session"
)

const agedCSV = "Customer,Email,Invoice,Amount,Due Date\n" +
	"Acme,ap@acme.test,INV-1,900,2023-12-01\n" +
	"Beta,,INV-2,100,2024-02-20\n" +
	"Gamma,,CR-1,-50,2024-02-01\n" +
	",,INV-9,5,2024-02-01\n" +
	"Delta,d@delta.test,INV-3,0,someday\n"

func testReport(t *testing.T, maxRows int) agingReport {
	t.Helper()
	upload, e := session.Load("aged.csv", strings.NewReader(agedCSV), 100)
	require.Nil(t, e)

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	options := reportOptions{AsOf: asOf, MaxRows: maxRows, ReportTitle: "Receivables aging, Paramount", CurrencySymbol: "$"}
	return buildAgingReport(options, upload, ledger.Aggregate(upload.Result.Rows, asOf))
}

func TestBuildAgingReport(t *testing.T) {
	report := testReport(t, 10)

	assert.True(t, report.Outstanding.Equal(decimal.NewFromInt(1000)))
	require.Len(t, report.Buckets, 3)
	assert.Equal(t, "0-30 days", report.Buckets[0].Label)
	assert.InDelta(t, 10.0, report.Buckets[0].Percent, 0.001)
	assert.Equal(t, 90, report.Buckets[2].BarPercent)

	require.Len(t, report.Customers, 2)
	assert.Equal(t, "Acme", report.Customers[0].Label)
	assert.Equal(t, "91 days oldest", report.Customers[0].Detail)

	notes := strings.Join(report.Notes, "\n")
	assert.Contains(t, notes, "1 rows had no customer")
	assert.Contains(t, notes, "1 rows have a due date that couldn't be read")
	assert.Contains(t, notes, "1 customers with an overdue balance have no email address")
}

func TestBuildCustomerRowsGroupsOther(t *testing.T) {
	ledgers := []*ledger.Ledger{}
	for index, amount := range []int64{10, 50, 30, 20, 40} {
		ledgers = append(ledgers, &ledger.Ledger{Name: string(rune('A' + index)), NetPayable: decimal.NewFromInt(amount)})
	}
	ledgers = append(ledgers, &ledger.Ledger{Name: "Credit", NetPayable: decimal.NewFromInt(-5)})

	rows := buildCustomerRows(ledgers, decimal.NewFromInt(150), 3)

	require.Len(t, rows, 3)
	assert.Equal(t, "B", rows[0].Label)
	assert.Equal(t, "E", rows[1].Label)
	assert.Equal(t, "Other", rows[2].Label)
	assert.Equal(t, "3 customers", rows[2].Detail)
	assert.True(t, rows[2].Amount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 40, rows[2].BarPercent)
	assert.NotEqual(t, rows[0].Color, rows[1].Color)
}

func TestRenderHTML(t *testing.T) {
	htmlText := renderHTML(testReport(t, 10))

	assert.True(t, strings.HasPrefix(htmlText, "<!doctype html>"))
	assert.Contains(t, htmlText, "Receivables aging, Paramount")
	assert.Contains(t, htmlText, "$1,000.00")
	assert.Contains(t, htmlText, "61+ days")
	assert.Contains(t, htmlText, "90.0%")
}

func TestRenderHTMLEmpty(t *testing.T) {
	htmlText := renderHTML(agingReport{Title: "<Empty>", CurrencySymbol: "$"})
	assert.Contains(t, htmlText, "&lt;Empty&gt;")
	assert.Contains(t, htmlText, "No customer owes money.")
}

func TestFormatIntHuman(t *testing.T) {
	assert.Equal(t, "0", formatIntHuman(0))
	assert.Equal(t, "1,234,567", formatIntHuman(1234567))
	assert.Equal(t, "-1,000", formatIntHuman(-1000))
}

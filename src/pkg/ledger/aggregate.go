/*
Group normalized rows into per-customer ledgers and summarize the portfolio.

Everything here is a pure function of its inputs: a Portfolio is rebuilt from
scratch on every call and never updated in place.
*/
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoice-reminder/src/pkg/ingest"
)

/*
Ledger holds one customer's rows and totals.

	TotalOverdue >= 0
	TotalCredits >= 0
	NetPayable == TotalOverdue - TotalCredits
*/
type Ledger struct {
	Name              string          `json:"name"`
	Email             string          `json:"email,omitempty"`
	Rows              []ingest.Row    `json:"rows"`
	OverdueRows       []ingest.Row    `json:"overdueRows"`
	CreditRows        []ingest.Row    `json:"creditRows"`
	TotalOverdue      decimal.Decimal `json:"totalOverdue"`
	TotalCredits      decimal.Decimal `json:"totalCredits"`
	NetPayable        decimal.Decimal `json:"netPayable"`
	OldestDaysOverdue int             `json:"oldestDaysOverdue"`
}

// Eligible reports whether the customer should get a reminder.
func (ledger *Ledger) Eligible() bool {
	return ledger != nil && len(ledger.OverdueRows) > 0 && ledger.NetPayable.IsPositive()
}

// Portfolio is the aggregate of one row set. Ledgers are in order of first appearance.
type Portfolio struct {
	Ledgers []*Ledger `json:"ledgers"`
	Aging   Aging     `json:"aging"`
	Stats   Stats     `json:"stats"`
	AsOf    time.Time `json:"asOf"`

	byName map[string]*Ledger
}

// Lookup returns the ledger for the exact customer name, or nil.
func (portfolio *Portfolio) Lookup(name string) *Ledger {
	if portfolio == nil || portfolio.byName == nil {
		return nil
	}
	return portfolio.byName[name]
}

// Names lists customer names in ledger order.
func (portfolio *Portfolio) Names() []string {
	names := make([]string, len(portfolio.Ledgers))
	for index, ledger := range portfolio.Ledgers {
		names[index] = ledger.Name
	}
	return names
}

// Stats are portfolio-wide counters shown on the dashboard.
type Stats struct {
	Customers              int             `json:"customers"`
	Rows                   int             `json:"rows"`
	EligibleCustomers      int             `json:"eligibleCustomers"`
	CustomersWithoutEmail  int             `json:"customersWithoutEmail"`
	TotalOverdue           decimal.Decimal `json:"totalOverdue"`
	TotalCredits           decimal.Decimal `json:"totalCredits"`
	NetPayable             decimal.Decimal `json:"netPayable"`
	EligibleWithoutEmail   int             `json:"eligibleWithoutEmail"`
	UnparseableDueDateRows int             `json:"unparseableDueDateRows"`
}

/*
Aggregate groups rows by exact trimmed customer name and computes totals and aging
as of now.

Rows with a positive amount are overdue, negative ones are credits, zero
rows are kept in Rows only. Blank customers are ignored: ingest never
produces them, and a hand-built row set shouldn't create an unnamed ledger.
*/
func Aggregate(rows []ingest.Row, now time.Time) Portfolio {
	portfolio := Portfolio{
		Ledgers: []*Ledger{},
		AsOf:    now,
		byName:  map[string]*Ledger{},
	}

	for _, row := range rows {
		name := strings.TrimSpace(row.Customer)
		if name == "" {
			continue
		}
		row.Customer = name

		ledger, exists := portfolio.byName[name]
		if !exists {
			ledger = &Ledger{
				Name:        name,
				Rows:        []ingest.Row{},
				OverdueRows: []ingest.Row{},
				CreditRows:  []ingest.Row{},
			}
			portfolio.byName[name] = ledger
			portfolio.Ledgers = append(portfolio.Ledgers, ledger)
		}
		addRow(ledger, row, now)

		portfolio.Stats.Rows++
		if _, parsed := ParseDueDate(row.DueDate); !parsed {
			portfolio.Stats.UnparseableDueDateRows++
		}
	}

	for _, ledger := range portfolio.Ledgers {
		ledger.NetPayable = ledger.TotalOverdue.Sub(ledger.TotalCredits)

		portfolio.Stats.Customers++
		portfolio.Stats.TotalOverdue = portfolio.Stats.TotalOverdue.Add(ledger.TotalOverdue)
		portfolio.Stats.TotalCredits = portfolio.Stats.TotalCredits.Add(ledger.TotalCredits)
		portfolio.Stats.NetPayable = portfolio.Stats.NetPayable.Add(ledger.NetPayable)
		if ledger.Email == "" {
			portfolio.Stats.CustomersWithoutEmail++
		}
		if ledger.Eligible() {
			portfolio.Stats.EligibleCustomers++
			if ledger.Email == "" {
				portfolio.Stats.EligibleWithoutEmail++
			}
		}
	}

	portfolio.Aging = bucketize(portfolio.Ledgers)
	return portfolio
}

func addRow(ledger *Ledger, row ingest.Row, now time.Time) {
	ledger.Rows = append(ledger.Rows, row)
	if ledger.Email == "" && row.Email != "" {
		ledger.Email = row.Email
	}

	switch row.Amount.Sign() {
	case 1:
		ledger.OverdueRows = append(ledger.OverdueRows, row)
		ledger.TotalOverdue = ledger.TotalOverdue.Add(row.Amount)
	case -1:
		ledger.CreditRows = append(ledger.CreditRows, row)
		ledger.TotalCredits = ledger.TotalCredits.Add(row.Amount.Abs())
	}

	days := DaysOverdue(row.DueDate, now)
	if days > ledger.OldestDaysOverdue {
		ledger.OldestDaysOverdue = days
	}
}

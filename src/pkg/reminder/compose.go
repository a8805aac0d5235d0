/*
Build reminder payloads from customer ledgers and render them as email content.
*/
package reminder

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"invoice-reminder/src/pkg/ledger"
)

const DefaultSubjectContext = "Overdue Invoices"

/*
Policy is everything about a reminder that isn't customer data.

Zero values are allowed: an empty CurrencySymbol prints bare numbers, an empty Brand is left out of
the subject and an empty SubjectContext means DefaultSubjectContext.
*/
type Policy struct {
	Brand           string `json:"brand"`
	Department      string `json:"department"`
	CurrencySymbol  string `json:"currencySymbol"`
	SubjectContext  string `json:"subjectContext"`
	TemplateID      string `json:"templateId,omitempty"`
	SubjectTemplate string `json:"subjectTemplate,omitempty"`
	BodyTemplate    string `json:"bodyTemplate,omitempty"`
	ReplyTo         string `json:"replyTo,omitempty"`
	PrimaryColor    string `json:"primaryColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
	InlineLogo      bool   `json:"inlineLogo,omitempty"` // html references cid:logo
}

type OverdueLine struct {
	InvoiceRef string          `json:"invoiceRef"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    string          `json:"dueDate"`
}

// CreditLine amounts are positive magnitudes.
type CreditLine struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
}

// Payload is the content of one reminder.
type Payload struct {
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email,omitempty"`
	Subject      string          `json:"subject"`
	OverdueRows  []OverdueLine   `json:"overdueRows"`
	CreditRows   []CreditLine    `json:"creditRows"`
	TotalOverdue decimal.Decimal `json:"totalOverdue"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	NetPayable   decimal.Decimal `json:"netPayable"`
}

/*
Compose builds the reminder for one customer, or returns nil when the
customer has nothing overdue or owes nothing once credits are applied.
A nil result is a skip, not a failure.
*/
func Compose(customer *ledger.Ledger, customerName string, policy Policy) *Payload {
	if !customer.Eligible() {
		return nil
	}

	payload := &Payload{
		CustomerName: customerName,
		Email:        customer.Email,
		OverdueRows:  make([]OverdueLine, 0, len(customer.OverdueRows)),
		CreditRows:   make([]CreditLine, 0, len(customer.CreditRows)),
		TotalOverdue: customer.TotalOverdue,
		TotalCredits: customer.TotalCredits,
		NetPayable:   customer.NetPayable,
	}
	for _, row := range customer.OverdueRows {
		payload.OverdueRows = append(payload.OverdueRows, OverdueLine{InvoiceRef: row.Invoice, Amount: row.Amount, DueDate: row.DueDate})
	}
	for _, row := range customer.CreditRows {
		payload.CreditRows = append(payload.CreditRows, CreditLine{Reference: row.Invoice, Amount: row.Amount.Abs(), Date: row.DueDate})
	}

	payload.Subject = Subject(payload, policy)
	return payload
}

/*
Subject renders "<Brand> <Context> - <CustomerName>".

A custom SubjectTemplate wins when it renders to something non-empty.
An empty context falls back to DefaultSubjectContext, an empty brand or
customer name is dropped. The result never contains control characters.
*/
func Subject(payload *Payload, policy Policy) string {
	if policy.SubjectTemplate != "" && payload != nil {
		custom := SingleLine(Substitute(policy.SubjectTemplate, TextValues(payload, policy)))
		if custom != "" {
			return custom
		}
	}

	name := ""
	if payload != nil {
		name = payload.CustomerName
	}
	return standardSubject(policy.Brand, policy.SubjectContext, name)
}

func standardSubject(brand, context, customerName string) string {
	context = SingleLine(context)
	if context == "" {
		context = DefaultSubjectContext
	}
	head := strings.Join(nonEmpty(SingleLine(brand), context), " ")
	name := SingleLine(customerName)
	if name == "" {
		return head
	}
	return head + " - " + name
}

// SingleLine turns control characters into spaces and collapses runs of whitespace.
func SingleLine(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func nonEmpty(parts ...string) []string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return kept
}
